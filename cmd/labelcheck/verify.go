package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agenthands/labelcheck/internal/app"
	"github.com/agenthands/labelcheck/internal/core/model"
)

var (
	imagePath       string
	applicationPath string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify one label image against an application JSON file",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&imagePath, "image", "", "Label image file (required)")
	verifyCmd.Flags().StringVar(&applicationPath, "application", "", "Application data JSON file (required)")
	_ = verifyCmd.MarkFlagRequired("image")
	_ = verifyCmd.MarkFlagRequired("application")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, _, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	components, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}

	img, err := readImageFile(imagePath)
	if err != nil {
		return err
	}
	appData, err := readApplicationFile(applicationPath)
	if err != nil {
		return err
	}

	res, err := components.Verifier.Verify(ctx, img, appData)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func readImageFile(path string) (model.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	return model.Image{Name: filepath.Base(path), Data: data}, nil
}

func readApplicationFile(path string) (*model.ApplicationData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read application: %w", err)
	}
	var appData model.ApplicationData
	if err := json.Unmarshal(data, &appData); err != nil {
		return nil, fmt.Errorf("invalid application JSON in %s: %w", path, err)
	}
	return &appData, nil
}
