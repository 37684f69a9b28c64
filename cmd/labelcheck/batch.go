package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agenthands/labelcheck/internal/app"
	"github.com/agenthands/labelcheck/internal/core/batch"
	"github.com/agenthands/labelcheck/internal/core/model"
)

var (
	imagesDir       string
	applicationsDir string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Verify every label in a directory against applications with matching names",
	Long: `batch pairs label-01.png with label-01.json by file name and verifies
every complete pair concurrently. Unpaired files are reported, not skipped.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&imagesDir, "images", "", "Directory of label images (required)")
	batchCmd.Flags().StringVar(&applicationsDir, "applications", "", "Directory of application JSON files (default: --images)")
	_ = batchCmd.MarkFlagRequired("images")
}

func runBatch(cmd *cobra.Command, args []string) error {
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

	if applicationsDir == "" {
		applicationsDir = imagesDir
	}
	images, err := listFiles(imagesDir, func(name string) bool { return !strings.EqualFold(filepath.Ext(name), ".json") })
	if err != nil {
		return err
	}
	appFiles, err := listFiles(applicationsDir, func(name string) bool { return strings.EqualFold(filepath.Ext(name), ".json") })
	if err != nil {
		return err
	}

	var imgs []model.Image
	for _, p := range images {
		img, err := readImageFile(p)
		if err != nil {
			return err
		}
		imgs = append(imgs, img)
	}
	var apps []batch.NamedApplication
	for _, p := range appFiles {
		a, err := readApplicationFile(p)
		if err != nil {
			return err
		}
		apps = append(apps, batch.NamedApplication{Name: filepath.Base(p), Application: a})
	}

	b := batch.PairByStem(imgs, apps)
	if err := components.Runner.Run(ctx, b); err != nil {
		return err
	}

	tally := batch.Tally(b)
	fmt.Fprintf(cmd.ErrOrStderr(), "%d pairs: %d approved, %d review, %d rejected, %d errors\n",
		len(b.Pairs), tally["approved"], tally["review"], tally["rejected"], tally["error"])
	return printJSON(cmd.OutOrStdout(), b)
}

func listFiles(dir string, keep func(name string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !keep(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
