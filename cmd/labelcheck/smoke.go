package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var (
	smokeURL         string
	smokeImage       string
	smokeApplication string
)

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Exercise a running server's endpoints",
	Args:  cobra.NoArgs,
	RunE:  runSmoke,
}

func init() {
	smokeCmd.Flags().StringVar(&smokeURL, "url", "http://localhost:8080", "Server base URL")
	smokeCmd.Flags().StringVar(&smokeImage, "image", "", "Label image to verify (optional)")
	smokeCmd.Flags().StringVar(&smokeApplication, "application", "", "Application JSON for --image")
}

func runSmoke(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: timeout}
	out := cmd.OutOrStdout()
	failed := 0

	check := func(name string, ok bool, detail string) {
		if ok {
			fmt.Fprintf(out, "PASSED: %s\n", name)
			return
		}
		failed++
		fmt.Fprintf(out, "FAILED: %s (%s)\n", name, detail)
	}

	fmt.Fprintln(out, "Starting smoke test against", smokeURL)

	status, body, err := send(client, http.MethodGet, "/healthz", nil, "")
	check("health", err == nil && status == http.StatusOK, describe(status, body, err))

	status, body, err = send(client, http.MethodGet, "/api/schema", nil, "")
	var schemaResp struct {
		Version string            `json:"version"`
		Fields  []json.RawMessage `json:"fields"`
	}
	ok := err == nil && status == http.StatusOK && json.Unmarshal(body, &schemaResp) == nil && len(schemaResp.Fields) > 0
	check("schema", ok, describe(status, body, err))

	form, ctype, err := multipartBody(nil, "", []byte(`{"brandName": "SMOKE"}`))
	if err != nil {
		return err
	}
	status, body, err = send(client, http.MethodPost, "/api/verify", form, ctype)
	check("verify rejects missing image", err == nil && status == http.StatusBadRequest, describe(status, body, err))

	if smokeImage != "" {
		img, err := os.ReadFile(smokeImage)
		if err != nil {
			return err
		}
		appJSON := []byte("{}")
		if smokeApplication != "" {
			if appJSON, err = os.ReadFile(smokeApplication); err != nil {
				return err
			}
		}
		form, ctype, err := multipartBody(img, filepath.Base(smokeImage), appJSON)
		if err != nil {
			return err
		}
		start := time.Now()
		status, body, err = send(client, http.MethodPost, "/api/verify", form, ctype)
		var res struct {
			OverallStatus string `json:"overallStatus"`
			Summary       string `json:"summary"`
		}
		ok := err == nil && status == http.StatusOK && json.Unmarshal(body, &res) == nil && res.OverallStatus != ""
		check("verify", ok, describe(status, body, err))
		if ok {
			fmt.Fprintf(out, "  %s in %s: %s\n", res.OverallStatus, time.Since(start).Round(time.Millisecond), res.Summary)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d smoke checks failed", failed)
	}
	fmt.Fprintln(out, "All smoke checks passed")
	return nil
}

func send(client *http.Client, method, path string, body []byte, contentType string) (int, []byte, error) {
	req, err := http.NewRequest(method, smokeURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return resp.StatusCode, data, err
}

func multipartBody(image []byte, filename string, appJSON []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if image != nil {
		fw, err := w.CreateFormFile("image", filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(image); err != nil {
			return nil, "", err
		}
	}
	if err := w.WriteField("applicationData", string(appJSON)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func describe(status int, body []byte, err error) string {
	if err != nil {
		return err.Error()
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("status %d: %s", status, body)
}
