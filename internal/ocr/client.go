// Package ocr converts PDFs to Markdown through a MinerU file_parse service.
package ocr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// Options are the MinerU form fields sent with every request.
type Options struct {
	Lang          string
	Backend       string
	ParseMethod   string
	FormulaEnable bool
	TableEnable   bool
	// DeleteZip removes the downloaded archive after extraction.
	DeleteZip bool
}

// DefaultOptions matches a typical MinerU pipeline deployment.
func DefaultOptions() Options {
	return Options{
		Lang:          "ch",
		Backend:       "pipeline",
		ParseMethod:   "auto",
		FormulaEnable: true,
		TableEnable:   true,
		DeleteZip:     true,
	}
}

// Client talks to a MinerU /file_parse endpoint.
type Client struct {
	url        string
	opts       Options
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(url string, opts Options, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		url:  url,
		opts: opts,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Convert uploads pdfPath, stores the returned archive as <outDir>/<stem>.zip,
// extracts it next to the archive and returns <outDir>/<stem>/<stem>.md.
func (c *Client) Convert(ctx context.Context, pdfPath, outDir string) (string, error) {
	base := filepath.Base(pdfPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	log := c.log.With("file", base)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	zipPath := filepath.Join(outDir, stem+".zip")

	start := time.Now()
	if err := c.download(ctx, pdfPath, zipPath); err != nil {
		return "", err
	}
	log.Info("ocr archive saved", "path", zipPath, "duration_ms", time.Since(start).Milliseconds())

	n, err := Extract(zipPath, outDir)
	if err != nil {
		return "", err
	}
	log.Info("ocr archive extracted", "dir", outDir, "files", n)

	if c.opts.DeleteZip {
		if err := os.Remove(zipPath); err != nil {
			log.Warn("delete archive failed", "path", zipPath, "error", err)
		}
	}

	mdPath := filepath.Join(outDir, stem, stem+".md")
	if _, err := os.Stat(mdPath); err != nil {
		return "", fmt.Errorf("ocr output missing markdown: %w", err)
	}
	return mdPath, nil
}

func (c *Client) download(ctx context.Context, pdfPath, zipPath string) error {
	f, err := os.Open(pdfPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(c.writeForm(mw, f, filepath.Base(pdfPath)))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, pr)
	if err != nil {
		pr.Close()
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ocr status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("save archive: %w", err)
	}
	return out.Close()
}

func (c *Client) writeForm(mw *multipart.Writer, f io.Reader, filename string) error {
	fields := [][2]string{
		{"return_middle_json", "false"},
		{"return_model_output", "false"},
		{"return_md", "true"},
		{"return_images", "true"},
		{"return_content_list", "false"},
		{"start_page_id", "0"},
		{"end_page_id", "99999"},
		{"parse_method", c.opts.ParseMethod},
		{"lang_list", c.opts.Lang},
		{"backend", c.opts.Backend},
		{"formula_enable", fmt.Sprint(c.opts.FormulaEnable)},
		{"table_enable", fmt.Sprint(c.opts.TableEnable)},
		{"response_format_zip", "true"},
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return err
		}
	}

	part, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	return mw.Close()
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
