package ocr

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Extract unpacks zipPath into dest and returns the number of files written.
// Entries that would land outside dest are rejected.
func Extract(zipPath, dest string) (int, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	root, err := filepath.Abs(dest)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, zf := range zr.File {
		target := filepath.Join(root, filepath.FromSlash(zf.Name))
		if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
			return n, fmt.Errorf("archive entry %q escapes %s", zf.Name, dest)
		}

		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return n, err
			}
			continue
		}
		if err := extractFile(zf, target); err != nil {
			return n, fmt.Errorf("extract %s: %w", zf.Name, err)
		}
		n++
	}
	return n, nil
}

func extractFile(zf *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
