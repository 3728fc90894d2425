package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const pdfTimeout = 30 * time.Second

// pdfText shells out to poppler's pdftotext.
func pdfText(ctx context.Context, bin string, data []byte) (string, error) {
	if _, err := exec.LookPath(bin); err != nil {
		return "", fmt.Errorf("pdftotext not found: %w", err)
	}

	dir, err := os.MkdirTemp("", "mindmap-pdf-")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing temp pdf: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, pdfTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, "-enc", "UTF-8", "-eol", "unix", "-nopgbrk", "-q", path, "-")
	cmd.Env = append(os.Environ(), "LANG=C.UTF-8", "LC_ALL=C.UTF-8")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", errors.New("pdftotext timed out")
	}

	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	return string(out), nil
}
