package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	lpdf "github.com/ledongthuc/pdf"
)

// Extractor pulls text out of a PDF and, for scanned documents, renders pages to
// PNG with poppler's pdftoppm.
type Extractor struct {
	MaxPages int           // pages rendered by Render
	DPI      int           // pdftoppm resolution
	MaxSide  int           // rendered pages are downscaled to fit MaxSide x MaxSide
	Timeout  time.Duration // per pdftoppm run
}

func NewExtractor(maxPages int) *Extractor {
	if maxPages <= 0 {
		maxPages = 5
	}
	return &Extractor{MaxPages: maxPages, DPI: 100, MaxSide: 1600, Timeout: 60 * time.Second}
}

// Text returns the plain text of every page.
func (e *Extractor) Text(data []byte) (string, error) {
	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf: open: %w", err)
	}
	rd, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf: read text: %w", err)
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("pdf: read text: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Render rasterizes up to MaxPages pages and returns them as PNG bytes in page order.
func (e *Extractor) Render(ctx context.Context, data []byte) ([][]byte, error) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return nil, errors.New("pdftoppm not found in PATH")
	}
	dir, err := os.MkdirTemp("", "pages-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, err
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	prefix := filepath.Join(dir, "page")
	args := []string{"-png", "-r", strconv.Itoa(e.DPI), "-f", "1", "-l", strconv.Itoa(e.MaxPages), in, prefix}
	cmd := exec.CommandContext(ctx, "pdftoppm", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %v: %s", err, strings.TrimSpace(stderr.String()))
	}

	// pdftoppm zero-pads page numbers to the width of the last page.
	files, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	out := make([][]byte, 0, len(files))
	for _, f := range files {
		b, err := e.shrink(f)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, errors.New("pdftoppm produced no pages")
	}
	return out, nil
}

func (e *Extractor) shrink(path string) ([]byte, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	if e.MaxSide > 0 {
		img = imaging.Fit(img, e.MaxSide, e.MaxSide, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
