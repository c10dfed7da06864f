package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Rasterizer renders PDF pages to PNG via the poppler pdftoppm tool.
type Rasterizer struct {
	tempDir string
	dpi     int
	tool    string
}

func NewRasterizer(tempDir string, dpi int) *Rasterizer {
	return &Rasterizer{
		tempDir: tempDir,
		dpi:     dpi,
		tool:    "pdftoppm",
	}
}

// Available reports whether the rasterizer tool can be found on PATH.
func (r *Rasterizer) Available() error {
	if _, err := exec.LookPath(r.tool); err != nil {
		return fmt.Errorf("%s not found on PATH: %w", r.tool, err)
	}
	return nil
}

// newSessionDir creates a unique directory for one document's page images.
// Image names repeat across documents (page_0.png, ...), so concurrent
// documents each render into their own directory.
func (r *Rasterizer) newSessionDir() (string, error) {
	if err := os.MkdirAll(r.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("creating image dir: %w", err)
	}
	dir, err := os.MkdirTemp(r.tempDir, "doc_")
	if err != nil {
		return "", fmt.Errorf("creating session dir: %w", err)
	}
	return dir, nil
}

// RenderPage rasterizes one page, or a clip region of it, to a PNG file
// under dir and returns the file path. pageNo is 0-based; clip is in page
// points with a top-left origin.
func (r *Rasterizer) RenderPage(ctx context.Context, pdfPath, dir string, pageNo int, clip *ClipRect) (string, error) {
	name := fmt.Sprintf("page_%d", pageNo)
	if clip != nil {
		if clip.X0 == 0 {
			name += "_L"
		} else {
			name += "_R"
		}
	}
	prefix := filepath.Join(dir, name)

	pageArg := strconv.Itoa(pageNo + 1) // pdftoppm pages are 1-based
	args := []string{
		"-png",
		"-r", strconv.Itoa(r.dpi),
		"-f", pageArg,
		"-l", pageArg,
		"-singlefile",
	}
	if clip != nil {
		// pdftoppm clips in output pixels, not page points.
		scale := float64(r.dpi) / 72.0
		args = append(args,
			"-x", strconv.Itoa(int(clip.X0*scale)),
			"-y", strconv.Itoa(int(clip.Y0*scale)),
			"-W", strconv.Itoa(int((clip.X1-clip.X0)*scale)),
			"-H", strconv.Itoa(int((clip.Y1-clip.Y0)*scale)),
		)
	}
	args = append(args, pdfPath, prefix)

	cmd := exec.CommandContext(ctx, r.tool, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%s page %d failed: %s: %w", r.tool, pageNo, strings.TrimSpace(string(out)), err)
	}

	return prefix + ".png", nil
}
