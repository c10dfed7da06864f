package render

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prasadg/examsift/layout"
)

func TestSessionDirsUnique(t *testing.T) {
	r := NewRasterizer(t.TempDir(), 200)

	a, err := r.newSessionDir()
	if err != nil {
		t.Fatalf("newSessionDir: %v", err)
	}
	b, err := r.newSessionDir()
	if err != nil {
		t.Fatalf("newSessionDir: %v", err)
	}

	if a == b {
		t.Fatalf("two sessions share a directory: %s", a)
	}

	// Same page number renders to distinct files across sessions.
	pa := filepath.Join(a, "page_0.png")
	pb := filepath.Join(b, "page_0.png")
	if pa == pb {
		t.Errorf("page paths collide: %s", pa)
	}
}

func TestSessionDirCreatesParents(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "page_images")
	r := NewRasterizer(base, 200)

	dir, err := r.newSessionDir()
	if err != nil {
		t.Fatalf("newSessionDir: %v", err)
	}
	if !strings.HasPrefix(dir, base) {
		t.Errorf("session dir %s not under %s", dir, base)
	}
}

func TestAvailableMissingTool(t *testing.T) {
	r := NewRasterizer(t.TempDir(), 200)
	r.tool = "no-such-rasterizer-tool"

	if err := r.Available(); err == nil {
		t.Fatal("Available() = nil for a tool that is not on PATH")
	}
}

func TestRenderDocumentFailsFastWithoutRasterizer(t *testing.T) {
	r := New(layout.DefaultConfig(), t.TempDir(), 200, nil)
	r.raster.tool = "no-such-rasterizer-tool"

	_, err := r.RenderDocument(context.Background(), "irrelevant.pdf")
	if err == nil {
		t.Fatal("RenderDocument succeeded without a rasterizer")
	}
	if !strings.Contains(err.Error(), "rasterizer unavailable") {
		t.Errorf("error = %v, want rasterizer unavailable", err)
	}
}
