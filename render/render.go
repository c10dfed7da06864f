// Package render turns PDF pages into classified, rasterized page regions.
// Each page is classified by layout; two-column pages are split into a left
// and a right region so each column is parsed as its own section, in reading
// order.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ledongthuc/pdf"

	"github.com/prasadg/examsift/layout"
)

// Letter-size fallback when a page carries no usable MediaBox.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// ClipRect is a rectangle in page units (points), origin top-left.
type ClipRect struct {
	X0, Y0, X1, Y1 float64
}

// Region is one rasterized unit of a document: a full page, or one column
// of a two-column page. Regions are emitted in reading order; the Index
// label is unique within the document ("0", "1_L", "1_R", ...).
type Region struct {
	Index     string
	PageNo    int // 0-based
	Clip      *ClipRect
	Layout    layout.Kind
	ImagePath string
}

// Renderer classifies and rasterizes document pages.
type Renderer struct {
	classifier *layout.Classifier
	raster     *Rasterizer
	logger     *slog.Logger
}

// New creates a Renderer that writes page images under tempDir at the given
// DPI.
func New(cfg layout.Config, tempDir string, dpi int, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		classifier: layout.New(cfg),
		raster:     NewRasterizer(tempDir, dpi),
		logger:     logger,
	}
}

// RenderDocument converts every page of a PDF into one or more regions.
// Page images land in a directory unique to this call, so concurrent
// documents never overwrite each other's images.
func (r *Renderer) RenderDocument(ctx context.Context, pdfPath string) ([]Region, error) {
	if err := r.raster.Available(); err != nil {
		return nil, fmt.Errorf("rasterizer unavailable: %w", err)
	}

	f, reader, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	imageDir, err := r.raster.newSessionDir()
	if err != nil {
		return nil, err
	}

	var regions []Region
	for pageNo := 0; pageNo < reader.NumPage(); pageNo++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(pageNo + 1)
		text, blocks, width, height := pageGeometry(page)
		kind := r.classifier.Classify(text, blocks, width)

		r.logger.Debug("page classified",
			"pdf", pdfPath, "page", pageNo, "layout", string(kind), "blocks", len(blocks))

		if kind == layout.TwoColumn {
			mid := width / 2
			halves := []struct {
				suffix string
				clip   ClipRect
			}{
				{"L", ClipRect{0, 0, mid, height}},
				{"R", ClipRect{mid, 0, width, height}},
			}
			for _, h := range halves {
				clip := h.clip
				img, err := r.raster.RenderPage(ctx, pdfPath, imageDir, pageNo, &clip)
				if err != nil {
					return nil, fmt.Errorf("rendering page %d column %s: %w", pageNo, h.suffix, err)
				}
				regions = append(regions, Region{
					Index:     fmt.Sprintf("%d_%s", pageNo, h.suffix),
					PageNo:    pageNo,
					Clip:      &clip,
					Layout:    kind,
					ImagePath: img,
				})
			}
			continue
		}

		img, err := r.raster.RenderPage(ctx, pdfPath, imageDir, pageNo, nil)
		if err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", pageNo, err)
		}
		regions = append(regions, Region{
			Index:     strconv.Itoa(pageNo),
			PageNo:    pageNo,
			Layout:    kind,
			ImagePath: img,
		})
	}

	return regions, nil
}

// pageGeometry pulls the text, text blocks and dimensions used by layout
// classification. Malformed pages degrade to no text and default dimensions;
// the classifier then falls back to Single.
func pageGeometry(page pdf.Page) (text string, blocks []layout.Block, width, height float64) {
	width, height = defaultPageWidth, defaultPageHeight

	defer func() {
		// The pdf library panics on some malformed content streams.
		if recover() != nil {
			text, blocks = "", nil
		}
	}()

	if page.V.IsNull() {
		return "", nil, width, height
	}

	if box := page.V.Key("MediaBox"); !box.IsNull() {
		if w := box.Index(2).Float64(); w > 0 {
			width = w
		}
		if h := box.Index(3).Float64(); h > 0 {
			height = h
		}
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		text = ""
	}

	blocks = lineBlocks(page.Content().Text)
	return text, blocks, width, height
}
