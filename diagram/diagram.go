// Package diagram pulls genuine figure images out of a PDF, filtering away
// logos, decorative strips and blank fills, and saves the survivors as PNG
// files for attachment to questions.
package diagram

import (
	"bytes"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	gopdf "github.com/VantageDataChat/GoPDF2"
)

// Filter thresholds. Embedded exam figures are comfortably larger than
// bullets and logos, roughly square-ish, and never blank.
const (
	minSide     = 80
	minAspect   = 0.2
	maxAspect   = 5.0
	minVariance = 80.0
)

// Diagram is one extracted figure saved to disk.
type Diagram struct {
	Path   string
	Width  int
	Height int
}

// Extractor extracts diagrams from PDF documents into a directory.
type Extractor struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{dir: dir, logger: logger}
}

// ExtractDocument scans all embedded images in the document and returns the
// plausible diagrams grouped by 0-based page index, in extraction order.
// Extraction is best-effort: an unreadable document yields an empty map, and
// an undecodable image is skipped rather than failing the document.
func (e *Extractor) ExtractDocument(pdfData []byte) map[int][]Diagram {
	result := make(map[int][]Diagram)

	imgMap, err := extractImages(pdfData)
	if err != nil {
		e.logger.Warn("diagram extraction failed", "error", err)
		return result
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		e.logger.Warn("creating diagram dir", "dir", e.dir, "error", err)
		return result
	}

	seen := make(map[[md5.Size]byte]bool)
	for pageIdx, imgs := range imgMap {
		for _, img := range imgs {
			if !plausibleDiagram(img) {
				continue
			}
			hash := md5.Sum(img.Data)
			if seen[hash] {
				continue
			}
			seen[hash] = true

			decoded := decodeEmbedded(img)
			if decoded == nil {
				continue
			}
			if grayVariance(decoded) <= minVariance {
				// Nearly uniform fill, not a figure.
				continue
			}

			path, err := e.save(pageIdx, decoded)
			if err != nil {
				e.logger.Warn("saving diagram", "page", pageIdx, "error", err)
				continue
			}
			result[pageIdx] = append(result[pageIdx], Diagram{
				Path:   path,
				Width:  img.Width,
				Height: img.Height,
			})
		}
	}
	return result
}

// extractImages isolates the library call so a panic on a malformed PDF
// degrades to an error.
func extractImages(pdfData []byte) (m map[int][]gopdf.ExtractedImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("image extraction panic: %v", r)
		}
	}()
	return gopdf.ExtractImagesFromAllPages(pdfData)
}

// plausibleDiagram applies the cheap geometric filters before any decoding.
func plausibleDiagram(img gopdf.ExtractedImage) bool {
	if len(img.Data) == 0 {
		return false
	}
	if img.Width < minSide || img.Height < minSide {
		return false
	}
	ar := float64(img.Width) / float64(img.Height)
	return ar > minAspect && ar < maxAspect
}

// decodeEmbedded turns an embedded PDF image into a decoded image.
// DCTDecode and JPXDecode data is already a standard image stream;
// FlateDecode data is raw pixels, possibly PNG-predictor filtered.
func decodeEmbedded(img gopdf.ExtractedImage) image.Image {
	if img.Filter == "FlateDecode" {
		return rawPixelsToImage(img.Data, img.Width, img.Height, img.ColorSpace)
	}
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		// Some writers leave the filter field empty for raw streams.
		return rawPixelsToImage(img.Data, img.Width, img.Height, img.ColorSpace)
	}
	return decoded
}

func (e *Extractor) save(pageIdx int, img image.Image) (string, error) {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	path := filepath.Join(e.dir, fmt.Sprintf("%d_%s.png", pageIdx, hex.EncodeToString(suffix)))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
