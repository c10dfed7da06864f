package diagram

import (
	"image"
	"image/color"
	"testing"

	gopdf "github.com/VantageDataChat/GoPDF2"
)

func TestPlausibleDiagram(t *testing.T) {
	tests := []struct {
		name string
		img  gopdf.ExtractedImage
		want bool
	}{
		{"normal figure", gopdf.ExtractedImage{Data: []byte{1}, Width: 200, Height: 150}, true},
		{"square", gopdf.ExtractedImage{Data: []byte{1}, Width: 100, Height: 100}, true},
		{"no data", gopdf.ExtractedImage{Width: 200, Height: 150}, false},
		{"too narrow", gopdf.ExtractedImage{Data: []byte{1}, Width: 40, Height: 200}, false},
		{"too short", gopdf.ExtractedImage{Data: []byte{1}, Width: 200, Height: 40}, false},
		{"thin horizontal sliver", gopdf.ExtractedImage{Data: []byte{1}, Width: 600, Height: 100}, false},
		{"thin vertical sliver", gopdf.ExtractedImage{Data: []byte{1}, Width: 100, Height: 600}, false},
		{"wide but acceptable", gopdf.ExtractedImage{Data: []byte{1}, Width: 400, Height: 100}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := plausibleDiagram(tt.img); got != tt.want {
				t.Errorf("plausibleDiagram(%dx%d) = %v, want %v",
					tt.img.Width, tt.img.Height, got, tt.want)
			}
		})
	}
}

func TestGrayVariance(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range blank.Pix {
		blank.Pix[i] = 255
	}
	if v := grayVariance(blank); v != 0 {
		t.Errorf("variance of blank image = %v, want 0", v)
	}

	// Checkerboard has maximal spread.
	board := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if (x+y)%2 == 0 {
				board.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	if v := grayVariance(board); v <= minVariance {
		t.Errorf("variance of checkerboard = %v, want > %v", v, minVariance)
	}
}

func TestRawPixelsToImageGray(t *testing.T) {
	data := []byte{0, 64, 128, 255}
	img := rawPixelsToImage(data, 2, 2, "DeviceGray")
	if img == nil {
		t.Fatal("rawPixelsToImage returned nil")
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("image type = %T, want *image.Gray", img)
	}
	if gray.GrayAt(1, 1).Y != 255 {
		t.Errorf("pixel (1,1) = %d, want 255", gray.GrayAt(1, 1).Y)
	}
}

func TestRawPixelsToImageRGB(t *testing.T) {
	data := []byte{
		255, 0, 0 /**/, 0, 255, 0,
		0, 0, 255 /**/, 10, 20, 30,
	}
	img := rawPixelsToImage(data, 2, 2, "DeviceRGB")
	if img == nil {
		t.Fatal("rawPixelsToImage returned nil")
	}
	r, g, b, a := img.At(0, 0).RGBA()
	if r>>8 != 255 || g != 0 || b != 0 || a>>8 != 255 {
		t.Errorf("pixel (0,0) = %d,%d,%d,%d, want opaque red", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestRawPixelsToImageTruncated(t *testing.T) {
	if img := rawPixelsToImage([]byte{1, 2, 3}, 10, 10, "DeviceRGB"); img != nil {
		t.Error("truncated data should yield nil")
	}
	if img := rawPixelsToImage(nil, 0, 0, "DeviceGray"); img != nil {
		t.Error("zero dimensions should yield nil")
	}
}

func TestUnfilterRowsSubAndUp(t *testing.T) {
	// 3 pixels wide, 2 rows, gray (1 byte per pixel).
	// Row 1: Sub filter, deltas 10, 5, 5 -> 10, 15, 20.
	// Row 2: Up filter, deltas 1, 1, 1  -> 11, 16, 21.
	data := []byte{
		1, 10, 5, 5,
		2, 1, 1, 1,
	}
	out := unfilterRows(data, 3, 2, 1)
	want := []byte{10, 15, 20, 11, 16, 21}
	if len(out) != len(want) {
		t.Fatalf("len = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestUnfilterRowsUnknownFilter(t *testing.T) {
	if out := unfilterRows([]byte{9, 1, 2, 3}, 3, 1, 1); out != nil {
		t.Error("unknown filter type should yield nil")
	}
}

func TestRawPixelsDetectsPredictor(t *testing.T) {
	// 2x2 gray with predictor: each row prefixed by filter byte 0.
	data := []byte{
		0, 100, 200,
		0, 50, 25,
	}
	img := rawPixelsToImage(data, 2, 2, "DeviceGray")
	if img == nil {
		t.Fatal("rawPixelsToImage returned nil")
	}
	gray := img.(*image.Gray)
	if gray.GrayAt(0, 0).Y != 100 || gray.GrayAt(1, 1).Y != 25 {
		t.Errorf("pixels = %d, %d; want 100, 25", gray.GrayAt(0, 0).Y, gray.GrayAt(1, 1).Y)
	}
}
