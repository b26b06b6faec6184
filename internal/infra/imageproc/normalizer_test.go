package imageproc

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"math-quiz-service/internal/domain"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeDownscalesToBox(t *testing.T) {
	n := NewNormalizer(Options{MaxWidth: 100, MaxHeight: 100})

	out, err := n.Normalize(encodePNG(t, 400, 200), "graph.png")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if out.Ext != "png" || out.ContentType != "image/png" {
		t.Fatalf("unexpected output format %s %s", out.Ext, out.ContentType)
	}
	img, err := imaging.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("expected 100x50, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestNormalizeKeepsSmallImages(t *testing.T) {
	n := NewNormalizer(Options{MaxWidth: 100, MaxHeight: 100})

	out, err := n.Normalize(encodePNG(t, 40, 30), "small.png")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	img, _ := imaging.Decode(bytes.NewReader(out.Data))
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Fatalf("expected size kept, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestNormalizeEncodesWebP(t *testing.T) {
	n := NewNormalizer(Options{WebPQuality: 80})

	out, err := n.Normalize(encodePNG(t, 20, 20), "x.png")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if out.Ext != "webp" || out.ContentType != "image/webp" {
		t.Fatalf("expected webp output, got %s", out.Ext)
	}

	// the result must decode through the same path
	again, err := n.Normalize(out.Data, "x.webp")
	if err != nil {
		t.Fatalf("re-normalize webp: %v", err)
	}
	if again.Ext != "webp" {
		t.Fatalf("unexpected ext %s", again.Ext)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	n := NewNormalizer(Options{})

	if _, err := n.Normalize([]byte("not an image"), "notes.txt"); !errors.Is(err, domain.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
	if _, err := n.Normalize(nil, "empty.png"); !errors.Is(err, domain.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage for empty, got %v", err)
	}
}
