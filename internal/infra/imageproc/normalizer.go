package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
)

// Options bound the stored size of a question image.
type Options struct {
	MaxWidth  int
	MaxHeight int
	// WebPQuality > 0 re-encodes every upload as lossy webp. Zero keeps the
	// source format (webp sources become png).
	WebPQuality float32
}

// Normalizer decodes an upload, fits it into the bounding box and re-encodes it.
type Normalizer struct {
	opts Options
}

var _ app.ImageNormalizer = (*Normalizer)(nil)

func NewNormalizer(opts Options) *Normalizer {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 1600
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = 1600
	}
	return &Normalizer{opts: opts}
}

func (n *Normalizer) Normalize(data []byte, filename string) (app.NormalizedImage, error) {
	img, format, err := decode(data, filename)
	if err != nil {
		return app.NormalizedImage{}, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}

	b := img.Bounds()
	if b.Dx() > n.opts.MaxWidth || b.Dy() > n.opts.MaxHeight {
		img = imaging.Fit(img, n.opts.MaxWidth, n.opts.MaxHeight, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if n.opts.WebPQuality > 0 {
		if err := webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: n.opts.WebPQuality}); err != nil {
			return app.NormalizedImage{}, fmt.Errorf("encode webp: %w", err)
		}
		return app.NormalizedImage{Data: buf.Bytes(), Ext: "webp", ContentType: "image/webp"}, nil
	}

	out := app.NormalizedImage{Ext: "png", ContentType: "image/png"}
	target := imaging.PNG
	if format == "jpeg" {
		out = app.NormalizedImage{Ext: "jpg", ContentType: "image/jpeg"}
		target = imaging.JPEG
	}
	if err := imaging.Encode(buf, img, target, imaging.JPEGQuality(85)); err != nil {
		return app.NormalizedImage{}, fmt.Errorf("encode %s: %w", out.Ext, err)
	}
	out.Data = buf.Bytes()
	return out, nil
}

// decode sniffs the content type and falls back to the file extension.
func decode(data []byte, filename string) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty file")
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)

	format := ""
	switch {
	case strings.Contains(ct, "jpeg"):
		format = "jpeg"
	case strings.Contains(ct, "png"):
		format = "png"
	case strings.Contains(ct, "webp"):
		format = "webp"
	default:
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".jpg", ".jpeg":
			format = "jpeg"
		case ".png":
			format = "png"
		case ".webp":
			format = "webp"
		default:
			return nil, "", fmt.Errorf("unsupported format %s", ct)
		}
	}

	if format == "webp" {
		img, err := webp.Decode(bytes.NewReader(data))
		return img, format, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	return img, format, err
}
