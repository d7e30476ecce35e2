package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"strings"

	"github.com/disintegration/imaging"

	"streetguide-server-go/internal/platform/config"
	"streetguide-server-go/internal/platform/errors"
	"streetguide-server-go/internal/platform/logging"
)

const diversitySample = 100

// Decoder turns client base64 payloads into validated JPEG images.
type Decoder struct {
	validator *SecurityValidator
	config    *config.ImageConfig
	logger    *logging.Logger
}

// NewDecoder constructs a decoder using the given image limits.
func NewDecoder(cfg *config.ImageConfig, logger *logging.Logger) *Decoder {
	if cfg == nil {
		cfg = &config.DefaultConfig().Image
	}
	if logger == nil {
		logger = logging.DefaultLogger
	}
	return &Decoder{
		validator: NewSecurityValidator(cfg, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Decode strips an optional data URL prefix, decodes the base64 body,
// validates it, flattens it to opaque RGB, bounds its longest edge and
// re-encodes it as JPEG.
func (d *Decoder) Decode(ctx context.Context, raw string) (*Decoded, error) {
	const op = "image.decode"

	payload, declared := splitDataURL(raw)
	if payload == "" {
		return nil, errors.New(errors.KindImage, op, "empty image payload")
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, errors.Wrap(errors.KindImage, op, "invalid base64 payload", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	validation := d.validator.ValidateBytes(data, declared)
	if !validation.IsValid {
		return nil, errors.Wrap(errors.KindImage, op, "image rejected: "+validation.SecurityRisk, validation.Error)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.KindImage, op, "decode image", err)
	}

	diversity := ColorDiversity(src, diversitySample)
	d.logger.DebugTag("图像", "图像解码完成: format=%s size=%dx%d 颜色多样性=%d",
		format, src.Bounds().Dx(), src.Bounds().Dy(), diversity)

	img := flatten(src)
	if maxDim := d.config.MaxDimension; maxDim > 0 && (img.Bounds().Dx() > maxDim || img.Bounds().Dy() > maxDim) {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	quality := d.config.JPEGQuality
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.Wrap(errors.KindImage, op, "encode jpeg", err)
	}

	encoded := buf.Bytes()
	return &Decoded{
		Bytes:          encoded,
		Base64:         base64.StdEncoding.EncodeToString(encoded),
		MIME:           "image/jpeg",
		Width:          img.Bounds().Dx(),
		Height:         img.Bounds().Dy(),
		SourceFormat:   format,
		ColorDiversity: diversity,
	}, nil
}

// splitDataURL returns the base64 body and, for data: URLs, the declared format.
func splitDataURL(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	idx := strings.Index(raw, ",")
	if idx < 0 {
		return raw, ""
	}

	header := raw[:idx]
	body := raw[idx+1:]

	declared := ""
	if strings.HasPrefix(header, "data:image/") {
		declared = strings.TrimPrefix(header, "data:image/")
		if semi := strings.Index(declared, ";"); semi >= 0 {
			declared = declared[:semi]
		}
	}
	return strings.TrimSpace(body), declared
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, payload)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

// flatten composites img over white so the result is opaque RGB.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// ColorDiversity counts the distinct colours among the first limit pixels in
// row-major order.
func ColorDiversity(img image.Image, limit int) int {
	b := img.Bounds()
	seen := make(map[[4]uint32]struct{}, limit)
	count := 0
	for y := b.Min.Y; y < b.Max.Y && count < limit; y++ {
		for x := b.Min.X; x < b.Max.X && count < limit; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			seen[[4]uint32{r, g, bl, a}] = struct{}{}
			count++
		}
	}
	return len(seen)
}
