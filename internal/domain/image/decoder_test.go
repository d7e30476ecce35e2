package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streetguide-server-go/internal/platform/config"
	"streetguide-server-go/internal/platform/errors"
	platformtesting "streetguide-server-go/internal/platform/testing"
)

func testImageConfig() *config.ImageConfig {
	cfg := config.DefaultConfig().Image
	return &cfg
}

func encodePNG(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	return img
}

func TestDecoder_DecodePNG(t *testing.T) {
	d := NewDecoder(testImageConfig(), platformtesting.SetupTestLogger(t))

	out, err := d.Decode(context.Background(), encodePNG(t, gradient(20, 10)))
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", out.MIME)
	assert.Equal(t, "png", out.SourceFormat)
	assert.Equal(t, 20, out.Width)
	assert.Equal(t, 10, out.Height)
	assert.True(t, strings.HasPrefix(out.DataURL(), "data:image/jpeg;base64,"))

	_, err = jpeg.Decode(bytes.NewReader(out.Bytes))
	assert.NoError(t, err)
}

func TestDecoder_DataURLPrefix(t *testing.T) {
	d := NewDecoder(testImageConfig(), platformtesting.SetupTestLogger(t))

	out, err := d.Decode(context.Background(), "data:image/png;base64,"+encodePNG(t, gradient(4, 4)))
	require.NoError(t, err)
	assert.Equal(t, "png", out.SourceFormat)
}

func TestDecoder_UnpaddedBase64(t *testing.T) {
	d := NewDecoder(testImageConfig(), platformtesting.SetupTestLogger(t))
	payload := strings.TrimRight(encodePNG(t, gradient(3, 3)), "=")

	_, err := d.Decode(context.Background(), payload)
	assert.NoError(t, err)
}

func TestDecoder_Downscale(t *testing.T) {
	cfg := testImageConfig()
	cfg.MaxDimension = 16
	d := NewDecoder(cfg, platformtesting.SetupTestLogger(t))

	out, err := d.Decode(context.Background(), encodePNG(t, gradient(64, 32)))
	require.NoError(t, err)
	assert.Equal(t, 16, out.Width)
	assert.Equal(t, 8, out.Height)
}

func TestDecoder_FlattensTransparency(t *testing.T) {
	d := NewDecoder(testImageConfig(), platformtesting.SetupTestLogger(t))
	transparent := image.NewNRGBA(image.Rect(0, 0, 8, 8))

	out, err := d.Decode(context.Background(), encodePNG(t, transparent))
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out.Bytes))
	require.NoError(t, err)
	r, g, b, _ := decoded.At(4, 4).RGBA()
	// fully transparent pixels become white
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestDecoder_Rejects(t *testing.T) {
	d := NewDecoder(testImageConfig(), platformtesting.SetupTestLogger(t))
	small := testImageConfig()
	small.MaxWidth = 4
	tight := NewDecoder(small, platformtesting.SetupTestLogger(t))

	tests := []struct {
		name    string
		decoder *Decoder
		payload string
	}{
		{name: "empty", decoder: d, payload: ""},
		{name: "not base64", decoder: d, payload: "###not-base64###"},
		{name: "not an image", decoder: d, payload: base64.StdEncoding.EncodeToString([]byte("hello world"))},
		{name: "executable", decoder: d, payload: base64.StdEncoding.EncodeToString([]byte{0x4D, 0x5A, 0x90, 0x00})},
		{name: "too wide", decoder: tight, payload: encodePNG(t, gradient(10, 2))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.decoder.Decode(context.Background(), tt.payload)
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindImage), "kind = %s", errors.KindOf(err))
		})
	}
}

func TestSecurityValidator_DisallowedFormat(t *testing.T) {
	cfg := testImageConfig()
	cfg.AllowedFormats = []string{"jpeg"}
	v := NewSecurityValidator(cfg, platformtesting.SetupTestLogger(t))

	raw, err := base64.StdEncoding.DecodeString(encodePNG(t, gradient(2, 2)))
	require.NoError(t, err)

	res := v.ValidateBytes(raw, "")
	assert.False(t, res.IsValid)
	assert.Equal(t, "unapproved format", res.SecurityRisk)
}

func TestSecurityValidator_SVGScript(t *testing.T) {
	v := NewSecurityValidator(testImageConfig(), platformtesting.SetupTestLogger(t))

	res := v.ValidateBytes([]byte(`<svg onload="alert(1)"></svg>`), "")
	assert.False(t, res.IsValid)
	assert.Equal(t, "suspicious content", res.SecurityRisk)
}

func TestColorDiversity(t *testing.T) {
	solid := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	assert.Equal(t, 1, ColorDiversity(solid, 100))

	// 20 distinct x values per row; the first 100 pixels cover five rows.
	assert.Equal(t, 100, ColorDiversity(gradient(20, 20), 100))
	assert.Equal(t, 4, ColorDiversity(gradient(2, 2), 100))
}

func TestSplitDataURL(t *testing.T) {
	body, format := splitDataURL("data:image/webp;base64,QUJD")
	assert.Equal(t, "QUJD", body)
	assert.Equal(t, "webp", format)

	body, format = splitDataURL("  QUJD  ")
	assert.Equal(t, "QUJD", body)
	assert.Empty(t, format)
}
