package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	decoded, err := Decode(samplePNG(t, 32, 16), 0)
	require.NoError(t, err)

	assert.Equal(t, "png", decoded.Format)
	assert.Equal(t, 32, decoded.Width)
	assert.Equal(t, 16, decoded.Height)
}

func TestDecodeJPEG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 20, 20))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}))

	decoded, err := Decode(buf.Bytes(), 0)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", decoded.Format)
}

func TestDecodeRejectsInvalidInput(t *testing.T) {
	valid := samplePNG(t, 64, 64)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"plain text", []byte("Take one tablet by mouth twice daily")},
		{"png signature only", valid[:8]},
		{"truncated png", valid[:len(valid)/2]},
		{"jpeg magic then garbage", append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x01}, 64)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := Decode(tt.data, 0)
			assert.Nil(t, decoded)
			assert.ErrorIs(t, err, ErrInvalidImage)
		})
	}
}

func TestEncodePNGRoundTrip(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 5))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	decoded, err := Decode(buf.Bytes(), 0)
	require.NoError(t, err)

	encoded, err := decoded.EncodePNG()
	require.NoError(t, err)

	again, err := Decode(encoded, 0)
	require.NoError(t, err)
	assert.Equal(t, "png", again.Format)
	assert.Equal(t, decoded.Width, again.Width)
	assert.Equal(t, decoded.Height, again.Height)
}

// pngHeaderOnly returns a PNG signature and IHDR declaring w x h 8-bit grayscale, with no pixel data
func pngHeaderOnly(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecodeRejectsOversizedDimensions(t *testing.T) {
	data := pngHeaderOnly(20000, 20000)

	decoded, err := Decode(data, 0)
	assert.Nil(t, decoded)
	assert.ErrorIs(t, err, ErrImageTooLarge)
	assert.NotErrorIs(t, err, ErrInvalidImage)
	assert.Contains(t, err.Error(), "20000x20000")
}

func TestDecodePixelLimit(t *testing.T) {
	data := samplePNG(t, 32, 16)

	_, err := Decode(data, 511)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	decoded, err := Decode(data, 512)
	require.NoError(t, err)
	assert.Equal(t, 32*16, decoded.Width*decoded.Height)
}
