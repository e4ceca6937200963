/**
 * Image Validator
 *
 * Decodes uploaded bytes into pixels. Acceptance requires a full decode of
 * the encoded stream: a correct magic number followed by truncated or
 * corrupt data is rejected. Dimensions are read from the header first and
 * checked against a pixel budget before any pixel buffer is allocated.
 */

package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	// Registered decoders. Formats match what the mobile client can upload.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels is the pixel budget used when the caller passes none (40 MP)
const DefaultMaxPixels int64 = 40_000_000

var (
	// ErrInvalidImage is returned for any buffer that does not decode as an image
	ErrInvalidImage = errors.New("not a valid image")

	// ErrImageTooLarge is returned when the header declares more pixels than allowed
	ErrImageTooLarge = errors.New("image dimensions exceed the pixel limit")
)

// DecodedImage is a fully decoded upload ready for pixel access
type DecodedImage struct {
	Image  image.Image
	Format string // registered decoder name: "png", "jpeg", "gif", "bmp", "tiff", "webp"
	Width  int
	Height int
}

// Decode validates and decodes raw image bytes. maxPixels <= 0 means DefaultMaxPixels.
func Decode(data []byte, maxPixels int64) (*DecodedImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrInvalidImage)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	header, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if header.Width <= 0 || header.Height <= 0 {
		return nil, fmt.Errorf("%w: %s image has no pixels", ErrInvalidImage, format)
	}
	if pixels := int64(header.Width) * int64(header.Height); pixels > maxPixels {
		return nil, fmt.Errorf("%w: %s image is %dx%d (%d pixels, limit %d)",
			ErrImageTooLarge, format, header.Width, header.Height, pixels, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: %s image has no pixels", ErrInvalidImage, format)
	}

	return &DecodedImage{
		Image:  img,
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// EncodePNG re-encodes the pixels losslessly. The OCR engine receives PNG
// regardless of the uploaded format.
func (d *DecodedImage) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, d.Image); err != nil {
		return nil, fmt.Errorf("failed to encode %s image as png: %w", d.Format, err)
	}
	return buf.Bytes(), nil
}
