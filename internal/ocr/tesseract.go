/**
 * Tesseract OCR - Text extraction for uploaded prescriptions and discharge notes
 *
 * Runs the whole image through Tesseract with no region selection and no
 * preprocessing. One gosseract client is created per call because the
 * underlying TessBaseAPI handle is not safe for concurrent use.
 */

package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/rxmind/rxmind-backend/internal/imaging"
	"github.com/rxmind/rxmind-backend/internal/logging"
)

// EngineName identifies this extractor in logs, errors and the ledger
const EngineName = "tesseract"

// TesseractOCR handles OCR using Tesseract
type TesseractOCR struct {
	languages      []string
	tessdataPrefix string
	logger         *logging.Logger
}

// TesseractConfig holds Tesseract configuration
type TesseractConfig struct {
	Languages      []string
	TessdataPrefix string
}

// NewTesseractOCR creates a new Tesseract OCR instance
func NewTesseractOCR(cfg *TesseractConfig) *TesseractOCR {
	if cfg == nil {
		cfg = &TesseractConfig{}
	}

	languages := cfg.Languages
	if len(languages) == 0 {
		languages = []string{"eng"}
	}

	return &TesseractOCR{
		languages:      languages,
		tessdataPrefix: cfg.TessdataPrefix,
		logger:         logging.NewLogger("TesseractOCR"),
	}
}

// Name returns the engine name
func (t *TesseractOCR) Name() string {
	return EngineName
}

// Version returns the linked libtesseract version
func (t *TesseractOCR) Version() string {
	return gosseract.Version()
}

// ExtractText runs OCR on the full image and returns the trimmed text.
// An image without readable text yields an empty string, not an error.
func (t *TesseractOCR) ExtractText(ctx context.Context, img *imaging.DecodedImage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if img == nil {
		return "", fmt.Errorf("no image to process")
	}

	startTime := time.Now()

	pngData, err := img.EncodePNG()
	if err != nil {
		return "", err
	}

	// Create Tesseract client
	client := gosseract.NewClient()
	defer client.Close()

	if t.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.tessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}

	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("failed to set language %v: %w", t.languages, err)
	}

	// Set image from bytes
	if err := client.SetImageFromBytes(pngData); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	// Extract text
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract OCR failed: %w", err)
	}

	text = strings.TrimSpace(text)

	t.logger.Debug("OCR complete",
		"format", img.Format,
		"width", img.Width,
		"height", img.Height,
		"textLength", len(text),
		"duration", time.Since(startTime))

	return text, nil
}
