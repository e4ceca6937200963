package commands

import (
	"context"
	"fmt"

	"github.com/rxmind/rxmind-backend/internal/clients"
	"github.com/rxmind/rxmind-backend/internal/config"
	"github.com/rxmind/rxmind-backend/internal/logging"
	"github.com/rxmind/rxmind-backend/internal/ocr"
	"github.com/rxmind/rxmind-backend/internal/processor"
	"github.com/rxmind/rxmind-backend/internal/storage"
)

// app is the wired pipeline shared by serve and scan
type app struct {
	processor *processor.UploadProcessor
	storage   *storage.StorageManager
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := logging.NewLogger("startup")

	// One client for the whole process, shared by every request
	gemini, err := clients.NewGeminiClient(ctx, &clients.GeminiConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	summarizer, err := processor.NewLLMSummarizer(gemini, cfg.LLMTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize summarizer: %w", err)
	}

	tesseract := ocr.NewTesseractOCR(&ocr.TesseractConfig{
		Languages:      cfg.TesseractLanguages(),
		TessdataPrefix: cfg.TessdataPrefix,
	})

	storageManager, err := storage.NewStorageManager(&storage.StorageConfig{
		DatabaseURL:  cfg.DatabaseURL,
		RedisURL:     cfg.RedisURL,
		EventChannel: storage.DefaultEventChannel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage manager: %w", err)
	}

	proc, err := processor.NewUploadProcessor(&processor.ProcessorConfig{
		Extractor:      tesseract,
		Summarizer:     summarizer,
		Recorder:       storageManager,
		MaxImagePixels: cfg.MaxImagePixels,
	})
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize upload processor: %w", err)
	}

	logger.Info("Pipeline initialized",
		"model", gemini.Model(),
		"ocrEngine", tesseract.Name(),
		"tesseractVersion", tesseract.Version(),
		"languages", cfg.TesseractLanguage,
		"sinks", storageManager.Enabled())

	return &app{processor: proc, storage: storageManager}, nil
}

func (a *app) Close() error {
	return a.storage.Close()
}
