package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rxmind/rxmind-backend/internal/processor"
	"github.com/rxmind/rxmind-backend/internal/server"
)

var scanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Run one image through the pipeline and print the JSON response",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	path := args[0]

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if info.Size() > cfg.MaxUploadSize {
		return writeJSON(cmd.OutOrStdout(), server.ErrorPayload{
			Detail: fmt.Sprintf("Uploaded file exceeds the maximum size of %d bytes", cfg.MaxUploadSize),
		}, fmt.Errorf("%s is %d bytes", path, info.Size()))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.processor.ProcessUpload(cmd.Context(), &processor.Upload{
		RequestID:   uuid.NewString(),
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Data:        data,
	})
	if err != nil {
		_, payload := server.ErrorResponse(err)
		return writeJSON(cmd.OutOrStdout(), payload, err)
	}

	return writeJSON(cmd.OutOrStdout(), server.NewResponsePayload(result), nil)
}

// writeJSON prints v and passes through failure so the exit code is non-zero
func writeJSON(w io.Writer, v interface{}, failure error) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return failure
}
