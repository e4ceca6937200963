/**
 * RxMind Backend - Main Entry Point
 *
 * Turns a photo of medical instructions into plain language:
 * - Image validation (full decode)
 * - Tesseract OCR
 * - Gemini simplification into a summary and checklist
 *
 * Commands:
 *   rxmind serve          HTTP API (POST /upload-image/, GET /health)
 *   rxmind scan <image>   run one image through the pipeline and print JSON
 */

package main

import (
	"fmt"
	"os"

	"github.com/rxmind/rxmind-backend/cmd/rxmind/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
