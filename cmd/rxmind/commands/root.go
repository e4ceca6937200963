package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rxmind/rxmind-backend/internal/config"
	"github.com/rxmind/rxmind-backend/internal/logging"
)

var (
	envFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rxmind",
	Short: "RxMind - medical instruction simplifier",
	Long: `RxMind reads a photo of medical instructions, extracts the text with
Tesseract and asks Gemini for a plain-language summary and checklist.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is a development convenience; production reads the real environment
		if os.Getenv("APP_ENV") != "production" {
			if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
				return fmt.Errorf("load env file %s: %w", envFile, err)
			}
		}

		loaded, err := config.LoadConfig()
		if err != nil {
			return err
		}
		cfg = loaded

		if err := logging.Setup(cfg.LogLevel, cfg.AppEnv); err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded outside production")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
