package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aitranscribe/internal/api/server"
	"aitranscribe/internal/app/api/gemini"
	openaiclient "aitranscribe/internal/app/api/openai"
	"aitranscribe/internal/app/api/openai/whisper"
	"aitranscribe/internal/app/logging"
	"aitranscribe/internal/app/transcription"
	"aitranscribe/internal/config"
)

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:          "serve",
	SilenceUsage: true,
	Short:        "Run the transcription endpoint that upload posts to",
	Long: `Run the transcription endpoint that upload posts to

- POST /transcribe accepts multipart/form-data with the audio in "file"
- Audio is transcribed with OpenAI Whisper (OPENAI_API_KEY)
- A Gemini summary is appended when GEMINI_API_KEY is set
- Only origins in ALLOWED_ORIGINS may call it from a browser`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")

		cfg, err := config.LoadServer(configFile)
		if err != nil {
			return fail(cmd, err)
		}

		apiKeys, err := config.GetAPIKeys()
		if err != nil {
			return fail(cmd, err)
		}
		if err := config.RequireTranscriptionKey(apiKeys); err != nil {
			return fail(cmd, err)
		}

		logger, err := logging.NewLogger(cfg.Server.Environment != "production")
		if err != nil {
			return fail(cmd, err)
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		transcriber := whisper.NewRemoteTranscriber(openaiclient.NewClient(apiKeys.OpenAI, os.Getenv("OPENAI_BASE_URL")))

		var summarizer transcription.Summarizer
		if apiKeys.Gemini != "" {
			s, err := gemini.NewSummarizer(ctx, apiKeys.Gemini, cfg.Server.GeminiModel)
			if err != nil {
				return fail(cmd, err)
			}
			summarizer = s
			logger.Info("Gemini summaries enabled", zap.String("model", cfg.Server.GeminiModel))
		}

		svc := transcription.NewService(transcriber, summarizer, "", logger)
		return server.NewServer(cfg.Server, svc, logger).Run(ctx)
	},
}

func fail(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "❌ %v\n", err)
	return err
}
