package upload

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aitranscribe/internal/app/download"
	"aitranscribe/internal/app/logging"
	"aitranscribe/internal/app/notify"
	appupload "aitranscribe/internal/app/upload"
	"aitranscribe/internal/config"
)

var (
	endpoint    string
	outputDir   string
	metricsFile string
)

func init() {
	Cmd.Flags().StringVarP(&endpoint, "endpoint", "e", "",
		"transcription endpoint (default "+config.DefaultEndpoint+")")
	Cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "",
		"directory transcription.txt is saved to (default: current directory)")
	Cmd.Flags().Duration("timeout", 0, "give up after this long (default: no timeout)")
	Cmd.Flags().StringVar(&metricsFile, "metrics-file", "",
		"write upload metrics here in Prometheus text format (node_exporter textfile collector)")
}

// Cmd represents the upload command
var Cmd = &cobra.Command{
	Use:          "upload [file...]",
	SilenceUsage: true,
	Short:        "Upload an audio file and save the returned transcription.txt",
	Long: `Upload an audio file and save the returned transcription.txt

- Only the first file is sent
- The file is posted as multipart/form-data in the "file" field
- Whatever the service answers is saved as transcription.txt; an existing
  file is never overwritten, a numbered copy is written instead
- --metrics-file writes the outcome and duration for node_exporter`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		configFile, _ := cmd.Flags().GetString("config")

		cfg, err := config.LoadClient(configFile)
		if err != nil {
			return fail(cmd, err)
		}
		if endpoint != "" {
			cfg.Client.Endpoint = endpoint
		}
		if outputDir != "" {
			cfg.Client.OutputDir = outputDir
		}
		if cmd.Flags().Changed("timeout") {
			cfg.Client.Timeout, _ = cmd.Flags().GetDuration("timeout")
		}
		if metricsFile != "" {
			cfg.Client.MetricsFile = metricsFile
		}
		if err := cfg.ValidateClient(); err != nil {
			return fail(cmd, err)
		}

		logger, err := logging.NewCLILogger(verbose)
		if err != nil {
			return fail(cmd, err)
		}
		defer logger.Sync()

		registry := prometheus.NewRegistry()

		handler := appupload.NewHandler(
			appupload.WithEndpoint(cfg.Client.Endpoint),
			appupload.WithHTTPClient(&http.Client{Timeout: cfg.Client.Timeout}),
			appupload.WithSaver(download.NewFileSaver(cfg.Client.OutputDir)),
			appupload.WithNotifier(notify.NewConsoleNotifier(cmd.ErrOrStderr())),
			appupload.WithLogger(logger),
			appupload.WithMetrics(appupload.NewMetrics(registry)),
		)

		result := handler.Upload(context.Background(), appupload.SelectPaths(args...))

		if cfg.Client.MetricsFile != "" {
			if err := prometheus.WriteToTextfile(cfg.Client.MetricsFile, registry); err != nil {
				logger.Warn("Failed to write metrics file",
					zap.String("path", cfg.Client.MetricsFile),
					zap.Error(err),
				)
			}
		}

		if !result.OK() {
			return result.Err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Saved %s (%d bytes)\n", result.Path, result.Size)
		return nil
	},
}

func fail(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "❌ %v\n", err)
	return err
}
