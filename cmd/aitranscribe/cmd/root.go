package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"aitranscribe/cmd/aitranscribe/cmd/serve"
	"aitranscribe/cmd/aitranscribe/cmd/upload"
	"aitranscribe/cmd/aitranscribe/cmd/version"
)

var (
	Verbose    bool
	ConfigFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aitranscribe",
	Short: "Send audio to a transcription service and save the transcript",
	Long: `Send audio to a transcription service and save the transcript.
- upload posts a file to the transcription endpoint and saves transcription.txt
- serve runs the transcription endpoint itself (OpenAI Whisper, optional Gemini summary)`,
	SilenceUsage:     true,
	SilenceErrors:    true,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(upload.Cmd)
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&ConfigFile, "config", "c", "", "YAML config file")
}
