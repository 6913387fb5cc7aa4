package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "micstream",
	Short: "Stream microphone audio to a sentinel speech-to-text server",
	Long: `micstream captures the microphone, conditions the audio (mono
downmix, voice activity, resampling) and streams it over a websocket to a
sentinel server, printing transcripts as they arrive.

The connection is supervised: drops reconnect immediately and the status
line on the last terminal row shows the connection and audio state.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(devicesCmd)
}
