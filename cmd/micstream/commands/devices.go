package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinel-voice/sentinel/internal/capture"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := capture.Init(); err != nil {
			return err
		}
		defer capture.Terminate()

		devs, err := capture.InputDevices()
		if err != nil {
			return err
		}
		if len(devs) == 0 {
			fmt.Println("no input devices found")
			return nil
		}

		for _, d := range devs {
			marker := "  "
			if d.Default {
				marker = "* "
			}
			fmt.Printf("%s[%2d] %s (%s) channels=%d default_rate=%.0f\n",
				marker, d.Index, d.Name, d.HostAPI, d.MaxInputChannels, d.DefaultSampleRate)
		}
		return nil
	},
}
