// Package main provides the sentinel microphone streaming client.
//
// Usage:
//
//	micstream stream [flags]   - capture the microphone and stream it
//	micstream devices          - list audio input devices
package main

import (
	"fmt"
	"os"

	"github.com/sentinel-voice/sentinel/cmd/micstream/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
