package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sentinel-voice/sentinel/internal/capture"
	"github.com/sentinel-voice/sentinel/internal/client"
	"github.com/sentinel-voice/sentinel/internal/console"
	"github.com/sentinel-voice/sentinel/internal/pipeline"
	"github.com/sentinel-voice/sentinel/internal/stt"
)

var (
	flagWS           string
	flagDevice       int
	flagTargetRate   int
	flagChunkMs      int
	flagPreferTarget bool
	flagRMSThreshold int
	flagIdleTimeout  time.Duration
)

const statusInterval = 200 * time.Millisecond

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Capture the microphone and stream it for transcription",
	RunE:  runStream,
}

func init() {
	streamCmd.Flags().StringVar(&flagWS, "ws", "ws://localhost:8080/ws", "streaming endpoint")
	streamCmd.Flags().IntVar(&flagDevice, "device", -1, "input device index (see 'micstream devices'), -1 for default")
	streamCmd.Flags().IntVar(&flagTargetRate, "target-rate", 16000, "sample rate sent to the server")
	streamCmd.Flags().IntVar(&flagChunkMs, "chunk-ms", 100, "capture block size in milliseconds")
	streamCmd.Flags().BoolVar(&flagPreferTarget, "prefer-16k", false, "try capturing at the target rate first, skipping resampling")
	streamCmd.Flags().IntVar(&flagRMSThreshold, "rms-threshold", 300, "RMS level above which audio counts as voice")
	streamCmd.Flags().DurationVar(&flagIdleTimeout, "idle-timeout", 800*time.Millisecond, "voice hold time before the status shows IDLE")
}

func runStream(cmd *cobra.Command, args []string) error {
	ui := console.NewUI(os.Stdout)
	defer ui.Done()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printIdentity(ctx, ui)

	if err := capture.Init(); err != nil {
		return err
	}
	defer capture.Terminate()

	dev, err := capture.InputDevice(flagDevice)
	if err != nil {
		return err
	}
	format, err := capture.PickFormat(dev, flagTargetRate, flagPreferTarget)
	if err != nil {
		return err
	}
	ui.Println(fmt.Sprintf("device: %s | capture: %d Hz, %dch -> %d Hz mono",
		dev.Name, format.SampleRate, format.Channels, flagTargetRate))

	cond, err := pipeline.NewConditioner(pipeline.ConditionerConfig{
		InputRate:    format.SampleRate,
		Channels:     format.Channels,
		TargetRate:   flagTargetRate,
		RMSThreshold: flagRMSThreshold,
	})
	if err != nil {
		return err
	}

	queue := pipeline.NewQueue(pipeline.DefaultQueueDepth)

	blockFrames := format.SampleRate * flagChunkMs / 1000
	stream, err := capture.Open(dev, format, blockFrames, func(in []int16) {
		pcm, err := cond.Process(in)
		if err != nil || len(pcm) == 0 {
			return
		}
		queue.Enqueue(pcm)
	})
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}
	defer stream.Close()
	defer stream.Stop()

	wsURL, err := client.StreamURL(flagWS, flagTargetRate)
	if err != nil {
		return err
	}
	sup := client.NewSupervisor(client.SupervisorConfig{
		URL:       wsURL,
		Queue:     queue,
		OnConnect: func() { _ = cond.Reset() },
		OnFinal:   func(ev stt.Event) { ui.Println("FINAL: " + ev.Text) },
	})

	go statusLoop(ctx, ui, sup.Tracker(), cond)

	err = sup.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printIdentity(ctx context.Context, ui *console.UI) {
	id, err := client.FetchIdentity(ctx, flagWS)
	if err != nil {
		ui.Println("health check failed: " + err.Error())
		return
	}
	model := "-"
	if id.Model != nil {
		model = id.Model.Name
	}
	ui.Println(fmt.Sprintf("server: %s %s | engine: %s | model: %s | default rate: %d",
		id.App.Name, id.App.Version, id.Engine.Name, model, id.Defaults.SampleRate))
}

func statusLoop(ctx context.Context, ui *console.UI, tracker *client.Tracker, cond *pipeline.Conditioner) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ui.SetStatus(renderStatus(tracker, cond))
		}
	}
}

// renderStatus builds the status line. Until the connection is up only the
// connection state is shown; audio and partial indicators next to a dead
// connection would imply audio is going somewhere.
func renderStatus(tracker *client.Tracker, cond *pipeline.Conditioner) string {
	st := tracker.Status()
	switch st.State {
	case client.StateConnecting:
		return pad("CONNECTING...", 18)
	case client.StateReconnecting:
		label := "CONNECTION FAILED"
		if st.Reason != "" {
			label += " (" + st.Reason + ")"
		}
		return console.StyleBad.Render(pad(label, 18))
	}
	conn := console.StyleGood.Render(pad("CONNECTED", 18))

	audio := "IDLE"
	if lv := cond.LastVoice(); !lv.IsZero() && time.Since(lv) <= flagIdleTimeout {
		audio = "STRM"
	}

	snippet := tracker.Partial()
	if r := []rune(snippet); len(r) > 40 {
		snippet = string(r[:40]) + "…"
	}

	return fmt.Sprintf("%s %s %s", conn, audio, console.StyleDim.Render(snippet))
}

func pad(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}
