package pipeline

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	resampling "github.com/tphakala/go-audio-resampling"
)

type ConditionerConfig struct {
	// InputRate and Channels describe the capture format.
	InputRate int
	Channels  int

	// TargetRate is the rate the server expects.
	TargetRate int

	// RMSThreshold separates voice from room noise.
	RMSThreshold int
}

// Conditioner turns raw capture blocks into mono 16-bit PCM at the target
// rate. One conditioner carries the resampler state for one connection, so
// consecutive blocks convert without boundary artifacts; Reset starts a
// fresh state for a new connection.
type Conditioner struct {
	cfg ConditionerConfig

	mu  sync.Mutex
	res resampling.Resampler

	lastVoice atomic.Int64
	lastRMS   atomic.Int64
}

func NewConditioner(cfg ConditionerConfig) (*Conditioner, error) {
	if cfg.InputRate <= 0 || cfg.TargetRate <= 0 {
		return nil, fmt.Errorf("invalid rates %d -> %d", cfg.InputRate, cfg.TargetRate)
	}
	if cfg.Channels != 1 && cfg.Channels != 2 {
		return nil, fmt.Errorf("unsupported channel count %d", cfg.Channels)
	}
	c := &Conditioner{cfg: cfg}
	if err := c.reset(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Conditioner) reset() error {
	if c.cfg.InputRate == c.cfg.TargetRate {
		c.res = nil
		return nil
	}
	res, err := resampling.New(&resampling.Config{
		InputRate:  float64(c.cfg.InputRate),
		OutputRate: float64(c.cfg.TargetRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return fmt.Errorf("failed to create resampler: %w", err)
	}
	c.res = res
	return nil
}

// Reset discards the resampler continuity state.
func (c *Conditioner) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reset()
}

// Process converts one capture block. The returned bytes are little-endian
// 16-bit mono PCM at the target rate; the input slice is not retained.
func (c *Conditioner) Process(samples []int16) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mono := samples
	if c.cfg.Channels == 2 {
		mono = downmixStereo(samples)
	}

	level := rms(mono)
	c.lastRMS.Store(int64(level))
	if level >= c.cfg.RMSThreshold {
		c.lastVoice.Store(time.Now().UnixNano())
	}

	if c.res == nil {
		return pcmBytes(mono), nil
	}

	in := make([]float64, len(mono))
	for i, s := range mono {
		in[i] = float64(s) / 32768.0
	}
	out, err := c.res.Process(in)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	return floatToPCM(out), nil
}

// floatToPCM converts [-1,1] float samples to little-endian int16 bytes,
// clamping overshoot from the resampler filter before the conversion.
func floatToPCM(samples []float64) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		sample := int16(s * 32767.0)
		pcm[i*2] = byte(sample)
		pcm[i*2+1] = byte(sample >> 8)
	}
	return pcm
}

// LastVoice is the time of the most recent block at or above the RMS
// threshold, zero if none yet.
func (c *Conditioner) LastVoice() time.Time {
	ns := c.lastVoice.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (c *Conditioner) LastRMS() int {
	return int(c.lastRMS.Load())
}

func downmixStereo(samples []int16) []int16 {
	mono := make([]int16, len(samples)/2)
	for i := range mono {
		l := int32(samples[i*2])
		r := int32(samples[i*2+1])
		mono[i] = int16((l + r) / 2)
	}
	return mono
}

func rms(samples []int16) int {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return int(math.Sqrt(sum / float64(len(samples))))
}

func pcmBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}
