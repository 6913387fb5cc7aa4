package pipeline

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func sineBlock(rate int, freq, amplitude float64, start, n int) []int16 {
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		phase := 2 * math.Pi * freq * float64(start+i) / float64(rate)
		out[i] = int16(amplitude * math.Sin(phase))
	}
	return out
}

func decodePCM(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}

func TestDownmixStereo(t *testing.T) {
	stereo := []int16{100, 200, -100, -200, 30000, 30000}
	mono := downmixStereo(stereo)
	want := []int16{150, -150, 30000}
	if len(mono) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(mono))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], mono[i])
		}
	}
}

func TestRMS(t *testing.T) {
	if got := rms(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %d", got)
	}

	flat := make([]int16, 1000)
	for i := range flat {
		flat[i] = 500
	}
	if got := rms(flat); got != 500 {
		t.Errorf("expected 500 for constant signal, got %d", got)
	}

	sine := sineBlock(16000, 440, 1000, 0, 16000)
	got := rms(sine)
	want := int(math.Round(1000 / math.Sqrt2))
	if got < want-20 || got > want+20 {
		t.Errorf("expected ~%d for sine, got %d", want, got)
	}
}

func TestFloatToPCM_ClampsOvershoot(t *testing.T) {
	out := decodePCM(floatToPCM([]float64{0, 0.5, 1.5, -1.5}))
	want := []int16{0, 16383, 32767, -32767}
	if len(out) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(out))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], out[i])
		}
	}
}

func TestConditioner_RejectsBadConfig(t *testing.T) {
	cases := []ConditionerConfig{
		{InputRate: 0, TargetRate: 16000, Channels: 1},
		{InputRate: 16000, TargetRate: 0, Channels: 1},
		{InputRate: 16000, TargetRate: 16000, Channels: 3},
	}
	for _, cfg := range cases {
		if _, err := NewConditioner(cfg); err == nil {
			t.Errorf("expected error for config %+v", cfg)
		}
	}
}

func TestConditioner_PassthroughAtTargetRate(t *testing.T) {
	c, err := NewConditioner(ConditionerConfig{
		InputRate: 16000, TargetRate: 16000, Channels: 1, RMSThreshold: 300,
	})
	if err != nil {
		t.Fatalf("NewConditioner() error = %v", err)
	}

	in := []int16{0, 100, -100, 32767, -32768}
	pcm, err := c.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	out := decodePCM(pcm)
	if len(out) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d: expected %d, got %d", i, in[i], out[i])
		}
	}
}

func TestConditioner_VoiceActivity(t *testing.T) {
	c, err := NewConditioner(ConditionerConfig{
		InputRate: 16000, TargetRate: 16000, Channels: 1, RMSThreshold: 300,
	})
	if err != nil {
		t.Fatalf("NewConditioner() error = %v", err)
	}

	if !c.LastVoice().IsZero() {
		t.Error("expected zero LastVoice before any block")
	}

	quiet := make([]int16, 1600)
	for i := range quiet {
		quiet[i] = 50
	}
	if _, err := c.Process(quiet); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !c.LastVoice().IsZero() {
		t.Error("quiet block must not count as voice")
	}
	if c.LastRMS() != 50 {
		t.Errorf("expected last RMS 50, got %d", c.LastRMS())
	}

	before := time.Now()
	loud := sineBlock(16000, 440, 5000, 0, 1600)
	if _, err := c.Process(loud); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if c.LastVoice().Before(before) {
		t.Error("loud block should update LastVoice")
	}
}

func TestConditioner_DownmixesBeforeActivity(t *testing.T) {
	c, err := NewConditioner(ConditionerConfig{
		InputRate: 16000, TargetRate: 16000, Channels: 2, RMSThreshold: 300,
	})
	if err != nil {
		t.Fatalf("NewConditioner() error = %v", err)
	}

	// Opposite-phase channels cancel to silence after the downmix.
	stereo := make([]int16, 3200)
	for i := 0; i < len(stereo); i += 2 {
		stereo[i] = 10000
		stereo[i+1] = -10000
	}
	pcm, err := c.Process(stereo)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(pcm) != 3200 {
		t.Errorf("expected 1600 mono samples (3200 bytes), got %d bytes", len(pcm))
	}
	if !c.LastVoice().IsZero() {
		t.Error("cancelled stereo must not count as voice")
	}
}

func TestConditioner_ResampleRatio(t *testing.T) {
	c, err := NewConditioner(ConditionerConfig{
		InputRate: 48000, TargetRate: 16000, Channels: 1, RMSThreshold: 300,
	})
	if err != nil {
		t.Fatalf("NewConditioner() error = %v", err)
	}

	total := 0
	for i := 0; i < 10; i++ {
		block := sineBlock(48000, 200, 8000, i*4800, 4800)
		pcm, err := c.Process(block)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		total += len(pcm) / 2
	}

	// 48000 samples in at a 3:1 ratio, allowing for filter delay.
	if total < 14000 || total > 16100 {
		t.Errorf("expected ~16000 output samples, got %d", total)
	}
}

// Feeding a sine in blocks must produce a smooth output: a resampler that
// restarted its state per block would leave discontinuities at block joins.
func TestConditioner_ContinuityAcrossBlocks(t *testing.T) {
	c, err := NewConditioner(ConditionerConfig{
		InputRate: 48000, TargetRate: 16000, Channels: 1, RMSThreshold: 300,
	})
	if err != nil {
		t.Fatalf("NewConditioner() error = %v", err)
	}

	var out []int16
	for i := 0; i < 20; i++ {
		block := sineBlock(48000, 200, 8000, i*2400, 2400)
		pcm, err := c.Process(block)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		out = append(out, decodePCM(pcm)...)
	}
	if len(out) < 8000 {
		t.Fatalf("not enough output to judge continuity: %d samples", len(out))
	}

	// A 200 Hz sine at 16 kHz with amplitude 8000 moves at most ~630 per
	// sample; anything a few times larger is a seam.
	const maxStep = 2500
	for i := 512; i < len(out); i++ {
		step := int(out[i]) - int(out[i-1])
		if step < 0 {
			step = -step
		}
		if step > maxStep {
			t.Fatalf("discontinuity at sample %d: step %d", i, step)
		}
	}
}

func TestConditioner_Reset(t *testing.T) {
	c, err := NewConditioner(ConditionerConfig{
		InputRate: 44100, TargetRate: 16000, Channels: 1, RMSThreshold: 300,
	})
	if err != nil {
		t.Fatalf("NewConditioner() error = %v", err)
	}

	if _, err := c.Process(sineBlock(44100, 200, 8000, 0, 4410)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if err := c.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	pcm, err := c.Process(sineBlock(44100, 200, 8000, 0, 4410))
	if err != nil {
		t.Fatalf("Process() after Reset error = %v", err)
	}
	if len(pcm) == 0 {
		t.Error("expected output after Reset")
	}
}
