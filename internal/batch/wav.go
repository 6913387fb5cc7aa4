package batch

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrInvalidWAV = errors.New("invalid or unsupported wav file")

// Audio is a decoded WAV upload. PCM is interleaved little-endian 16-bit
// samples and is only populated when the container is 16-bit mono or stereo;
// the caller decides how to reject other layouts.
type Audio struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
	PCM        []byte
}

func Decode(data []byte) (*Audio, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	d.ReadInfo()
	if d.Err() != nil || d.SampleRate == 0 || d.NumChans == 0 || d.BitDepth == 0 {
		return nil, ErrInvalidWAV
	}

	dur, err := d.Duration()
	if err != nil {
		return nil, ErrInvalidWAV
	}

	a := &Audio{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		Duration:   dur,
	}

	if a.BitDepth == 16 && (a.Channels == 1 || a.Channels == 2) {
		buf, err := d.FullPCMBuffer()
		if err != nil {
			return nil, ErrInvalidWAV
		}
		a.PCM = pcmBytes(buf)
	}
	return a, nil
}

func pcmBytes(buf *audio.IntBuffer) []byte {
	out := make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s)))
	}
	return out
}
