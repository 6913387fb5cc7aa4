package capture

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Stream is an open input stream delivering interleaved int16 blocks to a
// callback on the audio thread. The callback must not block.
type Stream struct {
	pa     *portaudio.Stream
	Device string
	Format Format
}

// Open opens dev at the given format. blockFrames is the number of frames
// per callback; the callback receives blockFrames*channels samples.
func Open(dev *portaudio.DeviceInfo, f Format, blockFrames int, cb func([]int16)) (*Stream, error) {
	p := inputParams(dev, f.SampleRate, f.Channels, blockFrames)
	pa, err := portaudio.OpenStream(p, func(in []int16) { cb(in) })
	if err != nil {
		return nil, fmt.Errorf("open stream on %s: %w", dev.Name, err)
	}
	return &Stream{pa: pa, Device: dev.Name, Format: f}, nil
}

func (s *Stream) Start() error { return s.pa.Start() }

func (s *Stream) Stop() error { return s.pa.Stop() }

func (s *Stream) Close() error { return s.pa.Close() }
