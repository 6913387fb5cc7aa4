package capture

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Init must be called once before any other function in this package, and
// Terminate once after the last stream is closed.
func Init() error { return portaudio.Initialize() }

func Terminate() error { return portaudio.Terminate() }

type Device struct {
	Index             int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}

// InputDevices lists every device that can capture audio.
func InputDevices() ([]Device, error) {
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()

	var out []Device
	for _, d := range devs {
		if d.MaxInputChannels <= 0 {
			continue
		}
		dev := Device{
			Index:             d.Index,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			Default:           def != nil && d.Index == def.Index,
		}
		if d.HostApi != nil {
			dev.HostAPI = d.HostApi.Name
		}
		out = append(out, dev)
	}
	return out, nil
}

// InputDevice resolves an index from InputDevices, or the system default
// input when index is negative.
func InputDevice(index int) (*portaudio.DeviceInfo, error) {
	if index < 0 {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("no default input device: %w", err)
		}
		return dev, nil
	}
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	for _, d := range devs {
		if d.Index == index {
			if d.MaxInputChannels <= 0 {
				return nil, fmt.Errorf("device %d (%s) has no input channels", index, d.Name)
			}
			return d, nil
		}
	}
	return nil, fmt.Errorf("no input device with index %d", index)
}

type Format struct {
	SampleRate int
	Channels   int
}

// PickFormat negotiates a capture format the device supports. Rates are
// tried in preference order: the target rate itself when prefer16k is set
// (skipping any client-side resampling), then the common hardware rates,
// then the device default. Mono is tried before stereo at each rate.
func PickFormat(dev *portaudio.DeviceInfo, targetRate int, preferTarget bool) (Format, error) {
	var rates []int
	if preferTarget {
		rates = append(rates, targetRate)
	}
	rates = append(rates, 48000, 44100, int(dev.DefaultSampleRate))

	tried := make(map[int]bool)
	for _, rate := range rates {
		if rate <= 0 || tried[rate] {
			continue
		}
		tried[rate] = true
		for _, ch := range []int{1, 2} {
			if ch > dev.MaxInputChannels {
				continue
			}
			p := inputParams(dev, rate, ch, 0)
			if portaudio.IsFormatSupported(p, func(in []int16) {}) == nil {
				return Format{SampleRate: rate, Channels: ch}, nil
			}
		}
	}
	return Format{}, fmt.Errorf("no supported input format for %s", dev.Name)
}

func inputParams(dev *portaudio.DeviceInfo, rate, channels, framesPerBuffer int) portaudio.StreamParameters {
	return portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(rate),
		FramesPerBuffer: framesPerBuffer,
	}
}
