package tone

import (
	"errors"
	"fmt"

	"zmet/audio"
)

var ErrAudioInit = errors.New("audio output unavailable")

// Provider pairs the click with the output it is played on.
type Provider struct {
	buf Buffer
	out audio.PlaybackDevice
}

// NewProvider opens a playback stream on device (nil for the system
// default) and renders the click at the stream's sample rate. Any failure
// wraps ErrAudioInit.
func NewProvider(ctx audio.Context, device *audio.DeviceInfo, sampleRate uint32) (*Provider, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: no audio context", ErrAudioInit)
	}
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}
	out, err := ctx.NewPlayback(device, audio.PlaybackConfig{SampleRate: sampleRate})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAudioInit, err)
	}
	return &Provider{buf: New(sampleRate), out: out}, nil
}

func (p *Provider) Buffer() Buffer { return p.buf }

func (p *Provider) Output() audio.PlaybackDevice { return p.out }

func (p *Provider) Close() {
	p.out.Close()
}
