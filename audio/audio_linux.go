//go:build linux

package audio

import (
	"fmt"
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("zmet"))
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulseContext{client: c}, nil
}

func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sinks, err := p.client.ListSinks()
	if err != nil {
		return nil, fmt.Errorf("pulse list sinks: %w", err)
	}
	var devices []DeviceInfo
	for _, s := range sinks {
		devices = append(devices, DeviceInfo{
			ID:   s.ID(),
			Name: s.Name(),
		})
	}
	return devices, nil
}

func (p *pulseContext) NewPlayback(device *DeviceInfo, config PlaybackConfig) (PlaybackDevice, error) {
	pb := &pulsePlayback{
		client: p.client,
		device: device,
		config: config,
	}
	// Open the stream corked so a broken server surfaces here rather than
	// on the first beat.
	if err := pb.open(); err != nil {
		return nil, err
	}
	return pb, nil
}

func (p *pulseContext) Close() {
	p.client.Close()
}

type pulsePlayback struct {
	client *pulse.Client
	device *DeviceInfo
	config PlaybackConfig
	queue  Queue

	mu     sync.Mutex
	stream *pulse.PlaybackStream
}

func (p *pulsePlayback) open() error {
	reader := pulse.Float32Reader(func(buf []float32) (int, error) {
		p.queue.Fill(buf)
		return len(buf), nil
	})

	opts := []pulse.PlaybackOption{
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(int(p.config.SampleRate)),
		pulse.PlaybackLatency(0.05),
		pulse.PlaybackMediaName("metronome click"),
		pulse.PlaybackRawOption(func(s *proto.CreatePlaybackStream) {
			s.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm)}
		}),
	}
	if p.device != nil {
		sink, err := p.client.SinkByID(p.device.ID)
		if err == nil && sink != nil {
			opts = append(opts, pulse.PlaybackSink(sink))
		}
	}

	stream, err := p.client.NewPlayback(reader, opts...)
	if err != nil {
		return fmt.Errorf("pulse playback: %w", err)
	}
	p.stream = stream
	return nil
}

func (p *pulsePlayback) Enqueue(samples []float32) {
	p.queue.Enqueue(samples)
}

func (p *pulsePlayback) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stream != nil && p.stream.Running()
}

// Play uncorks the stream. Once started it keeps running and pads gaps
// between clicks with silence until Stop.
func (p *pulsePlayback) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		if err := p.open(); err != nil {
			return err
		}
	}
	if !p.stream.Running() {
		p.stream.Start()
	}
	return p.stream.Error()
}

func (p *pulsePlayback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil && p.stream.Running() {
		p.stream.Stop()
	}
	p.queue.Reset()
}

func (p *pulsePlayback) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil {
		p.stream.Stop()
		p.stream.Close()
		p.stream = nil
	}
	p.queue.Reset()
}

func (p *pulsePlayback) DeviceName() string {
	if p.device != nil {
		return p.device.Name
	}
	return "system default"
}
