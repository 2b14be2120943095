//go:build !linux

package audio

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}
	return &malgoContext{ctx: ctx}, nil
}

func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	devices, err := m.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	var result []DeviceInfo
	for _, d := range devices {
		result = append(result, DeviceInfo{
			ID:   hex.EncodeToString(d.ID[:]),
			Name: d.Name(),
		})
	}
	return result, nil
}

func (m *malgoContext) NewPlayback(device *DeviceInfo, config PlaybackConfig) (PlaybackDevice, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = config.SampleRate

	if device != nil {
		idBytes, err := hex.DecodeString(device.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid device ID: %w", err)
		}
		var devID malgo.DeviceID
		copy(devID[:], idBytes)
		deviceConfig.Playback.DeviceID = devID.Pointer()
	}

	pb := &malgoPlayback{info: device}
	callbacks := malgo.DeviceCallbacks{
		Data: pb.fill,
	}

	dev, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, err
	}
	pb.device = dev
	return pb, nil
}

func (m *malgoContext) Close() {
	m.ctx.Uninit()
	m.ctx.Free()
}

type malgoPlayback struct {
	info   *DeviceInfo
	device *malgo.Device
	queue  Queue

	mu  sync.Mutex
	buf []float32
}

// fill runs on the miniaudio callback thread.
func (p *malgoPlayback) fill(out, _ []byte, frameCount uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cap(p.buf) < int(frameCount) {
		p.buf = make([]float32, frameCount)
	}
	buf := p.buf[:frameCount]
	p.queue.Fill(buf)
	for i, s := range buf {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
}

func (p *malgoPlayback) Enqueue(samples []float32) {
	p.queue.Enqueue(samples)
}

func (p *malgoPlayback) IsPlaying() bool {
	return p.device.IsStarted()
}

func (p *malgoPlayback) Play() error {
	if p.device.IsStarted() {
		return nil
	}
	return p.device.Start()
}

func (p *malgoPlayback) Stop() {
	if p.device.IsStarted() {
		p.device.Stop()
	}
	p.queue.Reset()
}

func (p *malgoPlayback) Close() {
	p.device.Uninit()
	p.queue.Reset()
}

func (p *malgoPlayback) DeviceName() string {
	if p.info != nil {
		return p.info.Name
	}
	return "system default"
}
