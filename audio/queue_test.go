package audio

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueBackToBack(t *testing.T) {
	var q Queue
	q.Enqueue([]float32{1, 2, 3})
	q.Enqueue([]float32{4, 5})

	buf := make([]float32, 4)
	require.Equal(t, 4, q.Fill(buf))
	assert.Equal(t, []float32{1, 2, 3, 4}, buf)

	require.Equal(t, 1, q.Fill(buf))
	assert.Equal(t, []float32{5, 0, 0, 0}, buf)

	require.Equal(t, 0, q.Fill(buf))
	assert.Equal(t, []float32{0, 0, 0, 0}, buf)
}

func TestQueueEnqueueWhileDraining(t *testing.T) {
	var q Queue
	q.Enqueue([]float32{1, 2, 3, 4})
	buf := make([]float32, 3)
	q.Fill(buf)

	q.Enqueue([]float32{5, 6})
	assert.Equal(t, 3, q.Pending())

	q.Fill(buf)
	assert.Equal(t, []float32{4, 5, 6}, buf)
	assert.Zero(t, q.Pending())
}

func TestQueueReset(t *testing.T) {
	var q Queue
	q.Enqueue([]float32{1, 2})
	q.Reset()
	buf := []float32{9, 9}
	assert.Zero(t, q.Fill(buf))
	assert.Equal(t, []float32{0, 0}, buf)
}

func TestQueueConcurrent(t *testing.T) {
	var q Queue
	click := make([]float32, 100)
	for i := range click {
		click[i] = 1
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			q.Enqueue(click)
		}
	}()

	total := 0
	buf := make([]float32, 64)
	for total < 50*len(click) {
		total += q.Fill(buf)
	}
	wg.Wait()
	assert.Equal(t, 50*len(click), total)
}

func TestIsBluetooth(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"AirPods Pro", true},
		{"bluez_output.00_1B_66.a2dp-sink", true},
		{"Sony WH-1000XM4", true},
		{"Built-in Audio Analog Stereo", false},
		{"HDMI / DisplayPort 1 Output", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsBluetooth(tt.name), tt.name)
	}
}

func TestFindDevice(t *testing.T) {
	ctx := NewFakeContext()
	ctx.DeviceList = []DeviceInfo{
		{ID: "alsa_output.pci", Name: "Built-in Audio"},
		{ID: "bluez_output.a2dp", Name: "WH-1000XM4"},
	}

	d, err := FindDevice(ctx, "bluez_output.a2dp")
	require.NoError(t, err)
	assert.Equal(t, "WH-1000XM4", d.Name)

	d, err = FindDevice(ctx, "built-in")
	require.NoError(t, err)
	assert.Equal(t, "alsa_output.pci", d.ID)

	_, err = FindDevice(ctx, "hdmi")
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestPickKey(t *testing.T) {
	up := []byte{0x1b, '[', 'A'}
	down := []byte{0x1b, '[', 'B'}

	c, act := pickKey(down, 0, 3)
	assert.Equal(t, 1, c)
	assert.Equal(t, pickMove, act)

	c, _ = pickKey([]byte{'j'}, 2, 3)
	assert.Equal(t, 2, c, "cursor moved past the last device")

	c, _ = pickKey(up, 0, 3)
	assert.Equal(t, 0, c)

	_, act = pickKey([]byte{'\r'}, 1, 3)
	assert.Equal(t, pickConfirm, act)

	_, act = pickKey([]byte{3}, 1, 3)
	assert.Equal(t, pickCancel, act)
}

func TestFakePlayback(t *testing.T) {
	ctx := NewFakeContext()
	var seen []int
	ctx.OnEnqueue = func(n int) { seen = append(seen, n) }

	pb, err := ctx.NewPlayback(nil, PlaybackConfig{SampleRate: 44100})
	require.NoError(t, err)
	assert.False(t, pb.IsPlaying())

	pb.Enqueue([]float32{0.5, 0.25})
	require.NoError(t, pb.Play())
	assert.True(t, pb.IsPlaying())
	assert.Equal(t, []int{2}, seen)

	fp := ctx.Playbacks()[0]
	assert.Equal(t, []float32{0.5, 0.25, 0}, fp.Drain(3))

	pb.Close()
	assert.True(t, fp.Closed())
	assert.False(t, pb.IsPlaying())
}
