package gui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
)

const iconSize = 22

var (
	iconOnce sync.Once
	iconDark []byte
	iconLit  []byte
)

// TrayIcon returns a PNG of the tray dot, bright red while lit.
func TrayIcon(lit bool) []byte {
	iconOnce.Do(func() {
		iconDark = encodeIcon(drawDot(false))
		iconLit = encodeIcon(drawDot(true))
	})
	if lit {
		return iconLit
	}
	return iconDark
}

func drawDot(lit bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	core := color.RGBA{90, 30, 30, 255}
	if lit {
		core = color.RGBA{255, 50, 50, 255}
	}

	center := float64(iconSize) / 2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx := float64(x) - center + 0.5
			dy := float64(y) - center + 0.5
			dist := math.Sqrt(dx*dx + dy*dy)

			switch {
			case dist < 7:
				img.Set(x, y, core)
			case dist < 9:
				img.Set(x, y, color.RGBA{80, 20, 20, 255})
			case dist < 10:
				img.Set(x, y, color.RGBA{40, 10, 10, 255})
			}
		}
	}
	return img
}

func encodeIcon(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
