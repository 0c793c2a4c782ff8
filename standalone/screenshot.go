//go:build !libretro

package standalone

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

var errNoFrame = errors.New("no frame presented yet")

// saveScreenshot writes a w x h RGBA frame to dir as a PNG named after the
// capture time and returns its path.
func saveScreenshot(dir string, pixels []byte, w, h int, now time.Time) (string, error) {
	if w <= 0 || h <= 0 || len(pixels) < w*h*4 {
		return "", errNoFrame
	}
	img := &image.RGBA{Pix: pixels[:w*h*4], Stride: w * 4, Rect: image.Rect(0, 0, w, h)}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%d.png", now.UnixMilli()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create screenshot file: %w", err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to encode screenshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	return path, nil
}
