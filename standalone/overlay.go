//go:build !libretro

package standalone

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/user-none/hwbridge/logger"
	"github.com/user-none/hwbridge/pump"
	"github.com/user-none/hwbridge/surface"
)

const (
	overlayFontSize = 14
	overlayPadding  = 8
	overlayMargin   = 12
	overlayLineGap  = 4
)

var (
	overlayText       = color.RGBA{R: 240, G: 240, B: 240, A: 255}
	overlayBackground = color.RGBA{R: 0, G: 0, B: 0, A: 153}
)

var (
	fontOnce   sync.Once
	fontSource *text.GoTextFaceSource
)

// overlayFace returns the overlay font at the given DPI scale, or nil when
// the font cannot be loaded.
func overlayFace(scale float64) text.Face {
	fontOnce.Do(func() {
		s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
		if err != nil {
			logger.Logf("standalone", "overlay font: %v", err)
			return
		}
		fontSource = s
	})
	if fontSource == nil {
		return nil
	}
	return &text.GoTextFace{Source: fontSource, Size: overlayFontSize * scale}
}

// Notification displays temporary messages in the bottom-right corner.
type Notification struct {
	mu        sync.Mutex
	message   string
	startTime time.Time
	duration  time.Duration

	bg *ebiten.Image
}

// Show displays message for duration.
func (n *Notification) Show(message string, duration time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.message = message
	n.startTime = time.Now()
	n.duration = duration
}

// ShowShort displays message for two seconds.
func (n *Notification) ShowShort(message string) {
	n.Show(message, 2*time.Second)
}

// IsVisible returns whether a notification is currently visible.
func (n *Notification) IsVisible() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.message != "" && time.Since(n.startTime) < n.duration
}

// Clear removes the current notification.
func (n *Notification) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.message = ""
}

// Draw renders the notification, if visible.
func (n *Notification) Draw(screen *ebiten.Image, scale float64) {
	n.mu.Lock()
	if n.message == "" || time.Since(n.startTime) >= n.duration {
		n.mu.Unlock()
		return
	}
	message := n.message
	n.mu.Unlock()

	n.bg = drawLabel(screen, n.bg, message, scale, false)
}

// statsText formats the bridge counters for the stats overlay.
func statsText(s pump.StatsSnapshot, pauses, resumes uint64) string {
	return fmt.Sprintf("presented %d  duped %d  not ready %d  dropped %d\n"+
		"fence waits %d  timeouts %d\n"+
		"audio frames %d  underruns %d\n"+
		"supervisor pauses %d  resumes %d",
		s.Presented, s.Duped, s.NotReady, s.Dropped,
		s.FenceWaits, s.FenceTimeouts,
		s.AudioFrames, s.AudioUnderruns,
		pauses, resumes)
}

// surfaceText describes the shared surface for the stats overlay.
func surfaceText(s *surface.Surface) string {
	if s == nil {
		return "surface not allocated"
	}
	return fmt.Sprintf("surface %dx%d  content %dx%d  generation %d",
		s.Width, s.Height, s.ContentWidth, s.ContentHeight, s.Generation)
}

// drawLabel draws msg on a translucent box, top-left when topLeft is set
// and bottom-right otherwise. bg is reused while it is large enough; the
// box actually used is returned.
func drawLabel(screen, bg *ebiten.Image, msg string, scale float64, topLeft bool) *ebiten.Image {
	face := overlayFace(scale)
	if face == nil {
		return bg
	}

	lineSpacing := face.Metrics().HAscent + face.Metrics().HDescent + overlayLineGap*scale
	textWidth, textHeight := text.Measure(msg, face, lineSpacing)

	padding := int(overlayPadding * scale)
	margin := int(overlayMargin * scale)
	bgWidth := int(textWidth) + padding*2
	bgHeight := int(textHeight) + padding*2

	bounds := screen.Bounds()
	bgX, bgY := margin, margin
	if !topLeft {
		bgX = bounds.Dx() - bgWidth - margin
		bgY = bounds.Dy() - bgHeight - margin
	}

	if bg == nil || bg.Bounds().Dx() != bgWidth || bg.Bounds().Dy() != bgHeight {
		if bg != nil {
			bg.Deallocate()
		}
		bg = ebiten.NewImage(bgWidth, bgHeight)
		bg.Fill(overlayBackground)
	}

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Translate(float64(bgX), float64(bgY))
	screen.DrawImage(bg, opts)

	textOpts := &text.DrawOptions{}
	textOpts.LineSpacing = lineSpacing
	textOpts.GeoM.Translate(float64(bgX+padding), float64(bgY+padding))
	textOpts.ColorScale.ScaleWithColor(overlayText)
	text.Draw(screen, msg, face, textOpts)
	return bg
}
