//go:build !libretro

// Package standalone runs a machine behind the bridge in an ebiten window.
// The ebiten update loop is the host pump: every Update is one bridge
// cycle.
//
// Keys: Escape quits, P pauses, M mutes, F10 shows the bridge counters,
// F11 toggles fullscreen and F12 saves a screenshot to the capture
// directory.
package standalone

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	emucore "github.com/user-none/hwbridge/api"
	"github.com/user-none/hwbridge/logger"
	"github.com/user-none/hwbridge/pump"
	"github.com/user-none/hwbridge/softdevice"
	"github.com/user-none/hwbridge/storage"
	"github.com/user-none/hwbridge/wavwriter"
)

// Options are the per-run settings that do not live in config.json.
type Options struct {
	// Content is passed to CreateMachine.
	Content string

	// Capture writes the host's audio to a WAV file in the capture
	// directory, in addition to config's audio.captureWav.
	Capture bool
}

// App implements ebiten.Game.
type App struct {
	info   emucore.SystemInfo
	config *storage.Config

	bridge  *pump.Bridge
	machine emucore.Machine
	host    *softHost

	renderer *FramebufferRenderer
	audio    *AudioPlayer
	capture  *wavwriter.WavWriter

	notification Notification
	showStats    bool
	statsBg      *ebiten.Image
	scale        float64
}

// Run builds the bridge over dev, starts the machine and runs the window
// until it is closed. The factory's machine must render through dev.
func Run(factory emucore.MachineFactory, dev *softdevice.Device, config *storage.Config, opts Options) error {
	info := factory.SystemInfo()

	bridge, err := pump.NewBridge(config.BridgeConfig(), dev)
	if err != nil {
		return err
	}

	app := &App{
		info:   info,
		config: config,
		bridge: bridge,
		scale:  1,
	}
	base := bridge.Config()
	app.renderer = NewFramebufferRenderer(emucore.DisplayAspectRatio(base.BaseWidth, base.BaseHeight, info.PixelAspectRatio))
	defer app.Close()

	volume := config.Audio.Volume
	if config.Audio.Muted {
		volume = 0
	}
	app.audio, err = NewAudioPlayer(info.SampleRate, volume)
	if err != nil {
		logger.Logf("standalone", "audio disabled: %v", err)
	}

	if opts.Capture || config.Audio.CaptureWav {
		if err := app.startCapture(); err != nil {
			logger.Logf("standalone", "capture disabled: %v", err)
		}
	}

	app.machine, err = factory.CreateMachine(opts.Content, bridge)
	if err != nil {
		return fmt.Errorf("failed to create machine: %w", err)
	}
	if err := bridge.Attach(app.machine); err != nil {
		return err
	}

	app.host = newSoftHost(dev, base.BaseWidth, base.BaseHeight, info, app.renderer, app.audio, app.machine)
	if app.host.target == 0 {
		return fmt.Errorf("failed to allocate %dx%d output", base.BaseWidth, base.BaseHeight)
	}

	ebiten.SetWindowTitle(info.CoreName)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(config.Window.Width, config.Window.Height)
	if info.FPS > 0 {
		ebiten.SetTPS(int(info.FPS + 0.5))
	}

	if err := app.machine.Start(); err != nil {
		return fmt.Errorf("failed to start machine: %w", err)
	}
	bridge.Start()

	err = ebiten.RunGame(app)
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}
	return err
}

func (a *App) startCapture() error {
	if err := storage.EnsureDirectories(); err != nil {
		return err
	}
	dir, err := storage.GetCaptureDir()
	if err != nil {
		return err
	}
	name := filepath.Join(dir, time.Now().Format("20060102-150405")+".wav")
	w, err := wavwriter.New(name, a.info.SampleRate)
	if err != nil {
		return err
	}
	a.capture = w
	a.bridge.AddAudioTap(w.Batch)
	logger.Logf("standalone", "capturing audio to %s", name)
	return nil
}

// Update implements ebiten.Game. It is the pump.
func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF10) {
		a.showStats = !a.showStats
		logger.Log("stats", a.bridge.Stats().Snapshot().String())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		a.screenshot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.togglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		a.toggleMute()
	}

	a.bridge.Run(a.host)
	return nil
}

// togglePause pauses or resumes the machine from the keyboard. The
// supervisor never resumes a pause it did not make.
func (a *App) togglePause() {
	if a.machine.IsPaused() {
		if err := a.machine.Resume(); err != nil {
			logger.Logf("standalone", "resume: %v", err)
			return
		}
		a.notification.ShowShort("Resumed")
		return
	}
	if err := a.machine.Pause(); err != nil {
		logger.Logf("standalone", "pause: %v", err)
		return
	}
	if a.audio != nil {
		a.audio.ClearQueue()
	}
	a.notification.Show("Paused", time.Hour)
}

// toggleMute flips audio.muted for this session only.
func (a *App) toggleMute() {
	if a.audio == nil {
		return
	}
	a.config.Audio.Muted = !a.config.Audio.Muted
	if a.config.Audio.Muted {
		a.audio.SetVolume(0)
		a.notification.ShowShort("Muted")
		return
	}
	a.audio.SetVolume(a.config.Audio.Volume)
	a.notification.ShowShort("Unmuted")
}

func (a *App) screenshot() {
	dir, err := storage.GetCaptureDir()
	if err != nil {
		logger.Logf("standalone", "screenshot: %v", err)
		return
	}
	path, err := saveScreenshot(dir, a.host.pixels, a.host.width, a.host.height, time.Now())
	if err != nil {
		logger.Logf("standalone", "screenshot: %v", err)
		a.notification.ShowShort("Screenshot failed")
		return
	}
	logger.Logf("standalone", "screenshot saved to %s", path)
	a.notification.ShowShort("Screenshot saved")
}

// Draw implements ebiten.Game. A duped cycle redraws the cached image.
func (a *App) Draw(screen *ebiten.Image) {
	a.renderer.DrawFramebuffer(screen)

	if a.showStats {
		var pauses, resumes uint64
		if s := a.bridge.Supervisor(); s != nil {
			pauses, resumes = s.Counts()
		}
		msg := statsText(a.bridge.Stats().Snapshot(), pauses, resumes)
		msg += "\n" + surfaceText(a.bridge.Surfaces().Snapshot())
		if a.audio != nil {
			msg += fmt.Sprintf("\nhost audio queued %d bytes", a.audio.GetBufferLevel())
		}
		a.statsBg = drawLabel(screen, a.statsBg, msg, a.scale, true)
	}
	a.notification.Draw(screen, a.scale)
}

// Layout implements ebiten.Game.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := 1.0
	if m := ebiten.Monitor(); m != nil {
		s = m.DeviceScaleFactor()
	}
	a.scale = s
	return int(float64(outsideWidth) * s), int(float64(outsideHeight) * s)
}

// Close stops the machine and releases the bridge, then writes any
// capture.
func (a *App) Close() {
	if a.machine != nil {
		a.machine.Close()
	}

	a.bridge.ReleaseConsumer()
	a.bridge.ReleaseProducer()
	a.bridge.Close()
	a.bridge.Reset()
	if a.host != nil {
		a.host.release()
		logger.Logf("standalone", "%d frames reused by the host", a.host.dupes)
	}

	if a.audio != nil {
		a.audio.Close()
	}
	if a.capture != nil {
		if err := a.capture.Close(); err != nil {
			logger.Logf("standalone", "capture: %v", err)
		}
	}

	logger.Log("stats", a.bridge.Stats().Snapshot().String())
}
