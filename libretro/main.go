//go:build libretro

// Package libretro exposes a free-running machine as a libretro core that
// renders through the frontend's OpenGL context. The machine draws on a
// second context sharing objects with the frontend's; the bridge hands each
// frame over in retro_run.
package libretro

/*
#cgo linux LDFLAGS: -lEGL
#include "cfuncs.h"
*/
import "C"
import (
	"fmt"
	"runtime"
	"strings"
	"unsafe"

	emucore "github.com/user-none/hwbridge/api"
	"github.com/user-none/hwbridge/emuthread"
	"github.com/user-none/hwbridge/gldevice"
	"github.com/user-none/hwbridge/logger"
	"github.com/user-none/hwbridge/pump"
)

// Libretro joypad button ID constants for use in RetropadMapping.
const (
	JoypadB      = C.RETRO_DEVICE_ID_JOYPAD_B
	JoypadY      = C.RETRO_DEVICE_ID_JOYPAD_Y
	JoypadSelect = C.RETRO_DEVICE_ID_JOYPAD_SELECT
	JoypadStart  = C.RETRO_DEVICE_ID_JOYPAD_START
	JoypadA      = C.RETRO_DEVICE_ID_JOYPAD_A
	JoypadX      = C.RETRO_DEVICE_ID_JOYPAD_X
	JoypadL      = C.RETRO_DEVICE_ID_JOYPAD_L
	JoypadR      = C.RETRO_DEVICE_ID_JOYPAD_R
	JoypadL2     = C.RETRO_DEVICE_ID_JOYPAD_L2
	JoypadR2     = C.RETRO_DEVICE_ID_JOYPAD_R2
	JoypadL3     = C.RETRO_DEVICE_ID_JOYPAD_L3
	JoypadR3     = C.RETRO_DEVICE_ID_JOYPAD_R3
)

// GL version requested from the frontend.
const (
	glMajor = 3
	glMinor = 2
)

// RetropadMapping maps a libretro button ID to an emucore bit position.
type RetropadMapping struct {
	RetroID int // RETRO_DEVICE_ID_JOYPAD_* constant
	BitID   int // emucore bit position (from Button.ID)
}

// ProducerContext is the graphics context the machine renders on. It
// shares textures with the frontend's context.
type ProducerContext interface {
	MakeCurrent() error
	Release()
}

// FactoryFunc returns the machine factory for a loaded context. It is also
// called once with nil arguments at registration to read SystemInfo.
type FactoryFunc func(dev *gldevice.Device, ctx ProducerContext) emucore.MachineFactory

var (
	newFactory FactoryFunc
	inputMap   []RetropadMapping
	sysInfo    emucore.SystemInfo

	// Pre-allocated C strings (allocated once, freed in retro_deinit)
	libNameStr   *C.char
	libVerStr    *C.char
	validExtStr  *C.char
	stringsReady bool

	optionPrefix string
	coreOptKeys  []*C.char
	coreOptVals  []*C.char

	contentPath string
	canDupe     bool
	bridgeCfg   pump.Config

	bridge  *pump.Bridge
	machine emucore.Machine
	factory emucore.MachineFactory
	shared  *sharedContext
	host    retroHost
)

// RegisterFactory sets the factory and input mapping used by the core.
// Must be called during init() before any retro_* function runs.
func RegisterFactory(f FactoryFunc, mapping []RetropadMapping) {
	newFactory = f
	inputMap = mapping
	sysInfo = f(nil, nil).SystemInfo()
	optionPrefix = sysInfo.CoreName + "_"
}

// sharedContext is the EGL context created alongside the frontend's.
type sharedContext struct{}

func (c *sharedContext) MakeCurrent() error {
	if !C.make_shared_current() {
		return fmt.Errorf("libretro: cannot make shared context current")
	}
	return nil
}

func (c *sharedContext) Release() {
	C.release_shared_context()
}

//export goSetEnvironment
func goSetEnvironment() {
	if C.install_log_interface() {
		logger.SetSink(frontendLog)
	}

	noGame := C.bool(true)
	C.call_environ_cb(C.RETRO_ENVIRONMENT_SET_SUPPORT_NO_GAME, unsafe.Pointer(&noGame))

	ensureOptionStrings()
	setVariables()
}

func frontendLog(tag, detail string) {
	msg := C.CString(tag + ": " + detail)
	defer C.free(unsafe.Pointer(msg))
	C.call_log(C.RETRO_LOG_INFO, msg)
}

//export goInit
func goInit() {
	ensureStrings()
	ensureOptionStrings()
}

//export goDeinit
func goDeinit() {
	teardown()
	logger.SetSink(nil)

	if stringsReady {
		C.free(unsafe.Pointer(libNameStr))
		C.free(unsafe.Pointer(libVerStr))
		C.free(unsafe.Pointer(validExtStr))
		stringsReady = false
	}
	for i := range coreOptKeys {
		C.free(unsafe.Pointer(coreOptKeys[i]))
		C.free(unsafe.Pointer(coreOptVals[i]))
	}
	coreOptKeys, coreOptVals = nil, nil
}

//export goGetSystemInfo
func goGetSystemInfo(info *C.struct_retro_system_info) {
	ensureStrings()
	info.library_name = libNameStr
	info.library_version = libVerStr
	info.valid_extensions = validExtStr
	info.need_fullpath = C.bool(true)
	info.block_extract = C.bool(false)
}

//export goGetSystemAVInfo
func goGetSystemAVInfo(info *C.struct_retro_system_av_info) {
	info.timing.fps = C.double(sysInfo.FPS)
	info.timing.sample_rate = C.double(sysInfo.SampleRate)

	info.geometry.base_width = C.uint(sysInfo.BaseWidth)
	info.geometry.base_height = C.uint(sysInfo.BaseHeight)
	info.geometry.max_width = C.uint(sysInfo.BaseWidth)
	info.geometry.max_height = C.uint(sysInfo.BaseHeight)
	info.geometry.aspect_ratio = C.float(emucore.DisplayAspectRatio(sysInfo.BaseWidth, sysInfo.BaseHeight, sysInfo.PixelAspectRatio))
}

//export goLoadGame
func goLoadGame(path *C.char) C.bool {
	contentPath = ""
	if path != nil {
		contentPath = C.GoString(path)
	}

	if !C.request_hw_render(glMajor, glMinor) {
		logger.Logf("libretro", "frontend has no OpenGL %d.%d core context", glMajor, glMinor)
		return C.bool(false)
	}

	var dupe C.bool
	canDupe = bool(C.call_environ_cb(C.RETRO_ENVIRONMENT_GET_CAN_DUPE, unsafe.Pointer(&dupe))) && bool(dupe)
	if !canDupe {
		logger.Log("libretro", "frontend cannot dupe frames, repeated frames may flicker")
	}

	base := pump.DefaultConfig()
	base.BaseWidth, base.BaseHeight = sysInfo.BaseWidth, sysInfo.BaseHeight
	bridgeCfg = bridgeConfig(base, getVariable)
	return C.bool(true)
}

//export goContextReset
func goContextReset() {
	teardown()

	err := gldevice.Init(func(name string) unsafe.Pointer {
		cs := C.CString(name)
		defer C.free(unsafe.Pointer(cs))
		return C.call_get_proc_address(cs)
	})
	if err != nil {
		logger.Logf("libretro", "%v", err)
		return
	}
	dev := gldevice.New()

	if !C.create_shared_context() {
		logger.Log("libretro", "cannot create a shared context for the machine, every frame will be duplicated")
		return
	}
	shared = &sharedContext{}

	b, err := pump.NewBridge(bridgeCfg, dev)
	if err != nil {
		logger.Logf("libretro", "%v", err)
		destroyShared()
		return
	}
	bridge = b
	factory = newFactory(dev, shared)

	if err := startMachine(); err != nil {
		logger.Logf("libretro", "%v", err)
		teardown()
	}
}

//export goContextDestroy
func goContextDestroy() {
	teardown()
}

func startMachine() error {
	m, err := factory.CreateMachine(contentPath, bridge)
	if err != nil {
		return fmt.Errorf("libretro: create machine: %w", err)
	}
	if err := bridge.Attach(m); err != nil {
		m.Close()
		return err
	}
	if err := m.Start(); err != nil {
		m.Close()
		return err
	}
	bridge.Start()

	machine = m
	host = retroHost{machine: m, base: bridgeCfg}
	return nil
}

// teardown runs with the frontend's context current. The shared surface is
// released on the machine's context, from a locked thread.
func teardown() {
	if bridge == nil {
		return
	}

	bridge.ReleaseConsumer()
	if machine != nil {
		machine.Close()
		machine = nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if err := shared.MakeCurrent(); err != nil {
			logger.Logf("libretro", "%v, leaking shared surface", err)
			return
		}
		bridge.ReleaseProducer()
		shared.Release()
	}()
	<-done
	destroyShared()

	bridge.Close()
	bridge.Reset()
	logger.Logf("pump", "%s", bridge.Stats().Snapshot())
	bridge = nil
	factory = nil
}

func destroyShared() {
	if shared != nil {
		C.destroy_shared_context()
		shared = nil
	}
}

//export goReset
func goReset() {
	if bridge == nil || machine == nil {
		return
	}
	machine.Close()
	machine = nil
	bridge.Reset()

	if err := startMachine(); err != nil {
		logger.Logf("libretro", "reset: %v", err)
	}
}

//export goRun
func goRun() {
	var updated C.bool
	if C.call_environ_cb(C.RETRO_ENVIRONMENT_GET_VARIABLE_UPDATE, unsafe.Pointer(&updated)) && updated {
		updateCoreOptions()
	}

	if bridge == nil || machine == nil {
		C.call_input_poll_cb()
		C.call_video_cb(nil, C.uint(sysInfo.BaseWidth), C.uint(sysInfo.BaseHeight), 0)
		return
	}
	bridge.Run(&host)
}

//export goUnloadGame
func goUnloadGame() {
	if bridge != nil {
		logger.Log("libretro", "unload without context_destroy")
		teardown()
	}
	contentPath = ""
}

// retroHost is the frontend side of the bridge.
type retroHost struct {
	machine emucore.Machine
	base    pump.Config
}

var _ pump.Host = (*retroHost)(nil)

func (h *retroHost) PollInput() {
	C.call_input_poll_cb()

	for player := 0; player < min(sysInfo.Players, emuthread.MaxPlayers); player++ {
		port := C.uint(player)
		var buttons uint32

		// D-pad (fixed mapping)
		if C.call_input_state_cb(port, C.RETRO_DEVICE_JOYPAD, 0, C.RETRO_DEVICE_ID_JOYPAD_UP) != 0 {
			buttons |= 1 << emucore.ButtonUp
		}
		if C.call_input_state_cb(port, C.RETRO_DEVICE_JOYPAD, 0, C.RETRO_DEVICE_ID_JOYPAD_DOWN) != 0 {
			buttons |= 1 << emucore.ButtonDown
		}
		if C.call_input_state_cb(port, C.RETRO_DEVICE_JOYPAD, 0, C.RETRO_DEVICE_ID_JOYPAD_LEFT) != 0 {
			buttons |= 1 << emucore.ButtonLeft
		}
		if C.call_input_state_cb(port, C.RETRO_DEVICE_JOYPAD, 0, C.RETRO_DEVICE_ID_JOYPAD_RIGHT) != 0 {
			buttons |= 1 << emucore.ButtonRight
		}

		for _, m := range inputMap {
			if C.call_input_state_cb(port, C.RETRO_DEVICE_JOYPAD, 0, C.uint(m.RetroID)) != 0 {
				buttons |= 1 << uint(m.BitID)
			}
		}

		h.machine.SetInput(player, buttons)
	}
}

func (h *retroHost) CurrentFramebuffer() uint32 {
	return uint32(C.call_get_current_framebuffer())
}

func (h *retroHost) PresentFrame(w, hgt int) {
	C.call_video_cb_hw(C.uint(w), C.uint(hgt))
}

func (h *retroHost) DupeFrame() {
	C.call_video_cb(nil, C.uint(h.base.BaseWidth), C.uint(h.base.BaseHeight), 0)
}

func (h *retroHost) AudioBatch(samples []int16, frames int) {
	if frames == 0 {
		return
	}
	C.call_audio_batch_cb((*C.int16_t)(unsafe.Pointer(&samples[0])), C.size_t(frames))
}

// ensureStrings allocates C strings for system info once.
func ensureStrings() {
	if stringsReady {
		return
	}
	libNameStr = C.CString(sysInfo.CoreName)
	libVerStr = C.CString(sysInfo.CoreVersion)
	validExtStr = C.CString(strings.Join(sysInfo.Extensions, "|"))
	stringsReady = true
}

// ensureOptionStrings allocates C strings for core options once.
func ensureOptionStrings() {
	if coreOptKeys != nil {
		return
	}
	for _, o := range coreOptions {
		coreOptKeys = append(coreOptKeys, C.CString(optionPrefix+o.key))
		coreOptVals = append(coreOptVals, C.CString(o.definition()))
	}
}

// setVariables registers all core options with the frontend.
func setVariables() {
	options := make([]C.struct_retro_variable, len(coreOptKeys)+1)
	for i := range coreOptKeys {
		options[i] = C.struct_retro_variable{key: coreOptKeys[i], value: coreOptVals[i]}
	}
	C.call_environ_cb(C.RETRO_ENVIRONMENT_SET_VARIABLES, unsafe.Pointer(&options[0]))
}

// getVariable reads one core option from the frontend.
func getVariable(key string) (string, bool) {
	for i, o := range coreOptions {
		if o.key != key {
			continue
		}
		var v C.struct_retro_variable
		v.key = coreOptKeys[i]
		if C.call_environ_cb(C.RETRO_ENVIRONMENT_GET_VARIABLE, unsafe.Pointer(&v)) && v.value != nil {
			return C.GoString(v.value), true
		}
		return "", false
	}
	return "", false
}

// updateCoreOptions rereads the options. The bridge keeps its settings
// until the next context reset.
func updateCoreOptions() {
	base := pump.DefaultConfig()
	base.BaseWidth, base.BaseHeight = sysInfo.BaseWidth, sysInfo.BaseHeight
	cfg := bridgeConfig(base, getVariable)
	if cfg != bridgeCfg {
		bridgeCfg = cfg
		logger.Log("libretro", "bridge options changed, applied on next content load")
	}
}
