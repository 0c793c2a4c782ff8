//go:build !libretro

package standalone

import (
	"github.com/hajimehoshi/ebiten/v2"

	emucore "github.com/user-none/hwbridge/api"
)

// InputMapping maps button bit IDs to ebiten input types.
type InputMapping struct {
	Keys    map[int]ebiten.Key
	Gamepad map[int]ebiten.StandardGamepadButton
}

// keyNameMap maps key names to ebiten keys.
var keyNameMap = map[string]ebiten.Key{
	"A": ebiten.KeyA,
	"B": ebiten.KeyB,
	"C": ebiten.KeyC,
	"D": ebiten.KeyD,
	"E": ebiten.KeyE,
	"F": ebiten.KeyF,
	"G": ebiten.KeyG,
	"H": ebiten.KeyH,
	"I": ebiten.KeyI,
	"J": ebiten.KeyJ,
	"K": ebiten.KeyK,
	"L": ebiten.KeyL,
	"M": ebiten.KeyM,
	"N": ebiten.KeyN,
	"O": ebiten.KeyO,
	"P": ebiten.KeyP,
	"Q": ebiten.KeyQ,
	"R": ebiten.KeyR,
	"S": ebiten.KeyS,
	"T": ebiten.KeyT,
	"U": ebiten.KeyU,
	"V": ebiten.KeyV,
	"W": ebiten.KeyW,
	"X": ebiten.KeyX,
	"Y": ebiten.KeyY,
	"Z": ebiten.KeyZ,
	"0": ebiten.Key0,
	"1": ebiten.Key1,
	"2": ebiten.Key2,
	"3": ebiten.Key3,
	"4": ebiten.Key4,
	"5": ebiten.Key5,
	"6": ebiten.Key6,
	"7": ebiten.Key7,
	"8": ebiten.Key8,
	"9": ebiten.Key9,

	"Enter":      ebiten.KeyEnter,
	"Backspace":  ebiten.KeyBackspace,
	"Space":      ebiten.KeySpace,
	"Semicolon":  ebiten.KeySemicolon,
	"Comma":      ebiten.KeyComma,
	"Period":     ebiten.KeyPeriod,
	"Slash":      ebiten.KeySlash,
	"Shift":      ebiten.KeyShift,
	"ArrowUp":    ebiten.KeyArrowUp,
	"ArrowDown":  ebiten.KeyArrowDown,
	"ArrowLeft":  ebiten.KeyArrowLeft,
	"ArrowRight": ebiten.KeyArrowRight,
}

// padNameMap maps gamepad button names to standard layout buttons.
var padNameMap = map[string]ebiten.StandardGamepadButton{
	"A":         ebiten.StandardGamepadButtonRightBottom,
	"B":         ebiten.StandardGamepadButtonRightRight,
	"X":         ebiten.StandardGamepadButtonRightLeft,
	"Y":         ebiten.StandardGamepadButtonRightTop,
	"L1":        ebiten.StandardGamepadButtonFrontTopLeft,
	"R1":        ebiten.StandardGamepadButtonFrontTopRight,
	"Start":     ebiten.StandardGamepadButtonCenterRight,
	"Select":    ebiten.StandardGamepadButtonCenterLeft,
	"DpadUp":    ebiten.StandardGamepadButtonLeftTop,
	"DpadDown":  ebiten.StandardGamepadButtonLeftBottom,
	"DpadLeft":  ebiten.StandardGamepadButtonLeftLeft,
	"DpadRight": ebiten.StandardGamepadButtonLeftRight,
}

// reservedKeys are handled by the host itself and never reach the machine.
var reservedKeys = map[ebiten.Key]bool{
	ebiten.KeyEscape: true, // quit
	ebiten.KeyF10:    true, // stats dump
	ebiten.KeyF11:    true, // fullscreen
	ebiten.KeyF12:    true, // screenshot
	ebiten.KeyP:      true, // pause
	ebiten.KeyM:      true, // mute
}

// ParseKey converts a key name string to an ebiten.Key.
func ParseKey(name string) (ebiten.Key, bool) {
	k, ok := keyNameMap[name]
	return k, ok
}

// ParsePad converts a gamepad button name to an ebiten.StandardGamepadButton.
func ParsePad(name string) (ebiten.StandardGamepadButton, bool) {
	b, ok := padNameMap[name]
	return b, ok
}

var dpadButtons = []struct {
	BitID      int
	DefaultKey string
	DefaultPad string
}{
	{emucore.ButtonUp, "W", "DpadUp"},
	{emucore.ButtonDown, "S", "DpadDown"},
	{emucore.ButtonLeft, "A", "DpadLeft"},
	{emucore.ButtonRight, "D", "DpadRight"},
}

// BuildDefaultMapping creates an InputMapping with WASD and D-pad
// defaults plus the machine's own buttons. Keys the host reserves, or that
// the D-pad already uses, are skipped.
func BuildDefaultMapping(buttons []emucore.Button) InputMapping {
	m := InputMapping{
		Keys:    make(map[int]ebiten.Key),
		Gamepad: make(map[int]ebiten.StandardGamepadButton),
	}

	used := make(map[ebiten.Key]bool)
	for _, dp := range dpadButtons {
		if k, ok := ParseKey(dp.DefaultKey); ok {
			m.Keys[dp.BitID] = k
			used[k] = true
		}
		if b, ok := ParsePad(dp.DefaultPad); ok {
			m.Gamepad[dp.BitID] = b
		}
	}

	for _, btn := range buttons {
		if k, ok := ParseKey(btn.DefaultKey); ok && !reservedKeys[k] && !used[k] {
			m.Keys[btn.ID] = k
			used[k] = true
		}
		if b, ok := ParsePad(btn.DefaultPad); ok {
			m.Gamepad[btn.ID] = b
		}
	}

	return m
}

// PollButtons reads player 1 from the keyboard and, if present, a gamepad.
func PollButtons(mapping InputMapping, gamepadID ebiten.GamepadID, hasGamepad bool) uint32 {
	var buttons uint32
	for bitID, key := range mapping.Keys {
		if ebiten.IsKeyPressed(key) {
			buttons |= 1 << uint(bitID)
		}
	}
	if hasGamepad {
		buttons |= PollGamepadButtons(mapping, gamepadID)
	}
	return buttons
}

// PollGamepadButtons reads a gamepad only. The left stick follows the D-pad
// mapping.
func PollGamepadButtons(mapping InputMapping, gamepadID ebiten.GamepadID) uint32 {
	var buttons uint32
	for bitID, padBtn := range mapping.Gamepad {
		if ebiten.IsStandardGamepadButtonPressed(gamepadID, padBtn) {
			buttons |= 1 << uint(bitID)
		}
	}

	axisX := ebiten.StandardGamepadAxisValue(gamepadID, ebiten.StandardGamepadAxisLeftStickHorizontal)
	axisY := ebiten.StandardGamepadAxisValue(gamepadID, ebiten.StandardGamepadAxisLeftStickVertical)
	for bitID, padBtn := range mapping.Gamepad {
		if stickHeld(padBtn, axisX, axisY) {
			buttons |= 1 << uint(bitID)
		}
	}
	return buttons
}

const stickDeadzone = 0.25

func stickHeld(padBtn ebiten.StandardGamepadButton, x, y float64) bool {
	switch padBtn {
	case ebiten.StandardGamepadButtonLeftLeft:
		return x < -stickDeadzone
	case ebiten.StandardGamepadButtonLeftRight:
		return x > stickDeadzone
	case ebiten.StandardGamepadButtonLeftTop:
		return y < -stickDeadzone
	case ebiten.StandardGamepadButtonLeftBottom:
		return y > stickDeadzone
	}
	return false
}
