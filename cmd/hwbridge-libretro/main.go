//go:build libretro

// Command hwbridge-libretro builds the test pattern as a libretro core:
//
//	go build -tags libretro -buildmode=c-shared -o hwbridge_libretro.so ./cmd/hwbridge-libretro
package main

import "C"

import (
	emucore "github.com/user-none/hwbridge/api"
	"github.com/user-none/hwbridge/gldevice"
	"github.com/user-none/hwbridge/libretro"
	"github.com/user-none/hwbridge/testpattern"
)

func init() {
	libretro.RegisterFactory(func(dev *gldevice.Device, ctx libretro.ProducerContext) emucore.MachineFactory {
		f := &testpattern.Factory{Config: testpattern.DefaultConfig()}
		if dev != nil {
			f.Painter = dev
		}
		if ctx != nil {
			f.Context = ctx
		}
		return f
	}, []libretro.RetropadMapping{
		{RetroID: libretro.JoypadA, BitID: 4},
		{RetroID: libretro.JoypadB, BitID: 5},
		{RetroID: libretro.JoypadStart, BitID: 6},
	})
}

func main() {}
