package testpattern

import (
	emucore "github.com/user-none/hwbridge/api"
	"github.com/user-none/hwbridge/emuthread"
)

// Factory creates pattern machines. It implements emucore.MachineFactory.
type Factory struct {
	Config  Config
	Painter Painter

	// Context is optional; see NewMachine.
	Context Context
}

var _ emucore.MachineFactory = (*Factory)(nil)

// SystemInfo returns the pattern's presentation contract.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		CoreName:         "hwbridge",
		CoreVersion:      "1.0.0",
		BaseWidth:        1280,
		BaseHeight:       720,
		PixelAspectRatio: 1,
		FPS:              f.Config.FPS,
		SampleRate:       f.Config.SampleRate,
		Players:          emuthread.MaxPlayers,
		Buttons: []emucore.Button{
			{Name: "A", ID: 4, DefaultKey: "J", DefaultPad: "A"},
			{Name: "B", ID: 5, DefaultKey: "K", DefaultPad: "B"},
			{Name: "Start", ID: 6, DefaultKey: "Enter", DefaultPad: "Start"},
		},
		DataDirName: "hwbridge",
	}
}

// CreateMachine ignores content; the pattern needs none.
func (f *Factory) CreateMachine(_ string, out emucore.Producer) (emucore.Machine, error) {
	m, err := NewMachine(f.Config, out, f.Painter, f.Context)
	if err != nil {
		return nil, err
	}
	return m, nil
}
