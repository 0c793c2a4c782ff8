package gldevice_test

import (
	"testing"

	"github.com/user-none/hwbridge/gldevice"
	"github.com/user-none/hwbridge/pump"
	"github.com/user-none/hwbridge/testpattern"
)

// The GL entry points need a live context, which tests do not have. This
// only checks that the device satisfies what the bridge and the pattern
// need from it.
func TestInterfaces(t *testing.T) {
	var d any = gldevice.New()
	if _, ok := d.(pump.Device); !ok {
		t.Error("Device does not implement pump.Device")
	}
	if _, ok := d.(testpattern.Painter); !ok {
		t.Error("Device does not implement testpattern.Painter")
	}
}
