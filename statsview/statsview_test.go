package statsview_test

import (
	"bytes"
	"testing"

	"github.com/user-none/hwbridge/statsview"
)

func TestLaunchReportsAddress(t *testing.T) {
	if !statsview.Available() {
		var out bytes.Buffer
		statsview.Launch(&out)
		if out.Len() != 0 {
			t.Errorf("stub Launch wrote %q", out.String())
		}
		return
	}
	// the server itself is not started here; it binds a fixed port
	t.Logf("statsview available at %s", statsview.Address)
}
