package emucore

// Standard d-pad button bit positions (always bits 0-3).
const (
	ButtonUp    = 0
	ButtonDown  = 1
	ButtonLeft  = 2
	ButtonRight = 3
)

// Button describes a system-specific button with its display name
// and bit position in the input bitmask.
type Button struct {
	Name       string
	ID         int    // Bit position in the uint32 bitmask (4+)
	DefaultKey string // Default keyboard key for the standalone host
	DefaultPad string // Default standard gamepad button for the standalone host
}

// SystemInfo describes the emulated machine and the fixed presentation
// contract agreed with the host at startup.
type SystemInfo struct {
	CoreName    string
	CoreVersion string
	Extensions  []string

	// BaseWidth and BaseHeight are the logical output resolution reported
	// to the host. The machine may render at a different size; the bridge
	// scales during the blit.
	BaseWidth  int
	BaseHeight int

	// PixelAspectRatio is the width/height ratio of a single output pixel.
	// Zero is treated as square pixels.
	PixelAspectRatio float64

	FPS        float64
	SampleRate int
	Players    int
	Buttons    []Button

	// NeedFullpath is true when CreateMachine expects a filesystem path
	// rather than in-memory content.
	NeedFullpath bool
	DataDirName  string
}

// DisplayAspectRatio returns the aspect ratio of a width x height image
// whose pixels have the given pixel aspect ratio.
func DisplayAspectRatio(width, height int, par float64) float64 {
	if height == 0 {
		return 0
	}
	if par == 0 {
		par = 1
	}
	return float64(width) / float64(height) * par
}

// MachineFactory creates machines and provides system metadata.
type MachineFactory interface {
	// SystemInfo returns metadata for host configuration.
	SystemInfo() SystemInfo

	// CreateMachine creates a machine for the given content. The machine
	// renders and produces audio through out. The machine must not start
	// running until Start is called.
	CreateMachine(content string, out Producer) (Machine, error)
}
