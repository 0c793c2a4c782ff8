package wavwriter_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/user-none/hwbridge/wavwriter"
)

func TestWriteAndDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")
	w, err := wavwriter.New(path, 48000)
	if err != nil {
		t.Fatal(err)
	}

	w.Batch([]int16{1, -1, 2, -2, 3, -3}, 3)
	// frames beyond the slice are ignored
	w.Batch([]int16{100, -100}, 4)

	if got := w.Frames(); got != 4 {
		t.Errorf("Frames() = %d, want 4", got)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	// late batches are dropped
	w.Batch([]int16{9, 9}, 1)
	if err := w.Close(); !errors.Is(err, wavwriter.ErrClosed) {
		t.Errorf("second Close() = %v, want ErrClosed", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if dec.SampleRate != 48000 || dec.NumChans != 2 || dec.BitDepth != 16 {
		t.Errorf("got %d Hz %d ch %d bit, want 48000 Hz 2 ch 16 bit",
			dec.SampleRate, dec.NumChans, dec.BitDepth)
	}

	want := []int{1, -1, 2, -2, 3, -3, 100, -100}
	if len(buf.Data) != len(want) {
		t.Fatalf("got %d samples, want %d", len(buf.Data), len(want))
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], want[i])
		}
	}
}

func TestInvalidSampleRate(t *testing.T) {
	if _, err := wavwriter.New("x.wav", 0); err == nil {
		t.Error("New accepted a zero sample rate")
	}
}

func TestCreateFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "capture.wav")
	w, err := wavwriter.New(path, 44100)
	if err != nil {
		t.Fatal(err)
	}
	w.Batch([]int16{1, 1}, 1)
	if err := w.Close(); err == nil {
		t.Error("Close() = nil for an uncreatable file")
	}
}
