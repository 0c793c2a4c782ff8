package emuthread

import (
	"errors"
	"testing"
	"time"
)

func TestSharedInput_SetAndRead(t *testing.T) {
	si := &SharedInput{}

	si.Set(0, 0b1010_0101)

	buttons := si.Read()
	if buttons[0] != 0b1010_0101 {
		t.Fatalf("player 0 mismatch: expected 0x%X, got 0x%X", uint32(0b1010_0101), buttons[0])
	}
	if buttons[1] != 0 {
		t.Fatalf("player 1 should be 0, got 0x%X", buttons[1])
	}

	si.Set(1, 0xFF)
	buttons = si.Read()
	if buttons[0] != 0b1010_0101 || buttons[1] != 0xFF {
		t.Fatalf("got 0x%X/0x%X, want 0xA5/0xFF", buttons[0], buttons[1])
	}

	// Out-of-range player should be ignored
	si.Set(-1, 0xDEAD)
	si.Set(MaxPlayers, 0xDEAD)
	buttons = si.Read()
	if buttons[0] != 0b1010_0101 || buttons[1] != 0xFF {
		t.Fatal("out-of-range Set should not change state")
	}
}

// runLoop runs a minimal emulation goroutine until stopped.
func runLoop(ec *EmuControl) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ec.ShouldRun() {
			if !ec.CheckPause() {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
	return done
}

func TestEmuControl_PauseResume(t *testing.T) {
	ec := NewEmuControl()
	done := runLoop(ec)

	if !ec.IsRunning() {
		t.Fatal("expected running before pause")
	}
	if err := ec.Pause(); err != nil {
		t.Fatalf("Pause() = %v", err)
	}
	if !ec.IsPaused() || ec.IsRunning() {
		t.Fatal("expected paused and not running after Pause")
	}

	// pausing twice is a no-op
	if err := ec.Pause(); err != nil {
		t.Fatalf("second Pause() = %v", err)
	}

	if err := ec.Resume(); err != nil {
		t.Fatalf("Resume() = %v", err)
	}
	deadline := time.After(time.Second)
	for !ec.IsRunning() {
		select {
		case <-deadline:
			t.Fatal("expected running after Resume")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	ec.Stop()
	<-done
}

func TestEmuControl_PauseTimeout(t *testing.T) {
	ec := NewEmuControl()

	// no goroutine is calling CheckPause
	err := ec.RequestPause(20 * time.Millisecond)
	if !errors.Is(err, ErrPauseTimeout) {
		t.Fatalf("RequestPause() = %v, want ErrPauseTimeout", err)
	}
	if ec.IsPaused() {
		t.Fatal("paused after a timed out request")
	}

	// the withdrawn request must not pause a goroutine that starts later
	done := runLoop(ec)
	time.Sleep(30 * time.Millisecond)
	if ec.IsPaused() {
		t.Error("withdrawn pause request was honoured")
	}

	ec.Stop()
	<-done
}

func TestEmuControl_Stop(t *testing.T) {
	ec := NewEmuControl()
	done := runLoop(ec)

	ec.Stop()
	ec.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not exit after Stop")
	}
	if ec.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	if err := ec.Pause(); !errors.Is(err, ErrStopped) {
		t.Errorf("Pause() after Stop = %v, want ErrStopped", err)
	}
	if err := ec.Resume(); !errors.Is(err, ErrStopped) {
		t.Errorf("Resume() after Stop = %v, want ErrStopped", err)
	}
}

func TestEmuControl_StopWhilePaused(t *testing.T) {
	ec := NewEmuControl()
	done := runLoop(ec)

	if err := ec.Pause(); err != nil {
		t.Fatal(err)
	}
	ec.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("paused goroutine did not exit after Stop")
	}
}

func TestEmuControl_StopUnblocksPause(t *testing.T) {
	ec := NewEmuControl()

	errCh := make(chan error, 1)
	go func() {
		errCh <- ec.RequestPause(10 * time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	ec.Stop()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrStopped) {
			t.Errorf("RequestPause() = %v, want ErrStopped", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RequestPause did not return after Stop")
	}
}
