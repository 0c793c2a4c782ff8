// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

package logger_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/user-none/hwbridge/logger"
)

func TestLogger(t *testing.T) {
	logger.Clear()
	defer logger.Clear()

	var sb strings.Builder
	if logger.Write(&sb) {
		t.Fatal("Write() = true on empty log")
	}

	logger.Log("test", "this is a test")
	logger.Write(&sb)
	if got, want := sb.String(), "test: this is a test\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	sb.Reset()
	logger.Log("test2", "this is another test")
	logger.Write(&sb)
	if got, want := sb.String(), "test: this is a test\ntest2: this is another test\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	tests := []struct {
		number int
		want   string
	}{
		{100, "test: this is a test\ntest2: this is another test\n"},
		{2, "test: this is a test\ntest2: this is another test\n"},
		{1, "test2: this is another test\n"},
		{0, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		sb.Reset()
		logger.Tail(&sb, tt.number)
		if got := sb.String(); got != tt.want {
			t.Errorf("Tail(%d) = %q, want %q", tt.number, got, tt.want)
		}
	}
}

func TestRepeatCollapsing(t *testing.T) {
	logger.Clear()
	defer logger.Clear()

	logger.Log("fence", "timeout")
	logger.Log("fence", "timeout")
	logger.Logf("fence", "%s", "timeout")
	logger.Log("fence", "ok")

	var sb strings.Builder
	logger.Write(&sb)
	want := "fence: timeout (repeat x3)\nfence: ok\n"
	if got := sb.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNewlinesStripped(t *testing.T) {
	logger.Clear()
	defer logger.Clear()

	logger.Log("ta\ng", "line one\nline two")

	var sb strings.Builder
	logger.Write(&sb)
	if got, want := sb.String(), "tag: line oneline two\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSinkAndEcho(t *testing.T) {
	logger.Clear()
	defer logger.Clear()

	var mu sync.Mutex
	var forwarded []string
	logger.SetSink(func(tag, detail string) {
		mu.Lock()
		forwarded = append(forwarded, tag+"/"+detail)
		mu.Unlock()
	})
	defer logger.SetSink(nil)

	var echo strings.Builder
	logger.SetEcho(&echo)
	defer logger.SetEcho(nil)

	logger.Log("audio", "open")
	logger.Log("audio", "open")
	logger.Log("audio", "close")

	mu.Lock()
	defer mu.Unlock()
	if len(forwarded) != 2 || forwarded[0] != "audio/open" || forwarded[1] != "audio/close" {
		t.Errorf("sink got %v, want [audio/open audio/close]", forwarded)
	}
	want := "audio: open\naudio: open (repeat x2)\naudio: close\n"
	if got := echo.String(); got != want {
		t.Errorf("echo = %q, want %q", got, want)
	}
}

func TestMaximumEntries(t *testing.T) {
	logger.Clear()
	defer logger.Clear()

	for i := range 300 {
		logger.Logf("n", "%d", i)
	}

	var n int
	var first string
	logger.BorrowLog(func(e []logger.Entry) {
		n = len(e)
		first = e[0].Detail
	})
	if n != 256 {
		t.Errorf("entries = %d, want 256", n)
	}
	if first != "44" {
		t.Errorf("oldest entry = %q, want %q", first, "44")
	}
}

func TestThrottle(t *testing.T) {
	logger.Clear()
	defer logger.Clear()

	th := logger.NewThrottle("fence", 20*time.Millisecond)
	th.Logf("wait timed out after %dus", 1000)
	th.Logf("wait timed out after %dus", 1000)
	th.Logf("wait timed out after %dus", 1000)

	var sb strings.Builder
	logger.Write(&sb)
	if got, want := sb.String(), "fence: wait timed out after 1000us\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	time.Sleep(30 * time.Millisecond)
	th.Logf("wait timed out after %dus", 2000)

	sb.Reset()
	logger.Write(&sb)
	want := "fence: wait timed out after 1000us\n" +
		"fence: wait timed out after 2000us [2 suppressed]\n"
	if got := sb.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
