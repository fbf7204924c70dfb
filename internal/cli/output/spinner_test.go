package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_Success(t *testing.T) {
	var out syncBuffer
	s := NewSpinner(&out, "submitting")
	s.interval = time.Millisecond
	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.Success("committed")

	got := out.String()
	if !strings.Contains(got, "submitting") {
		t.Errorf("missing message: %q", got)
	}
	if !strings.HasSuffix(got, "✓ committed\n") {
		t.Errorf("missing success line: %q", got)
	}
}

func TestSpinner_FinishOnce(t *testing.T) {
	var out syncBuffer
	s := NewSpinner(&out, "working")
	s.Start()
	s.Fail("failed")
	s.Stop()
	s.Success("ignored")

	got := out.String()
	if strings.Contains(got, "ignored") {
		t.Errorf("second finish had an effect: %q", got)
	}
	if !strings.HasSuffix(got, "✗ failed\n") {
		t.Errorf("missing failure line: %q", got)
	}
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	var out syncBuffer
	s := NewSpinner(&out, "never")
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without Start")
	}
}
