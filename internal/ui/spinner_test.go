package ui

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer guards a bytes.Buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (w *syncBuffer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.Write(p)
}

func (w *syncBuffer) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.String()
}

func TestSpinnerWritesMessageAndFinal(t *testing.T) {
	var out syncBuffer
	s := NewSpinnerTo(&out, "sending buy")
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.StopWithMsg("done")

	got := out.String()
	assert.Contains(t, got, "sending buy")
	assert.Contains(t, got, "done\n")
}

func TestSpinnerSetMessage(t *testing.T) {
	var out syncBuffer
	s := NewSpinnerTo(&out, "sending")
	s.Start()
	s.SetMessage("waiting for receipt")
	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("waiting for receipt"))
	}, 2*time.Second, 10*time.Millisecond)
	s.Stop()
}

func TestSpinnerStopTwice(t *testing.T) {
	var out syncBuffer
	s := NewSpinnerTo(&out, "x")
	s.Start()
	s.Stop()
	assert.NotPanics(t, s.Stop)
}
