package server

import (
	"os/exec"
	"sync"
	"testing"
	"time"

	"termlens/protocol"
)

// recordingSink captures sink events for assertions.
type recordingSink struct {
	mu      sync.Mutex
	started []string
	frames  []protocol.Frame
	inputs  []int
	ended   int
}

func (r *recordingSink) SessionStarted(_ *Session, clientName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, clientName)
}

func (r *recordingSink) FramePublished(_ *Session, frame protocol.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
}

func (r *recordingSink) InputForwarded(_ *Session, bytes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, bytes)
}

func (r *recordingSink) SessionEnded(*Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended++
}

func (r *recordingSink) frameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recordingSink) lastFrame() (protocol.Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return protocol.Frame{}, false
	}
	return r.frames[len(r.frames)-1], true
}

func (r *recordingSink) endedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", d)
}

// requireTool skips the test when the named binary is not installed.
func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}
