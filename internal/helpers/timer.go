package helpers

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/esmkit/esmkit/internal/logger"
)

// Timer records how long each phase of a command takes. A nil timer records
// nothing, so callers only allocate one when timing was asked for.
type Timer struct {
	mutex  sync.Mutex
	phases []phase
}

type phase struct {
	name    string
	elapsed time.Duration
}

// Start begins timing "name". The phase is recorded when the returned
// function is called.
func (t *Timer) Start(name string) func() {
	if t == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		elapsed := time.Since(start)
		t.mutex.Lock()
		defer t.mutex.Unlock()
		t.phases = append(t.phases, phase{name: name, elapsed: elapsed})
	}
}

// Lines returns one line per finished phase in the order they finished
func (t *Timer) Lines() []string {
	if t == nil {
		return nil
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	lines := make([]string, 0, len(t.phases))
	for _, p := range t.phases {
		lines = append(lines, fmt.Sprintf("%s: %dms", p.name, p.elapsed.Milliseconds()))
	}
	return lines
}

func (t *Timer) Log(log logger.Log) {
	if lines := t.Lines(); len(lines) > 0 {
		log.AddVerbose("Timing information:\n  " + strings.Join(lines, "\n  "))
	}
}
