package agent

import (
	"fmt"
	"sync"
	"time"
)

const defaultLogDepth = 100

// Log is a bounded in-memory record of recent agent activity. The daemon
// exposes it through the projection log child and the HTTP API so operators
// can see what an agent did without tailing the daemon log.
type Log struct {
	mu    sync.Mutex
	depth int
	lines []string
}

// NewLog builds an activity log keeping at most depth lines.
func NewLog(depth int) *Log {
	if depth <= 0 {
		depth = defaultLogDepth
	}
	return &Log{depth: depth}
}

// Record appends a timestamped line, evicting the oldest once full.
func (l *Log) Record(format string, args ...any) {
	if l == nil {
		return
	}
	line := time.Now().UTC().Format(time.RFC3339) + " " + fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
	if len(l.lines) > l.depth {
		l.lines = l.lines[len(l.lines)-l.depth:]
	}
}

// Lines returns a snapshot of the recorded lines, oldest first.
func (l *Log) Lines() []string {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}
