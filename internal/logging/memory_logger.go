package logging

import (
	"fmt"
	"strings"
	"sync"
)

// MemoryLogger records formatted lines with the same prefixes as ConsoleLogger.
// Verbose lines are always kept.
type MemoryLogger struct {
	mu    sync.Mutex
	lines []string
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Verbose(format string, args ...interface{}) {
	l.add("[VERBOSE] " + fmt.Sprintf(format, args...))
}

func (l *MemoryLogger) Info(format string, args ...interface{}) {
	l.add(fmt.Sprintf(format, args...))
}

func (l *MemoryLogger) Error(format string, args ...interface{}) {
	l.add("[ERROR] " + fmt.Sprintf(format, args...))
}

func (l *MemoryLogger) add(line string) {
	l.mu.Lock()
	l.lines = append(l.lines, line)
	l.mu.Unlock()
}

// Lines returns a copy of everything logged so far.
func (l *MemoryLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// Contains reports whether any line contains substr.
func (l *MemoryLogger) Contains(substr string) bool {
	for _, line := range l.Lines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// Count returns how many lines contain substr.
func (l *MemoryLogger) Count(substr string) int {
	n := 0
	for _, line := range l.Lines() {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}
