package analysis

import "sync"

// DefaultLogSize bounds the alarm log kept for display and export.
const DefaultLogSize = 200

// Log keeps the most recent alarms, oldest first. Safe for concurrent use.
type Log struct {
	mu     sync.Mutex
	size   int
	alarms []Alarm
}

func NewLog(size int) *Log {
	if size <= 0 {
		size = DefaultLogSize
	}
	return &Log{size: size}
}

func (l *Log) Append(a ...Alarm) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.alarms = append(l.alarms, a...)
	if over := len(l.alarms) - l.size; over > 0 {
		l.alarms = append([]Alarm(nil), l.alarms[over:]...)
	}
}

// Entries returns a copy of the log.
func (l *Log) Entries() []Alarm {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Alarm{}, l.alarms...)
}

func (l *Log) Clear() {
	l.mu.Lock()
	l.alarms = nil
	l.mu.Unlock()
}
