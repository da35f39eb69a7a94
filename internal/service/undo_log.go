package service

import "github.com/noah-isme/studentdesk/internal/models"

// UndoLog is a strict last-in-first-out stack of mutation reversals. It is
// in-memory only and lives for one process run.
type UndoLog struct {
	entries []models.UndoEntry
}

// NewUndoLog constructs an empty stack.
func NewUndoLog() *UndoLog {
	return &UndoLog{}
}

// Push records a reversal entry.
func (l *UndoLog) Push(entry models.UndoEntry) {
	l.entries = append(l.entries, entry)
}

// Pop removes and returns the most recent entry. The boolean is false when
// the stack is empty.
func (l *UndoLog) Pop() (models.UndoEntry, bool) {
	if len(l.entries) == 0 {
		return models.UndoEntry{}, false
	}
	entry := l.entries[len(l.entries)-1]
	l.entries = l.entries[:len(l.entries)-1]
	return entry, true
}

// Len returns the current depth.
func (l *UndoLog) Len() int {
	return len(l.entries)
}

// Clear drops all entries.
func (l *UndoLog) Clear() {
	l.entries = nil
}
