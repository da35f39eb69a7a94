package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studentdesk/internal/models"
)

func TestUndoLogIsLIFO(t *testing.T) {
	log := NewUndoLog()
	log.Push(models.UndoEntry{Kind: models.UndoRemove, Roll: "1"})
	log.Push(models.UndoEntry{Kind: models.UndoReinsert, Row: models.Student{ID: 2}})
	require.Equal(t, 2, log.Len())

	entry, ok := log.Pop()
	require.True(t, ok)
	assert.Equal(t, models.UndoReinsert, entry.Kind)

	entry, ok = log.Pop()
	require.True(t, ok)
	assert.Equal(t, models.UndoRemove, entry.Kind)

	_, ok = log.Pop()
	assert.False(t, ok)
}

func TestUndoLogClear(t *testing.T) {
	log := NewUndoLog()
	log.Push(models.UndoEntry{Kind: models.UndoRemove, Roll: "1"})
	log.Clear()
	assert.Equal(t, 0, log.Len())
	_, ok := log.Pop()
	assert.False(t, ok)
}
