package models

// UndoKind names the inverse write an UndoEntry performs when applied.
type UndoKind string

const (
	// UndoRemove deletes the row identified by Roll; it reverses an add.
	UndoRemove UndoKind = "remove"
	// UndoReinsert re-inserts Row verbatim, original id and created_at
	// included; it reverses a delete.
	UndoReinsert UndoKind = "reinsert"
	// UndoRestore writes Row's previous values back; it reverses an update.
	UndoRestore UndoKind = "restore"
)

// UndoEntry captures enough state to invert one prior mutation. Exactly one
// payload field is meaningful for each kind: Roll for UndoRemove, Row for
// UndoReinsert and UndoRestore.
type UndoEntry struct {
	Kind UndoKind
	Roll string
	Row  Student
}
