// Package store is the atomic substrate every reactor step runs on. It
// exposes only write primitives: puts, deletes, and additive increments,
// applied as all-or-nothing batches. There is deliberately no read path —
// handlers read through repositories before composing a batch, so no
// read-modify-write cycle can lose updates.
package store

import (
	"context"
	"errors"
)

// ColumnValue binds a column name to a value. Order matters where a slice
// of these forms a conflict target.
type ColumnValue struct {
	Column string
	Value  any
}

// Operation is one store mutation inside a batch.
type Operation interface {
	isOperation()
}

// Put inserts a new row. A unique-constraint violation fails the whole
// batch; callers use db.IsDuplicateKeyErr to resolve it.
type Put struct {
	Row any
}

func (Put) isOperation() {}

// Delete removes every row matching the condition. Matching zero rows is
// not an error.
type Delete struct {
	Model any
	Where string
	Args  []any
}

func (Delete) isOperation() {}

// Increment adds Delta to Column on the row identified by Keys, creating
// the row when absent. With Floor set the result clamps at zero instead of
// going negative. Defaults are written on first insert only; Touch columns
// are written on both insert and update.
type Increment struct {
	Table    string
	Keys     []ColumnValue
	Column   string
	Delta    int64
	Floor    bool
	Defaults []ColumnValue
	Touch    []ColumnValue
}

func (Increment) isOperation() {}

// Store applies mutations atomically. Every operation in a batch commits
// together or not at all.
type Store interface {
	ApplyBatch(ctx context.Context, ops []Operation) error
	Increment(ctx context.Context, inc Increment) error
	CreateIfAbsent(ctx context.Context, row any, conflictColumns ...string) (bool, error)
}

var (
	ErrInvalidOperation = errors.New("invalid_operation")
	ErrInvalidIncrement = errors.New("invalid_increment")
)
