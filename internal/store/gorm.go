package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type gormStore struct {
	db  *gorm.DB
	log *zap.Logger
}

// New returns a Store backed by the shared GORM connection.
func New(p Params) Store {
	return &gormStore{
		db:  p.DB,
		log: p.Log.Named("store"),
	}
}

func (s *gormStore) ApplyBatch(ctx context.Context, ops []Operation) error {
	if len(ops) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			if err := s.apply(ctx, tx, op); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *gormStore) Increment(ctx context.Context, inc Increment) error {
	return s.ApplyBatch(ctx, []Operation{inc})
}

func (s *gormStore) CreateIfAbsent(ctx context.Context, row any, conflictColumns ...string) (bool, error) {
	if row == nil {
		return false, ErrInvalidOperation
	}
	columns := make([]clause.Column, 0, len(conflictColumns))
	for _, name := range conflictColumns {
		columns = append(columns, clause.Column{Name: name})
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: columns, DoNothing: true}).
		Create(row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *gormStore) apply(ctx context.Context, tx *gorm.DB, op Operation) error {
	switch typed := op.(type) {
	case Put:
		if typed.Row == nil {
			return ErrInvalidOperation
		}
		return tx.WithContext(ctx).Create(typed.Row).Error
	case Delete:
		if typed.Model == nil || strings.TrimSpace(typed.Where) == "" {
			return ErrInvalidOperation
		}
		return tx.WithContext(ctx).Where(typed.Where, typed.Args...).Delete(typed.Model).Error
	case Increment:
		return s.applyIncrement(ctx, tx, typed)
	default:
		return ErrInvalidOperation
	}
}

func (s *gormStore) applyIncrement(ctx context.Context, tx *gorm.DB, inc Increment) error {
	if strings.TrimSpace(inc.Table) == "" || strings.TrimSpace(inc.Column) == "" || len(inc.Keys) == 0 {
		return ErrInvalidIncrement
	}

	query, args := buildIncrementSQL(tx.Dialector.Name(), inc)
	return tx.WithContext(ctx).Exec(query, args...).Error
}

// buildIncrementSQL compiles one additive upsert. The inserted value is the
// floored delta; the conflict branch re-binds the raw delta so decrements
// against an existing row still apply before clamping.
func buildIncrementSQL(dialect string, inc Increment) (string, []any) {
	insertValue := inc.Delta
	if inc.Floor && insertValue < 0 {
		insertValue = 0
	}

	columns := make([]string, 0, len(inc.Keys)+len(inc.Defaults)+len(inc.Touch)+1)
	args := make([]any, 0, len(inc.Keys)+len(inc.Defaults)+len(inc.Touch)+3)
	for _, key := range inc.Keys {
		columns = append(columns, key.Column)
		args = append(args, key.Value)
	}
	columns = append(columns, inc.Column)
	args = append(args, insertValue)
	for _, def := range inc.Defaults {
		columns = append(columns, def.Column)
		args = append(args, def.Value)
	}
	for _, touch := range inc.Touch {
		columns = append(columns, touch.Column)
		args = append(args, touch.Value)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")

	clampFn := "GREATEST"
	if dialect == "sqlite" {
		clampFn = "MAX"
	}

	var update strings.Builder
	if inc.Floor {
		fmt.Fprintf(&update, "%s = %s(%s.%s + ?, 0)", inc.Column, clampFn, inc.Table, inc.Column)
	} else {
		fmt.Fprintf(&update, "%s = %s.%s + ?", inc.Column, inc.Table, inc.Column)
	}
	args = append(args, inc.Delta)
	for _, touch := range inc.Touch {
		fmt.Fprintf(&update, ", %s = ?", touch.Column)
		args = append(args, touch.Value)
	}

	if dialect == "mysql" {
		query := fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
			inc.Table,
			strings.Join(columns, ", "),
			placeholders,
			strings.ReplaceAll(update.String(), inc.Table+".", ""),
		)
		return query, args
	}

	keyColumns := make([]string, 0, len(inc.Keys))
	for _, key := range inc.Keys {
		keyColumns = append(keyColumns, key.Column)
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		inc.Table,
		strings.Join(columns, ", "),
		placeholders,
		strings.Join(keyColumns, ", "),
		update.String(),
	)
	return query, args
}

// Module provides the store to the application graph.
var Module = fx.Module("store",
	fx.Provide(New),
)
