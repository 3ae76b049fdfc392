package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/dikaadmin/internal/domain"
)

// ActivityStore records the order mutations made from the console.
type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func (s *ActivityStore) Record(ctx context.Context, a domain.Activity) (*domain.Activity, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO order_activity (order_id, action, from_state, to_state, actor)
		VALUES (?, ?, ?, ?, ?)
	`, a.OrderID, a.Action, string(a.FromState), string(a.ToState), a.Actor)
	if err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ActivityStore) GetByID(ctx context.Context, id int64) (*domain.Activity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, order_id, action, from_state, to_state, actor, created_at
		FROM order_activity WHERE id = ?
	`, id)

	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// Recent returns the latest limit entries, newest first.
func (s *ActivityStore) Recent(ctx context.Context, limit int) ([]*domain.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, action, from_state, to_state, actor, created_at
		FROM order_activity ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var out []*domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(sc scanner) (*domain.Activity, error) {
	var a domain.Activity
	var from, to string
	if err := sc.Scan(&a.ID, &a.OrderID, &a.Action, &from, &to, &a.Actor, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.FromState = domain.OrderStatus(from)
	a.ToState = domain.OrderStatus(to)
	return &a, nil
}
