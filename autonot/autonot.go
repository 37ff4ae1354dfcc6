// Package autonot maintains the set of chats subscribed to automatic
// notifications about server status changes and milestones.
package autonot

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// List is a subscriber set backed by an SQL database.
type List struct {
	db *sqlitex.Pool
}

// Open opens an existing subscriber set in an SQL database.
func Open(ctx context.Context, db *sqlitex.Pool) (*List, error) {
	return &List{db: db}, nil
}

// Init initializes a subscriber set in an SQL database.
// For convenience, it accepts either a single connection or a pool.
func Init[DB *sqlite.Conn | *sqlitex.Pool](ctx context.Context, db DB) error {
	var conn *sqlite.Conn
	switch db := any(db).(type) {
	case *sqlite.Conn:
		conn = db
	case *sqlitex.Pool:
		var err error
		conn, err = db.Take(ctx)
		defer db.Put(conn)
		if err != nil {
			return fmt.Errorf("couldn't get connection from pool: %w", err)
		}
	}
	err := sqlitex.ExecuteTransient(conn, `CREATE TABLE autonot (id INTEGER PRIMARY KEY)`, nil)
	return err
}

// Subscribed reports whether a chat is in the subscriber set.
func (l *List) Subscribed(ctx context.Context, id int64) (bool, error) {
	conn, err := l.db.Take(ctx)
	defer l.db.Put(conn)
	if err != nil {
		return false, fmt.Errorf("couldn't get connection to check subscription: %w", err)
	}
	st, err := conn.Prepare(`SELECT ? IN (SELECT id FROM autonot)`)
	if err != nil {
		return false, fmt.Errorf("couldn't prepare statement to check subscription: %w", err)
	}
	st.BindInt64(1, id)
	return sqlitex.ResultBool(st)
}

// Subscribe ensures a chat is in the subscriber set. Subscribing a chat that
// is already subscribed is a no-op.
func (l *List) Subscribe(ctx context.Context, id int64) error {
	conn, err := l.db.Take(ctx)
	defer l.db.Put(conn)
	if err != nil {
		return fmt.Errorf("couldn't get connection to subscribe: %w", err)
	}
	opts := sqlitex.ExecOptions{Args: []any{id}}
	return sqlitex.Execute(conn, `INSERT OR IGNORE INTO autonot (id) VALUES (?)`, &opts)
}

// Unsubscribe ensures a chat is not in the subscriber set. Unsubscribing a
// chat that is not subscribed is a no-op.
func (l *List) Unsubscribe(ctx context.Context, id int64) error {
	conn, err := l.db.Take(ctx)
	defer l.db.Put(conn)
	if err != nil {
		return fmt.Errorf("couldn't get connection to unsubscribe: %w", err)
	}
	opts := sqlitex.ExecOptions{Args: []any{id}}
	return sqlitex.Execute(conn, `DELETE FROM autonot WHERE id=?`, &opts)
}

// Toggle flips a chat's membership and reports the resulting membership.
func (l *List) Toggle(ctx context.Context, id int64) (bool, error) {
	on, err := l.Subscribed(ctx, id)
	if err != nil {
		return false, err
	}
	if on {
		return false, l.Unsubscribe(ctx, id)
	}
	return true, l.Subscribe(ctx, id)
}

// All returns every subscribed chat. The result is empty, not an error, when
// no chat has ever subscribed.
func (l *List) All(ctx context.Context) ([]int64, error) {
	conn, err := l.db.Take(ctx)
	defer l.db.Put(conn)
	if err != nil {
		return nil, fmt.Errorf("couldn't get connection to list subscribers: %w", err)
	}
	var ids []int64
	opts := sqlitex.ExecOptions{
		ResultFunc: func(st *sqlite.Stmt) error {
			ids = append(ids, st.ColumnInt64(0))
			return nil
		},
	}
	if err := sqlitex.Execute(conn, `SELECT id FROM autonot`, &opts); err != nil {
		return nil, fmt.Errorf("couldn't list subscribers: %w", err)
	}
	return ids, nil
}
