// Package updates records the Terraria server's status history.
//
// The log is append-only: entries are never mutated or deleted once written.
// Entries are totally ordered by time with insertion order as the tie-break,
// which is the order SQLite's rowid preserves.
package updates

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Kind distinguishes the two variants of a log entry.
type Kind int

const (
	// StatusChange is a server on/off transition.
	StatusChange Kind = iota
	// Milestone is a free-text annotation.
	Milestone
)

// Event is a single immutable entry in the updates log.
type Event struct {
	// User is the actor who triggered the event, possibly empty.
	User string
	// Time is the creation time of the event in UTC.
	Time time.Time
	// Kind selects which of the remaining fields are meaningful.
	Kind Kind
	// Online and IP are the payload of a StatusChange.
	Online bool
	IP     string
	// Text is the payload of a Milestone.
	Text string
}

// Filter selects which kinds of events a query returns.
type Filter int

const (
	All Filter = iota
	StatusOnly
	MilestoneOnly
)

func (f Filter) where() string {
	switch f {
	case StatusOnly:
		return ` WHERE milestone=0`
	case MilestoneOnly:
		return ` WHERE milestone=1`
	default:
		return ``
	}
}

// Log is an updates log backed by an SQL database.
type Log struct {
	db *sqlitex.Pool
}

// Open opens an existing updates log in an SQL database.
func Open(ctx context.Context, db *sqlitex.Pool) (*Log, error) {
	return &Log{db: db}, nil
}

//go:embed schema.sql
var schemaSQL string

// Init initializes an SQLite DB to record server updates.
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
	if err := sqlitex.ExecuteScript(conn, schemaSQL, nil); err != nil {
		return fmt.Errorf("couldn't initialize updates schema: %w", err)
	}
	return nil
}

// Append stores an event as the newest entry in the log.
func (l *Log) Append(ctx context.Context, ev Event) error {
	conn, err := l.db.Take(ctx)
	defer l.db.Put(conn)
	if err != nil {
		return fmt.Errorf("couldn't get connection to append update: %w", err)
	}
	st, err := conn.Prepare(`INSERT INTO updates (user, time, milestone, online, ip, text) VALUES (:user, :time, :milestone, :online, :ip, :text)`)
	if err != nil {
		return fmt.Errorf("couldn't prepare statement to append update: %w", err)
	}
	st.SetText(":user", ev.User)
	st.SetInt64(":time", ev.Time.UnixNano())
	st.SetBool(":milestone", ev.Kind == Milestone)
	st.SetBool(":online", ev.Online)
	st.SetText(":ip", ev.IP)
	st.SetText(":text", ev.Text)
	if _, err := st.Step(); err != nil {
		return fmt.Errorf("couldn't append update: %w", err)
	}
	return nil
}

const selectCols = `SELECT user, time, milestone, online, ip, text FROM updates`

func scan(st *sqlite.Stmt) Event {
	ev := Event{
		User:   st.ColumnText(0),
		Time:   time.Unix(0, st.ColumnInt64(1)).UTC(),
		Online: st.ColumnBool(3),
		IP:     st.ColumnText(4),
		Text:   st.ColumnText(5),
	}
	if st.ColumnBool(2) {
		ev.Kind = Milestone
	}
	return ev
}

// Latest returns the most recently appended event matching the filter, or
// nil if the log holds no such event.
func (l *Log) Latest(ctx context.Context, f Filter) (*Event, error) {
	conn, err := l.db.Take(ctx)
	defer l.db.Put(conn)
	if err != nil {
		return nil, fmt.Errorf("couldn't get connection to read updates: %w", err)
	}
	st, err := conn.Prepare(selectCols + f.where() + ` ORDER BY time DESC, rowid DESC LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("couldn't prepare statement to read updates: %w", err)
	}
	ok, err := st.Step()
	if err != nil {
		return nil, fmt.Errorf("couldn't read latest update: %w", err)
	}
	if !ok {
		return nil, nil
	}
	ev := scan(st)
	// Clean up the statement.
	st.Step()
	return &ev, nil
}

// Recent returns up to n of the most recently appended events matching the
// filter, newest first. n <= 0 yields no events.
func (l *Log) Recent(ctx context.Context, n int, f Filter) ([]Event, error) {
	if n <= 0 {
		return nil, nil
	}
	conn, err := l.db.Take(ctx)
	defer l.db.Put(conn)
	if err != nil {
		return nil, fmt.Errorf("couldn't get connection to read updates: %w", err)
	}
	st, err := conn.Prepare(selectCols + f.where() + ` ORDER BY time DESC, rowid DESC LIMIT :n`)
	if err != nil {
		return nil, fmt.Errorf("couldn't prepare statement to read updates: %w", err)
	}
	st.SetInt64(":n", int64(n))
	var evs []Event
	for {
		ok, err := st.Step()
		if err != nil {
			return nil, fmt.Errorf("couldn't read updates: %w", err)
		}
		if !ok {
			return evs, nil
		}
		evs = append(evs, scan(st))
	}
}
