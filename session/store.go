package session

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-json-experiment/json"
)

// Store persists sessions in a key-value database, one record per chat.
type Store struct {
	db *badger.DB
}

// NewStore creates a session store over an open database.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

// record is the marshaled form of a session.
type record struct {
	State   int    `json:"state"`
	Lang    string `json:"lang,omitempty"`
	Context []byte `json:"context,omitempty"`
}

// DecodeError reports a stored session that could not be decoded.
type DecodeError struct {
	Chat int64
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("corrupt session for chat %d: %v", e.Chat, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func key(chat int64) []byte {
	k := make([]byte, 8, 16)
	binary.BigEndian.PutUint64(k, uint64(chat))
	return append(k, "session"...)
}

// Load retrieves a chat's session. A chat that has never interacted gets a
// fresh session in Stopped with no context.
func (st *Store) Load(ctx context.Context, chat int64) (*Session, error) {
	s := &Session{Chat: chat}
	err := st.db.View(func(txn *badger.Txn) error {
		it, err := txn.Get(key(chat))
		if err != nil {
			return err
		}
		return it.Value(func(val []byte) error {
			var r record
			if err := json.Unmarshal(val, &r); err != nil {
				return &DecodeError{Chat: chat, Err: err}
			}
			s.State = State(r.State)
			s.Lang = r.Lang
			s.Context = r.Context
			return nil
		})
	})
	switch {
	case err == nil, errors.Is(err, badger.ErrKeyNotFound):
		return s, nil
	default:
		return nil, fmt.Errorf("couldn't load session for chat %d: %w", chat, err)
	}
}

// Save persists a session. Context is dropped when the session is Stopped, so
// a stored session never violates the context invariant.
func (st *Store) Save(ctx context.Context, s *Session) error {
	if s.State == Stopped {
		s.Context = nil
	}
	r := record{State: int(s.State), Lang: s.Lang, Context: s.Context}
	val, err := json.Marshal(&r)
	if err != nil {
		// Should be impossible. Explode loudly.
		panic(fmt.Errorf("session: couldn't marshal %#v: %w", r, err))
	}
	err = st.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(s.Chat), val)
	})
	if err != nil {
		return fmt.Errorf("couldn't save session for chat %d: %w", s.Chat, err)
	}
	return nil
}
