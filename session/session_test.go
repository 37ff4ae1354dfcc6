package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/aracnido/haibot/session"
)

func testStore(t *testing.T) *session.Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("couldn't open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return session.NewStore(db)
}

func TestLoadFresh(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	s, err := st.Load(ctx, 12)
	if err != nil {
		t.Fatalf("couldn't load fresh session: %v", err)
	}
	if s.Chat != 12 {
		t.Errorf("wrong chat: want 12, got %d", s.Chat)
	}
	if s.State != session.Stopped {
		t.Errorf("fresh session not stopped: got %v", s.State)
	}
	if s.Context != nil {
		t.Errorf("fresh session has context %q", s.Context)
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	s := &session.Session{Chat: 12, State: session.NewCharacter, Lang: "es_ES", Context: []byte(`{"name":"bocchi"}`)}
	if err := st.Save(ctx, s); err != nil {
		t.Fatalf("couldn't save session: %v", err)
	}
	got, err := st.Load(ctx, 12)
	if err != nil {
		t.Fatalf("couldn't load session: %v", err)
	}
	if got.State != session.NewCharacter {
		t.Errorf("wrong state: want %v, got %v", session.NewCharacter, got.State)
	}
	if got.Lang != "es_ES" {
		t.Errorf("wrong lang: want es_ES, got %q", got.Lang)
	}
	if string(got.Context) != `{"name":"bocchi"}` {
		t.Errorf("wrong context: got %q", got.Context)
	}
	// Sessions for other chats are unaffected.
	other, err := st.Load(ctx, 13)
	if err != nil {
		t.Fatal(err)
	}
	if other.State != session.Stopped {
		t.Errorf("unrelated chat has state %v", other.State)
	}
}

func TestSaveStoppedClearsContext(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	s := &session.Session{Chat: 12, State: session.Playing, Context: []byte("x")}
	if err := st.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	s.Reset()
	if err := st.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	got, err := st.Load(ctx, 12)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != session.Stopped {
		t.Errorf("wrong state after reset: got %v", got.State)
	}
	if got.Context != nil {
		t.Errorf("context survived reset: %q", got.Context)
	}
}

func TestLocksSerialize(t *testing.T) {
	var l session.Locks
	var wg sync.WaitGroup
	n := 0
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := l.Acquire(12)
			defer release()
			n++
		}()
	}
	wg.Wait()
	if n != 50 {
		t.Errorf("lost updates under per-chat lock: want 50, got %d", n)
	}
}

func TestLocksIndependent(t *testing.T) {
	var l session.Locks
	r1 := l.Acquire(1)
	// A lock on one chat must not block another chat.
	done := make(chan struct{})
	go func() {
		r2 := l.Acquire(2)
		r2()
		close(done)
	}()
	<-done
	r1()
}
