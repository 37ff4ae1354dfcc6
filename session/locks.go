package session

import "sync"

// Locks serializes handler execution per chat, so that each read-mutate-
// persist sequence on a session completes before the next one for the same
// chat begins. Locks for different chats are independent.
type Locks struct {
	mu sync.Mutex
	m  map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// Acquire locks the given chat and returns the function that unlocks it.
func (l *Locks) Acquire(chat int64) (release func()) {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[int64]*chatLock)
	}
	c := l.m[chat]
	if c == nil {
		c = new(chatLock)
		l.m[chat] = c
	}
	c.refs++
	l.mu.Unlock()
	c.mu.Lock()
	return func() {
		c.mu.Unlock()
		l.mu.Lock()
		c.refs--
		if c.refs == 0 {
			delete(l.m, chat)
		}
		l.mu.Unlock()
	}
}
