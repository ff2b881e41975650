package bot

import "sync"

// chatLocker serializes message handling per chat identifier. Two deliveries
// for the same chat must not interleave (both could read the same
// mid-flow state and consume the same scratch RA); different chats proceed
// in parallel.
type chatLocker struct {
	mu    sync.Mutex
	locks map[string]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

func newChatLocker() *chatLocker {
	return &chatLocker{locks: make(map[string]*chatLock)}
}

// Lock acquires the mutex for a chat id, creating it on first use. The
// returned function releases the mutex and drops the entry once no handler
// is waiting on it, so the map does not grow with every chat ever seen.
func (l *chatLocker) Lock(chatID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[chatID]
	if !ok {
		entry = &chatLock{}
		l.locks[chatID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, chatID)
		}
		l.mu.Unlock()
	}
}
