package ingest

import (
	"errors"
	"sync"
)

var ErrReindexInProgress = errors.New("a reindex is already running for this folder")

// ReindexLocks serializes reindexing per folder. A second reindex of the same
// folder is rejected instead of queued: the running one will index the same
// drive state anyway.
type ReindexLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewReindexLocks() *ReindexLocks {
	return &ReindexLocks{locks: make(map[string]*sync.Mutex)}
}

func (r *ReindexLocks) TryLock(folderId string) (release func(), err error) {
	r.mu.Lock()
	lock, ok := r.locks[folderId]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[folderId] = lock
	}
	r.mu.Unlock()

	if !lock.TryLock() {
		return nil, ErrReindexInProgress
	}
	return lock.Unlock, nil
}
