package offchain

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/tendermint/executive/types"
)

// ErrQueueFull is returned by Push when the queue is at capacity.
var ErrQueueFull = errors.New("offchain queue is full")

// Submission is a signed extrinsic produced by an offchain worker, waiting
// to be picked up by the block author.
type Submission struct {
	ID uuid.UUID `json:"id"`
	// Block whose import triggered the worker.
	Number    types.BlockNumber `json:"number"`
	Nonce     types.Nonce       `json:"nonce"`
	Extrinsic []byte            `json:"extrinsic"`
}

// Queue is a bounded FIFO of submissions. It is safe for concurrent use.
type Queue struct {
	mtx   sync.Mutex
	items []Submission
	size  int

	// closed when the queue goes from empty to non-empty
	ready chan struct{}
}

// NewQueue returns an empty queue holding at most size submissions.
func NewQueue(size int) *Queue {
	return &Queue{size: size, ready: make(chan struct{})}
}

// Push appends s and assigns it an id if it has none.
func (q *Queue) Push(s Submission) (uuid.UUID, error) {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	if len(q.items) >= q.size {
		return uuid.Nil, ErrQueueFull
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	q.items = append(q.items, s)
	if len(q.items) == 1 {
		close(q.ready)
	}
	return s.ID, nil
}

// Drain removes and returns every queued submission in submission order.
func (q *Queue) Drain() []Submission {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	out := q.items
	if len(out) > 0 {
		q.items = nil
		q.ready = make(chan struct{})
	}
	return out
}

// Remove drops the submission with the given id. It reports whether it was
// queued.
func (q *Queue) Remove(id uuid.UUID) bool {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	for i, s := range q.items {
		if s.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			if len(q.items) == 0 {
				q.ready = make(chan struct{})
			}
			return true
		}
	}
	return false
}

func (q *Queue) Len() int {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	return len(q.items)
}

// Ready returns a channel that is closed once the queue holds at least one
// submission.
func (q *Queue) Ready() <-chan struct{} {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	return q.ready
}
