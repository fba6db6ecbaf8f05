package store

import (
	"context"
	"log/slog"
	"sync"
)

// Subscription delivers whole result sets: the initial snapshot first, then
// a fresh evaluation after every commit touching the watched collection.
type Subscription struct {
	query  Query
	ch     chan []Document
	cancel func()
}

// Updates is the result-set channel. It closes when the subscription's
// context is done.
func (s *Subscription) Updates() <-chan []Document {
	return s.ch
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.cancel()
}

// watchRegistry tracks live subscriptions per collection, in the spirit of
// a session registry: subscribe attaches a consumer, notify fans a change
// out to every consumer watching the touched collection.
type watchRegistry struct {
	mu       sync.Mutex
	log      *slog.Logger
	watchers map[int]*watcher
	nextID   int
}

type watcher struct {
	query Query
	ch    chan []Document
	done  chan struct{}
}

func newWatchRegistry(log *slog.Logger) *watchRegistry {
	return &watchRegistry{
		log:      log,
		watchers: make(map[int]*watcher),
	}
}

func (r *watchRegistry) subscribe(ctx context.Context, q Query, initial []Document) *Subscription {
	w := &watcher{
		query: q,
		// Buffer of one plus conflation: the channel always holds the
		// latest result set, never a backlog.
		ch:   make(chan []Document, 1),
		done: make(chan struct{}),
	}
	w.ch <- initial

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.watchers[id] = w
	r.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.watchers, id)
			r.mu.Unlock()
			close(w.done)
			close(w.ch)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-w.done:
		}
	}()

	return &Subscription{query: q, ch: w.ch, cancel: cancel}
}

// notify re-evaluates and re-delivers every subscription watching one of the
// touched collections. Delivery conflates rather than blocks: if the
// consumer has not drained the previous result set, it is replaced by the
// newer one.
func (r *watchRegistry) notify(touched map[string]struct{}, evaluate func(Query) []Document) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, w := range r.watchers {
		if _, ok := touched[w.query.Collection]; !ok {
			continue
		}
		docs := evaluate(w.query)
		select {
		case <-w.done:
			continue
		default:
		}
		select {
		case w.ch <- docs:
		default:
			// Drop the stale pending set, keep the latest.
			select {
			case <-w.ch:
			default:
			}
			select {
			case w.ch <- docs:
			default:
			}
		}
	}
}
