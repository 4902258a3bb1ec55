// Package command implements the link and unlink editor commands. Both run
// on the editor event loop; only title resolution completes asynchronously.
package command

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/internallink/internal/metrics"
)

// Command execution outcomes used as metric labels.
const (
	outcomeOK       = "ok"
	outcomeNoop     = "noop"
	outcomeDisabled = "disabled"
	outcomeError    = "error"
)

// TitleResolver turns a link id into a display title. It never fails; an
// unknown id yields "".
type TitleResolver interface {
	ResolveTitle(ctx context.Context, id string) string
}

// Option configures a command.
type Option func(*options)

type options struct {
	log      zerolog.Logger
	metrics  *metrics.Metrics
	dispatch func(func())
}

// WithLogger sets the command logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics records executions and discarded titles in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithDispatcher routes asynchronous completions through dispatch, for
// example onto the editor event loop. By default they run on the lookup
// goroutine. dispatch may block until the loop runs the completion;
// LinkCommand.Wait does not wait for dispatched completions.
func WithDispatcher(dispatch func(func())) Option {
	return func(o *options) { o.dispatch = dispatch }
}

func buildOptions(opts []Option) options {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// subscribers is a small observer list keyed by registration order. Each
// publication carries a sequence number; a subscriber never receives a value
// older than one it has already been handed.
type subscribers[T any] struct {
	mu      sync.Mutex
	next    int
	entries map[int]*subscriber[T]
	keys    []int
}

type subscriber[T any] struct {
	fn   func(T)
	last uint64
}

func (s *subscribers[T]) add(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[int]*subscriber[T])
	}
	id := s.next
	s.next++
	s.entries[id] = &subscriber[T]{fn: fn}
	s.keys = append(s.keys, id)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.entries, id)
		for i, k := range s.keys {
			if k == id {
				s.keys = append(s.keys[:i], s.keys[i+1:]...)
				break
			}
		}
	}
}

// publish hands v, the state at sequence seq, to every subscriber that has
// not yet seen a later one. The check happens per subscriber right before
// its call, so a slow subscriber cannot make the others see v after a newer
// publication.
func (s *subscribers[T]) publish(seq uint64, v T) {
	s.mu.Lock()
	keys := append([]int(nil), s.keys...)
	s.mu.Unlock()
	for _, id := range keys {
		if fn := s.claim(id, seq); fn != nil {
			fn(v)
		}
	}
}

func (s *subscribers[T]) claim(id int, seq uint64) func(T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || seq <= e.last {
		return nil
	}
	e.last = seq
	return e.fn
}
