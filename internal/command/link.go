package command

import (
	"context"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/internallink/internal/linkstore"
	"github.com/mesh-intelligence/internallink/internal/metrics"
	"github.com/mesh-intelligence/internallink/pkg/model"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

// State is the observable state of LinkCommand.
type State struct {
	Value     string // link id at the selection, "" when absent or mixed
	Title     string // resolved display title of Value
	IsEnabled bool   // the schema permits the link attribute at the selection
}

// LinkCommand creates and edits internal links.
type LinkCommand struct {
	store  *linkstore.Store
	titles TitleResolver
	opts   options

	mu     sync.Mutex
	state  State
	gen    uint64
	seq    uint64
	closed bool

	subs     subscribers[State]
	inflight sync.WaitGroup
}

// NewLinkCommand returns a command over store. titles may be nil, in which
// case Title stays empty.
func NewLinkCommand(store *linkstore.Store, titles TitleResolver, opts ...Option) *LinkCommand {
	return &LinkCommand{
		store:  store,
		titles: titles,
		opts:   buildOptions(opts),
	}
}

// State returns a snapshot of the command state.
func (c *LinkCommand) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn for state changes.
func (c *LinkCommand) Subscribe(fn func(State)) (unsubscribe func()) {
	return c.subs.add(fn)
}

// Refresh re-reads value and enablement from the selection. A new value
// starts a title lookup; any lookup still in flight for an older value is
// discarded when it completes.
func (c *LinkCommand) Refresh() {
	sel := c.store.Document().Selection()
	value, _ := linkstore.ValueOf(sel)
	enabled := c.store.Allowed(sel)

	c.mu.Lock()
	prev := c.state
	if value != c.state.Value {
		c.gen++
		c.state.Value = value
		c.state.Title = ""
	}
	c.state.IsEnabled = enabled
	if c.state != prev {
		c.seq++
	}
	next, gen, seq, closed := c.state, c.gen, c.seq, c.closed
	c.mu.Unlock()

	if next != prev {
		c.subs.publish(seq, next)
	}
	if next.Value != prev.Value && next.Value != "" && c.titles != nil && !closed {
		c.resolveTitle(gen, next.Value)
	}
}

// Wait blocks until every title lookup started so far has completed. Without
// a dispatcher that includes applying the title; with one, Wait returns once
// the completion has been handed to the dispatcher.
func (c *LinkCommand) Wait() {
	c.inflight.Wait()
}

// Close discards every pending and future title completion. Refresh keeps
// working but no longer resolves titles.
func (c *LinkCommand) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.gen++
}

func (c *LinkCommand) resolveTitle(gen uint64, id string) {
	c.inflight.Add(1)
	go func() {
		title := c.titles.ResolveTitle(context.Background(), id)
		apply := func() { c.applyTitle(gen, id, title) }
		if c.opts.dispatch == nil {
			apply()
			c.inflight.Done()
			return
		}
		c.inflight.Done()
		c.opts.dispatch(apply)
	}()
}

func (c *LinkCommand) applyTitle(gen uint64, id, title string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if gen != c.gen {
		c.mu.Unlock()
		c.opts.metrics.RecordStale(metrics.OpTitle)
		c.opts.log.Debug().Str("id", id).Msg("discarding stale title")
		return
	}
	c.state.Title = title
	c.seq++
	next, seq := c.state, c.seq
	c.mu.Unlock()
	c.subs.publish(seq, next)
}

// Execute links the selection to linkID.
//
// A non-collapsed selection gets linkID on every sub-range the schema
// allows. A caret inside a link run retargets the whole run and selects it.
// A caret elsewhere inserts text (linkID when text is empty) carrying the
// caret attributes plus the link, and selects it. An empty linkID does
// nothing. All changes happen in one transaction.
func (c *LinkCommand) Execute(linkID, text string) (err error) {
	sel := c.store.Document().Selection()
	if !c.store.Allowed(sel) {
		c.opts.metrics.RecordCommand(types.CommandLink, outcomeDisabled)
		return types.ErrCommandDisabled
	}
	if linkID == "" {
		c.opts.metrics.RecordCommand(types.CommandLink, outcomeNoop)
		return nil
	}
	defer func() {
		outcome := outcomeOK
		if err != nil {
			outcome = outcomeError
			c.opts.log.Warn().Err(err).Str("id", linkID).Msg("link failed")
		}
		c.opts.metrics.RecordCommand(types.CommandLink, outcome)
	}()

	err = c.store.Change(func(w *model.Writer) error {
		if !sel.IsCollapsed() {
			return c.store.Set(w, linkID, c.store.ValidRanges(sel.Ranges)...)
		}

		pos := sel.First()
		if current, ok := linkstore.ValueOf(sel); ok {
			if run, ok := c.store.RunAt(pos, current); ok {
				if err := c.store.Set(w, linkID, run); err != nil {
					return err
				}
				return w.SetSelection(run)
			}
		}

		if text == "" {
			text = linkID
		}
		attrs := sel.Attrs.Clone()
		if attrs == nil {
			attrs = model.Attributes{}
		}
		attrs[types.LinkAttribute] = linkID
		node, err := w.InsertText(text, attrs, pos)
		if err != nil {
			return fmt.Errorf("inserting link text: %w", err)
		}
		return w.SetSelection(model.On(node))
	})
	if err != nil {
		return fmt.Errorf("linking %q: %w", linkID, err)
	}
	return nil
}
