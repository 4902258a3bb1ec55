package command

import (
	"fmt"
	"sync"

	"github.com/mesh-intelligence/internallink/internal/linkstore"
	"github.com/mesh-intelligence/internallink/pkg/model"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

// UnlinkCommand removes internal links.
type UnlinkCommand struct {
	store *linkstore.Store
	opts  options

	mu      sync.Mutex
	enabled bool
	seq     uint64
	subs    subscribers[bool]
}

// NewUnlinkCommand returns a command over store.
func NewUnlinkCommand(store *linkstore.Store, opts ...Option) *UnlinkCommand {
	return &UnlinkCommand{store: store, opts: buildOptions(opts)}
}

// IsEnabled reports whether the selection carries a link.
func (c *UnlinkCommand) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Subscribe registers fn for enablement changes.
func (c *UnlinkCommand) Subscribe(fn func(enabled bool)) (unsubscribe func()) {
	return c.subs.add(fn)
}

// Refresh re-reads enablement from the selection.
func (c *UnlinkCommand) Refresh() {
	_, enabled := c.store.Value()

	c.mu.Lock()
	changed := enabled != c.enabled
	c.enabled = enabled
	if changed {
		c.seq++
	}
	seq := c.seq
	c.mu.Unlock()

	if changed {
		c.subs.publish(seq, enabled)
	}
}

// Execute removes the link. A caret clears the whole run around it; a
// non-collapsed selection clears exactly the selected ranges, which may
// split a longer run.
func (c *UnlinkCommand) Execute() (err error) {
	sel := c.store.Document().Selection()
	value, ok := linkstore.ValueOf(sel)
	if !ok {
		c.opts.metrics.RecordCommand(types.CommandUnlink, outcomeDisabled)
		return types.ErrCommandDisabled
	}
	defer func() {
		outcome := outcomeOK
		if err != nil {
			outcome = outcomeError
			c.opts.log.Warn().Err(err).Str("id", value).Msg("unlink failed")
		}
		c.opts.metrics.RecordCommand(types.CommandUnlink, outcome)
	}()

	err = c.store.Change(func(w *model.Writer) error {
		if !sel.IsCollapsed() {
			return c.store.Clear(w, sel.Ranges...)
		}
		run, ok := c.store.RunAt(sel.First(), value)
		if !ok {
			return nil
		}
		return c.store.Clear(w, run)
	})
	if err != nil {
		return fmt.Errorf("unlinking %q: %w", value, err)
	}
	return nil
}
