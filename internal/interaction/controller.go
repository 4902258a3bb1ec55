package interaction

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/internallink/internal/command"
	"github.com/mesh-intelligence/internallink/internal/linkstore"
	"github.com/mesh-intelligence/internallink/internal/metrics"
	"github.com/mesh-intelligence/internallink/pkg/model"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

// Option configures a Controller.
type Option func(*Controller)

// WithCandidates enables autocomplete in the form.
func WithCandidates(finder CandidateFinder) Option {
	return func(c *Controller) { c.finder = finder }
}

// WithPreviewURL sets the preview template of the actions surface.
func WithPreviewURL(template string) Option {
	return func(c *Controller) { c.previewURL = template }
}

// WithDebounce sets the autocomplete quiet period.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithLogger sets the controller logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithMetrics records transitions and stale candidate lists in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// tracked is the context a visible surface was opened for.
type tracked struct {
	hadLink bool
	value   string
	blockID string
}

// Controller is the interaction state machine. It is driven from the editor
// event loop and is not safe for concurrent use.
type Controller struct {
	store      *linkstore.Store
	link       *command.LinkCommand
	unlink     *command.UnlinkCommand
	positioner Positioner
	focus      Focuser

	finder     CandidateFinder
	previewURL string
	debounce   time.Duration
	log        zerolog.Logger
	metrics    *metrics.Metrics

	state     State
	tracked   tracked
	highlight model.Range

	actions *ActionsPresenter
	form    *FormPresenter

	unsubscribe func()
}

// NewController creates a hidden controller.
func NewController(store *linkstore.Store, link *command.LinkCommand, unlink *command.UnlinkCommand,
	positioner Positioner, focus Focuser, opts ...Option) *Controller {
	c := &Controller{
		store:      store,
		link:       link,
		unlink:     unlink,
		positioner: positioner,
		focus:      focus,
		previewURL: types.DefaultPreviewURL,
		debounce:   types.DefaultDebounce,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.actions = newActionsPresenter(c.previewURL)
	c.form = newFormPresenter(c.finder, NewDebouncer(c.debounce), c.log, c.metrics)
	c.unsubscribe = link.Subscribe(func(s command.State) {
		c.actions.setTitle(s.Value, s.Title)
		c.form.commandChanged(s.Value, s.Title, s.IsEnabled)
	})
	c.refreshHighlight()
	return c
}

// State returns the visible surface.
func (c *Controller) State() State { return c.state }

// Actions returns the quick-actions presenter.
func (c *Controller) Actions() *ActionsPresenter { return c.actions }

// Form returns the edit form presenter.
func (c *Controller) Form() *FormPresenter { return c.form }

// Highlight returns the link run containing the selection, to be rendered
// with types.HighlightClass.
func (c *Controller) Highlight() (model.Range, bool) {
	return c.highlight, !c.highlight.Start.IsZero()
}

// Click handles a click in the editor. Inside a link run it shows the
// actions anchored on that run.
func (c *Controller) Click() {
	if c.state == StateFormVisible {
		return
	}
	sel := c.store.Document().Selection()
	value, ok := linkstore.ValueOf(sel)
	if !ok {
		return
	}
	run, ok := c.store.RunAt(sel.First(), value)
	if !ok {
		return
	}

	c.actions.bind(value, c.titleFor(value))
	c.track(sel)
	if c.state == StateActionsVisible {
		c.positioner.UpdatePosition(Anchor{Range: run})
		return
	}
	c.positioner.Show(ViewActions, Anchor{Range: run})
	c.transition(StateActionsVisible)
}

// ToolbarLink handles the toolbar button: it opens the form when the link
// command is enabled, from either Hidden or the actions. With the caret in a
// link run the form edits that link.
func (c *Controller) ToolbarLink() {
	if c.state == StateFormVisible || !c.link.State().IsEnabled {
		return
	}
	c.showForm()
}

// Edit switches from the actions to the form.
func (c *Controller) Edit() error {
	if c.state != StateActionsVisible {
		return fmt.Errorf("edit: %w", ErrNotVisible)
	}
	c.showForm()
	return nil
}

// Unlink removes the link under the actions surface and hides it.
func (c *Controller) Unlink() error {
	if c.state != StateActionsVisible {
		return fmt.Errorf("unlink: %w", ErrNotVisible)
	}
	err := c.unlink.Execute()
	c.hide()
	return err
}

// Submit links the selection to id with text and hides the form.
func (c *Controller) Submit(id, text string) error {
	if c.state != StateFormVisible {
		return fmt.Errorf("submit: %w", ErrNotVisible)
	}
	err := c.link.Execute(id, text)
	c.hide()
	return err
}

// SubmitForm submits the candidate chosen in the form.
func (c *Controller) SubmitForm() error {
	if c.state != StateFormVisible {
		return fmt.Errorf("submit: %w", ErrNotVisible)
	}
	if !c.form.SaveEnabled() {
		return types.ErrCommandDisabled
	}
	return c.Submit(c.form.SelectedID(), c.form.Title())
}

// Cancel closes the form.
func (c *Controller) Cancel() {
	c.hide()
}

// Escape closes the surface that has focus. It reports whether the key was
// consumed; with focus in the editor it is left to the editor.
func (c *Controller) Escape() bool {
	if c.state == StateHidden {
		return false
	}
	if !c.focus.HasFocus(ViewActions) && !c.focus.HasFocus(ViewForm) {
		return false
	}
	c.hide()
	return true
}

// ClickOutside handles a click outside both surfaces and the editor link.
func (c *Controller) ClickOutside() {
	c.hide()
}

// Tab moves focus into the actions surface while it is shown without focus.
// It reports whether the key was consumed.
func (c *Controller) Tab() bool {
	if c.state != StateActionsVisible || c.focus.HasFocus(ViewActions) {
		return false
	}
	c.focus.FocusView(ViewActions)
	return true
}

// Update follows a committed document change: it refreshes the highlight
// and, while a surface is shown, either repositions it or hides it when its
// context is gone.
func (c *Controller) Update(model.Update) {
	c.refreshHighlight()
	if c.state == StateHidden {
		return
	}

	sel := c.store.Document().Selection()
	value, hasValue := linkstore.ValueOf(sel)
	var run model.Range
	inRun := false
	if hasValue {
		run, inRun = c.store.RunAt(sel.First(), value)
	}
	blockID := blockID(sel.First())

	switch {
	case c.tracked.hadLink && (!inRun || value != c.tracked.value || blockID != c.tracked.blockID):
		c.hide()
	case !c.tracked.hadLink && blockID != c.tracked.blockID:
		c.hide()
	case inRun:
		c.positioner.UpdatePosition(Anchor{Range: run})
	default:
		c.positioner.UpdatePosition(Anchor{Range: sel.Ranges[0]})
	}
}

// Close hides any surface and detaches from the link command.
func (c *Controller) Close() {
	c.hide()
	c.form.close()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

func (c *Controller) showForm() {
	sel := c.store.Document().Selection()
	st := c.link.State()

	anchor := Anchor{Range: sel.Ranges[0]}
	if value, ok := linkstore.ValueOf(sel); ok {
		if run, ok := c.store.RunAt(sel.First(), value); ok {
			anchor.Range = run
		}
	}

	if c.state == StateActionsVisible {
		c.positioner.Hide(ViewActions)
	}
	c.form.openWith(st.Value, st.Title, st.IsEnabled)
	c.track(sel)
	c.positioner.Show(ViewForm, anchor)
	c.focus.FocusView(ViewForm)
	c.transition(StateFormVisible)
}

// hide tears down every surface and returns focus to the editor.
func (c *Controller) hide() {
	if c.state == StateHidden {
		return
	}
	for _, v := range []View{ViewForm, ViewActions} {
		if c.positioner.IsVisible(v) {
			c.positioner.Hide(v)
		}
	}
	c.form.close()
	c.tracked = tracked{}
	c.transition(StateHidden)
	c.focus.FocusEditor()
}

func (c *Controller) track(sel model.Selection) {
	value, ok := linkstore.ValueOf(sel)
	inRun := false
	if ok {
		_, inRun = c.store.RunAt(sel.First(), value)
	}
	c.tracked = tracked{
		hadLink: inRun,
		value:   value,
		blockID: blockID(sel.First()),
	}
}

func (c *Controller) transition(to State) {
	from := c.state
	c.state = to
	c.metrics.RecordTransition(from.String(), to.String())
	c.log.Debug().Stringer("from", from).Stringer("to", to).Msg("interaction state changed")
}

func (c *Controller) refreshHighlight() {
	c.highlight = model.Range{}
	sel := c.store.Document().Selection()
	if !sel.IsCollapsed() {
		return
	}
	value, ok := linkstore.ValueOf(sel)
	if !ok {
		return
	}
	if run, ok := c.store.RunAt(sel.First(), value); ok {
		c.highlight = run
	}
}

// titleFor returns the resolved title when the link command already holds
// it for value.
func (c *Controller) titleFor(value string) string {
	if st := c.link.State(); st.Value == value {
		return st.Title
	}
	return ""
}

func blockID(p model.Position) string {
	if b := p.Block(); b != nil {
		return b.ID()
	}
	return ""
}
