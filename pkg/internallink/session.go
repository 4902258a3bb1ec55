// Package internallink wires the internal link feature into one editor
// session: the attribute store, the link and unlink commands, the lookup
// service and the interaction controller, all following the document's
// updates until Close.
package internallink

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/mesh-intelligence/internallink/internal/command"
	"github.com/mesh-intelligence/internallink/internal/interaction"
	"github.com/mesh-intelligence/internallink/internal/linkstore"
	"github.com/mesh-intelligence/internallink/internal/logger"
	"github.com/mesh-intelligence/internallink/internal/lookup"
	"github.com/mesh-intelligence/internallink/internal/metrics"
	"github.com/mesh-intelligence/internallink/internal/sqlite"
	"github.com/mesh-intelligence/internallink/pkg/model"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

// Version is the release of the internal link module.
const Version = "0.3.0"

// Option configures a Session.
type Option func(*options)

type options struct {
	log      *logger.Logger
	metrics  *metrics.Metrics
	catalog  types.Catalog
	client   *http.Client
	dispatch func(func())
}

// WithLogger sets the session logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records the session's lookups, commands and transitions in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithCatalog uses an already attached catalog instead of opening
// cfg.CatalogDir. The session does not detach it.
func WithCatalog(c types.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithHTTPClient sets the client used for remote lookups.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithDispatcher routes asynchronous title completions onto the editor
// event loop. dispatch may block until the loop runs the completion; Close
// never waits for dispatched completions and they are dropped once the
// session is closed.
func WithDispatcher(dispatch func(func())) Option {
	return func(o *options) { o.dispatch = dispatch }
}

// Session is the internal link feature attached to one document.
type Session struct {
	doc     *model.Document
	cfg     types.Config
	store   *linkstore.Store
	link    *command.LinkCommand
	unlink  *command.UnlinkCommand
	lookup  *lookup.Service
	ctrl    *interaction.Controller
	catalog types.Catalog

	ownsCatalog bool
	unsubscribe func()

	mu     sync.Mutex
	closed bool
}

// New attaches the feature to doc. The link attribute is registered on the
// document schema. A nil positioner or focuser runs the controller
// headless.
func New(doc *model.Document, cfg types.Config, positioner interaction.Positioner, focuser interaction.Focuser, opts ...Option) (*Session, error) {
	if doc == nil {
		return nil, types.ErrNilDocument
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	o := options{log: logger.Nop(), client: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}
	if positioner == nil {
		positioner = &headlessPositioner{}
	}
	if focuser == nil {
		focuser = headlessFocuser{}
	}

	s := &Session{doc: doc, cfg: cfg, catalog: o.catalog}
	if s.catalog == nil && cfg.CatalogDir != "" {
		backend := sqlite.NewBackend(
			sqlite.WithLogger(o.log.Component("catalog")),
			sqlite.WithMetrics(o.metrics),
		)
		if err := backend.Attach(cfg.CatalogDir); err != nil {
			return nil, fmt.Errorf("session catalog: %w", err)
		}
		s.catalog = backend
		s.ownsCatalog = true
	}

	linkstore.Extend(doc.Schema())
	s.store = linkstore.New(doc)
	s.lookup = lookup.NewService(
		lookup.NewProvider(cfg, s.catalog, o.client),
		lookup.WithTimeout(cfg.LookupTimeout),
		lookup.WithLogger(o.log),
		lookup.WithMetrics(o.metrics),
	)

	cmdOpts := []command.Option{
		command.WithLogger(o.log.Component("command")),
		command.WithMetrics(o.metrics),
	}
	if o.dispatch != nil {
		cmdOpts = append(cmdOpts, command.WithDispatcher(o.dispatch))
	}
	s.link = command.NewLinkCommand(s.store, s.lookup, cmdOpts...)
	s.unlink = command.NewUnlinkCommand(s.store, cmdOpts...)

	s.ctrl = interaction.NewController(s.store, s.link, s.unlink, positioner, focuser,
		interaction.WithCandidates(s.lookup),
		interaction.WithPreviewURL(cfg.PreviewURL),
		interaction.WithDebounce(cfg.Debounce),
		interaction.WithLogger(o.log.Component("interaction")),
		interaction.WithMetrics(o.metrics),
	)

	s.link.Refresh()
	s.unlink.Refresh()
	s.unsubscribe = doc.OnUpdate(s.onUpdate)
	return s, nil
}

// onUpdate runs after every committed change. Commands refresh before the
// controller so it sees their current state.
func (s *Session) onUpdate(u model.Update) {
	s.link.Refresh()
	s.unlink.Refresh()
	s.ctrl.Update(u)
}

// Document returns the edited document.
func (s *Session) Document() *model.Document { return s.doc }

// Config returns the session settings.
func (s *Session) Config() types.Config { return s.cfg }

// Store returns the attribute store.
func (s *Session) Store() *linkstore.Store { return s.store }

// LinkCommand returns the link command.
func (s *Session) LinkCommand() *command.LinkCommand { return s.link }

// UnlinkCommand returns the unlink command.
func (s *Session) UnlinkCommand() *command.UnlinkCommand { return s.unlink }

// Lookup returns the lookup service.
func (s *Session) Lookup() *lookup.Service { return s.lookup }

// Controller returns the interaction controller.
func (s *Session) Controller() *interaction.Controller { return s.ctrl }

// Catalog returns the link-target catalog, nil when none is configured.
func (s *Session) Catalog() types.Catalog { return s.catalog }

// Link executes the link command on the current selection.
func (s *Session) Link(linkID, text string) error {
	if s.isClosed() {
		return types.ErrSessionClosed
	}
	return s.link.Execute(linkID, text)
}

// Unlink executes the unlink command on the current selection.
func (s *Session) Unlink() error {
	if s.isClosed() {
		return types.ErrSessionClosed
	}
	return s.unlink.Execute()
}

// Close hides every surface, stops following the document, drops pending
// title completions after their lookups return and detaches a catalog the
// session opened.
// Further calls return ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ErrSessionClosed
	}
	s.closed = true
	s.mu.Unlock()

	s.unsubscribe()
	s.ctrl.Close()
	s.link.Close()
	s.link.Wait()
	if s.ownsCatalog {
		if err := s.catalog.Detach(); err != nil {
			return fmt.Errorf("detach catalog: %w", err)
		}
	}
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
