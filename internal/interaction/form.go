package interaction

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/internallink/internal/lookup"
	"github.com/mesh-intelligence/internallink/internal/metrics"
)

// CandidateFinder supplies autocomplete entries. It never fails; errors
// surface as an empty list.
type CandidateFinder interface {
	FindCandidates(ctx context.Context, term string) []lookup.Candidate
}

// navigationKeys move within the form or the candidate list and never start
// a lookup.
var navigationKeys = map[string]bool{
	"ArrowDown":  true,
	"ArrowUp":    true,
	"ArrowLeft":  true,
	"ArrowRight": true,
	"Enter":      true,
	"Escape":     true,
	"Tab":        true,
}

// FormPresenter backs the edit form: a title input with an autocomplete
// list, a save button and a cancel button. Lookups complete on timer
// goroutines, so its fields are guarded; a response for anything but the
// latest request is dropped.
type FormPresenter struct {
	finder    CandidateFinder
	debouncer *Debouncer
	log       zerolog.Logger
	metrics   *metrics.Metrics

	mu         sync.Mutex
	open       bool
	title      string
	selectedID string
	enabled    bool
	edited     bool
	candidates []lookup.Candidate
	gen        uint64
}

func newFormPresenter(finder CandidateFinder, debouncer *Debouncer, log zerolog.Logger, m *metrics.Metrics) *FormPresenter {
	return &FormPresenter{finder: finder, debouncer: debouncer, log: log, metrics: m}
}

// openWith binds the form to the link under the caret.
func (f *FormPresenter) openWith(linkID, title string, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	f.selectedID = linkID
	f.title = title
	f.enabled = enabled
	f.edited = false
	f.candidates = nil
	f.gen++
}

// close drops pending and in-flight lookups. In-flight requests still
// complete; their results are discarded.
func (f *FormPresenter) close() {
	f.debouncer.Cancel()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.candidates = nil
	f.gen++
}

// commandChanged follows the link command: enablement always, the title
// only while the user has not typed.
func (f *FormPresenter) commandChanged(linkID, title string, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = enabled
	if f.open && !f.edited && f.selectedID == linkID {
		f.title = title
	}
}

// Title returns the input value.
func (f *FormPresenter) Title() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title
}

// SelectedID returns the id of the chosen candidate, "" when none.
func (f *FormPresenter) SelectedID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selectedID
}

// Candidates returns the current autocomplete list.
func (f *FormPresenter) Candidates() []lookup.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.candidates)
}

// SaveEnabled reports whether the save button is active: a candidate is
// selected and the link command is enabled.
func (f *FormPresenter) SaveEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled && f.selectedID != ""
}

// ReadOnly reports whether the title input rejects edits.
func (f *FormPresenter) ReadOnly() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.enabled
}

// KeyUp handles a key released in the title input, value being the input
// content afterwards. Typing clears the selected candidate and schedules a
// debounced lookup; navigation keys do neither.
func (f *FormPresenter) KeyUp(key, value string) {
	if navigationKeys[key] {
		return
	}
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return
	}
	f.title = value
	f.edited = true
	f.selectedID = ""
	f.mu.Unlock()

	if f.finder == nil {
		return
	}
	f.debouncer.Trigger(func() { f.search(value) })
}

// Select picks a candidate from the list.
func (f *FormPresenter) Select(c lookup.Candidate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return
	}
	f.selectedID = c.ID
	f.title = c.Label
	f.edited = true
}

func (f *FormPresenter) search(term string) {
	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.mu.Unlock()

	candidates := f.finder.FindCandidates(context.Background(), term)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen || !f.open {
		f.metrics.RecordStale(metrics.OpCandidates)
		f.log.Debug().Str("term", term).Msg("discarding stale candidates")
		return
	}
	f.candidates = candidates
}
