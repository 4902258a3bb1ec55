package interaction

import (
	"sync"

	"github.com/mesh-intelligence/internallink/pkg/types"
)

// ActionsPresenter backs the quick-actions surface: a preview link labelled
// with the target title, an edit button and an unlink button. Titles arrive
// asynchronously, so its fields are guarded.
type ActionsPresenter struct {
	previewURL string

	mu     sync.Mutex
	linkID string
	title  string
}

func newActionsPresenter(previewURL string) *ActionsPresenter {
	return &ActionsPresenter{previewURL: previewURL}
}

func (a *ActionsPresenter) bind(linkID, title string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.linkID, a.title = linkID, title
}

// setTitle applies a late title if it still belongs to the bound link.
func (a *ActionsPresenter) setTitle(linkID, title string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.linkID == linkID {
		a.title = title
	}
}

// LinkID returns the id of the link the surface describes.
func (a *ActionsPresenter) LinkID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.linkID
}

// Label is the preview text: the title, else the id, else a fixed notice
// for links without a usable id.
func (a *ActionsPresenter) Label() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.title != "":
		return a.title
	case a.linkID != "":
		return a.linkID
	default:
		return types.InvalidLinkLabel
	}
}

// PreviewEnabled reports whether the preview link can be followed.
func (a *ActionsPresenter) PreviewEnabled() bool {
	return a.LinkID() != ""
}

// PreviewURL is the configured preview template filled with the link id.
func (a *ActionsPresenter) PreviewURL() string {
	id := a.LinkID()
	if id == "" || a.previewURL == "" {
		return ""
	}
	return types.FillTemplate(a.previewURL, types.PlaceholderLinkID, id)
}
