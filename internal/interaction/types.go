// Package interaction decides which link surface is visible (none, the
// quick actions, or the edit form), where it is anchored and when it is torn
// down. The controller runs on the editor event loop.
package interaction

import (
	"errors"

	"github.com/mesh-intelligence/internallink/pkg/model"
)

// State is the visible surface.
type State int

// Controller states. StateHidden is initial; there is no terminal state.
const (
	StateHidden State = iota
	StateActionsVisible
	StateFormVisible
)

func (s State) String() string {
	switch s {
	case StateHidden:
		return "hidden"
	case StateActionsVisible:
		return "actions"
	case StateFormVisible:
		return "form"
	default:
		return "unknown"
	}
}

// View identifies one of the two floating surfaces.
type View int

// Surfaces managed by the controller.
const (
	ViewActions View = iota
	ViewForm
)

func (v View) String() string {
	if v == ViewForm {
		return "form"
	}
	return "actions"
}

// Anchor is what a surface is attached to: the link run under the caret, or
// the selection when there is no run.
type Anchor struct {
	Range model.Range
}

// Positioner places floating surfaces next to their anchor.
type Positioner interface {
	Show(view View, anchor Anchor)
	Hide(view View)
	UpdatePosition(anchor Anchor)
	IsVisible(view View) bool
}

// Focuser moves keyboard focus between the editor and the surfaces.
type Focuser interface {
	FocusEditor()
	FocusView(view View)
	HasFocus(view View) bool
}

// Controller errors.
var (
	ErrNotVisible = errors.New("surface is not visible")
)
