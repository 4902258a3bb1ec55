package internallink

import "github.com/mesh-intelligence/internallink/internal/interaction"

// headlessPositioner tracks visibility without drawing anything.
type headlessPositioner struct {
	visible map[interaction.View]bool
}

func (p *headlessPositioner) Show(v interaction.View, _ interaction.Anchor) {
	if p.visible == nil {
		p.visible = make(map[interaction.View]bool)
	}
	p.visible[v] = true
}

func (p *headlessPositioner) Hide(v interaction.View) { delete(p.visible, v) }

func (p *headlessPositioner) UpdatePosition(interaction.Anchor) {}

func (p *headlessPositioner) IsVisible(v interaction.View) bool { return p.visible[v] }

// headlessFocuser never holds focus.
type headlessFocuser struct{}

func (headlessFocuser) FocusEditor() {}

func (headlessFocuser) FocusView(interaction.View) {}

func (headlessFocuser) HasFocus(interaction.View) bool { return false }
