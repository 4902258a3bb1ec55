package types

// Annotation keys. The model attribute is what the document engine stores on
// inline nodes; the view tag and attribute are the serialized form.
const (
	LinkAttribute     = "internalLinkId"
	ViewLinkTag       = "internallink"
	ViewLinkAttribute = "internallinkid"
)

// HighlightClass marks the link run that currently contains the selection.
const HighlightClass = "ck-link_selected"

// Command names registered by the editor session.
const (
	CommandLink   = "internalLink"
	CommandUnlink = "internalUnlink"
)

// URL template placeholders. Each template carries at most one of them.
const (
	PlaceholderLinkID     = "{internalLinkId}"
	PlaceholderSearchTerm = "{searchTerm}"
)

// InvalidLinkLabel is shown by the actions surface when the run under the
// caret carries no usable id.
const InvalidLinkLabel = "This link is invalid"
