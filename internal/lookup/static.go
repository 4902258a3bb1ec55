package lookup

import "context"

var _ Provider = StaticProvider{}

// StaticProvider returns fixed canned data for offline and test use.
type StaticProvider struct{}

// FindCandidates echoes the term and adds two well-known targets.
func (StaticProvider) FindCandidates(_ context.Context, term string) ([]Candidate, error) {
	return []Candidate{
		{Label: "SearchTerm: " + term, ID: "1"},
		{Label: "Vuejs", ID: "1001"},
		{Label: "Javascript", ID: "500"},
	}, nil
}

// ResolveTitle knows ids 500 and 1001; every other id gets a generic title.
func (StaticProvider) ResolveTitle(_ context.Context, id string) (string, error) {
	switch id {
	case "500":
		return "Javascript", nil
	case "1001":
		return "Vuejs", nil
	default:
		return "Item: " + id, nil
	}
}
