package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mesh-intelligence/internallink/pkg/types"
)

// maxTitleBytes bounds how much of a title response is read.
const maxTitleBytes = 64 << 10

var _ Provider = (*HTTPProvider)(nil)

// HTTPProvider queries a remote lookup service through URL templates.
// autocompleteURL carries {searchTerm}, titleURL carries {internalLinkId}.
type HTTPProvider struct {
	client          *http.Client
	autocompleteURL string
	titleURL        string
}

// NewHTTPProvider creates a provider. A nil client uses http.DefaultClient;
// request deadlines come from the caller's context.
func NewHTTPProvider(autocompleteURL, titleURL string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{
		client:          client,
		autocompleteURL: autocompleteURL,
		titleURL:        titleURL,
	}
}

// FindCandidates expects a JSON list of {label, value} objects.
func (p *HTTPProvider) FindCandidates(ctx context.Context, term string) ([]Candidate, error) {
	if p.autocompleteURL == "" {
		return nil, ErrNotConfigured
	}
	url := types.FillTemplate(p.autocompleteURL, types.PlaceholderSearchTerm, term)

	resp, err := p.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var candidates []Candidate
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	return candidates, nil
}

// ResolveTitle accepts either a JSON string or a plain text body.
func (p *HTTPProvider) ResolveTitle(ctx context.Context, id string) (string, error) {
	if p.titleURL == "" {
		return "", ErrNotConfigured
	}
	url := types.FillTemplate(p.titleURL, types.PlaceholderLinkID, id)

	resp, err := p.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTitleBytes))
	if err != nil {
		return "", fmt.Errorf("read title: %w", err)
	}
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, `"`) {
		var title string
		if err := json.Unmarshal([]byte(text), &title); err != nil {
			return "", fmt.Errorf("decode title: %w", err)
		}
		return title, nil
	}
	return text, nil
}

func (p *HTTPProvider) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}
