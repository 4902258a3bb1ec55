package internallink

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/internallink/internal/interaction"
	"github.com/mesh-intelligence/internallink/internal/metrics"
	"github.com/mesh-intelligence/internallink/pkg/model"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

func testConfig() types.Config {
	cfg := types.DefaultConfig()
	cfg.TestMode = true
	return cfg
}

func newDoc() (*model.Document, *model.Node) {
	p := model.NewBlock("paragraph",
		model.NewText("see ", nil),
		model.NewText("js", model.Attributes{types.LinkAttribute: "500"}),
	)
	return model.NewDocument(model.DefaultSchema(), p), p
}

func TestNewRejectsNilDocument(t *testing.T) {
	_, err := New(nil, testConfig(), nil, nil)
	assert.ErrorIs(t, err, types.ErrNilDocument)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	doc, _ := newDoc()
	cfg := testConfig()
	cfg.LookupTimeout = 0
	_, err := New(doc, cfg, nil, nil)
	assert.ErrorIs(t, err, types.ErrLookupTimeoutInvalid)
}

func TestSessionFollowsSelection(t *testing.T) {
	doc, p := newDoc()
	m := metrics.New(nil)
	s, err := New(doc, testConfig(), nil, nil, WithMetrics(m))
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, doc.Schema().IsAttributeAllowed(p.Children()[0], types.LinkAttribute), "schema is extended")

	require.NoError(t, doc.SetSelection(model.Collapsed(model.At(p, 5))))
	s.LinkCommand().Wait()

	st := s.LinkCommand().State()
	assert.Equal(t, "500", st.Value)
	assert.Equal(t, "Javascript", st.Title)
	assert.True(t, st.IsEnabled)
	assert.True(t, s.UnlinkCommand().IsEnabled())

	s.Controller().Click()
	assert.Equal(t, interaction.StateActionsVisible, s.Controller().State())
	assert.Equal(t, "Javascript", s.Controller().Actions().Label())
	assert.Equal(t, "http://www.google.de?q=500", s.Controller().Actions().PreviewURL())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ControllerTransitionsTotal.WithLabelValues("hidden", "actions")))
}

func TestSessionLinkAndUnlink(t *testing.T) {
	doc, p := newDoc()
	s, err := New(doc, testConfig(), nil, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, doc.SetSelection(model.NewRange(model.At(p, 0), model.At(p, 3))))
	require.NoError(t, s.Link("1001", ""))
	id, _ := p.Children()[0].Attr(types.LinkAttribute)
	assert.Equal(t, "1001", id)

	require.NoError(t, doc.SetSelection(model.Collapsed(model.At(p, 1))))
	require.NoError(t, s.Unlink())
	assert.Equal(t, "see js", doc.Text())
	_, ok := p.Children()[0].Attr(types.LinkAttribute)
	assert.False(t, ok)
}

func TestSessionWithOwnCatalog(t *testing.T) {
	doc, _ := newDoc()
	cfg := types.DefaultConfig()
	cfg.CatalogDir = t.TempDir()
	s, err := New(doc, cfg, nil, nil)
	require.NoError(t, err)

	table, err := s.Catalog().GetTable(types.TargetsTable)
	require.NoError(t, err)
	id, err := table.Set("", &types.LinkTarget{Label: "Golang"})
	require.NoError(t, err)

	got := s.Lookup().FindCandidates(context.Background(), "go")
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "Golang", s.Lookup().ResolveTitle(context.Background(), id))

	require.NoError(t, s.Close())
	_, err = s.Catalog().GetTable(types.TargetsTable)
	assert.ErrorIs(t, err, types.ErrCatalogDetached, "owned catalog is detached on close")
}

func TestCloseTwice(t *testing.T) {
	doc, p := newDoc()
	s, err := New(doc, testConfig(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Close(), types.ErrSessionClosed)
	assert.ErrorIs(t, s.Link("1", ""), types.ErrSessionClosed)
	assert.ErrorIs(t, s.Unlink(), types.ErrSessionClosed)

	require.NoError(t, doc.SetSelection(model.Collapsed(model.At(p, 5))))
	assert.Empty(t, s.LinkCommand().State().Value, "closed session no longer follows updates")
}

func TestCloseDoesNotWaitForEventLoop(t *testing.T) {
	doc, p := newDoc()
	loop := make(chan func())
	s, err := New(doc, testConfig(), nil, nil, WithDispatcher(func(f func()) { loop <- f }))
	require.NoError(t, err)

	require.NoError(t, doc.SetSelection(model.Collapsed(model.At(p, 5))))

	done := make(chan error, 1)
	go func() { done <- s.Close() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a completion waiting for the event loop")
	}

	select {
	case f := <-loop:
		f()
	case <-time.After(2 * time.Second):
		t.Fatal("title completion was never dispatched")
	}
	assert.Empty(t, s.LinkCommand().State().Title, "completion after close is dropped")
}
