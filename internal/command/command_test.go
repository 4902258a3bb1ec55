package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/internallink/internal/linkstore"
	"github.com/mesh-intelligence/internallink/internal/lookup"
	"github.com/mesh-intelligence/internallink/internal/metrics"
	"github.com/mesh-intelligence/internallink/pkg/model"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

func linkSchema() *model.Schema {
	s := model.DefaultSchema()
	s.AllowAttribute(model.TextName, types.LinkAttribute)
	return s
}

func link(id string) model.Attributes {
	return model.Attributes{types.LinkAttribute: id}
}

// dump renders the children of p as "text|linkId".
func dump(p *model.Node) []string {
	var out []string
	for _, c := range p.Children() {
		label := c.Text()
		if c.Kind() == model.KindObject {
			label = "<" + c.Name() + ">"
		}
		id, _ := c.Attr(types.LinkAttribute)
		out = append(out, label+"|"+id)
	}
	return out
}

func setup(t *testing.T, sel func(p *model.Node) model.Range, children ...*model.Node) (*model.Document, *model.Node, *linkstore.Store) {
	t.Helper()
	p := model.NewBlock("paragraph", children...)
	doc := model.NewDocument(linkSchema(), p)
	require.NoError(t, doc.SetSelection(sel(p)))
	return doc, p, linkstore.New(doc)
}

func caret(offset int) func(*model.Node) model.Range {
	return func(p *model.Node) model.Range { return model.Collapsed(model.At(p, offset)) }
}

func span(start, end int) func(*model.Node) model.Range {
	return func(p *model.Node) model.Range { return model.NewRange(model.At(p, start), model.At(p, end)) }
}

func TestExecuteInsertsRunAtCaret(t *testing.T) {
	doc, p, store := setup(t, caret(2), model.NewText("Hello", model.Attributes{model.AttrBold: "true"}))
	cmd := NewLinkCommand(store, nil)

	require.NoError(t, cmd.Execute("42", "World"))

	assert.Equal(t, []string{"He|", "World|42", "llo|"}, dump(p))
	bold, ok := p.Children()[1].Attr(model.AttrBold)
	assert.True(t, ok, "inserted text keeps the caret formatting")
	assert.Equal(t, "true", bold)

	sel := doc.Selection()
	require.Len(t, sel.Ranges, 1)
	assert.True(t, sel.Ranges[0].Equal(model.NewRange(model.At(p, 2), model.At(p, 7))), "selection wraps the new run, got %s", sel.Ranges[0])
}

func TestExecuteUsesIDWhenTextEmpty(t *testing.T) {
	_, p, store := setup(t, caret(0), model.NewText("x", nil))
	require.NoError(t, NewLinkCommand(store, nil).Execute("500", ""))
	assert.Equal(t, []string{"500|500", "x|"}, dump(p))
}

func TestExecuteRetargetsWholeRun(t *testing.T) {
	doc, p, store := setup(t, caret(3),
		model.NewText("ab", nil),
		model.NewText("cd", link("7")),
		model.NewText("ef", nil),
	)

	require.NoError(t, NewLinkCommand(store, nil).Execute("9", "ignored"))

	assert.Equal(t, []string{"ab|", "cd|9", "ef|"}, dump(p))
	assert.True(t, doc.Selection().Ranges[0].Equal(model.NewRange(model.At(p, 2), model.At(p, 4))))
}

func TestExecuteSkipsDisallowedNodes(t *testing.T) {
	_, p, store := setup(t, span(1, 4),
		model.NewText("ab", nil),
		model.NewObject("image", model.Attributes{"src": "a.png"}, nil),
		model.NewText("cd", nil),
	)

	require.NoError(t, NewLinkCommand(store, nil).Execute("5", ""))
	assert.Equal(t, []string{"a|", "b|5", "<image>|", "c|5", "d|"}, dump(p))
}

func TestExecuteIsIdempotent(t *testing.T) {
	tests := []struct {
		name     string
		sel      func(*model.Node) model.Range
		children func() []*model.Node
	}{
		{"caret outside run", caret(2), func() []*model.Node {
			return []*model.Node{model.NewText("Hello", nil)}
		}},
		{"caret inside run", caret(3), func() []*model.Node {
			return []*model.Node{model.NewText("ab", nil), model.NewText("cd", link("7"))}
		}},
		{"selection across image", span(1, 4), func() []*model.Node {
			return []*model.Node{model.NewText("ab", nil), model.NewObject("image", nil, nil), model.NewText("cd", nil)}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, once, store := setup(t, tt.sel, tt.children()...)
			require.NoError(t, NewLinkCommand(store, nil).Execute("X", ""))

			_, twice, store2 := setup(t, tt.sel, tt.children()...)
			cmd := NewLinkCommand(store2, nil)
			require.NoError(t, cmd.Execute("X", ""))
			require.NoError(t, cmd.Execute("X", ""))

			assert.Equal(t, dump(once), dump(twice))
		})
	}
}

func TestExecuteEmptyIDIsNoop(t *testing.T) {
	for name, sel := range map[string]func(*model.Node) model.Range{
		"caret":     caret(1),
		"selection": span(0, 2),
	} {
		t.Run(name, func(t *testing.T) {
			doc, p, store := setup(t, sel, model.NewText("ab", nil))
			version := doc.Version()

			require.NoError(t, NewLinkCommand(store, nil).Execute("", "text"))
			assert.Equal(t, version, doc.Version())
			assert.Equal(t, []string{"ab|"}, dump(p))
		})
	}
}

func TestExecuteDisabled(t *testing.T) {
	m := metrics.New(nil)

	p := model.NewBlock("paragraph", model.NewText("ab", nil))
	doc := model.NewDocument(nil, p)
	cmd := NewLinkCommand(linkstore.New(doc), nil, WithMetrics(m))
	assert.ErrorIs(t, cmd.Execute("1", ""), types.ErrCommandDisabled)

	img := model.NewObject("image", nil, nil)
	_, _, store := setup(t, func(*model.Node) model.Range { return model.On(img) }, img)
	assert.ErrorIs(t, NewLinkCommand(store, nil).Execute("1", ""), types.ErrCommandDisabled)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandExecutionsTotal.WithLabelValues(types.CommandLink, outcomeDisabled)))
}

func TestExecuteRollsBackOnSchemaRejection(t *testing.T) {
	doc, p, store := setup(t, caret(2), model.NewText("ab", model.Attributes{"comment": "c1"}))
	version := doc.Version()

	err := NewLinkCommand(store, nil).Execute("42", "World")
	require.ErrorIs(t, err, model.ErrAttributeNotAllowed)
	assert.Equal(t, version, doc.Version())
	assert.Equal(t, []string{"ab|"}, dump(p))
	assert.True(t, doc.Selection().IsCollapsed())
}

func TestUnlinkSplitsRun(t *testing.T) {
	_, p, store := setup(t, span(0, 3), model.NewText("abcdef", link("3")))

	require.NoError(t, NewUnlinkCommand(store).Execute())
	assert.Equal(t, []string{"abc|", "def|3"}, dump(p))
}

func TestUnlinkCaretClearsWholeRun(t *testing.T) {
	_, p, store := setup(t, caret(4),
		model.NewText("x", nil),
		model.NewText("abc", link("3")),
		model.NewText("def", link("3")),
		model.NewText("y", link("4")),
	)

	require.NoError(t, NewUnlinkCommand(store).Execute())
	assert.Equal(t, []string{"xabcdef|", "y|4"}, dump(p))
}

func TestUnlinkDisabledWithoutLink(t *testing.T) {
	_, _, store := setup(t, caret(1), model.NewText("ab", nil))
	cmd := NewUnlinkCommand(store)
	cmd.Refresh()
	assert.False(t, cmd.IsEnabled())
	assert.ErrorIs(t, cmd.Execute(), types.ErrCommandDisabled)
}

func TestUnlinkRefreshPublishes(t *testing.T) {
	doc, p, store := setup(t, caret(1), model.NewText("ab", nil), model.NewText("cd", link("1")))
	cmd := NewUnlinkCommand(store)

	var got []bool
	cmd.Subscribe(func(enabled bool) { got = append(got, enabled) })

	cmd.Refresh()
	require.NoError(t, doc.SetSelection(model.Collapsed(model.At(p, 3))))
	cmd.Refresh()
	cmd.Refresh()

	assert.Equal(t, []bool{true}, got)
	assert.True(t, cmd.IsEnabled())
}

func TestRefreshResolvesTitle(t *testing.T) {
	_, _, store := setup(t, caret(3), model.NewText("ab", nil), model.NewText("cd", link("500")))
	cmd := NewLinkCommand(store, lookup.NewService(lookup.StaticProvider{}))

	var mu sync.Mutex
	var states []State
	cmd.Subscribe(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s)
	})

	cmd.Refresh()
	cmd.Wait()

	assert.Equal(t, State{Value: "500", Title: "Javascript", IsEnabled: true}, cmd.State())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{
		{Value: "500", IsEnabled: true},
		{Value: "500", Title: "Javascript", IsEnabled: true},
	}, states)
}

// gatedTitles answers each id only when the test sends on its gate.
type gatedTitles struct {
	gates map[string]chan string
}

func (g *gatedTitles) ResolveTitle(_ context.Context, id string) string {
	return <-g.gates[id]
}

func TestStaleTitleIsDiscarded(t *testing.T) {
	doc, p, store := setup(t, caret(1), model.NewText("ab", link("A")), model.NewText("cd", link("B")))
	titles := &gatedTitles{gates: map[string]chan string{
		"A": make(chan string),
		"B": make(chan string),
	}}
	m := metrics.New(nil)
	cmd := NewLinkCommand(store, titles, WithMetrics(m))

	cmd.Refresh()
	require.NoError(t, doc.SetSelection(model.Collapsed(model.At(p, 3))))
	cmd.Refresh()

	titles.gates["B"] <- "Title B"
	titles.gates["A"] <- "Title A"
	cmd.Wait()

	assert.Equal(t, State{Value: "B", Title: "Title B", IsEnabled: true}, cmd.State())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResponsesTotal.WithLabelValues(metrics.OpTitle)))
}

func TestWithDispatcherRoutesCompletions(t *testing.T) {
	_, _, store := setup(t, caret(1), model.NewText("ab", link("1001")))

	var queue []func()
	var mu sync.Mutex
	cmd := NewLinkCommand(store, lookup.NewService(lookup.StaticProvider{}), WithDispatcher(func(f func()) {
		mu.Lock()
		defer mu.Unlock()
		queue = append(queue, f)
	}))

	cmd.Refresh()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(queue) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, "", cmd.State().Title, "completion waits for the event loop")

	mu.Lock()
	pending := queue[0]
	mu.Unlock()
	pending()
	assert.Equal(t, "Vuejs", cmd.State().Title)
}

func TestCloseDropsDispatchedTitle(t *testing.T) {
	_, _, store := setup(t, caret(1), model.NewText("ab", link("1001")))
	loop := make(chan func(), 1)
	cmd := NewLinkCommand(store, lookup.NewService(lookup.StaticProvider{}), WithDispatcher(func(f func()) { loop <- f }))

	cmd.Refresh()
	cmd.Wait()
	cmd.Close()
	(<-loop)()

	assert.Equal(t, State{Value: "1001", IsEnabled: true}, cmd.State())
}

func TestStaleSnapshotNeverReachesLaterSubscribers(t *testing.T) {
	doc, p, store := setup(t, caret(3), model.NewText("ab", nil), model.NewText("cd", link("500")))
	cmd := NewLinkCommand(store, lookup.NewService(lookup.StaticProvider{}))

	received := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	cmd.Subscribe(func(s State) {
		if s.Title == "Javascript" {
			once.Do(func() { close(received) })
			<-release
		}
	})

	var mu sync.Mutex
	var last State
	cmd.Subscribe(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		last = s
	})

	cmd.Refresh()
	<-received
	require.NoError(t, doc.SetSelection(model.Collapsed(model.At(p, 1))))
	cmd.Refresh()
	close(release)
	cmd.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, State{IsEnabled: true}, cmd.State())
	assert.Equal(t, cmd.State(), last)
}
