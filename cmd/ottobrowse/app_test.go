package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/ottobrowse/internal/config"
	"github.com/hammamikhairi/ottobrowse/internal/conversation"
	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/engine"
	"github.com/hammamikhairi/ottobrowse/internal/facet"
	"github.com/hammamikhairi/ottobrowse/internal/logger"
	"github.com/hammamikhairi/ottobrowse/internal/recipe"
	"github.com/hammamikhairi/ottobrowse/internal/results"
)

type recordingScreen struct {
	mu    sync.Mutex
	lines []string
	views []results.View
}

func (s *recordingScreen) add(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

func (s *recordingScreen) Println(a ...interface{}) { s.add(fmt.Sprint(a...)) }
func (s *recordingScreen) PrintHint(text string)    { s.add(text) }
func (s *recordingScreen) ShowView(v results.View) {
	s.mu.Lock()
	s.views = append(s.views, v)
	s.mu.Unlock()
}
func (s *recordingScreen) PrintChips(chips []facet.Chip, msgs *results.Messages) {
	if len(chips) == 0 {
		s.add(msgs.NoFilters())
		return
	}
	labels := make([]string, len(chips))
	for i, c := range chips {
		labels[i] = c.Label()
	}
	s.add(strings.Join(labels, " | "))
}

func (s *recordingScreen) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 {
		return ""
	}
	return s.lines[len(s.lines)-1]
}

type recordingNotifier struct {
	mu     sync.Mutex
	normal []string
	urgent []string
}

func (n *recordingNotifier) Notify(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.normal = append(n.normal, msg)
	return nil
}

func (n *recordingNotifier) NotifyUrgent(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urgent = append(n.urgent, msg)
	return nil
}

func newTestApp(t *testing.T, p domain.RecipeProvider) (*cliApp, *recordingScreen, *recordingNotifier) {
	t.Helper()
	eng := engine.New(p, logger.Nop())
	t.Cleanup(func() { eng.Close() })

	scr := &recordingScreen{}
	notes := &recordingNotifier{}
	return &cliApp{
		engine:   eng,
		parser:   conversation.NewKeywordParser(logger.Nop()),
		notifier: notes,
		screen:   scr,
		log:      logger.Nop(),
	}, scr, notes
}

func send(t *testing.T, a *cliApp, line string) bool {
	t.Helper()
	cmd, err := a.parser.Parse(context.Background(), line)
	require.NoError(t, err)
	return a.handleCommand(context.Background(), cmd)
}

func TestCommandsDriveTheEngine(t *testing.T) {
	a, scr, _ := newTestApp(t, recipe.NewMemorySource(logger.Nop()))

	assert.True(t, send(t, a, "cat Dessert"))
	assert.True(t, send(t, a, "tag vegetarian"))
	assert.True(t, send(t, a, "sort cook desc"))
	assert.True(t, send(t, a, "search bread"))

	q := a.engine.Query()
	assert.Equal(t, []string{"Dessert"}, q.Values(domain.FacetCategory))
	assert.Equal(t, []string{"vegetarian"}, q.Values(domain.FacetTags))
	assert.Equal(t, "bread", q.Value(domain.FacetTitle))
	assert.Equal(t, domain.SortCookDesc, q.Sort)

	send(t, a, "chips")
	assert.Equal(t, "Dessert | tags: vegetarian | title: bread", scr.last())

	send(t, a, "rm tag vegetarian")
	send(t, a, "rm title")
	assert.False(t, a.engine.Query().Has(domain.FacetTags))
	assert.False(t, a.engine.Query().Has(domain.FacetTitle))

	send(t, a, "reset")
	assert.False(t, a.engine.HasAnyFacet())
	send(t, a, "chips")
	assert.Equal(t, "No filters have been applied.", scr.last())
}

func TestRemoveMultiFacetNeedsValue(t *testing.T) {
	a, scr, _ := newTestApp(t, recipe.NewMemorySource(logger.Nop()))
	send(t, a, "tag vegan")

	send(t, a, "rm tag")
	assert.Equal(t, "Usage: rm tags <value>", scr.last())
	assert.True(t, a.engine.HasAnyFacet())
}

func TestLoadMoreWithNothingLeft(t *testing.T) {
	a, scr, notes := newTestApp(t, recipe.NewMemorySource(logger.Nop()))

	send(t, a, "more")
	assert.Equal(t, "Nothing more to load.", scr.last())
	assert.Empty(t, notes.urgent)
}

func TestListValues(t *testing.T) {
	a, _, notes := newTestApp(t, recipe.NewMemorySource(logger.Nop()))

	send(t, a, "categories")
	require.Len(t, notes.normal, 1)
	assert.Contains(t, notes.normal[0], "Dessert")

	send(t, a, "tags")
	require.Len(t, notes.normal, 2)
	assert.Contains(t, notes.normal[1], "vegan")
}

func TestShowHelpUnknownAndQuit(t *testing.T) {
	a, scr, _ := newTestApp(t, recipe.NewMemorySource(logger.Nop()))

	send(t, a, "show")
	assert.Len(t, scr.views, 1)

	send(t, a, "help")
	assert.Equal(t, conversation.HelpText, scr.last())

	send(t, a, "banana")
	assert.Contains(t, scr.last(), `Unknown command "banana"`)

	assert.False(t, send(t, a, "quit"))
}

func TestRunLoopStopsOnQuit(t *testing.T) {
	a, _, notes := newTestApp(t, recipe.NewMemorySource(logger.Nop()))

	input := make(chan string, 4)
	input <- "sort sideways"
	input <- "tag vegan"
	input <- "quit"

	done := make(chan struct{})
	go func() {
		a.run(context.Background(), input)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after quit")
	}
	require.Len(t, notes.urgent, 1)
	assert.Contains(t, notes.urgent[0], "invalid sort key")
	assert.True(t, a.engine.HasAnyFacet())
}

func TestOneShotQuery(t *testing.T) {
	log = logger.Nop()
	f := searchFlags{
		categories: []string{"Dessert", " Dessert "},
		tags:       []string{"vegetarian"},
		title:      "  crumble ",
		sort:       "prep ASC",
	}

	q, err := f.query()
	require.NoError(t, err)
	b, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"filters":{"category":["Dessert"],"tags":["vegetarian"],"title":"crumble"},"sort":"prep ASC"}`, string(b))

	_, err = searchFlags{sort: "price"}.query()
	assert.ErrorIs(t, err, domain.ErrInvalidSortKey)
}

func TestPrintPage(t *testing.T) {
	cfg = config.Default()
	src := recipe.NewMemorySource(logger.Nop())
	q := domain.Query{Filters: domain.Filters{{Key: domain.FacetCategory, Values: []string{"Soup"}}}}
	page, err := src.FetchRecipes(context.Background(), q, 0, domain.PageSize)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printPage(&out, q, page, false))
	assert.Contains(t, out.String(), "Roasted Tomato Soup")
	assert.Contains(t, out.String(), fmt.Sprintf("%d of %d recipes", page.TotalCount, page.TotalCount))

	out.Reset()
	require.NoError(t, printPage(&out, q, page, true))
	var decoded domain.ResultPage
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, page.TotalCount, decoded.TotalCount)

	out.Reset()
	require.NoError(t, printPage(&out, q, domain.ResultPage{}, false))
	assert.Contains(t, out.String(), "No recipes match the applied filters.")
}

func TestOpenProvider(t *testing.T) {
	pc := config.Default().Provider

	p, closeFn, err := openProvider(pc, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &recipe.MemorySource{}, p)
	assert.NoError(t, closeFn())

	pc.Kind = config.ProviderSQLite
	pc.DBPath = t.TempDir() + "/recipes.db"
	p, closeFn, err = openProvider(pc, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &recipe.SQLiteSource{}, p)
	assert.NoError(t, closeFn())
}
