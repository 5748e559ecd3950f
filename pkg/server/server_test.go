package server

import (
	"bytes"
	"context"
	"testing"

	"github.com/bastiangx/rootsearch/internal/logger"
	"github.com/bastiangx/rootsearch/pkg/config"
	"github.com/bastiangx/rootsearch/pkg/providers"
	"github.com/bastiangx/rootsearch/pkg/ranking"
	"github.com/bastiangx/rootsearch/pkg/root"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type fixture struct {
	manager *root.Manager
	ranker  *ranking.Service
	cfg     *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := root.NewManager(root.WithLogger(logger.Discard()), root.WithFuzzyFallback(true))
	t.Cleanup(func() { m.Close() })

	m.AddProvider(providers.NewStatic("apps",
		&providers.Item{ID: "app:chrome", Name: "Google Chrome", Sub: "Web Browser"},
		&providers.Item{ID: "app:calendar", Name: "Google Calendar"},
		&providers.Item{ID: "cmd:web", Name: "Search the Web", Fallback: true},
	))
	m.ReloadProviders()

	cfg := config.DefaultConfig()
	cfg.Search.MaxQuery = 10

	return &fixture{
		manager: m,
		ranker:  ranking.NewService(nil, ranking.WithLogger(logger.Discard())),
		cfg:     cfg,
	}
}

// run feeds requests through a server and returns the raw responses after
// the ready message.
func (f *fixture) run(t *testing.T, requests ...any) []msgpack.RawMessage {
	t.Helper()
	var in, out bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, r := range requests {
		require.NoError(t, enc.Encode(r))
	}

	s := NewServer(f.manager, f.ranker, f.cfg, &in, &out)
	require.NoError(t, s.Start(context.Background()))

	dec := msgpack.NewDecoder(&out)
	var ready StatusResponse
	require.NoError(t, dec.Decode(&ready))
	require.Equal(t, "ready", ready.Status)

	var responses []msgpack.RawMessage
	for range requests {
		raw, err := dec.DecodeRaw()
		require.NoError(t, err)
		responses = append(responses, raw)
	}
	return responses
}

func decode[T any](t *testing.T, raw msgpack.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, msgpack.Unmarshal(raw, &v))
	return v
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	out := f.run(t, Request{ID: "1", Op: OpSearch, Query: "goo"})

	resp := decode[SearchResponse](t, out[0])
	assert.Equal(t, "1", resp.ID)
	assert.Equal(t, 2, resp.Count)
	assert.False(t, resp.Fallback)
	ids := []string{resp.Results[0].ID, resp.Results[1].ID}
	assert.ElementsMatch(t, []string{"app:chrome", "app:calendar"}, ids)
	assert.Equal(t, uint16(1), resp.Results[0].Rank)
	assert.Equal(t, uint16(2), resp.Results[1].Rank)
}

func TestSearchLimitAndFallback(t *testing.T) {
	f := newFixture(t)
	out := f.run(t,
		Request{ID: "1", Op: OpSearch, Query: "google", Limit: 1},
		Request{ID: "2", Op: OpSearch, Query: "zzzz"},
		Request{ID: "3", Op: OpSearch, Query: "much too long query"},
	)

	assert.Equal(t, 1, decode[SearchResponse](t, out[0]).Count)

	fb := decode[SearchResponse](t, out[1])
	assert.True(t, fb.Fallback)
	require.Len(t, fb.Results, 1)
	assert.Equal(t, "cmd:web", fb.Results[0].ID)

	e := decode[ErrorResponse](t, out[2])
	assert.Equal(t, "3", e.ID)
	assert.Equal(t, 400, e.Code)
}

func TestVisitReordersAndScores(t *testing.T) {
	f := newFixture(t)
	out := f.run(t,
		Request{ID: "1", Op: OpVisit, ItemID: "app:calendar"},
		Request{ID: "2", Op: OpVisit, ItemID: "app:calendar"},
		Request{ID: "3", Op: OpSearch, Query: "google"},
		Request{ID: "4", Op: OpFrecency, ItemID: "app:calendar"},
		Request{ID: "5", Op: OpVisit, Type: "emoji", ItemID: "smile"},
		Request{ID: "6", Op: OpVisit, ItemID: "app:missing"},
	)

	v := decode[FrecencyResponse](t, out[1])
	assert.Equal(t, 2, v.Count)
	assert.Equal(t, 2, v.Opens)
	assert.Greater(t, v.Score, 0.0)
	assert.NotZero(t, v.LastVisited)

	s := decode[SearchResponse](t, out[2])
	require.Len(t, s.Results, 2)
	assert.Equal(t, "app:calendar", s.Results[0].ID, "most opened first")
	assert.Greater(t, s.Results[0].Score, s.Results[1].Score)

	fr := decode[FrecencyResponse](t, out[3])
	assert.Equal(t, 2, fr.Count)
	assert.Equal(t, "root", fr.Type)

	emoji := decode[FrecencyResponse](t, out[4])
	assert.Equal(t, "emoji", emoji.Type)
	assert.Equal(t, 1, emoji.Count)
	assert.Zero(t, emoji.Opens)

	e := decode[ErrorResponse](t, out[5])
	assert.Equal(t, 404, e.Code)
}

func TestReloadHealthAndUnknownOp(t *testing.T) {
	f := newFixture(t)
	out := f.run(t,
		Request{ID: "1", Op: OpReload},
		Request{ID: "2", Op: OpHealth},
		Request{ID: "3", Op: "explode"},
		Request{ID: "4", Op: OpFrecency},
	)

	reloaded := decode[StatusResponse](t, out[0])
	assert.Equal(t, "reloaded", reloaded.Status)
	assert.Equal(t, 3, reloaded.Stats["items"])

	health := decode[StatusResponse](t, out[1])
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.Stats["providers"])

	assert.Equal(t, 400, decode[ErrorResponse](t, out[2]).Code)
	assert.Equal(t, 400, decode[ErrorResponse](t, out[3]).Code)
}

func TestMalformedRequestKeepsServing(t *testing.T) {
	f := newFixture(t)
	out := f.run(t,
		42,
		Request{ID: "2", Op: OpHealth},
	)

	assert.Equal(t, 400, decode[ErrorResponse](t, out[0]).Code)
	assert.Equal(t, "ok", decode[StatusResponse](t, out[1]).Status)
}
