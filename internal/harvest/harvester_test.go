package harvest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inmodata/inmoharvest/internal/fetch"
)

func TestHarvester_TwoPagesThen404(t *testing.T) {
	items := make([]string, 0, 10)
	for _, s := range []string{"item:a1", "item:a2", "item:a3", "item:a4", "item:a5",
		"item:a6", "item:a7", "item:a8", "item:a9", "item:a10"} {
		items = append(items, s)
	}
	tier := &scriptedTier{responses: map[string]string{
		"https://example.com/list?page=1": listingPage(1, items...),
		"https://example.com/list?page=2": listingPage(2, "item:b1", "item:b2", "item:b3"),
	}}
	esc := fetch.NewEscalator(tier, nil, nil)
	w := NewWalker[string](esc, fetch.Options{}, time.Second)

	h := NewHarvester(w, nil, esc, fetch.Options{})
	got, err := h.Run(context.Background(), "https://example.com/list?page=1", lineExtract)
	require.NoError(t, err, "a 404 mid-pagination is a graceful end, not an error")
	assert.Len(t, got, 13)
}

func TestHarvester_BlockedEverywhereYieldsEmptyRun(t *testing.T) {
	tier := &scriptedTier{errs: map[string]error{
		"https://example.com/list?page=1": &fetch.Error{Kind: fetch.KindBlocked, Status: 403, Tier: "scripted"},
	}}
	esc := fetch.NewEscalator(tier, nil, nil) // no stealth, no browser
	w := NewWalker[string](esc, fetch.Options{}, time.Second)

	h := NewHarvester(w, nil, esc, fetch.Options{})
	got, err := h.Run(context.Background(), "https://example.com/list?page=1", lineExtract)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got, "an empty run must serialize as [] downstream, not null")
}

func TestHarvester_InvalidStartURLIsFatal(t *testing.T) {
	tier := &scriptedTier{}
	esc := fetch.NewEscalator(tier, nil, nil)
	w := NewWalker[string](esc, fetch.Options{}, time.Second)

	h := NewHarvester(w, nil, esc, fetch.Options{})
	_, err := h.Run(context.Background(), "not a url", lineExtract)
	assert.Error(t, err)
	assert.Empty(t, tier.fetched, "config errors must surface before any fetch")
}

func TestHarvester_ForceBrowserWithoutBrowserIsFatal(t *testing.T) {
	tier := &scriptedTier{}
	esc := fetch.NewEscalator(tier, nil, nil)
	opts := fetch.Options{ForceBrowser: true}
	w := NewWalker[string](esc, opts, time.Second)

	h := NewHarvester(w, nil, esc, opts)
	_, err := h.Run(context.Background(), "https://example.com/list", lineExtract)
	assert.Error(t, err)
	assert.Empty(t, tier.fetched)
}

func TestHarvester_EnrichmentApplied(t *testing.T) {
	tier := &scriptedTier{responses: map[string]string{
		"https://example.com/list?page=1": listingPage(1, "item:a", "item:b"),
		"https://example.com/list?page=2": listingPage(2),
		"https://example.com/detail/a":    "DA",
		"https://example.com/detail/b":    "DB",
	}}
	esc := fetch.NewEscalator(tier, nil, nil)

	extract := func(pageHTML string) ([]record, error) {
		lines, err := lineExtract(pageHTML)
		if err != nil {
			return nil, err
		}
		recs := make([]record, len(lines))
		for i, l := range lines {
			recs[i] = record{ID: l}
		}
		return recs, nil
	}

	w := NewWalker[record](esc, fetch.Options{}, time.Second)
	e := NewEnricher(esc, fetch.Options{}, time.Second, linkFor, mergeDetail, 0, 0)
	h := NewHarvester(w, e, esc, fetch.Options{})

	got, err := h.Run(context.Background(), "https://example.com/list?page=1", extract)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "DA", got[0].Detail)
	assert.Equal(t, "DB", got[1].Detail)
}
