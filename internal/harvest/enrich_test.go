package harvest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inmodata/inmoharvest/internal/fetch"
)

type record struct {
	ID     string
	Detail string
}

func newTestEnricher(tier fetch.Tier, detailURL DetailURLFunc[record], merge MergeFunc[record]) *Enricher[record] {
	esc := fetch.NewEscalator(tier, nil, nil)
	return NewEnricher(esc, fetch.Options{}, time.Second, detailURL, merge, 0, 0)
}

func linkFor(r record) (string, bool) {
	return "https://example.com/detail/" + r.ID, r.ID != ""
}

func mergeDetail(r record, html string) (record, error) {
	r.Detail = html
	return r, nil
}

func TestEnricher_MergesDetail(t *testing.T) {
	tier := &scriptedTier{responses: map[string]string{
		"https://example.com/detail/a": "extra fields for a",
	}}

	e := newTestEnricher(tier, linkFor, mergeDetail)
	got := e.Enrich(context.Background(), record{ID: "a"})
	assert.Equal(t, "extra fields for a", got.Detail)
	assert.Equal(t, 0, e.Failures())
}

func TestEnricher_NoDetailLinkKeepsItem(t *testing.T) {
	tier := &scriptedTier{}
	e := newTestEnricher(tier, linkFor, mergeDetail)

	got := e.Enrich(context.Background(), record{ID: ""})
	assert.Equal(t, record{}, got)
	assert.Empty(t, tier.fetched)
}

func TestEnricher_FetchFailureIsolated(t *testing.T) {
	tier := &scriptedTier{responses: map[string]string{
		"https://example.com/detail/a": "detail a",
		"https://example.com/detail/c": "detail c",
		// b is a 404
	}}

	e := newTestEnricher(tier, linkFor, mergeDetail)
	a := e.Enrich(context.Background(), record{ID: "a"})
	b := e.Enrich(context.Background(), record{ID: "b"})
	c := e.Enrich(context.Background(), record{ID: "c"})

	// The failed item comes through unmodified; its neighbors are enriched.
	assert.Equal(t, "detail a", a.Detail)
	assert.Equal(t, record{ID: "b"}, b)
	assert.Equal(t, "detail c", c.Detail)
	assert.Equal(t, 1, e.Failures())
}

func TestEnricher_MergeFailureKeepsBaseItem(t *testing.T) {
	tier := &scriptedTier{responses: map[string]string{
		"https://example.com/detail/a": "unparseable",
	}}
	merge := func(r record, _ string) (record, error) {
		return record{}, assert.AnError
	}

	e := newTestEnricher(tier, linkFor, merge)
	got := e.Enrich(context.Background(), record{ID: "a"})
	assert.Equal(t, record{ID: "a"}, got)
	assert.Equal(t, 1, e.Failures())
}

func TestEnricher_PauseBetweenFetches(t *testing.T) {
	tier := &scriptedTier{responses: map[string]string{
		"https://example.com/detail/a": "x",
	}}
	esc := fetch.NewEscalator(tier, nil, nil)
	e := NewEnricher(esc, fetch.Options{}, time.Second, linkFor, mergeDetail,
		20*time.Millisecond, 30*time.Millisecond)

	start := time.Now()
	_ = e.Enrich(context.Background(), record{ID: "a"})
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
