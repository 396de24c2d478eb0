package resources

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"learning-path/internal/models"
	"learning-path/shared/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// stubSearcher returns canned results per query; queries listed in fail
// return an upstream error.
type stubSearcher struct {
	mu      sync.Mutex
	results map[string][]models.VideoCandidate
	fail    map[string]bool
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, query string, _ int) ([]models.VideoCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.fail[query] {
		return nil, &models.UpstreamError{Service: "stub", Err: errors.New("503")}
	}
	return s.results[query], nil
}

type countingLimiter struct {
	waits int
	err   error
}

func (c *countingLimiter) Wait(context.Context) error {
	c.waits++
	return c.err
}

func video(id string, views, likes int64, ageDays int) models.VideoCandidate {
	return models.VideoCandidate{
		ID:          id,
		Title:       "Video " + id,
		ViewCount:   views,
		LikeCount:   likes,
		PublishedAt: fixedNow.AddDate(0, 0, -ageDays),
	}
}

func newTestFetcher(searcher VideoSearcher, limiter Limiter) *Fetcher {
	f := NewFetcher(searcher, limiter, logging.NewNop())
	f.now = func() time.Time { return fixedNow }
	return f
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		candidate models.VideoCandidate
		want      float64
	}{
		{name: "Ten days old", candidate: video("a", 1000, 50, 10), want: 110},
		{name: "Published today", candidate: video("b", 100, 10, 0), want: 120},
		{name: "Published in the future", candidate: video("c", 100, 0, -3), want: 100},
		{name: "No engagement", candidate: video("d", 0, 0, 5), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.candidate, fixedNow), 1e-9)
		})
	}
}

func TestFetchDeduplicatesAcrossKeywords(t *testing.T) {
	searcher := &stubSearcher{results: map[string][]models.VideoCandidate{
		"vectors":  {video("shared", 10, 1, 1), video("v1", 5, 0, 1)},
		"matrices": {video("shared", 999, 99, 1), video("m1", 3, 0, 1)},
	}}
	limits := models.ResourceLimits{MaxKeywords: 5, PerKeyword: 5, MaxTotal: 10}

	set := newTestFetcher(searcher, nil).Fetch(context.Background(), []string{"vectors", "matrices"}, limits)

	seen := map[string]int{}
	for _, r := range set.Resources {
		seen[r.ExternalID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "resource %s appears %d times", id, n)
	}
	assert.Len(t, set.Resources, 3)
	assert.Equal(t, 3, set.TotalCount)

	for _, r := range set.Resources {
		if r.ExternalID == "shared" {
			assert.Equal(t, "vectors", r.Keyword)
			assert.Equal(t, int64(10), r.ViewCount)
			assert.Equal(t, "https://www.youtube.com/watch?v=shared", r.Link)
		}
	}
}

func TestFetchRanksByScore(t *testing.T) {
	searcher := &stubSearcher{results: map[string][]models.VideoCandidate{
		"k": {
			video("low", 10, 0, 10),
			video("high", 10000, 500, 10),
			video("mid", 500, 20, 5),
			video("old", 10000, 0, 1000),
			video("fresh", 300, 30, 1),
		},
	}}
	limits := models.ResourceLimits{MaxKeywords: 1, PerKeyword: 5, MaxTotal: 5}

	set := newTestFetcher(searcher, nil).Fetch(context.Background(), []string{"k"}, limits)
	require.Len(t, set.Resources, 5)

	for i := 1; i < len(set.Resources); i++ {
		assert.GreaterOrEqual(t, set.Resources[i-1].RankScore, set.Resources[i].RankScore)
	}
	assert.Equal(t, "high", set.Resources[0].ExternalID)
}

func TestFetchStableTieBreak(t *testing.T) {
	searcher := &stubSearcher{results: map[string][]models.VideoCandidate{
		"a": {video("first", 100, 0, 1), video("second", 100, 0, 1)},
		"b": {video("third", 100, 0, 1)},
	}}
	limits := models.ResourceLimits{MaxKeywords: 2, PerKeyword: 5, MaxTotal: 3}

	set := newTestFetcher(searcher, nil).Fetch(context.Background(), []string{"a", "b"}, limits)

	var ids []string
	for _, r := range set.Resources {
		ids = append(ids, r.ExternalID)
	}
	assert.Equal(t, []string{"first", "second", "third"}, ids)
}

func TestFetchTruncation(t *testing.T) {
	results := map[string][]models.VideoCandidate{}
	keywords := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		kw := fmt.Sprintf("kw-%d", i)
		keywords = append(keywords, kw)
		results[kw] = []models.VideoCandidate{video("id-"+kw, int64(i), 0, 1)}
	}
	searcher := &stubSearcher{results: results}
	limiter := &countingLimiter{}
	limits := models.ResourceLimits{MaxKeywords: 3, PerKeyword: 5, MaxTotal: 2}

	set := newTestFetcher(searcher, limiter).Fetch(context.Background(), keywords, limits)

	assert.Equal(t, []string{"kw-0", "kw-1", "kw-2"}, searcher.queries)
	assert.Equal(t, 3, limiter.waits)
	require.Len(t, set.Resources, 2)
	assert.Equal(t, "id-kw-2", set.Resources[0].ExternalID)
	assert.Equal(t, limits, set.LimitsApplied)
}

func TestFetchEdgeCases(t *testing.T) {
	limits := models.DefaultResourceLimits()

	t.Run("NoKeywords", func(t *testing.T) {
		searcher := &stubSearcher{}
		set := newTestFetcher(searcher, nil).Fetch(context.Background(), nil, limits)
		assert.Equal(t, 0, set.TotalCount)
		assert.NotNil(t, set.Resources)
		assert.Empty(t, set.Resources)
		assert.Empty(t, searcher.queries)
	})

	t.Run("AllKeywordsFail", func(t *testing.T) {
		searcher := &stubSearcher{fail: map[string]bool{"a": true, "b": true}}
		set := newTestFetcher(searcher, nil).Fetch(context.Background(), []string{"a", "b"}, limits)
		assert.Equal(t, 0, set.TotalCount)
		assert.Empty(t, set.Resources)
		assert.Len(t, searcher.queries, 2)
	})

	t.Run("OneKeywordFails", func(t *testing.T) {
		searcher := &stubSearcher{
			fail:    map[string]bool{"a": true},
			results: map[string][]models.VideoCandidate{"b": {video("ok", 1, 1, 1)}},
		}
		set := newTestFetcher(searcher, nil).Fetch(context.Background(), []string{"a", "b"}, limits)
		require.Len(t, set.Resources, 1)
		assert.Equal(t, "b", set.Resources[0].Keyword)
	})

	t.Run("BlankKeywordsSkipped", func(t *testing.T) {
		searcher := &stubSearcher{}
		newTestFetcher(searcher, nil).Fetch(context.Background(), []string{" ", "real"}, limits)
		assert.Equal(t, []string{"real"}, searcher.queries)
	})

	t.Run("LimiterCancelled", func(t *testing.T) {
		searcher := &stubSearcher{}
		limiter := &countingLimiter{err: context.Canceled}
		set := newTestFetcher(searcher, limiter).Fetch(context.Background(), []string{"a", "b"}, limits)
		assert.Empty(t, searcher.queries)
		assert.Equal(t, 0, set.TotalCount)
	})

	t.Run("CancelledDuringSearch", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		searcher := &cancellingSearcher{cancel: cancel}
		set := newTestFetcher(searcher, nil).Fetch(ctx, []string{"a", "b", "c"}, limits)
		assert.Equal(t, []string{"a"}, searcher.queries)
		assert.Equal(t, 0, set.TotalCount)
	})
}

// cancellingSearcher cancels the request on its first search, the way a
// disconnecting caller would.
type cancellingSearcher struct {
	cancel  context.CancelFunc
	queries []string
}

func (c *cancellingSearcher) Search(ctx context.Context, query string, _ int) ([]models.VideoCandidate, error) {
	c.queries = append(c.queries, query)
	c.cancel()
	return nil, ctx.Err()
}
