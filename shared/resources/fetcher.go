package resources

import (
	"context"
	"sort"
	"strings"
	"time"

	"learning-path/internal/models"
	"learning-path/shared/logging"
	"learning-path/shared/youtube"
)

// VideoSearcher is the video-search collaborator.
type VideoSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.VideoCandidate, error)
}

// Limiter paces outbound searches. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Fetcher is the resource fetcher. Enrichment is best-effort: Fetch never
// returns an error and failed keywords are skipped. Cancellation stops the
// remaining searches.
type Fetcher struct {
	searcher VideoSearcher
	limiter  Limiter
	now      func() time.Time
	log      *logging.Logger
}

// NewFetcher builds a fetcher. limiter may be nil to search unpaced.
func NewFetcher(searcher VideoSearcher, limiter Limiter, log *logging.Logger) *Fetcher {
	return &Fetcher{
		searcher: searcher,
		limiter:  limiter,
		now:      time.Now,
		log:      log.With("service", "ResourceFetcher"),
	}
}

type discovered struct {
	candidate models.VideoCandidate
	keyword   string
	score     float64
}

// Fetch searches each of the first limits.MaxKeywords keywords, keeps the
// first occurrence of every video, ranks by Score and keeps the top
// limits.MaxTotal.
func (f *Fetcher) Fetch(ctx context.Context, keywords []string, limits models.ResourceLimits) *models.VideoResourceSet {
	if limits.MaxKeywords >= 0 && len(keywords) > limits.MaxKeywords {
		keywords = keywords[:limits.MaxKeywords]
	}

	now := f.now()
	seen := make(map[string]bool)
	var found []discovered

	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}

		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				f.log.Warn("Search pacing interrupted", "keyword", keyword, "error", err)
				break
			}
		}

		candidates, err := f.searcher.Search(ctx, keyword, limits.PerKeyword)
		if err != nil {
			if ctx.Err() != nil {
				f.log.Warn("Search interrupted", "keyword", keyword, "error", err)
				break
			}
			f.log.Warn("Skipping keyword after failed search", "keyword", keyword, "kind", models.KindOf(err), "error", err)
			continue
		}

		for _, candidate := range candidates {
			if candidate.ID == "" || seen[candidate.ID] {
				continue
			}
			seen[candidate.ID] = true
			found = append(found, discovered{
				candidate: candidate,
				keyword:   keyword,
				score:     Score(candidate, now),
			})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].score > found[j].score
	})
	if limits.MaxTotal > 0 && len(found) > limits.MaxTotal {
		found = found[:limits.MaxTotal]
	}

	set := models.EmptyResourceSet(limits)
	for _, d := range found {
		set.Resources = append(set.Resources, toResource(d))
	}
	set.TotalCount = len(set.Resources)
	return set
}

// Score ranks a candidate: (likes*2 + views) / age in days, where the age
// is at least one day.
func Score(candidate models.VideoCandidate, now time.Time) float64 {
	days := int64(now.Sub(candidate.PublishedAt) / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	return float64(candidate.LikeCount*2+candidate.ViewCount) / float64(days)
}

func toResource(d discovered) models.VideoResource {
	c := d.candidate
	return models.VideoResource{
		ExternalID:   c.ID,
		Title:        c.Title,
		Link:         youtube.WatchURL(c.ID),
		Channel:      c.Channel,
		Description:  c.Description,
		ThumbnailURL: c.ThumbnailURL,
		PublishedAt:  c.PublishedAt,
		ViewCount:    c.ViewCount,
		LikeCount:    c.LikeCount,
		RankScore:    d.score,
		Keyword:      d.keyword,
	}
}
