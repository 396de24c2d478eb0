package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"learning-path/internal/models"
	"learning-path/shared/config"
	"learning-path/shared/logging"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const watchURL = "https://www.youtube.com/watch?v="

// Client is the video-search collaborator backed by the YouTube Data API.
type Client struct {
	service *youtube.Service
	log     *logging.Logger
}

// NewClient authenticates with the API key when one is configured and
// falls back to the OAuth device flow otherwise.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig, log *logging.Logger) (*Client, error) {
	log = log.With("service", "YouTubeClient")

	if cfg.APIKey != "" {
		return NewClientWithOptions(ctx, log, option.WithAPIKey(cfg.APIKey))
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{youtube.YoutubeReadonlyScope},
		Endpoint:     google.Endpoint,
	}

	file := tokenFile(cfg.TokenFile)
	token, err := authorize(ctx, oauthConfig, file, os.Stderr, log)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth token: %w", err)
	}
	tokenSource := newPersistingSource(ctx, oauthConfig, token, file, log)

	return NewClientWithOptions(ctx, log, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
}

// NewClientWithOptions builds a client from raw API options.
func NewClientWithOptions(ctx context.Context, log *logging.Logger, opts ...option.ClientOption) (*Client, error) {
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &Client{service: service, log: log}, nil
}

// Search runs a keyword search and then fetches statistics for the hits.
// Results keep the search ranking order.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]models.VideoCandidate, error) {
	searchResponse, err := c.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		RelevanceLanguage("en").
		VideoEmbeddable("true").
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyError(err)
	}

	var ids []string
	for _, item := range searchResponse.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	if len(ids) == 0 {
		return []models.VideoCandidate{}, nil
	}

	videosResponse, err := c.service.Videos.List([]string{"snippet", "statistics"}).
		Id(strings.Join(ids, ",")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyError(err)
	}

	byID := make(map[string]*youtube.Video, len(videosResponse.Items))
	for _, item := range videosResponse.Items {
		byID[item.Id] = item
	}

	candidates := make([]models.VideoCandidate, 0, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok || item.Snippet == nil {
			continue
		}
		candidates = append(candidates, toCandidate(item))
	}

	c.log.Debug("Video search complete", "query", query, "hits", len(ids), "candidates", len(candidates))
	return candidates, nil
}

func toCandidate(item *youtube.Video) models.VideoCandidate {
	candidate := models.VideoCandidate{
		ID:          item.Id,
		Title:       item.Snippet.Title,
		Channel:     item.Snippet.ChannelTitle,
		Description: item.Snippet.Description,
	}

	if thumbs := item.Snippet.Thumbnails; thumbs != nil {
		switch {
		case thumbs.Medium != nil:
			candidate.ThumbnailURL = thumbs.Medium.Url
		case thumbs.Default != nil:
			candidate.ThumbnailURL = thumbs.Default.Url
		}
	}

	if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		candidate.PublishedAt = publishedAt
	}

	if item.Statistics != nil {
		candidate.ViewCount = int64(item.Statistics.ViewCount)
		candidate.LikeCount = int64(item.Statistics.LikeCount)
	}

	return candidate
}

// WatchURL returns the public link for a video id.
func WatchURL(id string) string {
	return watchURL + id
}

func classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return &models.ThrottledError{Service: "youtube", Err: err}
		}
		for _, item := range apiErr.Errors {
			if item.Reason == "quotaExceeded" || item.Reason == "rateLimitExceeded" {
				return &models.ThrottledError{Service: "youtube", Err: err}
			}
		}
	}
	return &models.UpstreamError{Service: "youtube", Err: err}
}
