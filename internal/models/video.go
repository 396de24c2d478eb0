package models

import "time"

// VideoCandidate is one raw hit returned by the video search service.
type VideoCandidate struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Channel      string    `json:"channel"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnail_url"`
	PublishedAt  time.Time `json:"published_at"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
}

// VideoResource is a ranked candidate attached to a chapter.
type VideoResource struct {
	ExternalID   string    `json:"video_id"`
	Title        string    `json:"video_title"`
	Link         string    `json:"video_link"`
	Channel      string    `json:"channel_name"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnail"`
	PublishedAt  time.Time `json:"publish_date"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	RankScore    float64   `json:"score"`
	Keyword      string    `json:"search_query"`
}

// ResourceLimits bounds how many keywords are searched and how many
// resources survive ranking.
type ResourceLimits struct {
	MaxKeywords int `json:"keywords_per_chapter" yaml:"keywords_per_chapter"`
	PerKeyword  int `json:"videos_per_keyword" yaml:"videos_per_keyword"`
	MaxTotal    int `json:"max_total_videos" yaml:"max_total_videos"`
}

// DefaultResourceLimits mirrors the limits the service has always shipped with.
func DefaultResourceLimits() ResourceLimits {
	return ResourceLimits{
		MaxKeywords: 5,
		PerKeyword:  5,
		MaxTotal:    3,
	}
}

type VideoResourceSet struct {
	TotalCount    int             `json:"total_videos"`
	Resources     []VideoResource `json:"videos"`
	LimitsApplied ResourceLimits  `json:"limits_applied"`
}

// EmptyResourceSet is what a chapter gets when enrichment yields nothing.
func EmptyResourceSet(limits ResourceLimits) *VideoResourceSet {
	return &VideoResourceSet{
		TotalCount:    0,
		Resources:     []VideoResource{},
		LimitsApplied: limits,
	}
}

// CourseDigest is the summary of a scheduled catalog run, rendered into the
// notification email.
type CourseDigest struct {
	Date      time.Time          `json:"date"`
	Courses   []*CourseDigestRow `json:"courses"`
	Requested int                `json:"requested"`
	Failed    int                `json:"failed"`
}

type CourseDigestRow struct {
	Title      string `json:"title"`
	Topic      string `json:"topic"`
	Chapters   int    `json:"chapters"`
	Resources  int    `json:"resources"`
	StorageURI string `json:"storage_uri"`
}
