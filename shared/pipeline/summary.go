package pipeline

import (
	"fmt"

	"learning-path/internal/models"
)

// maxRecommendedLinks caps the links surfaced in the course summary.
const maxRecommendedLinks = 5

var (
	defaultAssessmentMethods = []string{"Quizzes", "Mini Projects", "Discussions"}
	defaultNextSteps         = []string{"Explore advanced topics", "Join communities", "Apply knowledge"}
)

// RecommendedLinks returns the first unique resource links across chapters,
// in chapter order.
func RecommendedLinks(chapters []models.ChapterContent) []string {
	links := []string{}
	seen := make(map[string]bool)
	for _, ch := range chapters {
		if ch.Resources == nil {
			continue
		}
		for _, r := range ch.Resources.Resources {
			if r.Link == "" || seen[r.Link] {
				continue
			}
			seen[r.Link] = true
			links = append(links, r.Link)
			if len(links) == maxRecommendedLinks {
				return links
			}
		}
	}
	return links
}

// TotalResources sums attached resources across chapters.
func TotalResources(chapters []models.ChapterContent) int {
	total := 0
	for _, ch := range chapters {
		if ch.Resources != nil {
			total += len(ch.Resources.Resources)
		}
	}
	return total
}

func fallbackOverview(req models.CourseRequest, chapters int) string {
	return fmt.Sprintf("This course provides a deep dive into %s across %d practical chapters with curated video resources.", req.Topic, chapters)
}

func timeCommitment(chapters int) string {
	weeks := (chapters + 2) / 3
	if weeks <= 1 {
		return "Approx. 1 week"
	}
	return fmt.Sprintf("Approx. %d weeks", weeks)
}

// templatedSummary is the summary used when no narrative is available.
func templatedSummary(req models.CourseRequest, chapters []models.ChapterContent) models.CourseSummary {
	overview := fallbackOverview(req, len(chapters))
	return models.CourseSummary{
		Overview:          overview,
		TimeCommitment:    timeCommitment(len(chapters)),
		AssessmentMethods: append([]string(nil), defaultAssessmentMethods...),
		NextSteps:         append([]string(nil), defaultNextSteps...),
		RecommendedLinks:  RecommendedLinks(chapters),
		NarrativeSummary:  overview,
	}
}
