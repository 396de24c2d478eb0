package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Category string

const (
	CategoryTechnical  Category = "Technical & Programming"
	CategoryMath       Category = "Mathematics and Algorithms"
	CategoryScience    Category = "Science & Engineering"
	CategoryHistory    Category = "History & Social Studies"
	CategoryLiterature Category = "Creative Writing & Literature"
	CategoryBusiness   Category = "Business & Finance"
	CategoryHealth     Category = "Health & Medicine"
	CategoryGeneral    Category = "General"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryTechnical,
	CategoryMath,
	CategoryScience,
	CategoryHistory,
	CategoryLiterature,
	CategoryBusiness,
	CategoryHealth,
	CategoryGeneral,
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

type Tone string

const (
	ToneEducational    Tone = "Educational"
	ToneConversational Tone = "Conversational"
	ToneFormal         Tone = "Formal"
	ToneStorytelling   Tone = "Storytelling"
)

var Tones = []Tone{ToneEducational, ToneConversational, ToneFormal, ToneStorytelling}

// CourseRequest is the immutable input of a generation run.
type CourseRequest struct {
	Topic        string     `json:"topic" yaml:"topic" validate:"required"`
	Description  string     `json:"description" yaml:"description"`
	Category     Category   `json:"category" yaml:"category" validate:"category"`
	Difficulty   Difficulty `json:"difficulty" yaml:"difficulty" validate:"difficulty"`
	ChapterCount int        `json:"chapters" yaml:"chapters" validate:"gt=0"`
	Tone         Tone       `json:"tone_output_style" yaml:"tone_output_style" validate:"tone"`
}

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return contains(Categories, Category(fl.Field().String()))
	})
	_ = v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		return contains(Difficulties, Difficulty(fl.Field().String()))
	})
	_ = v.RegisterValidation("tone", func(fl validator.FieldLevel) bool {
		return contains(Tones, Tone(fl.Field().String()))
	})
	return v
}

func contains[T ~string](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// canonical matches v case-insensitively against values and returns the
// declared spelling, or v unchanged when nothing matches.
func canonical[T ~string](values []T, v T) T {
	trimmed := strings.TrimSpace(string(v))
	for _, candidate := range values {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate
		}
	}
	return v
}

// Normalized returns a copy with enum fields rewritten to their canonical
// spelling, so "beginner" and "Beginner" are the same difficulty.
func (r CourseRequest) Normalized() CourseRequest {
	r.Topic = strings.TrimSpace(r.Topic)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = canonical(Categories, r.Category)
	r.Difficulty = canonical(Difficulties, r.Difficulty)
	r.Tone = canonical(Tones, r.Tone)
	return r
}

// Validate checks enum membership and the chapter count. Callers should
// validate the Normalized form.
func (r CourseRequest) Validate() error {
	err := requestValidator.Struct(r)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{
			Field:  fe.Field(),
			Detail: fmt.Sprintf("invalid value %v for %s (rule %q)", fe.Value(), fe.Field(), fe.Tag()),
		}
	}
	return &ValidationError{Detail: err.Error()}
}

// OutlineChapter is one entry of the course outline. Number is assigned by
// position, never taken from the model.
type OutlineChapter struct {
	Number  int    `json:"chapter_number"`
	Title   string `json:"chapter_title"`
	Summary string `json:"summary"`
}

type Outline struct {
	CourseTitle string           `json:"course_title"`
	Description string           `json:"description"`
	Chapters    []OutlineChapter `json:"chapters"`
}

// Context renders the continuity block embedded in every chapter prompt.
func (o *Outline) Context() string {
	var sb strings.Builder
	sb.WriteString(o.Description)
	sb.WriteString("\n\nChapters:\n")
	for _, ch := range o.Chapters {
		fmt.Fprintf(&sb, "%d. %s\n", ch.Number, ch.Title)
	}
	return strings.TrimRight(sb.String(), "\n")
}

type KeyConcept struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
}

// UnmarshalJSON accepts "concept" as an alias for "title"; models use both.
func (k *KeyConcept) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title       string `json:"title"`
		Concept     string `json:"concept"`
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	k.Title = raw.Title
	if k.Title == "" {
		k.Title = raw.Concept
	}
	k.Explanation = raw.Explanation
	return nil
}

var firstNumber = regexp.MustCompile(`\d+`)

// chapterNumber reads a model-supplied chapter number. Models emit 1, "1",
// "Chapter 1" or null; anything without digits reads as 0. Callers
// renumber by position regardless.
func chapterNumber(raw json.RawMessage) int {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0
	}
	n2, err := strconv.Atoi(firstNumber.FindString(text))
	if err != nil {
		return 0
	}
	return n2
}

// UnmarshalJSON tolerates any chapter_number shape.
func (c *OutlineChapter) UnmarshalJSON(data []byte) error {
	type plain OutlineChapter
	var raw struct {
		plain
		Number json.RawMessage `json:"chapter_number"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = OutlineChapter(raw.plain)
	c.Number = chapterNumber(raw.Number)
	return nil
}

// UnmarshalJSON tolerates any chapter_number shape.
func (c *ChapterContent) UnmarshalJSON(data []byte) error {
	type plain ChapterContent
	var raw struct {
		plain
		Number json.RawMessage `json:"chapter_number"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = ChapterContent(raw.plain)
	c.Number = chapterNumber(raw.Number)
	return nil
}

type ChapterContent struct {
	Number                int               `json:"chapter_number"`
	Title                 string            `json:"chapter_title"`
	LearningObjectives    []string          `json:"learning_objectives"`
	KeyConcepts           []KeyConcept      `json:"key_concepts"`
	PracticalApplications []string          `json:"practical_applications"`
	StudyNotes            string            `json:"study_notes"`
	SearchKeywords        []string          `json:"search_keywords"`
	Resources             *VideoResourceSet `json:"resources,omitempty"`
}

type CourseSummary struct {
	Overview          string   `json:"overview"`
	TimeCommitment    string   `json:"time_commitment"`
	AssessmentMethods []string `json:"assessment_methods"`
	NextSteps         []string `json:"next_steps"`
	RecommendedLinks  []string `json:"recommended_links"`
	NarrativeSummary  string   `json:"narrative_summary,omitempty"`
}

type CourseMetadata struct {
	RequestID      string    `json:"request_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	Model          string    `json:"model"`
	TotalChapters  int       `json:"total_chapters"`
	TotalResources int       `json:"youtube_resources_count"`
	StorageKey     string    `json:"storage_key"`
	StorageURI     string    `json:"storage_uri"`
}

// CourseDocument is the assembled learning path. It is immutable once persisted.
type CourseDocument struct {
	Title       string           `json:"course_title"`
	Topic       string           `json:"topic"`
	Category    Category         `json:"category"`
	Difficulty  Difficulty       `json:"difficulty"`
	Tone        Tone             `json:"tone_output_style"`
	Description string           `json:"description"`
	Chapters    []ChapterContent `json:"chapters"`
	Summary     CourseSummary    `json:"learning_path_summary"`
	Metadata    CourseMetadata   `json:"metadata"`
}
