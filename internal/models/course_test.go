package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() CourseRequest {
	return CourseRequest{
		Topic:        "Linear Algebra",
		Description:  "Vectors, matrices and why they matter",
		Category:     CategoryMath,
		Difficulty:   DifficultyBeginner,
		ChapterCount: 2,
		Tone:         ToneEducational,
	}
}

func TestCourseRequestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *CourseRequest)
		wantField string
	}{
		{"Valid", func(r *CourseRequest) {}, ""},
		{"Missing topic", func(r *CourseRequest) { r.Topic = "" }, "Topic"},
		{"Unknown category", func(r *CourseRequest) { r.Category = "Cooking" }, "Category"},
		{"Unknown difficulty", func(r *CourseRequest) { r.Difficulty = "Expert" }, "Difficulty"},
		{"Unknown tone", func(r *CourseRequest) { r.Tone = "Sarcastic" }, "Tone"},
		{"Zero chapters", func(r *CourseRequest) { r.ChapterCount = 0 }, "ChapterCount"},
		{"Negative chapters", func(r *CourseRequest) { r.ChapterCount = -3 }, "ChapterCount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
}

func TestCourseRequestNormalized(t *testing.T) {
	req := CourseRequest{
		Topic:        "  Linear Algebra ",
		Category:     "mathematics and algorithms",
		Difficulty:   "beginner",
		ChapterCount: 2,
		Tone:         "EDUCATIONAL",
	}

	norm := req.Normalized()

	assert.Equal(t, "Linear Algebra", norm.Topic)
	assert.Equal(t, CategoryMath, norm.Category)
	assert.Equal(t, DifficultyBeginner, norm.Difficulty)
	assert.Equal(t, ToneEducational, norm.Tone)
	assert.NoError(t, norm.Validate())

	// the original value is untouched
	assert.Equal(t, Difficulty("beginner"), req.Difficulty)
}

func TestOutlineContext(t *testing.T) {
	outline := &Outline{
		CourseTitle: "Linear Algebra Basics",
		Description: "A gentle start.",
		Chapters: []OutlineChapter{
			{Number: 1, Title: "Vectors"},
			{Number: 2, Title: "Matrices"},
		},
	}

	assert.Equal(t, "A gentle start.\n\nChapters:\n1. Vectors\n2. Matrices", outline.Context())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"Nil", nil, ""},
		{"Plain", errors.New("boom"), KindInternal},
		{"Throttled", &ThrottledError{Service: "gemini", Err: errors.New("429")}, KindThrottled},
		{"Generation wraps throttled", &GenerationError{Model: "m", Attempts: 5, Err: &ThrottledError{Service: "gemini"}}, KindThrottled},
		{"Upstream", &UpstreamError{Service: "gemini", Err: errors.New("500")}, KindUpstream},
		{"Malformed wrapped", fmt.Errorf("chapter 2: %w", &MalformedOutputError{Raw: "{", Detail: "eof"}), KindMalformedOutput},
		{"Persistence", &PersistenceError{Key: "courses/x_1", Err: errors.New("denied")}, KindPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestRawPayload(t *testing.T) {
	err := fmt.Errorf("outline: %w", &MalformedOutputError{Raw: "{not json", Detail: "invalid character"})
	assert.Equal(t, "{not json", RawPayload(err))
	assert.Empty(t, RawPayload(errors.New("other")))
}

func TestChapterNumberDecoding(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{raw: `3`, want: 3},
		{raw: `3.0`, want: 3},
		{raw: `"3"`, want: 3},
		{raw: `"Chapter 3"`, want: 3},
		{raw: `null`, want: 0},
		{raw: `"three"`, want: 0},
		{raw: `{"n": 3}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var chapter ChapterContent
			require.NoError(t, json.Unmarshal([]byte(`{"chapter_number": `+tt.raw+`, "chapter_title": "Vectors", "key_concepts": [{"concept": "Span", "explanation": "x"}]}`), &chapter))
			assert.Equal(t, tt.want, chapter.Number)
			assert.Equal(t, "Vectors", chapter.Title)
			assert.Equal(t, "Span", chapter.KeyConcepts[0].Title)

			var entry OutlineChapter
			require.NoError(t, json.Unmarshal([]byte(`{"chapter_number": `+tt.raw+`, "chapter_title": "Vectors"}`), &entry))
			assert.Equal(t, tt.want, entry.Number)
			assert.Equal(t, "Vectors", entry.Title)
		})
	}
}
