package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"learning-path/internal/models"
)

// StripControlChars removes bytes 0x00-0x1F and 0x7F.
func StripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// cleanJSON strips control characters, markdown fences, and any prose
// around the outermost object.
func cleanJSON(raw string) string {
	text := strings.TrimSpace(StripControlChars(raw))
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

// Parse decodes raw model output into v. Any failure is reported as
// *models.MalformedOutputError carrying the original text.
func Parse(raw string, v any) error {
	if err := json.Unmarshal([]byte(cleanJSON(raw)), v); err != nil {
		return &models.MalformedOutputError{Raw: raw, Detail: err.Error()}
	}
	return nil
}

// Sanitizer is the response sanitizer: it cleans model text, checks it
// against the expected schema, and decodes it.
type Sanitizer struct {
	schemas *SchemaValidator
}

func NewSanitizer() (*Sanitizer, error) {
	schemas, err := NewSchemaValidator()
	if err != nil {
		return nil, err
	}
	return &Sanitizer{schemas: schemas}, nil
}

func (s *Sanitizer) decode(kind SchemaKind, raw string, v any) error {
	doc := cleanJSON(raw)
	if !json.Valid([]byte(doc)) {
		return Parse(raw, v)
	}
	if err := s.schemas.Validate(kind, doc); err != nil {
		return &models.MalformedOutputError{Raw: raw, Detail: err.Error()}
	}
	return Parse(raw, v)
}

// Outline decodes an outline payload. Chapter numbers are reassigned by
// position.
func (s *Sanitizer) Outline(raw string) (*models.Outline, error) {
	var outline models.Outline
	if err := s.decode(SchemaOutline, raw, &outline); err != nil {
		return nil, err
	}
	for i := range outline.Chapters {
		outline.Chapters[i].Number = i + 1
	}
	return &outline, nil
}

func (s *Sanitizer) Chapter(raw string) (*models.ChapterContent, error) {
	var chapter models.ChapterContent
	if err := s.decode(SchemaChapter, raw, &chapter); err != nil {
		return nil, err
	}
	return &chapter, nil
}

// Summary decodes the narrative summary payload.
func (s *Sanitizer) Summary(raw string) (string, error) {
	var payload struct {
		NarrativeSummary string `json:"narrative_summary"`
	}
	if err := s.decode(SchemaSummary, raw, &payload); err != nil {
		return "", err
	}
	summary := strings.TrimSpace(payload.NarrativeSummary)
	if summary == "" {
		return "", &models.MalformedOutputError{Raw: raw, Detail: fmt.Sprintf("%s payload is empty", SchemaSummary)}
	}
	return summary, nil
}
