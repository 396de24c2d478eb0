package prompts

import (
	"bytes"
	"embed"
	"strings"
	"text/template"

	"learning-path/internal/models"
)

// MinStudyNotes is the study-notes length requested from the model.
const MinStudyNotes = 2000

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("prompts").
		Option("missingkey=zero").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

type outlineInput struct {
	models.CourseRequest
	Hint string
}

type chapterInput struct {
	models.CourseRequest
	Hint           string
	OutlineContext string
	ChapterTitle   string
	ChapterNumber  int
	MinStudyNotes  int
}

type summaryInput struct {
	models.CourseRequest
	ChapterTitles []string
}

func render(name string, data any) string {
	var b bytes.Buffer
	// Templates are embedded and only reference fields of the input types,
	// so execution cannot fail at runtime.
	_ = templates.ExecuteTemplate(&b, name, data)
	return strings.TrimSpace(b.String())
}

// BuildOutlinePrompt asks for the course title, description and chapter
// outline only.
func BuildOutlinePrompt(req models.CourseRequest) string {
	return render("outline.tmpl", outlineInput{
		CourseRequest: req,
		Hint:          HintFor(req.Category),
	})
}

// BuildChapterPrompt asks for the full content of one chapter, using the
// outline as continuity context.
func BuildChapterPrompt(req models.CourseRequest, outlineContext, chapterTitle string, chapterNumber int) string {
	return render("chapter.tmpl", chapterInput{
		CourseRequest:  req,
		Hint:           HintFor(req.Category),
		OutlineContext: outlineContext,
		ChapterTitle:   chapterTitle,
		ChapterNumber:  chapterNumber,
		MinStudyNotes:  MinStudyNotes,
	})
}

// BuildSummaryPrompt asks for a short narrative summary from chapter titles only.
func BuildSummaryPrompt(req models.CourseRequest, chapterTitles []string) string {
	return render("summary.tmpl", summaryInput{
		CourseRequest: req,
		ChapterTitles: chapterTitles,
	})
}
