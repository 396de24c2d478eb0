package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"learning-path/internal/models"
	"learning-path/shared/ai"
	"learning-path/shared/config"
	"learning-path/shared/logging"
	"learning-path/shared/prompts"
	"learning-path/shared/resources"
	"learning-path/shared/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Invoker sends one prompt to the text-generation service.
type Invoker interface {
	Invoke(ctx context.Context, modelID, prompt string) (string, error)
}

// ResourceFetcher attaches video resources to a chapter. It never fails;
// callers check the context afterwards.
type ResourceFetcher interface {
	Fetch(ctx context.Context, keywords []string, limits models.ResourceLimits) *models.VideoResourceSet
}

// Generator is the pipeline orchestrator. It holds only read-only
// configuration and collaborators, so one Generator serves concurrent
// requests.
type Generator struct {
	invoker     Invoker
	sanitizer   *ai.Sanitizer
	searcher    resources.VideoSearcher
	newLimiter  func() resources.Limiter
	fetcher     ResourceFetcher
	store       storage.CourseStore
	modelFor    func(models.Category) string
	limits      models.ResourceLimits
	folder      string
	concurrency int
	now         func() time.Time
	progress    Progress
	log         *logging.Logger
}

// Option customizes a Generator.
type Option func(*Generator)

// WithClock overrides the time source used for keys and metadata.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithProgress registers a transition observer.
func WithProgress(p Progress) Option {
	return func(g *Generator) { g.progress = p }
}

// WithFetcher replaces the per-request fetcher built from the searcher. The
// same fetcher then serves every request.
func WithFetcher(f ResourceFetcher) Option {
	return func(g *Generator) { g.fetcher = f }
}

// WithLimiter sets the factory for the search limiter. One limiter is made
// per request.
func WithLimiter(newLimiter func() resources.Limiter) Option {
	return func(g *Generator) { g.newLimiter = newLimiter }
}

// searchLimiter paces searches at one call per interval. Zero disables pacing.
func searchLimiter(interval time.Duration) func() resources.Limiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return func() resources.Limiter {
		return rate.NewLimiter(limit, 1)
	}
}

// NewGenerator wires the orchestrator. Each request gets its own search
// limiter, so concurrent requests never queue behind each other.
func NewGenerator(cfg *config.Config, invoker Invoker, sanitizer *ai.Sanitizer, searcher resources.VideoSearcher, store storage.CourseStore, log *logging.Logger, opts ...Option) *Generator {
	g := &Generator{
		invoker:     invoker,
		sanitizer:   sanitizer,
		searcher:    searcher,
		newLimiter:  searchLimiter(cfg.YouTube.SearchInterval),
		store:       store,
		modelFor:    cfg.ModelFor,
		limits:      cfg.YouTube.Limits,
		folder:      cfg.Storage.Folder,
		concurrency: cfg.AI.Concurrency,
		now:         time.Now,
		log:         log.With("service", "PipelineGenerator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.concurrency < 1 {
		g.concurrency = 1
	}
	return g
}

// run carries the per-request values through the stages.
type run struct {
	id      string
	req     models.CourseRequest
	modelID string
	fetcher ResourceFetcher
	log     *logging.Logger
}

func (g *Generator) fetcherFor(log *logging.Logger) ResourceFetcher {
	if g.fetcher != nil {
		return g.fetcher
	}
	return resources.NewFetcher(g.searcher, g.newLimiter(), log)
}

func (g *Generator) transition(r *run, state State, chapter int, kv ...any) {
	fields := append([]any{"state", string(state)}, kv...)
	if chapter > 0 {
		fields = append(fields, "chapter", chapter)
	}
	r.log.Info("Pipeline transition", fields...)
	if g.progress != nil {
		g.progress(r.id, state, chapter)
	}
}

// Generate runs the whole pipeline for req and returns the persisted
// document. Nothing is persisted unless every fatal stage succeeds.
func (g *Generator) Generate(ctx context.Context, req models.CourseRequest) (*models.CourseDocument, error) {
	req = req.Normalized()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r := &run{
		id:      uuid.NewString(),
		req:     req,
		modelID: g.modelFor(req.Category),
	}
	r.log = g.log.With("request_id", r.id, "topic", req.Topic)
	r.fetcher = g.fetcherFor(g.log.With("request_id", r.id))
	g.transition(r, StateStart, 0, "model", r.modelID)

	doc, err := g.generate(ctx, r)
	if err != nil {
		g.transition(r, StateFailed, 0, "kind", string(models.KindOf(err)))
		r.log.Error("Course generation failed", "kind", models.KindOf(err), "error", err)
		return nil, err
	}

	g.transition(r, StateDone, 0)
	r.log.Info("Course generated",
		"title", doc.Title,
		"chapters", doc.Metadata.TotalChapters,
		"resources", doc.Metadata.TotalResources,
		"storage_uri", doc.Metadata.StorageURI,
	)
	return doc, nil
}

func (g *Generator) generate(ctx context.Context, r *run) (*models.CourseDocument, error) {
	outline, err := g.outline(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("outline: %w", err)
	}

	chapters, err := g.chapters(ctx, r, outline)
	if err != nil {
		return nil, err
	}

	doc := g.aggregate(ctx, r, outline, chapters)
	// A caller that went away gets nothing persisted.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.transition(r, StateAggregated, 0)

	if err := g.persist(ctx, r, doc); err != nil {
		return nil, err
	}
	g.transition(r, StatePersisted, 0, "storage_key", doc.Metadata.StorageKey)
	return doc, nil
}

func (g *Generator) outline(ctx context.Context, r *run) (*models.Outline, error) {
	g.transition(r, StateOutlineRequested, 0)

	raw, err := g.invoker.Invoke(ctx, r.modelID, prompts.BuildOutlinePrompt(r.req))
	if err != nil {
		return nil, err
	}
	outline, err := g.sanitizer.Outline(raw)
	if err != nil {
		return nil, err
	}

	if len(outline.Chapters) != r.req.ChapterCount {
		r.log.Warn("Outline chapter count differs from request",
			"requested", r.req.ChapterCount,
			"returned", len(outline.Chapters),
		)
		if len(outline.Chapters) > r.req.ChapterCount {
			outline.Chapters = outline.Chapters[:r.req.ChapterCount]
		}
	}

	g.transition(r, StateOutlineParsed, 0, "chapters", len(outline.Chapters))
	return outline, nil
}

// chapters generates every chapter concurrently. The first fatal error
// cancels the siblings. Results are slotted by outline position, so order
// never depends on completion order.
func (g *Generator) chapters(ctx context.Context, r *run, outline *models.Outline) ([]models.ChapterContent, error) {
	outlineContext := outline.Context()
	results := make([]models.ChapterContent, len(outline.Chapters))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)

	for i, entry := range outline.Chapters {
		eg.Go(func() error {
			chapter, err := g.chapter(egCtx, r, outlineContext, entry)
			if err != nil {
				return fmt.Errorf("chapter %d: %w", entry.Number, err)
			}
			results[i] = *chapter
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (g *Generator) chapter(ctx context.Context, r *run, outlineContext string, entry models.OutlineChapter) (*models.ChapterContent, error) {
	g.transition(r, StateContentRequested, entry.Number)

	raw, err := g.invoker.Invoke(ctx, r.modelID, prompts.BuildChapterPrompt(r.req, outlineContext, entry.Title, entry.Number))
	if err != nil {
		return nil, err
	}
	chapter, err := g.sanitizer.Chapter(raw)
	if err != nil {
		return nil, err
	}

	if chapter.Number != entry.Number {
		r.log.Debug("Renumbering chapter to its outline position", "returned", chapter.Number, "position", entry.Number)
	}
	chapter.Number = entry.Number
	if chapter.Title == "" {
		chapter.Title = entry.Title
	}
	if n := utf8.RuneCountInString(chapter.StudyNotes); n < prompts.MinStudyNotes {
		r.log.Warn("Study notes shorter than requested", "chapter", entry.Number, "length", n, "minimum", prompts.MinStudyNotes)
	}
	g.transition(r, StateContentParsed, entry.Number)

	chapter.Resources = r.fetcher.Fetch(ctx, chapter.SearchKeywords, g.limits)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.transition(r, StateResourcesAttached, entry.Number, "resources", chapter.Resources.TotalCount)
	return chapter, nil
}

func (g *Generator) aggregate(ctx context.Context, r *run, outline *models.Outline, chapters []models.ChapterContent) *models.CourseDocument {
	summary := templatedSummary(r.req, chapters)
	if narrative, err := g.narrative(ctx, r, chapters); err != nil {
		r.log.Warn("Narrative summary unavailable, using template", "kind", models.KindOf(err), "error", err)
	} else {
		summary.Overview = narrative
		summary.NarrativeSummary = narrative
	}

	description := outline.Description
	if description == "" {
		description = r.req.Description
	}

	return &models.CourseDocument{
		Title:       outline.CourseTitle,
		Topic:       r.req.Topic,
		Category:    r.req.Category,
		Difficulty:  r.req.Difficulty,
		Tone:        r.req.Tone,
		Description: description,
		Chapters:    chapters,
		Summary:     summary,
		Metadata: models.CourseMetadata{
			RequestID:      r.id,
			Model:          r.modelID,
			TotalChapters:  len(chapters),
			TotalResources: TotalResources(chapters),
		},
	}
}

// narrative asks for a short summary from chapter titles only.
func (g *Generator) narrative(ctx context.Context, r *run, chapters []models.ChapterContent) (string, error) {
	titles := make([]string, len(chapters))
	for i, ch := range chapters {
		titles[i] = ch.Title
	}

	raw, err := g.invoker.Invoke(ctx, r.modelID, prompts.BuildSummaryPrompt(r.req, titles))
	if err != nil {
		return "", err
	}
	return g.sanitizer.Summary(raw)
}

func (g *Generator) persist(ctx context.Context, r *run, doc *models.CourseDocument) error {
	ts := g.now().UTC()
	key := storage.CourseKey(g.folder, doc.Title, ts)
	doc.Metadata.GeneratedAt = ts
	doc.Metadata.StorageKey = key

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &models.PersistenceError{Key: key, Err: err}
	}

	uri, err := g.store.Put(ctx, key, data)
	if err != nil {
		return &models.PersistenceError{Key: key, Err: err}
	}
	doc.Metadata.StorageURI = uri
	return nil
}
