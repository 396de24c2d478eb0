package coursebuilder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learning-path/internal/models"
	"learning-path/shared/config"
	"learning-path/shared/logging"
	"learning-path/shared/pipeline"
	"learning-path/shared/scheduler"
)

// CourseMetrics represents the metrics collected during a catalog run
type CourseMetrics struct {
	Requested int  `json:"requested"`
	Generated int  `json:"generated"`
	Failed    int  `json:"failed"`
	Resources int  `json:"resources"`
	EmailSent bool `json:"email_sent"`
}

// GetSummary implements the scheduler.Metrics interface
func (m CourseMetrics) GetSummary() string {
	summary := fmt.Sprintf("generated %d of %d courses with %d video resources", m.Generated, m.Requested, m.Resources)
	if m.Failed > 0 {
		summary += fmt.Sprintf(", %d failed", m.Failed)
	}
	if m.EmailSent {
		summary += ", digest sent"
	}
	return summary
}

// CourseGenerator runs one learning-path generation.
type CourseGenerator interface {
	Generate(ctx context.Context, req models.CourseRequest) (*models.CourseDocument, error)
}

// DigestSender delivers the run digest.
type DigestSender interface {
	SendDigest(digest *models.CourseDigest) error
}

// CourseBuilderAgent implements the scheduler.Agent interface. Each run
// regenerates every course in the configured catalog.
type CourseBuilderAgent struct {
	config    *config.Config
	generator CourseGenerator
	sender    DigestSender
	now       func() time.Time
	log       *logging.Logger
}

// NewCourseBuilderAgent wires the agent. sender may be nil to disable the
// digest email.
func NewCourseBuilderAgent(cfg *config.Config, generator CourseGenerator, sender DigestSender, log *logging.Logger) *CourseBuilderAgent {
	return &CourseBuilderAgent{
		config:    cfg,
		generator: generator,
		sender:    sender,
		now:       time.Now,
		log:       log.With("service", "CourseBuilder"),
	}
}

func (a *CourseBuilderAgent) Name() string {
	return "Course Builder"
}

func (a *CourseBuilderAgent) Initialize() error {
	a.log.Info("Initializing agent", "catalog_size", len(a.config.Catalog))

	if a.generator == nil {
		return errors.New("course generator is not configured")
	}
	if len(a.config.Catalog) == 0 {
		return errors.New("catalog is empty, nothing to generate")
	}
	for i, req := range a.config.Catalog {
		if err := req.Normalized().Validate(); err != nil {
			return fmt.Errorf("catalog entry %d (%s): %w", i, req.Topic, err)
		}
	}
	return nil
}

func (a *CourseBuilderAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := a.now()
	metrics := CourseMetrics{Requested: len(a.config.Catalog)}

	digest := &models.CourseDigest{
		Date:      startTime,
		Requested: len(a.config.Catalog),
	}

	var failures []error
	for i, req := range a.config.Catalog {
		if err := ctx.Err(); err != nil {
			return err
		}

		a.log.Info("Generating course", "index", i+1, "total", len(a.config.Catalog), "topic", req.Topic)
		doc, err := a.generator.Generate(ctx, req)
		if err != nil {
			a.log.Warn("Course generation failed", "topic", req.Topic, "kind", models.KindOf(err), "error", err)
			failures = append(failures, fmt.Errorf("%s: %w", req.Topic, err))
			continue
		}

		resources := pipeline.TotalResources(doc.Chapters)
		metrics.Generated++
		metrics.Resources += resources
		digest.Courses = append(digest.Courses, &models.CourseDigestRow{
			Title:      doc.Title,
			Topic:      doc.Topic,
			Chapters:   len(doc.Chapters),
			Resources:  resources,
			StorageURI: doc.Metadata.StorageURI,
		})
	}
	metrics.Failed = len(failures)
	digest.Failed = len(failures)

	if metrics.Generated == 0 && metrics.Failed > 0 {
		err := fmt.Errorf("all %d courses failed: %w", metrics.Failed, errors.Join(failures...))
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(err, time.Since(startTime))
		}
		return err
	}

	if metrics.Failed > 0 && events != nil && events.OnPartialFailure != nil {
		events.OnPartialFailure(errors.Join(failures...), time.Since(startTime))
	}

	if a.sender != nil {
		if err := a.sender.SendDigest(digest); err != nil {
			// Courses are already stored, a lost digest only degrades the run.
			a.log.Warn("Failed to send digest", "error", err)
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(fmt.Errorf("failed to send digest: %w", err), time.Since(startTime))
			}
		} else {
			metrics.EmailSent = len(digest.Courses) > 0 || digest.Failed > 0
		}
	}

	duration := time.Since(startTime)
	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, duration)
	}

	a.log.Info("Catalog run complete", "summary", metrics.GetSummary(), "duration", duration.String())
	return nil
}
