package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"learning-path/internal/models"
	"learning-path/shared/config"
	"learning-path/shared/logging"
	"learning-path/shared/monitoring"
	"learning-path/shared/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CourseGenerator runs one learning-path generation.
type CourseGenerator interface {
	Generate(ctx context.Context, req models.CourseRequest) (*models.CourseDocument, error)
}

type Server struct {
	port      int
	folder    string
	generator CourseGenerator
	store     storage.CourseStore
	router    *gin.Engine
	log       *logging.Logger
}

func NewServer(cfg *config.Config, generator CourseGenerator, store storage.CourseStore, monitor *monitoring.Monitor, log *logging.Logger) *Server {
	s := &Server{
		port:      cfg.Server.Port,
		folder:    cfg.Storage.Folder,
		generator: generator,
		store:     store,
		log:       log.With("service", "API"),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(s.log))
	r.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	r.POST("/generate-learning-path", s.generate)
	r.GET("/courses", s.listCourses)
	r.GET("/courses/:name", s.getCourse)
	// Paths used by existing front-ends.
	r.GET("/list-courses/", s.listCourses)
	r.GET("/get-course/:name", s.getCourse)
	monitoring.RegisterRoutes(r, monitor)

	s.router = r
	return s
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", requestIDHeader)
	c.ExposeHeaders = []string{requestIDHeader}
	c.MaxAge = 12 * time.Hour
	return c
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "port", s.port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.log.Info("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) fail(c *gin.Context, err error) {
	status, body := newErrorResponse(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", "path", c.FullPath(), "kind", body.Kind, "error", err)
	}
	c.JSON(status, body)
}

func (s *Server) generate(c *gin.Context) {
	var req models.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, &models.ValidationError{Detail: err.Error()})
		return
	}

	doc, err := s.generator.Generate(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (s *Server) listCourses(c *gin.Context) {
	keys, err := s.store.List(c.Request.Context(), s.folder)
	if err != nil {
		s.fail(c, &models.PersistenceError{Key: s.folder, Err: err})
		return
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, storage.CourseName(key))
	}
	c.JSON(http.StatusOK, gin.H{"courses": names})
}

func (s *Server) getCourse(c *gin.Context) {
	key, err := storage.KeyForName(s.folder, c.Param("name"))
	if err != nil {
		s.fail(c, &models.ValidationError{Field: "name", Detail: err.Error()})
		return
	}

	doc, err := s.store.Get(c.Request.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{
			Error: fmt.Sprintf("course %s not found", c.Param("name")),
			Kind:  "not_found",
		})
		return
	}
	if err != nil {
		s.fail(c, &models.PersistenceError{Key: key, Err: err})
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
}
