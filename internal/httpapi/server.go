// Package httpapi serves the tutoring backend over HTTP: plans, progress,
// mistakes, AI tutoring and the spreadsheet export.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/abhisek/mathtutor/internal/logger"
	"github.com/abhisek/mathtutor/internal/mistakes"
	"github.com/abhisek/mathtutor/internal/plan"
	"github.com/abhisek/mathtutor/internal/progress"
	"github.com/abhisek/mathtutor/internal/tutor"
)

// Deps are the services the API exposes.
type Deps struct {
	Plans    *plan.Service
	Progress *progress.Tracker
	Mistakes *mistakes.Recorder
	// Tutor may be nil when no AI provider is configured; the tutoring
	// routes then answer with ai_unavailable.
	Tutor *tutor.Tutor

	CORSOrigins []string
	Log         *logger.Logger

	// Now and NewSessionID are overridable for tests.
	Now          func() time.Time
	NewSessionID func() string
}

// Server is the HTTP API.
type Server struct {
	plans    *plan.Service
	progress *progress.Tracker
	mistakes *mistakes.Recorder
	tutor    *tutor.Tutor
	log      *logger.Logger
	now      func() time.Time
	engine   *gin.Engine
}

// New builds the server and its routes.
func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	s := &Server{
		plans:    d.Plans,
		progress: d.Progress,
		mistakes: d.Mistakes,
		tutor:    d.Tutor,
		log:      d.Log,
		now:      d.Now,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("mathtutor"))
	r.Use(corsMiddleware(d.CORSOrigins))
	r.Use(requestLogger(d.Log))

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	api.Use(sessionMiddleware(d.Log, d.NewSessionID))
	{
		api.GET("/session", s.getSession)
		api.GET("/topics", s.listTopics)

		api.POST("/plan", s.createPlan)
		api.GET("/plan", s.getPlan)
		api.DELETE("/plan", s.deletePlan)

		api.GET("/tasks/:id/progress", s.taskProgress)
		api.POST("/tasks/:id/quiz", s.completeQuiz)
		api.POST("/tasks/:id/exercise", s.completeExercise)

		api.POST("/mistakes", s.addMistake)
		api.GET("/mistakes", s.listMistakes)
		api.GET("/mistakes/stats", s.mistakeStats)
		api.DELETE("/mistakes/:id", s.deleteMistake)
		api.DELETE("/mistakes", s.clearMistakes)

		api.POST("/tutor/ask", s.askStep)
		api.POST("/tutor/graph", s.graphData)
		api.POST("/tutor/quiz", s.quiz)

		api.GET("/export", s.exportWorkbook)
	}

	s.engine = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
