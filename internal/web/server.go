package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"fitcoach/internal/config"
	"fitcoach/internal/models"
	"fitcoach/internal/parser"
)

const (
	sessionCookie   = "fitcoach_session"
	shutdownTimeout = 10 * time.Second
)

//go:embed templates/*.html
var templateFS embed.FS

// Answerer answers a single question from the indexed documents.
type Answerer interface {
	Answer(ctx context.Context, question string) (*models.Answer, error)
	Model() string
}

type Server struct {
	cfg       *config.Config
	answerer  Answerer
	sessions  *SessionStore
	markdown  goldmark.Markdown
	readPages func(path string) ([]models.Page, error)
	engine    *gin.Engine
}

type Option func(*Server)

// WithPageReader replaces the PDF reader used by the document viewer.
func WithPageReader(r func(path string) ([]models.Page, error)) Option {
	return func(s *Server) { s.readPages = r }
}

func NewServer(cfg *config.Config, answerer Answerer, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		answerer: answerer,
		sessions: NewSessionStore(cfg.Server.MaxSessions, cfg.Server.SessionTTL),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		readPages: parser.ReadPages,
	}
	for _, opt := range opts {
		opt(s)
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"markdown": s.renderMarkdown,
		"clock":    func(t time.Time) string { return t.Format("15:04") },
		"percent":  formatPercent,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(recovery(), requestLogger(), gzip.Gzip(gzip.DefaultCompression))
	engine.SetHTMLTemplate(tmpl)
	s.engine = engine
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.index)
	s.engine.POST("/ask", s.ask)
	s.engine.POST("/clear", s.clear)
	s.engine.GET("/healthz", s.healthz)

	api := s.engine.Group("/api")
	api.POST("/ask", s.apiAsk)
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is canceled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("model", s.answerer.Model()).Msg("Fitness coach listening")
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

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
