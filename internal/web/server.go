// Package web serves the canvas JSON API over one workspace store.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"mindmap-cli/internal/layout"
	"mindmap-cli/internal/logging"
	"mindmap-cli/internal/model"
	"mindmap-cli/internal/treesync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store is what the API needs from persistence. store.Store satisfies it.
type Store interface {
	treesync.Store
	CreateDocument(ctx context.Context, title string) (model.Document, error)
	ListDocuments(ctx context.Context) ([]model.Document, error)
	GetDocument(ctx context.Context, id string) (model.Document, error)
	ReadEvents(ctx context.Context, documentID string, limit int) ([]model.Event, error)
}

type ServerConfig struct {
	Addr     string
	Store    Store
	Layout   layout.Config
	Logger   *slog.Logger
	ReadOnly bool
}

type Server struct {
	cfg    ServerConfig
	log    *slog.Logger
	syncer *treesync.Synchronizer

	mu       sync.Mutex
	sessions map[string]*treesync.Session
}

func NewServer(cfg ServerConfig) *Server {
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}
	if cfg.Layout == (layout.Config{}) {
		cfg.Layout = layout.DefaultConfig()
	}
	return &Server{
		cfg:      cfg,
		log:      log,
		syncer:   treesync.New(cfg.Store, treesync.WithLogger(log), treesync.WithLayout(cfg.Layout)),
		sessions: map[string]*treesync.Session{},
	}
}

// Router builds the gin engine. Mutating routes are not registered when the
// server is read-only.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	docs := r.Group("/documents")
	docs.GET("", s.handleListDocuments)
	docs.GET("/:id", s.handleGetDocument)
	docs.GET("/:id/resolve/:address", s.handleResolve)
	docs.GET("/:id/events", s.handleEvents)
	docs.GET("/:id/export", s.handleExport)
	if !s.cfg.ReadOnly {
		docs.POST("", s.handleCreateDocument)
		docs.POST("/:id/reconcile", s.handleReconcile)
		docs.POST("/:id/nodes", s.handleInsertNode)
		docs.PATCH("/:id/nodes/:nodeId", s.handleUpdateNode)
		docs.DELETE("/:id/nodes/:nodeId", s.handleDeleteNode)
		docs.POST("/:id/save", s.handleSave)
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener, so callers can bind ":0"
// and report the real address before serving.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("serving canvas api", "addr", ln.Addr().String(), "read_only", s.cfg.ReadOnly)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// session returns the open session for a document, loading it on first use.
func (s *Server) session(ctx context.Context, documentID string) (*treesync.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if se, ok := s.sessions[documentID]; ok {
		return se, nil
	}
	if _, err := s.cfg.Store.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	se, err := treesync.Open(ctx, s.syncer, documentID)
	if err != nil {
		return nil, err
	}
	s.sessions[documentID] = se
	return se, nil
}
