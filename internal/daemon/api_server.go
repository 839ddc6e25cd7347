package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"slidecast/internal/api"
	"slidecast/internal/config"
	"slidecast/internal/deck"
	"slidecast/internal/export"
	"slidecast/internal/logging"
	"slidecast/internal/services"
	"slidecast/internal/slidegen"
)

type apiServer struct {
	bind     string
	cfg      *config.Config
	logger   *slog.Logger
	daemon   *Daemon
	deckSvc  *api.DeckService
	renderer *export.PDFRenderer
	notes    *slidegen.Generator

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:     bind,
		cfg:      cfg,
		logger:   logger,
		daemon:   d,
		deckSvc:  api.NewDeckService(d.store),
		renderer: export.NewPDFRenderer(cfg),
		notes:    slidegen.NewGenerator(slidegen.NewClient(cfg.GetLLM()), cfg.LLM),
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/decks", authMiddleware(token, srv.handleDecks))
	mux.HandleFunc("/api/decks/", authMiddleware(token, srv.handleDeckPath))
	mux.HandleFunc("/api/slides/", authMiddleware(token, srv.handleSlidePath))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "api"))
}

func (s *apiServer) handler() http.Handler {
	return s.server.Handler
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	deps := make([]api.DependencyStatus, len(status.Dependencies))
	for i, dep := range status.Dependencies {
		deps[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		DeckDBPath:   status.DeckDBPath,
		LockFilePath: status.LockFilePath,
		Pipeline: api.PipelineStatus{
			Running:     status.Pipeline.Running,
			DeckStats:   api.MergeDeckStats(status.Pipeline.DeckStats),
			LastError:   status.Pipeline.LastError,
			StageHealth: api.FromStageHealth(status.Pipeline.StageHealth),
		},
		Dependencies: deps,
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeFailure maps store and stage errors onto HTTP statuses with a
// structured body. Anything unclassified becomes a 500.
func (s *apiServer) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, deck.ErrNotFound) || errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, deck.ErrInvalid) || errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
