package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"log/slog"

	"slidecast/internal/api"
	"slidecast/internal/daemon"
	"slidecast/internal/deck"
	"slidecast/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Slidecast", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String("impact", "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String("impact", "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun slidecast daemon stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.log().Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.DeckDBPath = status.DeckDBPath
	resp.LockPath = status.LockFilePath
	resp.PID = status.PID
	resp.LastError = status.Pipeline.LastError
	resp.DeckStats = api.MergeDeckStats(status.Pipeline.DeckStats)
	resp.StageHealth = api.FromStageHealth(status.Pipeline.StageHealth)
	if len(status.Dependencies) > 0 {
		resp.Dependencies = make([]DependencyStatus, 0, len(status.Dependencies))
		for _, dep := range status.Dependencies {
			resp.Dependencies = append(resp.Dependencies, DependencyStatus{
				Name:        dep.Name,
				Command:     dep.Command,
				Description: dep.Description,
				Optional:    dep.Optional,
				Available:   dep.Available,
				Detail:      dep.Detail,
			})
		}
	}
	return nil
}

func (s *service) DeckCreate(req DeckCreateRequest, resp *DeckCreateResponse) error {
	var (
		created *deck.Deck
		err     error
	)
	if strings.TrimSpace(req.AudioPath) != "" {
		created, err = s.daemon.CreateDeckWithAudio(s.ctx, req.Title, req.AudioPath)
	} else {
		created, err = s.daemon.CreateDeck(s.ctx, req.Title)
	}
	if err != nil {
		return err
	}
	resp.Deck = api.FromDeck(created)
	s.log().Info("deck created via IPC",
		logging.String(logging.FieldEventType, "deck_create"),
		logging.Int64(logging.FieldDeckID, created.ID))
	return nil
}

func (s *service) DeckList(req DeckListRequest, resp *DeckListResponse) error {
	statuses := make([]deck.Status, 0, len(req.Statuses))
	for _, status := range req.Statuses {
		parsed, ok := deck.ParseStatus(status)
		if !ok {
			continue
		}
		statuses = append(statuses, parsed)
	}
	decks, err := s.daemon.ListDecks(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Decks = api.FromDecks(decks)
	return nil
}

func (s *service) DeckDescribe(req DeckDescribeRequest, resp *DeckDescribeResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid deck id %d", req.ID)
	}
	snapshot, err := s.daemon.GetDeck(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return fmt.Errorf("deck %d not found", req.ID)
	}
	resp.Deck = api.FromDeckDetail(snapshot)
	return nil
}

func (s *service) DeckDelete(req DeckDeleteRequest, resp *DeckDeleteResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid deck id %d", req.ID)
	}
	removed, err := s.daemon.DeleteDeck(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Deleted = removed
	if removed {
		s.log().Info("deck deleted via IPC",
			logging.String(logging.FieldEventType, "deck_delete"),
			logging.Int64(logging.FieldDeckID, req.ID))
	}
	return nil
}

func (s *service) DeckReprocess(req DeckReprocessRequest, resp *DeckReprocessResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid deck id %d", req.ID)
	}
	updated, err := s.daemon.ReprocessDeck(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Deck = api.FromDeck(updated)
	s.log().Info("deck queued for reprocessing via IPC",
		logging.String(logging.FieldEventType, "deck_reprocess"),
		logging.Int64(logging.FieldDeckID, req.ID))
	return nil
}

func (s *service) DeckRun(req DeckRunRequest, resp *DeckRunResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid deck id %d", req.ID)
	}
	updated, err := s.daemon.RunDeck(s.ctx, req.ID)
	if updated != nil {
		resp.Deck = api.FromDeck(updated)
	}
	return err
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
