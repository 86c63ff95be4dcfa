package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"courier/internal/daemon"
	"courier/internal/logging"
	"courier/internal/payload"
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
	if err := rpcServer.RegisterName("Courier", srv); err != nil {
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
					logging.String(logging.FieldEventType, "ipc_accept_failed"))
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
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"))
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
	return s.logger.With(logging.String("component", "ipc"))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status, err := s.daemon.Status(s.ctx)
	if err != nil {
		return err
	}
	resp.Running = status.Running
	resp.PID = status.PID
	resp.QueueDBPath = status.QueueDBPath
	resp.LockPath = status.LockFilePath
	resp.SocketPath = status.SocketPath
	resp.Agents = status.Agents
	resp.Checks = status.Checks
	return nil
}

func (s *service) PauseAgent(req PauseAgentRequest, resp *PauseAgentResponse) error {
	s.log().Debug("agent pause requested", logging.String(logging.FieldAgent, req.Agent))
	summary, err := s.daemon.PauseAgent(s.ctx, req.Agent)
	if err != nil {
		return err
	}
	resp.Agent = summary
	s.log().Info("agent paused via IPC",
		logging.String(logging.FieldAgent, req.Agent),
		logging.String(logging.FieldEventType, "agent_pause"))
	return nil
}

func (s *service) ResumeAgent(req ResumeAgentRequest, resp *ResumeAgentResponse) error {
	s.log().Debug("agent resume requested", logging.String(logging.FieldAgent, req.Agent))
	summary, err := s.daemon.ResumeAgent(s.ctx, req.Agent)
	if err != nil {
		return err
	}
	resp.Agent = summary
	s.log().Info("agent resumed via IPC",
		logging.String(logging.FieldAgent, req.Agent),
		logging.String(logging.FieldEventType, "agent_resume"))
	return nil
}

func (s *service) AgentLog(req AgentLogRequest, resp *AgentLogResponse) error {
	lines, err := s.daemon.AgentActivity(req.Agent, req.Limit)
	if err != nil {
		return err
	}
	resp.Agent = req.Agent
	resp.Lines = lines
	return nil
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	items, err := s.daemon.QueueItems(s.ctx, req.Agent, req.Queue, req.Offset, req.Limit)
	if err != nil {
		return err
	}
	resp.Items = items
	return nil
}

func (s *service) QueueRemove(req QueueRemoveRequest, resp *QueueRemoveResponse) error {
	if len(req.IDs) == 0 {
		return errors.New("queue remove requires at least one id")
	}
	s.log().Debug("queue remove requested",
		logging.String(logging.FieldAgent, req.Agent),
		logging.String(logging.FieldQueue, req.Queue),
		logging.Int("item_count", len(req.IDs)))
	removed, err := s.daemon.RemoveItems(s.ctx, req.Agent, req.Queue, req.IDs)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) QueueRetry(req QueueRetryRequest, resp *QueueRetryResponse) error {
	s.log().Debug("queue retry requested",
		logging.String(logging.FieldAgent, req.Agent),
		logging.Int("item_count", len(req.IDs)))
	retried, err := s.daemon.RetryItems(s.ctx, req.Agent, req.IDs)
	if err != nil {
		return err
	}
	resp.Retried = retried
	return nil
}

func (s *service) QueueClear(req QueueClearRequest, resp *QueueClearResponse) error {
	s.log().Debug("queue clear requested",
		logging.String(logging.FieldAgent, req.Agent),
		logging.String(logging.FieldQueue, req.Queue))
	removed, err := s.daemon.ClearQueue(s.ctx, req.Agent, req.Queue)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("queue cleared via IPC",
		logging.String(logging.FieldAgent, req.Agent),
		logging.String(logging.FieldQueue, req.Queue),
		logging.String(logging.FieldEventType, "queue_clear"),
		logging.Int("removed_count", removed))
	return nil
}

func (s *service) Submit(req SubmitRequest, resp *SubmitResponse) error {
	action, ok := payload.ParseAction(req.Action)
	if !ok {
		return fmt.Errorf("unknown action %q", req.Action)
	}
	pkg := payload.New(req.Type, action, req.Paths)
	if err := pkg.Validate(); err != nil {
		return err
	}
	item, queueName, err := s.daemon.Submit(s.ctx, req.Agent, pkg)
	if err != nil {
		return err
	}
	resp.Item = item
	resp.Queue = queueName
	s.log().Info("package submitted via IPC",
		logging.String(logging.FieldAgent, req.Agent),
		logging.String(logging.FieldQueue, queueName),
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldEventType, "package_submit"))
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
