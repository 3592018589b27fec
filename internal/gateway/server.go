// Package gateway serves the site front-end over a WebSocket RPC protocol:
// request/response frames for assistant operations, event frames for the
// streaming side (reveal, speaking state, navigation, suggestions).
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/solenne/iris/internal/assistant"
	"github.com/solenne/iris/internal/config"
	"github.com/solenne/iris/internal/logging"
	"github.com/solenne/iris/internal/version"
)

// eventNames lists the events a client may receive, advertised in hello.
var eventNames = []string{
	assistant.EventOpened,
	assistant.EventClosed,
	assistant.EventMessageAdded,
	assistant.EventMessageUpdated,
	assistant.EventStateChanged,
	assistant.EventNavigate,
	assistant.EventSuggestions,
	assistant.EventTurnError,
	assistant.EventSessionReset,
}

// Server is the Iris gateway HTTP + WebSocket server.
type Server struct {
	cfg      config.GatewayConfig
	ctrl     *assistant.Controller
	log      *logging.Logger
	clients  *ClientRegistry
	handlers map[string]RequestHandler
	limiter  *sendLimiter
	eventSeq atomic.Int64

	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// New creates a gateway server around an assistant controller.
func New(cfg config.Config, ctrl *assistant.Controller, log *logging.Logger) *Server {
	s := &Server{
		cfg:      cfg.Gateway,
		ctrl:     ctrl,
		log:      log.Sub("gateway"),
		clients:  NewClientRegistry(log.Sub("clients")),
		handlers: make(map[string]RequestHandler),
		limiter:  newSendLimiter(cfg.Chat.RequestsPerMinute),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The gateway binds to loopback by default; the site dev server
			// proxies to it, so cross-origin upgrades are expected.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.registerHandlers()
	return s
}

// Handle registers an RPC method handler.
func (s *Server) Handle(method string, handler RequestHandler) {
	s.handlers[method] = handler
}

// Methods returns the registered RPC method names.
func (s *Server) Methods() []string {
	methods := make([]string, 0, len(s.handlers))
	for m := range s.handlers {
		methods = append(methods, m)
	}
	return methods
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start listens for connections and pumps assistant events to clients. It
// blocks until ctx is canceled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go s.pumpEvents(ctx)

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("auth", s.authMode()).
		Int("methods", len(s.handlers)).
		Msg("gateway server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.clients.CloseAll()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// pumpEvents forwards every assistant bus event to all connected clients.
func (s *Server) pumpEvents(ctx context.Context) {
	events := s.ctrl.Bus().Subscribe()
	for {
		select {
		case ev := <-events:
			s.clients.Broadcast(ev.Type, ev.Payload, s.eventSeq.Add(1))
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","version":%q}`+"\n", version.Version)
}

// handleWebSocket upgrades the connection and runs its read loop.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(1 << 20)

	client, err := s.handshake(conn)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("handshake failed")
		conn.Close()
		return
	}

	s.clients.Add(client)
	defer func() {
		s.clients.Remove(client.ConnID)
		s.limiter.forget(client.ConnID)
		client.Close()
	}()

	if client.Info.Page != "" {
		s.ctrl.VisitPage(client.Info.Page)
	}

	s.readLoop(client)
}

func (s *Server) authMode() string {
	if s.cfg.Auth.Mode == "" {
		return "none"
	}
	return s.cfg.Auth.Mode
}

// authorize validates the connect credentials against the configured mode.
func (s *Server) authorize(auth *ConnectAuth) error {
	switch s.authMode() {
	case "none":
		return nil
	case "token":
		if auth == nil || auth.Token == "" {
			return errors.New("token required")
		}
		if auth.Token != s.cfg.Auth.Token {
			return errors.New("invalid token")
		}
		return nil
	default:
		return fmt.Errorf("unsupported auth mode %q", s.cfg.Auth.Mode)
	}
}

// handshake reads the client's connect request, authenticates it, and
// replies with hello.
func (s *Server) handshake(conn *websocket.Conn) (*Client, error) {
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading connect: %w", err)
	}

	var frame Frame
	if err := json.Unmarshal(msg, &frame); err != nil {
		return nil, fmt.Errorf("parsing connect frame: %w", err)
	}
	if frame.Type != FrameTypeRequest || frame.Method != "connect" {
		sendErrorAndClose(conn, frame.ID, "protocol_error", "expected connect request")
		return nil, fmt.Errorf("expected connect request, got type=%s method=%s", frame.Type, frame.Method)
	}

	var params ConnectParams
	if frame.Params != nil {
		if err := json.Unmarshal(frame.Params, &params); err != nil {
			sendErrorAndClose(conn, frame.ID, "invalid_params", "invalid connect params")
			return nil, fmt.Errorf("parsing connect params: %w", err)
		}
	}

	if err := s.authorize(params.Auth); err != nil {
		sendErrorAndClose(conn, frame.ID, "unauthorized", err.Error())
		return nil, fmt.Errorf("auth failed: %w", err)
	}

	conn.SetReadDeadline(time.Time{})
	client := NewClient(conn, params.Client, s.log.Sub("ws"))

	hello := HelloOK{
		Protocol: ProtocolVersion,
		Server: ServerInfo{
			Version: version.Version,
			Commit:  version.Commit,
			ConnID:  client.ConnID,
		},
		Features: Features{
			Methods: s.Methods(),
			Events:  eventNames,
		},
		// The session projection rides along so the front-end can render
		// before its first RPC.
		Session: s.ctrl.SessionInfo(),
	}

	resp, err := NewResponse(frame.ID, hello)
	if err != nil {
		return nil, fmt.Errorf("creating hello response: %w", err)
	}
	if err := conn.WriteJSON(resp); err != nil {
		return nil, fmt.Errorf("sending hello: %w", err)
	}

	s.log.Info().
		Str("connId", client.ConnID).
		Str("clientId", params.Client.ID).
		Msg("client connected")
	return client, nil
}

// readLoop processes incoming frames until the connection drops. Each
// request runs on its own goroutine: chat.send blocks for the whole turn
// and must not starve control requests like assistant.close.
func (s *Server) readLoop(client *Client) {
	for {
		frame, err := client.ReadFrame()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("connId", client.ConnID).Msg("client closed connection")
			} else {
				s.log.Warn().Err(err).Str("connId", client.ConnID).Msg("read error")
			}
			return
		}

		if frame.Type != FrameTypeRequest {
			s.log.Debug().Str("type", frame.Type).Msg("ignoring non-request frame")
			continue
		}
		go s.dispatch(client, frame)
	}
}

// dispatch routes a request frame to its handler.
func (s *Server) dispatch(client *Client, frame Frame) {
	handler, ok := s.handlers[frame.Method]
	if !ok {
		client.RespondError(frame.ID, ErrorShape{
			Code:    "method_not_found",
			Message: "unknown method: " + frame.Method,
		})
		return
	}
	handler(&RequestContext{Client: client, Frame: frame, Server: s})
}

// sendErrorAndClose sends an error response and closes the connection.
func sendErrorAndClose(conn *websocket.Conn, reqID, code, message string) {
	conn.WriteJSON(NewErrorResponse(reqID, ErrorShape{Code: code, Message: message}))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, message))
}
