package gateway

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/solenne/iris/internal/domain"
	"github.com/solenne/iris/internal/version"
)

// RequestHandler processes an incoming RPC request frame.
type RequestHandler func(rc *RequestContext)

// RequestContext carries everything a handler needs.
type RequestContext struct {
	Client *Client
	Frame  Frame
	Server *Server
}

// Respond sends a success response.
func (rc *RequestContext) Respond(payload any) {
	if err := rc.Client.Respond(rc.Frame.ID, payload); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send response")
	}
}

// RespondError sends an error response.
func (rc *RequestContext) RespondError(code, message string) {
	rc.Client.RespondError(rc.Frame.ID, ErrorShape{Code: code, Message: message})
}

// Params unmarshals the request params into the given target.
func (rc *RequestContext) Params(target any) error {
	if rc.Frame.Params == nil {
		return nil
	}
	return json.Unmarshal(rc.Frame.Params, target)
}

// SendParams are the params for chat.send.
type SendParams struct {
	Text string `json:"text"`
	Page string `json:"page,omitempty"` // path the visitor is on when asking
}

// PageParams name a page path.
type PageParams struct {
	Page string `json:"page"`
}

// registerHandlers wires the RPC surface to the assistant controller.
func (s *Server) registerHandlers() {
	s.Handle("health", func(rc *RequestContext) {
		rc.Respond(map[string]any{
			"status":  "ok",
			"version": version.Version,
			"clients": s.clients.Count(),
		})
	})

	s.Handle("chat.send", s.handleChatSend)

	s.Handle("assistant.open", func(rc *RequestContext) {
		s.ctrl.Open()
		rc.Respond(s.ctrl.SessionInfo())
	})

	s.Handle("assistant.close", func(rc *RequestContext) {
		s.ctrl.Close()
		rc.Respond(map[string]bool{"closed": true})
	})

	s.Handle("chat.clear", func(rc *RequestContext) {
		s.ctrl.ClearConversation()
		rc.Respond(s.ctrl.SessionInfo())
	})

	s.Handle("session.reset", func(rc *RequestContext) {
		rc.Respond(s.ctrl.StartNewSession())
	})

	s.Handle("session.info", func(rc *RequestContext) {
		rc.Respond(s.ctrl.SessionInfo())
	})

	s.Handle("page.visit", func(rc *RequestContext) {
		var params PageParams
		if err := rc.Params(&params); err != nil || params.Page == "" {
			rc.RespondError("invalid_params", "page is required")
			return
		}
		s.ctrl.VisitPage(params.Page)
		rc.Respond(s.ctrl.Suggestions(params.Page))
	})

	s.Handle("suggestions.get", func(rc *RequestContext) {
		var params PageParams
		if err := rc.Params(&params); err != nil {
			rc.RespondError("invalid_params", "invalid params")
			return
		}
		page := params.Page
		if page == "" {
			page = s.ctrl.SessionInfo().CurrentPage
		}
		rc.Respond(s.ctrl.Suggestions(page))
	})

	s.Handle("prefs.get", func(rc *RequestContext) {
		rc.Respond(s.ctrl.Preferences())
	})

	s.Handle("prefs.set", func(rc *RequestContext) {
		var update domain.PreferencesUpdate
		if err := rc.Params(&update); err != nil {
			rc.RespondError("invalid_params", "invalid preferences update")
			return
		}
		rc.Respond(s.ctrl.UpdatePreferences(update))
	})

	s.Handle("sound.toggle", func(rc *RequestContext) {
		rc.Respond(map[string]bool{"soundEnabled": s.ctrl.ToggleSound()})
	})
}

// handleChatSend runs a full conversation turn. It responds only once the
// turn has finished; the streaming side arrives as events in the meantime.
func (s *Server) handleChatSend(rc *RequestContext) {
	var params SendParams
	if err := rc.Params(&params); err != nil || strings.TrimSpace(params.Text) == "" {
		rc.RespondError("invalid_params", "text is required")
		return
	}

	if ok, retryAfter := s.limiter.allow(rc.Client.ConnID); !ok {
		rc.Client.RespondError(rc.Frame.ID, ErrorShape{
			Code:       "rate_limited",
			Message:    "too many messages, slow down",
			Retryable:  true,
			RetryAfter: int(retryAfter.Milliseconds()),
		})
		return
	}

	if params.Page != "" {
		s.ctrl.VisitPage(params.Page)
	}

	if err := s.ctrl.Send(context.Background(), params.Text); err != nil {
		// The controller already posted the apology and the turn.error
		// event; the response just mirrors the failure.
		rc.RespondError("chat_failed", err.Error())
		return
	}
	rc.Respond(s.ctrl.SessionInfo())
}
