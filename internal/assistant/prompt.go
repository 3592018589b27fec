package assistant

import (
	"strings"

	"github.com/solenne/iris/internal/chat"
	"github.com/solenne/iris/internal/store"
)

// systemPrompt frames the assistant's persona for the chat backend. The
// session context rides separately in the request so the backend can ground
// answers in what the visitor has already seen.
const systemPrompt = `You are Iris, the conversational guide for this portfolio site.
You answer questions about the projects, resume, skills, and background
presented on the site, and you can point visitors at the right page.
Keep answers short and conversational; they are read aloud. Plain prose,
no markdown tables or code blocks. If a question is outside the site's
content, say so briefly rather than guessing.`

// buildRequest assembles a chat request from the current session: system
// prompt, the most recent turns, and the session context block. Pending
// placeholder turns (empty content) are skipped.
func buildRequest(s *store.SessionStore, historyLimit int) chat.Request {
	history := s.ConversationHistory(historyLimit)
	msgs := make([]chat.Message, 0, len(history)+1)
	msgs = append(msgs, chat.Message{Role: chat.RoleSystem, Content: systemPrompt})
	for _, h := range history {
		if strings.TrimSpace(h.Content) == "" {
			continue
		}
		msgs = append(msgs, chat.Message{Role: h.Role, Content: h.Content})
	}

	info := s.SessionInfo()
	sess := s.GetSession()
	return chat.Request{
		Messages: msgs,
		Context: &chat.SessionContext{
			TopicsDiscussed:   info.Topics,
			CurrentPage:       info.CurrentPage,
			NavigationHistory: sess.NavigationHistory,
			SessionDuration:   info.Duration,
		},
	}
}
