package chat

import "rentmate/internal/domain"

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type TypingRequest struct {
	Typing bool `json:"typing"`
}

// SessionView adds the aggregate and caller-specific unread counts to a session.
type SessionView struct {
	domain.ChatSession
	UnreadCount int              `json:"unread_count"`
	UnreadForMe int              `json:"unread_for_me"`
	Party       domain.ChatParty `json:"party,omitempty"`
}

func newSessionView(s domain.ChatSession, party domain.ChatParty) SessionView {
	return SessionView{
		ChatSession: s,
		UnreadCount: s.UnreadCount(),
		UnreadForMe: s.UnreadFor(party),
		Party:       party,
	}
}

type TypingPayload struct {
	Party  domain.ChatParty `json:"party"`
	Typing bool             `json:"typing"`
}

type ReadPayload struct {
	Party  domain.ChatParty `json:"party"`
	Marked int              `json:"marked"`
}

// WSClientMessage is a frame sent by a browser over the chat socket.
type WSClientMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Message   string `json:"message,omitempty"`
	Typing    bool   `json:"typing,omitempty"`
}

type WSErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
