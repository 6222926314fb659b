package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rentmate/internal/domain"
	"rentmate/internal/middleware"
	"rentmate/internal/pkg/response"
)

type Handler struct {
	service  *Service
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler builds the chat handler. allowedOrigins limits WebSocket origins; empty allows any.
func NewHandler(service *Service, hub *Hub, allowedOrigins []string) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if len(allowed) == 0 || origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(strings.TrimSpace(o), origin) {
				return true
			}
		}
		return false
	}
}

// RegisterRoutes expects rg to be behind JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/chat", middleware.BookerOnly())
	g.GET("/sessions", h.ListSessions)
	g.GET("/bookings/:bookingId", h.GetByBooking)
	g.GET("/sessions/:id/messages", h.GetMessages)
	g.POST("/sessions/:id/messages", h.SendMessage)
	g.POST("/sessions/:id/read", h.MarkRead)
	g.POST("/sessions/:id/typing", h.SetTyping)
	g.GET("/ws", h.ServeWS)
}

func (h *Handler) ListSessions(c *gin.Context) {
	list, err := h.service.ListSessions(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sessions": list})
}

func (h *Handler) GetByBooking(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("bookingId"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking id")
		return
	}
	v, err := h.service.GetChatSessionByBookingID(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": v})
}

func (h *Handler) GetMessages(c *gin.Context) {
	ctx := c.Request.Context()
	session, party, err := h.service.Participant(ctx, middleware.Actor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	msgs, err := h.service.GetMessages(ctx, session.ID, party)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"messages": msgs})
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "message is required")
		return
	}
	msg, err := h.service.Send(c.Request.Context(), middleware.Actor(c), c.Param("id"), req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"message": msg})
}

func (h *Handler) MarkRead(c *gin.Context) {
	ctx := c.Request.Context()
	session, party, err := h.service.Participant(ctx, middleware.Actor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	updated, err := h.service.MarkSessionRead(ctx, session.ID, party)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": newSessionView(*updated, party)})
}

func (h *Handler) SetTyping(c *gin.Context) {
	var req TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	ctx := c.Request.Context()
	session, party, err := h.service.Participant(ctx, middleware.Actor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.service.SetTyping(ctx, session.ID, party, req.Typing); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"typing": req.Typing})
}

// ServeWS upgrades to a chat socket. Browsers pass the token as ?access_token=.
func (h *Handler) ServeWS(c *gin.Context) {
	actor := middleware.Actor(c)
	keys, err := h.service.SocketKeys(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("chat ws: upgrade failed actor=%d err=%v", actor.ID, err)
		return
	}

	cn := &connection{keys: keys, conn: conn, send: make(chan []byte, sendBuffer)}
	h.hub.register(cn)
	log.Printf("chat ws: connected role=%s id=%d", actor.Role, actor.ID)

	go h.hub.writePump(cn)
	h.readPump(cn, actor)
	log.Printf("chat ws: disconnected role=%s id=%d", actor.Role, actor.ID)
}

func (h *Handler) readPump(c *connection, actor domain.Actor) {
	defer func() {
		h.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("chat ws: read failed id=%d err=%v", actor.ID, err)
			}
			return
		}

		var msg WSClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.reply(c, WSErrorEvent{Type: "error", Code: "INVALID_JSON", Message: "Failed to parse message"})
			continue
		}
		if err := h.handleFrame(context.Background(), c, actor, msg); err != nil {
			code, text := errorCode(err)
			h.reply(c, WSErrorEvent{Type: "error", Code: code, Message: text})
		}
	}
}

func (h *Handler) handleFrame(ctx context.Context, c *connection, actor domain.Actor, msg WSClientMessage) error {
	switch msg.Type {
	case "ping":
		h.reply(c, WSEvent{Type: "pong"})
		return nil
	case "message":
		_, err := h.service.Send(ctx, actor, msg.SessionID, msg.Message)
		return err
	case "typing", "read":
	default:
		h.reply(c, WSErrorEvent{Type: "error", Code: "UNKNOWN_TYPE", Message: "Unknown message type: " + msg.Type})
		return nil
	}

	session, party, err := h.service.Participant(ctx, actor, msg.SessionID)
	if err != nil {
		return err
	}
	if msg.Type == "typing" {
		return h.service.SetTyping(ctx, session.ID, party, msg.Typing)
	}
	_, err = h.service.MarkSessionRead(ctx, session.ID, party)
	return err
}

// reply writes to one socket only; chat events arrive through Hub.Run.
func (h *Handler) reply(c *connection, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	h.hub.mu.RLock()
	defer h.hub.mu.RUnlock()
	if !h.hub.registered(c) {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func errorCode(err error) (string, string) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrBookingNotFound):
		return "NOT_FOUND", err.Error()
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN", "Access denied"
	case errors.Is(err, ErrBookingNotApproved):
		return "BOOKING_NOT_APPROVED", err.Error()
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMessageTooLong):
		return "VALIDATION_ERROR", err.Error()
	default:
		return "INTERNAL_ERROR", "Internal server error"
	}
}

func writeError(c *gin.Context, err error) {
	code, text := errorCode(err)
	switch code {
	case "NOT_FOUND":
		response.Error(c, http.StatusNotFound, code, text)
	case "FORBIDDEN":
		response.Error(c, http.StatusForbidden, code, text)
	case "BOOKING_NOT_APPROVED":
		response.Error(c, http.StatusConflict, code, text)
	case "VALIDATION_ERROR":
		response.Error(c, http.StatusBadRequest, code, text)
	default:
		response.Internal(c, err)
	}
}
