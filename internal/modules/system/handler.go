package system

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"rentmate/internal/middleware"
	"rentmate/internal/pkg/response"
)

type Handler struct {
	service   *Service
	heartbeat time.Duration
	closing   chan struct{}
	closeOnce sync.Once
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service, heartbeat: 15 * time.Second, closing: make(chan struct{})}
}

// Close ends every open event stream. http.Server.Shutdown does not cancel
// request contexts, so register it with RegisterOnShutdown.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.closing) })
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	v1.GET("/system/status", h.Status)
}

// RegisterRoutes expects rg to be behind JWTAuth. EventSource clients pass ?access_token=.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/events", h.Stream)
}

func (h *Handler) Status(c *gin.Context) {
	st, err := h.service.Status(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "data": st})
		return
	}
	response.Success(c, http.StatusOK, st)
}

// Stream pushes domain events visible to the caller as server-sent events.
func (h *Handler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	viewer, err := h.service.Viewer(ctx, middleware.Actor(c))
	if err != nil {
		response.Internal(c, err)
		return
	}

	sub, cancel := h.service.bus.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.closing:
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case e, ok := <-sub:
			if !ok {
				return
			}
			if !viewer.Visible(e) {
				continue
			}
			if err := writeSSE(c.Writer, string(e.Kind), e); err != nil {
				log.Printf("event stream: write failed role=%s id=%d err=%v", viewer.Actor.Role, viewer.Actor.ID, err)
				return
			}
			c.Writer.Flush()
		}
	}
}

func writeSSE(w io.Writer, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
	return err
}
