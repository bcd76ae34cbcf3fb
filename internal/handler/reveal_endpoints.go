package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"storycanvas/internal/reveal"
)

const (
	// Time allowed to write a frame to the client.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong from the client.
	pongWait = 60 * time.Second
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// The client is not expected to send anything but control frames.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Reveal streams only carry stored text.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// revealGeneration streams the stored text of a generation as typewriter
// frames over a WebSocket and closes the connection after the last frame.
func (h *Handler) revealGeneration(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		abortInvalidID(c, "Invalid generation ID")
		return
	}

	gen, err := h.generations.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Failed to fetch generation")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the error response.
		h.logger.Warn("Failed to upgrade reveal connection", zap.Int64("generationId", id), zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	log := h.logger.With(zap.Int64("generationId", id))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go readPump(conn, cancel, log)
	writeFrames(ctx, conn, reveal.New(gen.GeneratedContent, h.revealInterval), log)
}

// readPump drains control frames and cancels the stream once the client goes
// away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc, log *zap.Logger) {
	defer cancel()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("Reveal client read error", zap.Error(err))
			}
			return
		}
	}
}

func writeFrames(ctx context.Context, conn *websocket.Conn, seq *reveal.Sequence, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	frames := seq.Frames(ctx)
	sent := 0
	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				if ctx.Err() != nil {
					log.Debug("Reveal cancelled", zap.Int("framesSent", sent))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
				log.Debug("Reveal finished", zap.Int("framesSent", sent))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frame); err != nil {
				log.Debug("Failed to write reveal frame", zap.Error(err))
				return
			}
			sent++
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
