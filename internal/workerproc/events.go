package workerproc

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"resume-tailor/internal/shared/server/middleware"
	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/internal/shared/telemetry"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API only listens locally; CORS already limits browser callers.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// events streams job snapshots over a WebSocket until the job finishes.
func (h *Handler) events(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.JobIDKey, id)
	updates, cancel, err := h.Worker.Watch(id)
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		telemetry.Warn("worker.events_upgrade_failed", map[string]any{"job_id": id, "err": err})
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	last := ""
	for {
		select {
		case job, ok := <-updates:
			if !ok {
				// Snapshots can be dropped when the buffer is full; always
				// deliver the terminal one.
				if final, err := h.Worker.Get(id); err == nil && final.Status != last {
					_ = writeJob(conn, final)
				}
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"),
					time.Now().Add(writeWait))
				return
			}
			if err := writeJob(conn, job); err != nil {
				return
			}
			last = job.Status
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeJob(conn *websocket.Conn, job Job) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(job)
}
