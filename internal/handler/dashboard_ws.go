package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aryan0dhankhar/taskdesk/internal/featureflags"
	"github.com/aryan0dhankhar/taskdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/taskdesk/internal/service"
)

const (
	streamWriteWait  = 5 * time.Second
	streamPingPeriod = 15 * time.Second
	streamPongWait   = 2 * streamPingPeriod
)

// DashboardStreamHandler pushes the manager dashboard over a websocket.
type DashboardStreamHandler struct {
	dashboard      *service.DashboardService
	interval       time.Duration
	flags          featureflags.Func
	allowedOrigins []string
	logger         *slog.Logger
}

func NewDashboardStreamHandler(
	dashboard *service.DashboardService,
	interval time.Duration,
	flags featureflags.Func,
	allowedOrigins []string,
	logger *slog.Logger,
) *DashboardStreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if flags == nil {
		flags = featureflags.Enabled
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &DashboardStreamHandler{
		dashboard:      dashboard,
		interval:       interval,
		flags:          flags,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

func (h *DashboardStreamHandler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// non-browser clients send no origin
			if origin == "" || slices.Contains(h.allowedOrigins, origin) {
				return true
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/admin/dashboard
func (h *DashboardStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.flags(featureflags.DashboardStream) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}
	sess := session(r)

	// Fail before upgrading so the client gets a proper HTTP status.
	first, err := h.dashboard.ManagerSummary(r.Context(), sess)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	upgrader := h.upgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	metrics.StreamOpened()
	defer metrics.StreamClosed()
	h.logger.Debug("dashboard stream opened", slog.String("employee_id", sess.EmployeeID))

	// Reader: needed to process control frames and notice the client leaving.
	// The server's read timeout still applies to the hijacked connection, so
	// pongs push the deadline forward.
	_ = ws.SetReadDeadline(time.Now().Add(streamPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := r.Context()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	sum := first
	for {
		_ = ws.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := ws.WriteJSON(toManagerDashboard(sum)); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket closed", slog.String("error", err.Error()))
			}
			return
		}

	wait:
		for {
			select {
			case <-ctx.Done():
				return
			case <-closed:
				return
			case <-ping.C:
				if err := ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(streamWriteWait)); err != nil {
					return
				}
			case <-ticker.C:
				break wait
			}
		}

		next, err := h.dashboard.ManagerSummary(ctx, sess)
		if err != nil {
			h.logger.Error("dashboard refresh failed", slog.String("error", err.Error()))
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "operation failed"),
				time.Now().Add(streamWriteWait))
			return
		}
		sum = next
	}
}
