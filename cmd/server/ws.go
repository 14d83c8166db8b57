package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"contract-risk-lab/internal/analysis"
	"contract-risk-lab/internal/domain"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsMessage is one frame of the analysis stream. Type is "progress",
// "result" or "error".
type wsMessage struct {
	Type   string                   `json:"type"`
	Stage  analysis.Stage           `json:"stage,omitempty"`
	Detail string                   `json:"detail,omitempty"`
	Result *domain.ContractAnalysis `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
	Status int                      `json:"status,omitempty"`
}

// handleWSAnalyze streams the stages of a contract analysis and then its
// result over a websocket. The analysis is cancelled when the client goes away.
func (s *Server) handleWSAnalyze(c *gin.Context) {
	t, err := queryTarget(c)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The read loop only notices a closed client.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(m wsMessage) error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(m)
	}

	// Progress runs on this goroutine, so the connection has a single writer.
	progress := func(stage analysis.Stage, detail string) {
		if err := send(wsMessage{Type: "progress", Stage: stage, Detail: detail}); err != nil {
			cancel()
		}
	}

	res, err := track(s, ctx, func(ctx context.Context) (*domain.ContractAnalysis, error) {
		return s.svc.AnalyzeContract(ctx, t.chain, t.address, progress)
	})
	if err != nil {
		s.log("ws analyze %s on %s failed: %v", t.address, t.chain, err)
		send(wsMessage{Type: "error", Error: err.Error(), Status: statusFor(err)})
	} else {
		send(wsMessage{Type: "result", Result: res})
	}

	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
