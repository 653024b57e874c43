package handlers

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/qdo/internal/api"
	"github.com/aristath/qdo/internal/modules/maxcut"
	"github.com/aristath/qdo/internal/modules/qaoa"
)

const streamWriteTimeout = 5 * time.Second

// StreamMessage is one frame of the progress stream.
// Type is "progress", "result" or "error".
type StreamMessage struct {
	Type     string                     `json:"type"`
	Progress *qaoa.Progress             `json:"progress,omitempty"`
	Result   *maxcut.OptimizationResult `json:"result,omitempty"`
	Error    *api.ErrorBody             `json:"error,omitempty"`
}

// HandleStream handles GET /api/maxcut/stream
// Upgrades to a websocket and sends one progress frame per objective evaluation, then
// the result (or an error) and a normal close. Query parameters are those of compare.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromQuery(r)
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}
	g, _, err := h.resolve(r.Context(), r.URL.Query().Get("source"), nil)
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to accept websocket")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected exit")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	// Reads are only needed to notice the client going away.
	ctx = conn.CloseRead(ctx)

	send := func(msg StreamMessage) error {
		writeCtx, cancelWrite := context.WithTimeout(ctx, streamWriteTimeout)
		defer cancelWrite()
		return wsjson.Write(writeCtx, conn, msg)
	}

	opts.Progress = func(p qaoa.Progress) {
		if err := send(StreamMessage{Type: "progress", Progress: &p}); err != nil {
			h.log.Debug().Err(err).Msg("Progress stream write failed, cancelling solve")
			cancel()
		}
	}

	result, err := h.service.FormulateAndSolve(ctx, g, opts)
	if err != nil {
		status, kind := api.Classify(err)
		h.log.Warn().Err(err).Int("status", status).Msg("Streamed solve failed")
		_ = send(StreamMessage{Type: "error", Error: &api.ErrorBody{Error: err.Error(), Kind: kind}})
		conn.Close(websocket.StatusNormalClosure, kind)
		return
	}

	if err := send(StreamMessage{Type: "result", Result: result}); err != nil {
		h.log.Debug().Err(err).Msg("Failed to send stream result")
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}
