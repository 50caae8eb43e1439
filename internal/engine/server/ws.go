package server

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/chessfront/internal/engine"
	"github.com/park285/chessfront/pkg/chessdto"
)

// ReadLimit bounds one websocket frame; a full move list stays well below it.
const ReadLimit = 1 << 20

// WebsocketHandler answers chessdto.Frame requests in order on each connection.
func (s *Server) WebsocketHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			CompressionMode: websocket.CompressionNoContextTakeover,
		})
		if err != nil {
			s.logger.Debug("ws_accept_failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusInternalError, "server error")
		conn.SetReadLimit(ReadLimit)

		if err := s.serveConn(r.Context(), conn); err != nil {
			s.logger.Debug("ws_conn_closed", zap.Error(err))
			return
		}
		conn.Close(websocket.StatusNormalClosure, "")
	})
}

func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		var f chessdto.Frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := wsjson.Write(ctx, conn, s.serveFrame(ctx, f)); err != nil {
			return err
		}
	}
}

func (s *Server) serveFrame(ctx context.Context, f chessdto.Frame) chessdto.Reply[engine.State] {
	reply := chessdto.Reply[engine.State]{ID: f.ID}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	var (
		st  engine.State
		err error
	)
	switch f.Op {
	case chessdto.OpInitial:
		st, err = s.eng.InitialState(ctx)
	case chessdto.OpAdvance:
		req := f.Advance()
		if derr := validateRequest(&req); derr != nil {
			reply.Error = derr
			return reply
		}
		st, err = s.eng.Advance(ctx, req.Encoding, req.History)
	default:
		reply.Error = &chessdto.DomainError{Code: chessdto.CodeUnknownOp, Message: "unknown op " + f.Op}
		return reply
	}
	if err != nil {
		status, derr := toDomainError(err)
		if status >= http.StatusInternalServerError {
			s.logger.Warn("engine_request_failed", zap.String("op", f.Op), zap.Error(err))
		}
		reply.Error = &derr
		return reply
	}
	reply.Result = &st
	return reply
}
