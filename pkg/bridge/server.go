// Package bridge exposes a meter to the browser extension over stdio.
//
// Requests and responses are line-delimited JSON-RPC 2.0. Each request
// method decodes its params into one meter command. After a saved round the
// bridge pushes a stats.updated notification, plus one window.warning per
// warning the meter delivered.
package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/pario-ai/chatmeter/pkg/ingest"
	"github.com/pario-ai/chatmeter/pkg/meter"
	"github.com/pario-ai/chatmeter/pkg/models"
)

// Dispatcher executes meter commands.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd meter.Command) (any, error)
}

// Server serves one JSON-RPC stream.
type Server struct {
	meter   Dispatcher
	logger  *zap.Logger
	version string
}

// New creates a Server. A nil logger discards logs.
func New(d Dispatcher, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{meter: d, logger: logger, version: version}
}

// Run reads JSON-RPC requests from r line-by-line and writes responses to w.
// It blocks until r is closed or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 8*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.write(w, Response{
				JSONRPC: "2.0",
				Error:   &RPCError{Code: CodeParseError, Message: "parse error"},
			})
			continue
		}
		if req.JSONRPC != "2.0" || req.Method == "" {
			s.write(w, Response{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   &RPCError{Code: CodeInvalidRequest, Message: "invalid request"},
			})
			continue
		}

		resp, pushes := s.dispatch(ctx, &req)
		if len(req.ID) > 0 {
			s.write(w, resp)
		}
		for _, n := range pushes {
			s.write(w, n)
		}
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req *Request) (Response, []Notification) {
	resp := Response{JSONRPC: "2.0", ID: req.ID}
	if req.Method == "initialize" {
		resp.Result = InitializeResult{
			ServerInfo:    ServerInfo{Name: "chatmeter", Version: s.version},
			Methods:       methodNames(),
			Notifications: []string{NotifyStatsUpdated, NotifyWindowWarning},
		}
		return resp, nil
	}

	decode, ok := methods[req.Method]
	if !ok {
		resp.Error = &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("unknown method: %s", req.Method)}
		return resp, nil
	}
	cmd, err := decode(ctx, s, req.Params)
	if err != nil {
		resp.Error = &RPCError{Code: CodeInvalidParams, Message: err.Error()}
		return resp, nil
	}
	result, err := s.meter.Dispatch(ctx, cmd)
	if err != nil {
		s.logger.Debug("request failed", zap.String("method", req.Method), zap.Error(err))
		resp.Error = &RPCError{Code: errorCode(err), Message: err.Error()}
		return resp, nil
	}
	resp.Result = result
	return resp, pushes(result)
}

// pushes returns the notifications that follow a command result.
func pushes(result any) []Notification {
	res, ok := result.(meter.RoundResult)
	if !ok || !res.Saved {
		return nil
	}
	out := []Notification{{
		JSONRPC: "2.0",
		Method:  NotifyStatsUpdated,
		Params: StatsUpdated{
			ChatID:      res.Chat.ID,
			RoundNumber: res.Round.RoundNumber,
			ChatTokens:  res.Chat.Stats.Total.Tokens,
		},
	}}
	for _, w := range res.Notified {
		out = append(out, Notification{JSONRPC: "2.0", Method: NotifyWindowWarning, Params: w})
	}
	return out
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, models.ErrChatNotFound):
		return CodeNotFound
	case errors.Is(err, models.ErrInvalidSettings),
		errors.Is(err, models.ErrInvalidImport),
		errors.Is(err, models.ErrInvalidWindowEnd),
		errors.Is(err, models.ErrUnknownWindow),
		errors.Is(err, models.ErrInvalidRange),
		errors.Is(err, ingest.ErrMalformed),
		errors.Is(err, meter.ErrNoChat):
		return CodeInvalidParams
	}
	return CodeInternalError
}

func (s *Server) write(w io.Writer, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshal message", zap.Error(err))
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write message", zap.Error(err))
	}
}
