package bridge

import "encoding/json"

// JSON-RPC 2.0 wire types.

// Request is a JSON-RPC 2.0 request. A request without an ID is a
// notification and gets no response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Notification is a server-initiated JSON-RPC 2.0 notification.
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// InitializeResult is the response to an initialize request.
type InitializeResult struct {
	ServerInfo    ServerInfo `json:"server_info"`
	Methods       []string   `json:"methods"`
	Notifications []string   `json:"notifications"`
}

// ServerInfo identifies the bridge.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// StatsUpdated is pushed after every saved round.
type StatsUpdated struct {
	ChatID      string `json:"chat_id"`
	RoundNumber int    `json:"round_number"`
	ChatTokens  int64  `json:"chat_tokens"`
}

// Server notification methods.
const (
	NotifyStatsUpdated  = "stats.updated"
	NotifyWindowWarning = "window.warning"
)

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	// CodeNotFound is returned for operations on an unknown chat.
	CodeNotFound = -32004
)
