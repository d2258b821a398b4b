// Package ipc implements the newline-delimited JSON tool protocol spoken
// between the coordinator and its helper servers over unix sockets.
package ipc

import "encoding/json"

// ToolPing is the minimal liveness tool every helper must answer.
const ToolPing = "ping"

// Request is one tool invocation sent to a helper server.
type Request struct {
	ID   string          `json:"id,omitempty"`
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Response is the helper's reply to a single Request.
type Response struct {
	ID     string          `json:"id,omitempty"`
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
