// Package ipc handles inter-process communication between the daemon and
// clients: a JSON request/response/push envelope over a Unix socket, the
// external boundary spec.md treats as an "external collaborator" for
// status and data sinks.
package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents the type of command a client sends.
type CommandType string

const (
	// CmdAnalyze submits an analysis run: kernel parameters plus PCM
	// samples. The daemon streams StatusPush/DataPush messages back to
	// the same connection as the run progresses.
	CmdAnalyze   CommandType = "analyze"
	CmdGetConfig CommandType = "getConfig"
	CmdSetConfig CommandType = "setConfig"
)

// PushMessage represents a server-initiated message (no request needed).
type PushMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Request represents a client request.
type Request struct {
	Cmd  CommandType     `json:"cmd"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Response represents a server response.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// AnalyzeRequest is the data for an analyze command. Samples are PCM
// audio already reduced to mono float64, per internal/pcmio.
type AnalyzeRequest struct {
	SampleRate    int       `json:"sampleRate"`
	MinFrequency  float64   `json:"minFrequency"`
	MaxFrequency  float64   `json:"maxFrequency"`
	BinsPerOctave int       `json:"binsPerOctave"`
	Threshold     float64   `json:"threshold"`
	FrameInterval int       `json:"frameInterval"`
	WorkerCount   int       `json:"workerCount"`
	Samples       []float64 `json:"samples"`
}

// AnalyzeAccepted is the immediate response to a well-formed analyze
// request; the actual results stream afterward as push messages.
type AnalyzeAccepted struct {
	RunID string `json:"runId"`
}

// StatusPush is the push-message payload mirroring spec.md §6's
// status_sink contract: code 0/1/2/3 with a payload whose meaning
// depends on the code (see internal/wire.StatusCode).
type StatusPush struct {
	RunID   string `json:"runId"`
	Code    int    `json:"code"`
	Payload int    `json:"payload"`
}

// DataPush is the push-message payload mirroring spec.md §6's data_sink
// contract. Cells are batched one frame per message (TotalSamples is 1,
// Values holds that frame's bins) rather than sent one at a time, to keep
// the socket from being flooded with one message per (frame, bin) cell.
type DataPush struct {
	RunID        string    `json:"runId"`
	SampleStart  int       `json:"sampleStart"`
	Bins         int       `json:"bins"`
	TotalSamples int       `json:"totalSamples"`
	Values       []float64 `json:"values"`
}

// ConfigResponse is the response to a getConfig command.
type ConfigResponse struct {
	ConfigPath    string  `json:"configPath"`
	SocketPath    string  `json:"socketPath"`
	SampleRate    int     `json:"sampleRate"`
	MinFrequency  float64 `json:"minFrequency"`
	MaxFrequency  float64 `json:"maxFrequency"`
	BinsPerOctave int     `json:"binsPerOctave"`
	Threshold     float64 `json:"threshold"`
	FrameInterval int     `json:"frameInterval"`
	WorkerCount   int     `json:"workerCount"`
}

// ConfigRequest is the data for a setConfig command. Pointer fields are
// only applied when present.
type ConfigRequest struct {
	SampleRate    *int     `json:"sampleRate,omitempty"`
	MinFrequency  *float64 `json:"minFrequency,omitempty"`
	MaxFrequency  *float64 `json:"maxFrequency,omitempty"`
	BinsPerOctave *int     `json:"binsPerOctave,omitempty"`
	Threshold     *float64 `json:"threshold,omitempty"`
	FrameInterval *int     `json:"frameInterval,omitempty"`
	WorkerCount   *int     `json:"workerCount,omitempty"`
}

// EncodeRequest encodes a request to JSON.
func EncodeRequest(req *Request) ([]byte, error) {
	return json.Marshal(req)
}

// DecodeRequest decodes a request from JSON.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	return &req, nil
}

// EncodeResponse encodes a response to JSON.
func EncodeResponse(resp *Response) ([]byte, error) {
	return json.Marshal(resp)
}

// DecodeResponse decodes a response from JSON.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// NewSuccessResponse creates a successful response.
func NewSuccessResponse(data interface{}) (*Response, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}
	return &Response{
		Success: true,
		Data:    rawData,
	}, nil
}

// NewErrorResponse creates an error response.
func NewErrorResponse(err string) *Response {
	return &Response{
		Success: false,
		Error:   err,
	}
}

// NewPushMessage creates a push message for streaming data.
func NewPushMessage(msgType string, data interface{}) ([]byte, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}
	msg := PushMessage{
		Type: msgType,
		Data: rawData,
	}
	return json.Marshal(msg)
}
