// Package sse implements the line-oriented event stream used to deliver
// tutor answers incrementally. Each frame is a "data: " line holding a
// chat-completion chunk, and the stream ends with "data: [DONE]".
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DoneMarker terminates a stream.
const DoneMarker = "[DONE]"

type delta struct {
	Content string `json:"content"`
}

type choice struct {
	Delta delta `json:"delta"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// chunk is the JSON payload of a data frame.
type chunk struct {
	Choices []choice   `json:"choices,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

// SetHeaders prepares h for an event stream response.
func SetHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// Encoder writes frames to w, flushing after each one when w supports it.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
}

func NewEncoder(w io.Writer) *Encoder {
	f, _ := w.(http.Flusher)
	return &Encoder{w: w, flusher: f}
}

// Delta writes one text increment.
func (e *Encoder) Delta(text string) error {
	return e.writeJSON(chunk{Choices: []choice{{Delta: delta{Content: text}}}})
}

// Error writes an error frame. Decoders surface it as a *StreamError.
func (e *Encoder) Error(code, message string) error {
	return e.writeJSON(chunk{Error: &errorBody{Message: message, Code: code}})
}

// Comment writes a ":" line, used as a keep-alive.
func (e *Encoder) Comment(text string) error {
	return e.write(": " + text + "\n\n")
}

// Done writes the terminator.
func (e *Encoder) Done() error {
	return e.write("data: " + DoneMarker + "\n\n")
}

func (e *Encoder) writeJSON(c chunk) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return e.write("data: " + string(payload) + "\n\n")
}

func (e *Encoder) write(s string) error {
	if _, err := io.WriteString(e.w, s); err != nil {
		return err
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}
