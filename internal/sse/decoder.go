package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// StreamError is an error frame received from the server.
type StreamError struct {
	Code    string
	Message string
}

func (e *StreamError) Error() string {
	if e.Code == "" {
		return "stream error: " + e.Message
	}
	return fmt.Sprintf("stream error (%s): %s", e.Code, e.Message)
}

// Decoder reassembles text from frames fed to it in arbitrary chunks.
//
// A data line whose JSON does not parse is left at the head of the buffer
// and retried when the next chunk arrives. If it fails again it is dropped.
// A line still pending when the stream ends is dropped too. Dropped lines
// are counted.
type Decoder struct {
	buf      []byte
	retrying bool
	done     bool
	dropped  int
	text     strings.Builder
	err      *StreamError
}

func NewDecoder() *Decoder { return &Decoder{} }

// Feed appends p to the buffer and returns the text deltas of every
// complete frame it could decode.
func (d *Decoder) Feed(p []byte) []string {
	if d.done || d.err != nil {
		return nil
	}
	d.buf = append(d.buf, p...)

	var out []string
	for !d.done && d.err == nil {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimSuffix(d.buf[:i], []byte("\r")))

		text, ok := d.line(line)
		if !ok {
			if !d.retrying {
				d.retrying = true
				break
			}
			d.dropped++
		}
		d.retrying = false
		d.buf = d.buf[i+1:]
		if text != "" {
			d.text.WriteString(text)
			out = append(out, text)
		}
	}
	return out
}

// Close ends the stream. A trailing line without a newline is decoded one
// last time; a pending retry is dropped.
func (d *Decoder) Close() []string {
	if d.done || d.err != nil {
		return nil
	}
	if d.retrying {
		d.dropped++
		d.retrying = false
		if i := bytes.IndexByte(d.buf, '\n'); i >= 0 {
			d.buf = d.buf[i+1:]
		}
	}

	var out []string
	for len(d.buf) > 0 && !d.done && d.err == nil {
		var line string
		if i := bytes.IndexByte(d.buf, '\n'); i >= 0 {
			line, d.buf = string(d.buf[:i]), d.buf[i+1:]
		} else {
			line, d.buf = string(d.buf), nil
		}
		text, ok := d.line(strings.TrimSuffix(line, "\r"))
		if !ok {
			d.dropped++
			continue
		}
		if text != "" {
			d.text.WriteString(text)
			out = append(out, text)
		}
	}
	d.buf = nil
	return out
}

// Done reports whether the terminator was seen.
func (d *Decoder) Done() bool { return d.done }

// Dropped returns how many malformed lines were discarded.
func (d *Decoder) Dropped() int { return d.dropped }

// Text returns everything decoded so far.
func (d *Decoder) Text() string { return d.text.String() }

// Err returns the error frame received, if any.
func (d *Decoder) Err() error {
	if d.err == nil {
		return nil
	}
	return d.err
}

// line decodes one line. ok is false only for a data line with bad JSON.
func (d *Decoder) line(line string) (string, bool) {
	if strings.HasPrefix(line, ":") || strings.TrimSpace(line) == "" {
		return "", true
	}
	payload, found := strings.CutPrefix(line, "data: ")
	if !found {
		return "", true
	}
	payload = strings.TrimSpace(payload)
	if payload == DoneMarker {
		d.done = true
		return "", true
	}

	var c chunk
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return "", false
	}
	if c.Error != nil {
		d.err = &StreamError{Code: c.Error.Code, Message: c.Error.Message}
		return "", true
	}
	if len(c.Choices) == 0 {
		return "", true
	}
	return c.Choices[0].Delta.Content, true
}

// Result summarises a consumed stream.
type Result struct {
	Text    string
	Dropped int
	Done    bool
}

// Consume reads r to the end or to the terminator, calling fn with every
// delta. An error returned by fn stops the read and is returned.
func Consume(r io.Reader, fn func(delta string) error) (Result, error) {
	d := NewDecoder()
	emit := func(deltas []string) error {
		if fn == nil {
			return nil
		}
		for _, s := range deltas {
			if err := fn(s); err != nil {
				return err
			}
		}
		return nil
	}

	buf := make([]byte, 4096)
	for !d.Done() && d.err == nil {
		n, err := r.Read(buf)
		if n > 0 {
			if ferr := emit(d.Feed(buf[:n])); ferr != nil {
				return d.result(), ferr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return d.result(), fmt.Errorf("read stream: %w", err)
		}
	}
	if ferr := emit(d.Close()); ferr != nil {
		return d.result(), ferr
	}
	return d.result(), d.Err()
}

func (d *Decoder) result() Result {
	return Result{Text: d.Text(), Dropped: d.dropped, Done: d.done}
}
