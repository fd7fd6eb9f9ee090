package llm

import "context"

// DeltaFunc receives each increment of streamed text. Returning an error
// aborts the stream.
type DeltaFunc func(delta string) error

// Streamer is implemented by providers that can deliver plain text
// incrementally. Streaming requests ignore Request.Schema.
type Streamer interface {
	Stream(ctx context.Context, req Request, onDelta DeltaFunc) (*Response, error)
}

// Stream sends req to p and delivers the answer through onDelta. Providers
// without native streaming deliver their whole answer as one delta.
func Stream(ctx context.Context, p Provider, req Request, onDelta DeltaFunc) (*Response, error) {
	if s, ok := p.(Streamer); ok {
		return s.Stream(ctx, req, onDelta)
	}

	req.Schema = nil
	resp, err := p.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if text := resp.Text(); text != "" {
		if err := onDelta(text); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// Text returns the response content as plain text.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Content)
}
