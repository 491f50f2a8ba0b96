// Package sse reassembles server-sent-event frames out of arbitrarily
// chunked byte streams. Network reads split events at arbitrary points;
// only complete, blank-line-terminated frames may be forwarded to a client.
package sse

import "bytes"

// Delimiter terminates one frame (a blank line).
var Delimiter = []byte("\n\n")

// Reassembler accumulates stream chunks and yields complete frames.
// An instance belongs to exactly one stream; it is not safe for
// concurrent use.
type Reassembler struct {
	buf bytes.Buffer
}

func New() *Reassembler {
	return &Reassembler{}
}

// Push appends a chunk to the accumulator and returns every complete frame
// it now holds, delimiter included, in stream order. Incomplete trailing
// data stays buffered for the next chunk.
func (r *Reassembler) Push(chunk []byte) [][]byte {
	r.buf.Write(chunk)

	var frames [][]byte
	for {
		data := r.buf.Bytes()
		i := bytes.Index(data, Delimiter)
		if i < 0 {
			break
		}

		frame := make([]byte, i+len(Delimiter))
		copy(frame, data[:i+len(Delimiter)])
		frames = append(frames, frame)

		r.buf.Next(i + len(Delimiter))
	}

	return frames
}

// Flush returns whatever remains buffered when the stream ends. The second
// return is false when the accumulator is empty.
func (r *Reassembler) Flush() ([]byte, bool) {
	if r.buf.Len() == 0 {
		return nil, false
	}

	rest := make([]byte, r.buf.Len())
	copy(rest, r.buf.Bytes())
	r.buf.Reset()

	return rest, true
}
