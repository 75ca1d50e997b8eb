// Package stream implements the server-sent-event framing used to carry
// extraction events over HTTP, and a client that speaks it.
package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/reelbites/recipe-extractor/internal/extraction"
)

var frameSep = []byte("\n\n")

// EncodeFrame renders one event as an SSE data frame: "data: {json}\n\n".
func EncodeFrame(ev extraction.ExtractionEvent) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(payload)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, payload...)
	buf = append(buf, frameSep...)
	return buf, nil
}

// Decoder reads SSE frames from a byte stream. Reads are buffered until a
// complete "\n\n"-terminated frame is available, so a frame split across
// arbitrarily many TCP segments decodes the same as one delivered whole.
type Decoder struct {
	r   io.Reader
	buf bytes.Buffer
	tmp []byte
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, tmp: make([]byte, 4096)}
}

// Next returns the next complete event. io.EOF means the stream ended
// cleanly on a frame boundary; ErrTruncatedFrame means it ended mid-frame.
func (d *Decoder) Next() (extraction.ExtractionEvent, error) {
	for {
		if frame, ok := d.takeFrame(); ok {
			ev, err := decodeFrame(frame)
			if err != nil {
				return extraction.ExtractionEvent{}, err
			}
			if ev == nil {
				// Comment or keep-alive frame.
				continue
			}
			return *ev, nil
		}

		n, err := d.r.Read(d.tmp)
		if n > 0 {
			d.buf.Write(d.tmp[:n])
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(bytes.TrimSpace(d.buf.Bytes())) > 0 {
				return extraction.ExtractionEvent{}, ErrTruncatedFrame
			}
			return extraction.ExtractionEvent{}, err
		}
	}
}

// ErrTruncatedFrame reports a stream that ended with a partial frame in
// the buffer.
var ErrTruncatedFrame = errors.New("stream ended mid-frame")

func (d *Decoder) takeFrame() ([]byte, bool) {
	data := d.buf.Bytes()
	idx := bytes.Index(data, frameSep)
	if idx < 0 {
		return nil, false
	}
	frame := make([]byte, idx)
	copy(frame, data[:idx])
	d.buf.Next(idx + len(frameSep))
	return frame, true
}

// decodeFrame parses one frame body. Lines other than "data:" (comments,
// event names) are ignored; multiple data lines concatenate per the SSE
// rules. A nil event with nil error means the frame carried no data.
func decodeFrame(frame []byte) (*extraction.ExtractionEvent, error) {
	var payload []byte
	for _, line := range bytes.Split(frame, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		rest, ok := bytes.CutPrefix(line, []byte("data:"))
		if !ok {
			continue
		}
		rest = bytes.TrimPrefix(rest, []byte(" "))
		if len(payload) > 0 {
			payload = append(payload, '\n')
		}
		payload = append(payload, rest...)
	}
	if len(payload) == 0 {
		return nil, nil
	}
	var ev extraction.ExtractionEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
