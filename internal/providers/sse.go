package providers

import (
	"bufio"
	"io"
	"strings"
)

// sseEvent is one parsed `event:`/`data:` pair from a text/event-stream
// body. Multi-line data fields are joined with '\n' per the SSE spec.
type sseEvent struct {
	Event string
	Data  string
}

// sseScanner reads Server-Sent Events off an HTTP response body,
// shared by every streaming adapter. Grounded on the teacher's SSE
// reader, which all three streaming providers reuse rather than each
// hand-rolling a parser.
type sseScanner struct {
	scanner *bufio.Scanner
}

// newSSEScanner wraps r for line-oriented SSE parsing.
func newSSEScanner(r io.Reader) *sseScanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &sseScanner{scanner: scanner}
}

// Next returns the next event, io.EOF when the stream ends cleanly,
// or a scan error.
func (s *sseScanner) Next() (sseEvent, error) {
	var ev sseEvent
	var data []string
	sawAny := false

	for s.scanner.Scan() {
		line := s.scanner.Text()
		sawAny = true

		if line == "" {
			if len(data) > 0 || ev.Event != "" {
				ev.Data = strings.Join(data, "\n")
				return ev, nil
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "event:"):
			ev.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive, ignored
		}
	}

	if err := s.scanner.Err(); err != nil {
		return sseEvent{}, err
	}
	if sawAny && (len(data) > 0 || ev.Event != "") {
		ev.Data = strings.Join(data, "\n")
		return ev, nil
	}
	return sseEvent{}, io.EOF
}
