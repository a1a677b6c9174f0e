// Package stream decodes the debate server's event stream.
//
// The server frames every event as a record of the form
//
//	data: {"type": "...", ...}
//
// followed by a blank line. Records may be split across network reads; the
// decoder buffers until a full record is available.
package stream

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"

	"github.com/alienxp03/debatecast/internal/core"
)

// DataPrefix marks a meaningful record.
const DataPrefix = "data: "

const maxRecordSize = 4 * 1024 * 1024

// ParseError reports a record that could not be decoded. The decoder stays
// usable after returning one.
type ParseError struct {
	Record string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("stream: malformed record (%s): %q", e.Reason, truncate(e.Record, 80))
}

// IsParseError reports whether err is a recoverable record failure.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Decoder reads events from a stream.
type Decoder struct {
	scanner *bufio.Scanner
	limit   int

	// discarding is set while the rest of an oversized record is skipped;
	// oversized reports the skip to Next once.
	discarding bool
	oversized  bool
}

// NewDecoder returns a decoder reading from r. Records larger than 4 MiB are
// skipped and reported as a *ParseError.
func NewDecoder(r io.Reader) *Decoder {
	return newDecoderSize(r, maxRecordSize)
}

func newDecoderSize(r io.Reader, limit int) *Decoder {
	d := &Decoder{limit: limit}
	d.scanner = bufio.NewScanner(r)
	d.scanner.Buffer(make([]byte, 0, min(64*1024, limit)), limit)
	d.scanner.Split(d.splitRecords)
	return d
}

// Next returns the next event. It returns io.EOF when the stream ends and
// a *ParseError for a record that is not valid JSON.
func (d *Decoder) Next() (core.Event, error) {
	for d.scanner.Scan() {
		if d.oversized {
			d.oversized = false
			return core.Event{}, &ParseError{Record: "", Reason: fmt.Sprintf("record exceeds %d bytes", d.limit)}
		}
		record := bytes.TrimSpace(d.scanner.Bytes())
		if len(record) == 0 {
			continue
		}
		payload, ok := bytes.CutPrefix(record, []byte(DataPrefix))
		if !ok {
			continue
		}
		return ParseEvent(payload)
	}
	if err := d.scanner.Err(); err != nil {
		return core.Event{}, err
	}
	return core.Event{}, io.EOF
}

// ParseEvent decodes one record payload.
func ParseEvent(payload []byte) (core.Event, error) {
	if !gjson.ValidBytes(payload) {
		return core.Event{}, &ParseError{Record: string(payload), Reason: "invalid json"}
	}
	result := gjson.ParseBytes(payload)
	if !result.IsObject() {
		return core.Event{}, &ParseError{Record: string(payload), Reason: "not an object"}
	}
	typ := result.Get("type")
	if typ.Type != gjson.String {
		return core.Event{}, &ParseError{Record: string(payload), Reason: "missing type"}
	}
	return core.Event{
		Type:    core.EventType(typ.String()),
		Name:    result.Get("name").String(),
		Content: result.Get("content").String(),
		Stance:  result.Get("stance").String(),
	}, nil
}

// splitRecords is a bufio.SplitFunc yielding blank-line delimited records.
// A record that fills the whole buffer is dropped up to its delimiter so the
// scanner never fails with bufio.ErrTooLong.
func (d *Decoder) splitRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i, n := recordBoundary(data)

	if d.discarding {
		if i >= 0 {
			d.discarding = false
			return i + n, nil, nil
		}
		return skipTail(data, atEOF), nil, nil
	}

	if i >= 0 {
		return i + n, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	if len(data) >= d.limit {
		d.discarding = true
		d.oversized = true
		// Empty non-nil token: lets Next report the skipped record.
		return skipTail(data, atEOF), []byte{}, nil
	}
	return 0, nil, nil
}

// skipTail consumes data while keeping a possible partial delimiter.
func skipTail(data []byte, atEOF bool) int {
	const keep = len("\r\n\r\n") - 1
	switch {
	case atEOF:
		return len(data)
	case len(data) <= keep:
		return 0
	default:
		return len(data) - keep
	}
}

// recordBoundary finds the first blank line, accepting CRLF framing.
func recordBoundary(data []byte) (int, int) {
	lf := bytes.Index(data, []byte("\n\n"))
	crlf := bytes.Index(data, []byte("\r\n\r\n"))
	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case crlf < 0 || (lf >= 0 && lf < crlf):
		return lf, 2
	default:
		return crlf, 4
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
