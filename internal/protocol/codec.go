package protocol

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// One envelope per line. A line is one complete JSON object; the decoder
// reassembles lines across partial reads and splits multiple messages
// arriving in one read, preserving order.

const DefaultMaxMessageSize = 32 << 10

var (
	// ErrMalformed marks a line that decoded to garbage. The connection
	// survives it; the session answers with an ERROR envelope.
	ErrMalformed = errors.New("malformed message")
	// ErrTooLarge marks a line exceeding the configured limit.
	ErrTooLarge = errors.New("message too large")
)

type Decoder struct {
	sc  *bufio.Scanner
	max int
}

func NewDecoder(r io.Reader, maxSize int) *Decoder {
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}
	sc := bufio.NewScanner(r)
	// The scanner's limit is the larger of max and the initial capacity,
	// so the initial buffer must not exceed the configured cap.
	sc.Buffer(make([]byte, 0, min(4096, maxSize)), maxSize)
	return &Decoder{sc: sc, max: maxSize}
}

// Next blocks until one complete message arrives. Malformed input returns
// an error wrapping ErrMalformed; the decoder stays usable. Transport
// errors and EOF are terminal.
func (d *Decoder) Next() (*Message, error) {
	for {
		if !d.sc.Scan() {
			if err := d.sc.Err(); err != nil {
				if errors.Is(err, bufio.ErrTooLong) {
					return nil, ErrTooLarge
				}
				return nil, err
			}
			return nil, io.EOF
		}
		line := d.sc.Bytes()
		if len(line) == 0 {
			continue
		}
		return Unmarshal(line)
	}
}

// Unmarshal decodes one envelope, rejecting unknown kinds.
func Unmarshal(raw []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !m.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, m.Type)
	}
	if m.Data == nil {
		m.Data = make(map[string]any)
	}
	return &m, nil
}

// Encoder writes envelopes one per line. The mutex guarantees no
// interleaving of partially written messages when broadcasts and replies
// race.
type Encoder struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

func (e *Encoder) Encode(m *Message) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.w.Write(raw); err != nil {
		return err
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return err
	}
	return e.w.Flush()
}
