package layout

import (
	"bufio"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
)

// MarshalEnvelope serialises an Envelope to JSON.
func MarshalEnvelope(e *Envelope) ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEnvelope deserialises an Envelope from JSON.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ReadStream decodes a JSON-lines session file: one Envelope per line, in
// capture order. The callback is invoked once per envelope; a decode error
// aborts the stream (a truncated line means the rest of the file cannot be
// trusted to be aligned).
func ReadStream(r io.Reader, fn func(*Envelope) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		env, err := UnmarshalEnvelope(raw)
		if err != nil {
			return fmt.Errorf("layout: decode line %d: %w", line, err)
		}
		if err := fn(env); err != nil {
			return err
		}
	}
	return sc.Err()
}

// HashHTML returns the SHA-256 hex digest of serialised HTML bytes.
// Used as the snapshot dedup key.
func HashHTML(html []byte) string {
	h := sha256.Sum256(html)
	return fmt.Sprintf("%x", h)
}
