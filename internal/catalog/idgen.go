package catalog

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrIDSpaceExhausted is returned when no candidate id satisfies the
// uniqueness predicate within MaxIDAttempts tries. It aborts the run.
var ErrIDSpaceExhausted = errors.New("synthetic id space exhausted")

type Charset string

const (
	Numeric      Charset = "0123456789"
	Alphanumeric Charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// idStream is a counter-mode SHA-256 byte stream: block n is
// sha256(seed || 0x00 || uint64be(n)). It is stable across platforms and
// releases, which keeps synthetic ids reproducible between runs.
type idStream struct {
	seed    []byte
	counter uint64
	buf     []byte
}

func newIDStream(seed string) *idStream {
	return &idStream{seed: []byte(seed)}
}

func (s *idStream) next() uint32 {
	if len(s.buf) < 4 {
		h := sha256.New()
		h.Write(s.seed)
		var block [9]byte
		binary.BigEndian.PutUint64(block[1:], s.counter)
		h.Write(block[:])
		s.buf = h.Sum(nil)
		s.counter++
	}
	v := binary.BigEndian.Uint32(s.buf[:4])
	s.buf = s.buf[4:]
	return v
}

// GenerateID draws length characters from charset using a stream seeded by
// seed, and keeps drawing until accept returns true. The same seed and the
// same accept outcomes always produce the same id.
func GenerateID(seed string, length int, charset Charset, accept func(string) bool) (string, error) {
	if length <= 0 || len(charset) == 0 {
		return "", fmt.Errorf("invalid id shape: length %d, charset size %d", length, len(charset))
	}
	stream := newIDStream(seed)
	out := make([]byte, length)
	for attempt := 0; attempt < MaxIDAttempts; attempt++ {
		for i := range out {
			out[i] = charset[stream.next()%uint32(len(charset))]
		}
		if candidate := string(out); accept(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("seed %q after %d attempts: %w", seed, MaxIDAttempts, ErrIDSpaceExhausted)
}
