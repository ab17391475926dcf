package core

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Fingerprint is the lowercase hexadecimal rendering of a digest, one hex
// pair per digest byte
type Fingerprint string

// ComputeFingerprint digests data and renders it as a Fingerprint
func ComputeFingerprint(method HashMethod, data []byte) Fingerprint {
	sum := method.Digest(nil, data)
	return Fingerprint(hex.EncodeToString(sum))
}

// ParseFingerprint validates that s is a lowercase hex fingerprint of the
// length produced by method
func ParseFingerprint(method HashMethod, s string) (Fingerprint, error) {
	want := method.Size() * 2
	if len(s) != want {
		return "", &HashError{
			Type:    ErrorInvalidInput,
			Message: fmt.Sprintf("fingerprint is %d characters, want %d", len(s), want),
			Context: map[string]interface{}{
				"method": method.Name(),
				"length": len(s),
			},
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", &HashError{
				Type:    ErrorInvalidInput,
				Message: fmt.Sprintf("fingerprint has non lowercase-hex byte %q at offset %d", c, i),
				Context: map[string]interface{}{
					"method": method.Name(),
					"offset": i,
				},
			}
		}
	}
	return Fingerprint(s), nil
}

// Matcher compares candidate digests against a fixed target fingerprint.
// It owns scratch buffers and must not be shared between goroutines.
type Matcher struct {
	method HashMethod
	target []byte
	sum    []byte
	hexed  []byte
}

// NewMatcher creates a matcher for target
func NewMatcher(method HashMethod, target Fingerprint) (*Matcher, error) {
	if _, err := ParseFingerprint(method, string(target)); err != nil {
		return nil, err
	}
	return &Matcher{
		method: method,
		target: []byte(target),
		sum:    make([]byte, 0, method.Size()),
		hexed:  make([]byte, method.Size()*2),
	}, nil
}

// Match reports whether the hex digest of candidate equals the target
func (m *Matcher) Match(candidate []byte) bool {
	m.sum = m.method.Digest(m.sum[:0], candidate)
	hex.Encode(m.hexed, m.sum)
	return bytes.Equal(m.hexed, m.target)
}

// Target returns the fingerprint being matched
func (m *Matcher) Target() Fingerprint {
	return Fingerprint(m.target)
}

// HashError represents errors that can occur during hashing operations
type HashError struct {
	Type    ErrorType
	Message string
	Context map[string]interface{}
}

func (e *HashError) Error() string {
	return e.Message
}

// ErrorType represents different types of hashing errors
type ErrorType int

const (
	ErrorInvalidInput ErrorType = iota
	ErrorUnknownMethod
)
