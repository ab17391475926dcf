package software

import (
	"crypto/sha256"
	"crypto/sha512"
	"sync"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"brutepin/pkg/hashing/core"
)

// Method names understood by the factory
const (
	SHA256     = "sha256"
	SHA512     = "sha512"
	SHA3       = "sha3-256"
	BLAKE2b256 = "blake2b-256"
	BLAKE3     = "blake3"
)

// SoftwareMethod implements the HashMethod interface on top of a one-shot
// sum function. It holds no per-call state and is safe for concurrent use.
type SoftwareMethod struct {
	name     string
	size     int
	provider string
	sum      func(dst, data []byte) []byte

	capsOnce sync.Once
	caps     *core.Capabilities
}

// NewSHA256Method creates the SHA-256 method (crypto/sha256)
func NewSHA256Method() *SoftwareMethod {
	return &SoftwareMethod{
		name:     SHA256,
		size:     sha256.Size,
		provider: "crypto/sha256",
		sum: func(dst, data []byte) []byte {
			h := sha256.Sum256(data)
			return append(dst, h[:]...)
		},
	}
}

// NewSHA512Method creates the SHA-512 method (crypto/sha512)
func NewSHA512Method() *SoftwareMethod {
	return &SoftwareMethod{
		name:     SHA512,
		size:     sha512.Size,
		provider: "crypto/sha512",
		sum: func(dst, data []byte) []byte {
			h := sha512.Sum512(data)
			return append(dst, h[:]...)
		},
	}
}

// NewSHA3Method creates the SHA3-256 method (golang.org/x/crypto/sha3)
func NewSHA3Method() *SoftwareMethod {
	return &SoftwareMethod{
		name:     SHA3,
		size:     32,
		provider: "golang.org/x/crypto/sha3",
		sum: func(dst, data []byte) []byte {
			h := sha3.Sum256(data)
			return append(dst, h[:]...)
		},
	}
}

// NewBLAKE2bMethod creates the BLAKE2b-256 method (golang.org/x/crypto/blake2b)
func NewBLAKE2bMethod() *SoftwareMethod {
	return &SoftwareMethod{
		name:     BLAKE2b256,
		size:     blake2b.Size256,
		provider: "golang.org/x/crypto/blake2b",
		sum: func(dst, data []byte) []byte {
			h := blake2b.Sum256(data)
			return append(dst, h[:]...)
		},
	}
}

// NewBLAKE3Method creates the BLAKE3 method with a 256-bit output
// (github.com/zeebo/blake3)
func NewBLAKE3Method() *SoftwareMethod {
	return &SoftwareMethod{
		name:     BLAKE3,
		size:     32,
		provider: "github.com/zeebo/blake3",
		sum: func(dst, data []byte) []byte {
			h := blake3.Sum256(data)
			return append(dst, h[:]...)
		},
	}
}

// Name returns the registry name of the hashing method
func (m *SoftwareMethod) Name() string {
	return m.name
}

// Size returns the digest length in bytes
func (m *SoftwareMethod) Size() int {
	return m.size
}

// Digest appends the digest of data to dst
func (m *SoftwareMethod) Digest(dst, data []byte) []byte {
	return m.sum(dst, data)
}

// GetCapabilities returns the characteristics of the method
func (m *SoftwareMethod) GetCapabilities() *core.Capabilities {
	m.capsOnce.Do(func() {
		m.caps = &core.Capabilities{
			Name:       m.name,
			DigestSize: m.size,
			HexLength:  m.size * 2,
			Provider:   m.provider,
			Default:    m.name == SHA256,
		}
	})
	return m.caps
}
