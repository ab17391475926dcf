package core

// HashMethod defines the interface that all digest implementations must follow.
// Implementations must be stateless: a single instance is shared by every
// search worker of a run.
type HashMethod interface {
	// Name returns the registry name of the hashing method (e.g. "sha256")
	Name() string

	// Size returns the digest length in bytes
	Size() int

	// Digest appends the digest of data to dst and returns the extended slice
	Digest(dst, data []byte) []byte

	// GetCapabilities returns the characteristics of the method
	GetCapabilities() *Capabilities
}

// Capabilities describes a hashing method
type Capabilities struct {
	// Name of the hashing method
	Name string `json:"name" yaml:"name"`

	// Digest size in bytes
	DigestSize int `json:"digest_size" yaml:"digest_size"`

	// Hex fingerprint length (two characters per digest byte)
	HexLength int `json:"hex_length" yaml:"hex_length"`

	// Library providing the implementation
	Provider string `json:"provider" yaml:"provider"`

	// Whether this method is the registry default
	Default bool `json:"default" yaml:"default"`
}
