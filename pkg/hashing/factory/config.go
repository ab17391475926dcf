package factory

import "brutepin/pkg/hashing/methods/software"

// HashMethodConfig contains configuration for hash method selection
type HashMethodConfig struct {
	// Preferred method order (highest priority first), used when no method
	// is named explicitly
	PreferredOrder []string `json:"preferred_order" yaml:"preferred_order"`
}

// DefaultHashMethodConfig returns the default configuration
func DefaultHashMethodConfig() *HashMethodConfig {
	return &HashMethodConfig{
		PreferredOrder: []string{
			software.SHA256,
			software.SHA3,
			software.BLAKE3,
			software.BLAKE2b256,
			software.SHA512,
		},
	}
}
