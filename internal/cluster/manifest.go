package cluster

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

const (
	// ManifestEnv carries the encoded Manifest from the launcher to workers
	ManifestEnv = "BRUTEPIN_CLUSTER"

	// RankEnv carries a worker's rank from the launcher
	RankEnv = "BRUTEPIN_RANK"
)

// Manifest describes a process group: the run it belongs to and where every
// rank listens
type Manifest struct {
	RunID string   `cbor:"1,keyasint"`
	Peers []string `cbor:"2,keyasint"`
}

// encMode uses Core Deterministic Encoding so a manifest always encodes to
// the same bytes
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cluster: CBOR encoder initialization failed: " + err.Error())
	}
}

// Size returns the number of ranks
func (m Manifest) Size() int {
	return len(m.Peers)
}

// Validate checks that the manifest describes a usable group
func (m Manifest) Validate() error {
	if len(m.Peers) == 0 {
		return errors.New("manifest lists no peers")
	}
	for rank, addr := range m.Peers {
		if addr == "" {
			return fmt.Errorf("manifest has no address for rank %d", rank)
		}
	}
	return nil
}

// Encode renders the manifest as base64 CBOR, suitable for an environment
// variable
func (m Manifest) Encode() (string, error) {
	data, err := encMode.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeManifest parses the output of Encode
func DecodeManifest(s string) (Manifest, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	var m Manifest
	if err := cbor.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
