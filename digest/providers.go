package digest

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"sort"

	sha256simd "github.com/minio/sha256-simd"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Factory returns a new streaming hasher. Every tree takes its own instance
// so that trees never share hasher state.
type Factory func() hash.Hash

const (
	SHA256     = "sha256"
	SHA256SIMD = "sha256-simd"
	Keccak256  = "keccak256"
	SHA3_256   = "sha3-256"
	Blake2b256 = "blake2b-256"
)

// DefaultName is used when a configuration leaves the digest name empty.
const DefaultName = SHA256

var providers = map[string]Factory{
	SHA256:     sha256.New,
	SHA256SIMD: sha256simd.New,
	Keccak256:  sha3.NewLegacyKeccak256,
	SHA3_256:   sha3.New256,
	Blake2b256: newBlake2b256,
}

func newBlake2b256() hash.Hash {
	// New256 only fails for an over length key, and we pass none.
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	return h
}

// Lookup returns the factory registered under name. The empty name selects
// DefaultName.
func Lookup(name string) (Factory, error) {
	if name == "" {
		name = DefaultName
	}
	f, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDigest, name)
	}
	return f, nil
}

// Names lists the registered providers in sorted order.
func Names() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check creates one hasher from f and confirms it is HashBytes wide.
func (f Factory) Check() error {
	if f == nil {
		return ErrBadHashSize
	}
	return CheckHasher(f())
}
