package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
)

var ErrUnknownScheme = errors.New("unknown scheme")

// Identity is one generated keypair together with its derived address.
type Identity interface {
	// Address returns the fixed-size binary address.
	Address() []byte
	// Savedata serializes everything needed to restore the identity.
	Savedata() ([]byte, error)
	// Secret is the printable secret (key hex or phrase). Only for logs
	// the operator asked for.
	Secret() string
}

// Generator produces fresh identities. A Generator is owned by a single
// worker and need not be safe for concurrent use.
type Generator interface {
	Generate() (Identity, error)
}

// Scheme describes one kind of identity the search can look for.
type Scheme interface {
	Name() string
	// AddressSize is the binary address length in bytes.
	AddressSize() int
	// FileName returns the result file name for an encoded address.
	FileName(address string) string
	NewGenerator(worker int) (Generator, error)
	// Load restores an identity from savedata written by this scheme.
	Load(savedata []byte) (Identity, error)
}

// SchemeOptions carries scheme-specific settings.
type SchemeOptions struct {
	KeystorePassword string
	ScryptN          int // 0 = keystore.StandardScryptN
	ScryptP          int // 0 = keystore.StandardScryptP
}

// NewScheme returns the scheme registered under name.
func NewScheme(name string, opt SchemeOptions) (Scheme, error) {
	switch name {
	case "tox":
		return Tox{}, nil
	case "evm":
		return NewEVM(opt), nil
	case "mnemonic":
		return Mnemonic{}, nil
	default:
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownScheme, name, SchemeNames())
	}
}

func SchemeNames() []string {
	return []string{"evm", "mnemonic", "tox"}
}

const upperHex = "0123456789ABCDEF"

// EncodeAddress writes the uppercase hex form of addr into dst and returns
// the written slice. dst must hold at least 2*len(addr) bytes.
func EncodeAddress(dst, addr []byte) []byte {
	for i, b := range addr {
		dst[i*2] = upperHex[b>>4]
		dst[i*2+1] = upperHex[b&0x0f]
	}
	return dst[:len(addr)*2]
}

// AddressString is the uppercase hex text of addr.
func AddressString(addr []byte) string {
	return string(EncodeAddress(make([]byte, hex.EncodedLen(len(addr))), addr))
}
