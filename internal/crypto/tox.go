package crypto

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

const (
	ToxPublicKeySize = 32
	ToxSecretKeySize = 32
	ToxNospamSize    = 4
	ToxChecksumSize  = 2
	ToxAddressSize   = ToxPublicKeySize + ToxNospamSize + ToxChecksumSize
)

// savedata layout constants
const (
	stateCookieGlobal   = 0x15ed1b1f
	stateCookieType     = 0x01ce
	stateTypeNospamKeys = 1
	stateTypeEnd        = 255
	nospamKeysLen       = ToxNospamSize + ToxPublicKeySize + ToxSecretKeySize
)

var ErrBadSavedata = errors.New("malformed tox savedata")

// Tox generates Tox identities: a curve25519 keypair plus a random nospam.
type Tox struct{}

func (Tox) Name() string     { return "tox" }
func (Tox) AddressSize() int { return ToxAddressSize }

func (Tox) FileName(address string) string { return "toxsave_" + address + ".dat" }

func (Tox) NewGenerator(int) (Generator, error) {
	return &toxGenerator{rnd: bufio.NewReaderSize(rand.Reader, 4096)}, nil
}

type toxGenerator struct {
	rnd io.Reader
}

func (g *toxGenerator) Generate() (Identity, error) {
	pk, sk, err := box.GenerateKey(g.rnd)
	if err != nil {
		return nil, fmt.Errorf("generate curve25519 keypair: %w", err)
	}
	id := &ToxIdentity{PublicKey: *pk, SecretKey: *sk}
	if _, err := io.ReadFull(g.rnd, id.Nospam[:]); err != nil {
		return nil, fmt.Errorf("read nospam: %w", err)
	}
	return id, nil
}

type ToxIdentity struct {
	PublicKey [ToxPublicKeySize]byte
	SecretKey [ToxSecretKeySize]byte
	Nospam    [ToxNospamSize]byte
}

// Address is public key | nospam | checksum, where the checksum XORs
// the preceding bytes pairwise.
func (t *ToxIdentity) Address() []byte {
	addr := make([]byte, ToxAddressSize)
	copy(addr, t.PublicKey[:])
	copy(addr[ToxPublicKeySize:], t.Nospam[:])
	var sum [ToxChecksumSize]byte
	for i, b := range addr[:ToxPublicKeySize+ToxNospamSize] {
		sum[i%2] ^= b
	}
	copy(addr[ToxPublicKeySize+ToxNospamSize:], sum[:])
	return addr
}

func (t *ToxIdentity) Secret() string { return AddressString(t.SecretKey[:]) }

// Savedata renders the identity in the Tox state format: a global header
// followed by a NOSPAMKEYS section and an END section.
func (t *ToxIdentity) Savedata() ([]byte, error) {
	buf := make([]byte, 0, 8+8+nospamKeysLen+8)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, stateCookieGlobal)

	payload := make([]byte, 0, nospamKeysLen)
	payload = append(payload, t.Nospam[:]...)
	payload = append(payload, t.PublicKey[:]...)
	payload = append(payload, t.SecretKey[:]...)
	buf = appendSection(buf, stateTypeNospamKeys, payload)
	buf = appendSection(buf, stateTypeEnd, nil)
	return buf, nil
}

func appendSection(buf []byte, typ uint16, payload []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload)))
	buf = binary.LittleEndian.AppendUint16(buf, typ)
	buf = binary.LittleEndian.AppendUint16(buf, stateCookieType)
	return append(buf, payload...)
}

// Load parses Tox savedata and checks that the stored public key belongs
// to the stored secret key. Sections other than NOSPAMKEYS are skipped.
func (Tox) Load(data []byte) (Identity, error) {
	if len(data) < 8 || binary.LittleEndian.Uint32(data) != 0 ||
		binary.LittleEndian.Uint32(data[4:]) != stateCookieGlobal {
		return nil, fmt.Errorf("%w: bad header", ErrBadSavedata)
	}
	rest := data[8:]

	var id *ToxIdentity
	for len(rest) >= 8 {
		n := binary.LittleEndian.Uint32(rest)
		typ := binary.LittleEndian.Uint16(rest[4:])
		if binary.LittleEndian.Uint16(rest[6:]) != stateCookieType {
			return nil, fmt.Errorf("%w: bad section cookie", ErrBadSavedata)
		}
		rest = rest[8:]
		if uint64(n) > uint64(len(rest)) {
			return nil, fmt.Errorf("%w: section %d truncated", ErrBadSavedata, typ)
		}
		payload := rest[:n]
		rest = rest[n:]

		switch typ {
		case stateTypeNospamKeys:
			if n != nospamKeysLen {
				return nil, fmt.Errorf("%w: nospam/keys section has %d bytes", ErrBadSavedata, n)
			}
			id = &ToxIdentity{}
			copy(id.Nospam[:], payload)
			copy(id.PublicKey[:], payload[ToxNospamSize:])
			copy(id.SecretKey[:], payload[ToxNospamSize+ToxPublicKeySize:])
		case stateTypeEnd:
			rest = nil
		}
	}
	if id == nil {
		return nil, fmt.Errorf("%w: no nospam/keys section", ErrBadSavedata)
	}

	pub, err := curve25519.X25519(id.SecretKey[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSavedata, err)
	}
	if !bytes.Equal(pub, id.PublicKey[:]) {
		return nil, fmt.Errorf("%w: public key does not match secret key", ErrBadSavedata)
	}
	return id, nil
}
