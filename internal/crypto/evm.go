package crypto

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// EVM generates secp256k1 keys; the address is the 20-byte account
// address and savedata is a keystore V3 JSON document.
type EVM struct {
	password string
	scryptN  int
	scryptP  int
}

func NewEVM(opt SchemeOptions) EVM {
	e := EVM{password: opt.KeystorePassword, scryptN: opt.ScryptN, scryptP: opt.ScryptP}
	if e.scryptN == 0 {
		e.scryptN = keystore.StandardScryptN
	}
	if e.scryptP == 0 {
		e.scryptP = keystore.StandardScryptP
	}
	return e
}

func (EVM) Name() string     { return "evm" }
func (EVM) AddressSize() int { return 20 }

func (EVM) FileName(address string) string { return "keystore_" + address + ".json" }

func (e EVM) NewGenerator(int) (Generator, error) { return evmGenerator{scheme: e}, nil }

type evmGenerator struct {
	scheme EVM
}

func (g evmGenerator) Generate() (Identity, error) {
	priv, err := gethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate secp256k1 key: %w", err)
	}
	return &EVMIdentity{Priv: priv, scheme: g.scheme}, nil
}

func (e EVM) Load(savedata []byte) (Identity, error) {
	key, err := keystore.DecryptKey(savedata, e.password)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}
	return &EVMIdentity{Priv: key.PrivateKey, scheme: e}, nil
}

type EVMIdentity struct {
	Priv   *ecdsa.PrivateKey
	scheme EVM
}

func (i *EVMIdentity) Address() []byte {
	return gethcrypto.PubkeyToAddress(i.Priv.PublicKey).Bytes()
}

func (i *EVMIdentity) Secret() string { return PrivToHex(i.Priv) }

func (i *EVMIdentity) Savedata() ([]byte, error) {
	key := &keystore.Key{
		Id:         uuid.New(),
		Address:    gethcrypto.PubkeyToAddress(i.Priv.PublicKey),
		PrivateKey: i.Priv,
	}
	return keystore.EncryptKey(key, i.scheme.password, i.scheme.scryptN, i.scheme.scryptP)
}

func PrivToHex(priv *ecdsa.PrivateKey) string {
	return "0x" + fmt.Sprintf("%x", gethcrypto.FromECDSA(priv))
}
