package mnemonic

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	bip39 "github.com/tyler-smith/go-bip39"
)

// DefaultPath is the first account of the standard Ethereum derivation.
const DefaultPath = "m/44'/60'/0'/0/0"

type Derived struct {
	Mnemonic string
	Path     string
	Priv     *ecdsa.PrivateKey
	Address  common.Address
}

func NewMnemonic(strength int) (string, error) {
	if strength == 0 {
		strength = 128 // 12 words
	}
	entropy, err := bip39.NewEntropy(strength)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// Derive restores the account at path from mn (empty passphrase).
func Derive(mn, path string) (*Derived, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mn, "")
	if err != nil {
		return nil, err
	}
	w, err := hdwallet.NewFromSeed(seed)
	if err != nil {
		return nil, err
	}
	dp, err := hdwallet.ParseDerivationPath(path)
	if err != nil {
		return nil, err
	}
	acct, err := w.Derive(dp, false)
	if err != nil {
		return nil, err
	}
	priv, err := w.PrivateKey(acct)
	if err != nil {
		return nil, err
	}
	return &Derived{
		Mnemonic: mn,
		Path:     path,
		Priv:     priv,
		Address:  acct.Address,
	}, nil
}
