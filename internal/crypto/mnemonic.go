package crypto

import (
	"encoding/json"
	"fmt"

	"ToxVanity/internal/mnemonic"
)

// Mnemonic generates BIP-39 phrases and matches on the address of the
// first derived Ethereum account.
type Mnemonic struct{}

type mnemonicRecord struct {
	Address  string `json:"address"`
	Path     string `json:"path"`
	Mnemonic string `json:"mnemonic"`
}

func (Mnemonic) Name() string     { return "mnemonic" }
func (Mnemonic) AddressSize() int { return 20 }

func (Mnemonic) FileName(address string) string { return "mnemonic_" + address + ".json" }

func (Mnemonic) NewGenerator(int) (Generator, error) { return mnemonicGenerator{}, nil }

type mnemonicGenerator struct{}

func (mnemonicGenerator) Generate() (Identity, error) {
	mn, err := mnemonic.NewMnemonic(128)
	if err != nil {
		return nil, fmt.Errorf("mnemonic generate: %w", err)
	}
	d, err := mnemonic.Derive(mn, mnemonic.DefaultPath)
	if err != nil {
		return nil, fmt.Errorf("mnemonic derive: %w", err)
	}
	return &MnemonicIdentity{Derived: d}, nil
}

func (Mnemonic) Load(savedata []byte) (Identity, error) {
	var rec mnemonicRecord
	if err := json.Unmarshal(savedata, &rec); err != nil {
		return nil, fmt.Errorf("invalid mnemonic json: %w", err)
	}
	d, err := mnemonic.Derive(rec.Mnemonic, rec.Path)
	if err != nil {
		return nil, fmt.Errorf("mnemonic derive: %w", err)
	}
	return &MnemonicIdentity{Derived: d}, nil
}

type MnemonicIdentity struct {
	Derived *mnemonic.Derived
}

func (i *MnemonicIdentity) Address() []byte { return i.Derived.Address.Bytes() }

func (i *MnemonicIdentity) Secret() string { return i.Derived.Mnemonic }

func (i *MnemonicIdentity) Savedata() ([]byte, error) {
	return json.MarshalIndent(mnemonicRecord{
		Address:  i.Derived.Address.Hex(),
		Path:     i.Derived.Path,
		Mnemonic: i.Derived.Mnemonic,
	}, "", "  ")
}
