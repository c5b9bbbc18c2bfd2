package keystore

import (
	"os"
	"path/filepath"
)

// Sink writes the winning savedata into Dir, one new file per result.
type Sink struct {
	Dir string
	// Name maps the encoded address to a file name.
	Name func(address string) string
}

// Persist creates the result file exclusively, so an existing file is
// never overwritten, and syncs it before returning its path.
func (s Sink) Persist(address string, savedata []byte) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, s.Name(address))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return path, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return path, err
	}
	if err := writeSynced(f, savedata); err != nil {
		// a partial file must not look like a result
		_ = os.Remove(path)
		return path, err
	}
	return path, nil
}

// writeSynced writes blob, syncs and closes f. f is closed on every path.
func writeSynced(f *os.File, blob []byte) error {
	if _, err := f.Write(blob); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func AppendJSONL(path string, jsonBlob []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(jsonBlob); err != nil {
		return err
	}
	_, err = f.Write([]byte("\n"))
	return err
}
