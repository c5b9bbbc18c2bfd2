package logsink

import (
	"encoding/json"
	"path/filepath"
	"time"

	"ToxVanity/internal/keystore"
)

// FoundFile is the audit log kept next to the result files.
const FoundFile = "found.jsonl"

// FoundRecord describes a persisted result. It never carries key material.
type FoundRecord struct {
	RunID    string    `json:"run_id"`
	Scheme   string    `json:"scheme"`
	Prefix   string    `json:"prefix"`
	Address  string    `json:"address"`
	File     string    `json:"file"`
	Worker   int       `json:"worker"`
	Attempts uint64    `json:"attempts"`
	Elapsed  string    `json:"elapsed"`
	At       time.Time `json:"at"`
}

// WriteFound appends rec as one JSON line to dir/found.jsonl.
func WriteFound(dir string, rec FoundRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return keystore.AppendJSONL(filepath.Join(dir, FoundFile), b)
}
