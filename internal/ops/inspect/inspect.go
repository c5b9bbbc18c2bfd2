package inspect

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ToxVanity/internal/crypto"
	"ToxVanity/pkg/logx"
)

// Options controls an inspect job.
type Options struct {
	Paths      []string // files, or directories scanned for result files
	Scheme     crypto.Scheme
	ShowSecret bool // log the secret too; the console may still redact it
}

// Entry is one restored identity.
type Entry struct {
	File    string
	Address string
	// NameMatches is false when the file name does not carry the restored
	// address, e.g. after a manual rename.
	NameMatches bool
}

// Run restores every result file under opt.Paths and reports its address.
// Files that fail to load are logged and counted, not fatal.
func Run(ctx context.Context, opt Options) ([]Entry, error) {
	app := logx.S()

	files, err := collectInputFiles(opt.Paths, opt.Scheme)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		app.Warnw("no result files found", "paths", opt.Paths)
		return nil, nil
	}

	var out []Entry
	failCnt := 0
	for _, p := range files {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		blob, err := os.ReadFile(p)
		if err != nil {
			failCnt++
			app.Errorw("read savedata failed", "file", p, "err", err)
			continue
		}
		ident, err := opt.Scheme.Load(blob)
		if err != nil {
			failCnt++
			app.Errorw("load savedata failed", "file", p, "err", err)
			continue
		}

		addr := crypto.AddressString(ident.Address())
		e := Entry{File: p, Address: addr, NameMatches: filepath.Base(p) == opt.Scheme.FileName(addr)}
		out = append(out, e)

		if !e.NameMatches {
			app.Warnw("file name does not match restored address", "file", p, "address", addr)
		}
		if opt.ShowSecret {
			app.Infow("IDENTITY", "file", p, "address", addr, "secret_key", ident.Secret())
		} else {
			app.Infow("IDENTITY", "file", p, "address", addr)
		}
	}

	app.Infow("inspect finished", "total", len(files), "ok", len(out), "failed", failCnt)
	if failCnt > 0 {
		return out, fmt.Errorf("%d of %d files could not be restored", failCnt, len(files))
	}
	return out, nil
}

// collectInputFiles expands directories to the scheme's result files.
func collectInputFiles(paths []string, scheme crypto.Scheme) ([]string, error) {
	// FileName("") yields the fixed parts around the address
	pattern := scheme.FileName("")
	ext := filepath.Ext(pattern)
	prefix := strings.TrimSuffix(pattern, ext)

	var files []string
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", p, err)
		}
		if !st.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read dir %q: %w", p, err)
		}
		for _, de := range entries {
			name := de.Name()
			if !de.IsDir() && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ext) {
				files = append(files, filepath.Join(p, name))
			}
		}
	}
	return files, nil
}
