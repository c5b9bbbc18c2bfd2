package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ToxVanity/pkg/logx"
)

// run executes args with an isolated config, log file and output dir.
func run(t *testing.T, dir string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	r := &Runner{Stdout: &stdout, Stderr: &stderr}
	base := []string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--log-file", filepath.Join(dir, "toxvanity.log"),
	}
	code := r.Run(append(base, args...))
	logx.Close()
	return code, stdout.String(), stderr.String()
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown flag", []string{"--bogus"}, ExitUsage},
		{"positional argument", []string{"-a", "AA", "extra"}, ExitUsage},
		{"threads not a number", []string{"-a", "AA", "-t", "many"}, ExitUsage},
		{"no prefix", nil, ExitConfig},
		{"non hex prefix", []string{"-a", "XYZ"}, ExitConfig},
		{"prefix longer than address", []string{"-a", strings.Repeat("A", 77)}, ExitConfig},
		{"zero threads", []string{"-a", "AA", "-t", "0"}, ExitConfig},
		{"unknown scheme", []string{"-a", "AA", "--scheme", "btc"}, ExitConfig},
		{"unknown log level", []string{"-a", "AA", "--log-level", "verbose"}, ExitConfig},
		{"inspect without paths", []string{"inspect"}, ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			args := append(tt.args, "--out-dir", filepath.Join(dir, "out"))
			if len(tt.args) > 0 && tt.args[0] == "inspect" {
				args = tt.args
			}
			code, _, stderr := run(t, dir, args...)
			if code != tt.want {
				t.Fatalf("exit code = %d, want %d (stderr: %s)", code, tt.want, stderr)
			}
			if _, err := os.Stat(filepath.Join(dir, "out")); err == nil {
				t.Errorf("output dir created for a rejected request")
			}
		})
	}
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := run(t, t.TempDir(), "--version")
	if code != ExitOK {
		t.Fatalf("exit code = %d", code)
	}
	if stdout != "Version: "+Version+"\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunConfigErrorIsLogged(t *testing.T) {
	dir := t.TempDir()
	if code, _, _ := run(t, dir, "-a", ""); code != ExitConfig {
		t.Fatalf("exit code = %d, want %d", code, ExitConfig)
	}
	blob, err := os.ReadFile(filepath.Join(dir, "toxvanity.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(blob), "\tE\tconfiguration error") {
		t.Errorf("log has no error line:\n%s", blob)
	}
}

func TestRunFindsAndInspects(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	code, stdout, stderr := run(t, dir, "-a", "a", "-t", "2", "--out-dir", out)
	if code != ExitOK {
		t.Fatalf("exit code = %d (stderr: %s)", code, stderr)
	}
	if !strings.HasPrefix(stdout, "-> A") {
		t.Errorf("stdout = %q", stdout)
	}
	matches, _ := filepath.Glob(filepath.Join(out, "toxsave_A*.dat"))
	if len(matches) != 1 {
		t.Fatalf("result files = %v", matches)
	}
	log, _ := os.ReadFile(filepath.Join(dir, "toxvanity.log"))
	if !strings.Contains(string(log), "\tI\tFOUND") {
		t.Errorf("log has no FOUND line:\n%s", log)
	}

	code, stdout, stderr = run(t, dir, "inspect", out)
	if code != ExitOK {
		t.Fatalf("inspect exit code = %d (stderr: %s)", code, stderr)
	}
	addr := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(matches[0]), "toxsave_"), ".dat")
	if !strings.HasPrefix(stdout, addr+"  ") {
		t.Errorf("inspect stdout = %q, want address %s", stdout, addr)
	}

	// inspect appends to the search log instead of replacing it
	log, _ = os.ReadFile(filepath.Join(dir, "toxvanity.log"))
	if !strings.Contains(string(log), "\tI\tFOUND") {
		t.Errorf("search lines lost after inspect:\n%s", log)
	}
	if !strings.Contains(string(log), "\tI\tIDENTITY") {
		t.Errorf("log has no inspect line:\n%s", log)
	}
}

func TestRunPersistFailure(t *testing.T) {
	dir := t.TempDir()
	// a regular file where the output directory should be
	out := filepath.Join(dir, "out")
	if err := os.WriteFile(out, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := run(t, dir, "-a", "a", "-t", "2", "--out-dir", out)
	if code != ExitFailure {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitFailure, stderr)
	}
	if !strings.Contains(stderr, "found but not saved") {
		t.Errorf("stderr = %q", stderr)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want nothing", stdout)
	}
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "from-config")
	cfg := filepath.Join(dir, "app.yaml")
	body := "log_level: debug\nout_dir: " + out + "\ncores: 1\n"
	if err := os.WriteFile(cfg, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	r := &Runner{Stdout: &stdout, Stderr: &stderr}
	code := r.Run([]string{"--config", cfg, "--log-file", "-", "-a", "b"})
	logx.Close()
	if code != ExitOK {
		t.Fatalf("exit code = %d (stderr: %s)", code, stderr.String())
	}
	if matches, _ := filepath.Glob(filepath.Join(out, "toxsave_B*.dat")); len(matches) != 1 {
		t.Errorf("result files = %v", matches)
	}
	if !strings.Contains(stderr.String(), "worker created") {
		t.Errorf("debug level from config not applied:\n%s", stderr.String())
	}

	if err := os.WriteFile(cfg, []byte("cores: -1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	r = &Runner{Stdout: &stdout, Stderr: &stderr}
	if code := r.Run([]string{"--config", cfg, "-a", "b"}); code != ExitConfig {
		t.Errorf("bad config exit code = %d, want %d", code, ExitConfig)
	}
}
