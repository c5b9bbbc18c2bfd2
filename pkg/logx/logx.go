package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

type Config struct {
	Level                string    // debug|info|warn|error
	FilePath             string    // path template, e.g. "toxvanity_{start}.log" or "" (no file)
	ConsoleOnly          bool      // if true, do not write to the file
	Append               bool      // keep the existing file content instead of truncating it
	HideSecretsInConsole bool      // if true, we mask the private data in the console
	Console              io.Writer // defaults to os.Stdout
}

var StartTime = time.Now()

var (
	global  *zap.Logger
	sugar   *zap.SugaredLogger
	fileOut *os.File
)

func init() {
	global = zap.NewNop()
	sugar = global.Sugar()
}

// Init initializes the global logger.
// cfg.FilePath may contain {start} and {pid}; the file is skipped when it is empty or cfg.ConsoleOnly is set.
// The file gets one line per entry with a single-letter level (E/W/I/D).
func Init(cfg Config) error {
	level := parseLevel(cfg.Level)

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "lvl",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}

	// console encoder: colour only on a real terminal
	consoleEncCfg := encCfg
	consoleEncCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if isTerminal(console) {
		consoleEncCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	consoleEncoder := zapcore.NewConsoleEncoder(consoleEncCfg)

	fileEncCfg := encCfg
	fileEncCfg.EncodeLevel = LetterLevelEncoder
	fileEncCfg.CallerKey = zapcore.OmitKey
	fileEncoder := zapcore.NewConsoleEncoder(fileEncCfg)

	var cores []zapcore.Core

	consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(zapcore.AddSync(console)), level)
	if cfg.HideSecretsInConsole {
		consoleCore = newMaskingCore(consoleCore)
	}
	cores = append(cores, consoleCore)

	var f *os.File
	if cfg.FilePath != "" && !cfg.ConsoleOnly {
		resolved := resolvePath(cfg.FilePath)
		if dir := filepath.Dir(resolved); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create logs dir: %w", err)
			}
		}
		var err error
		mode := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if cfg.Append {
			mode = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		}
		f, err = os.OpenFile(resolved, mode, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(f), level))
	}

	// a second Init replaces the previous file
	Close()
	fileOut = f

	logger := zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.PanicLevel),
	)
	zap.ReplaceGlobals(logger)

	global = logger
	sugar = logger.Sugar()
	return nil
}

// Close syncs and closes the file (if open).
func Close() {
	if global != nil {
		_ = global.Sync()
	}
	if fileOut != nil {
		_ = fileOut.Sync()
		_ = fileOut.Close()
		fileOut = nil
	}
}

func L() *zap.Logger        { return global }
func S() *zap.SugaredLogger { return sugar }

func With(name string) *zap.SugaredLogger     { return sugar.Named(name) }
func WithFields(kv ...any) *zap.SugaredLogger { return sugar.With(kv...) }

// LetterLevelEncoder writes the level as a single letter: E, W, I or D.
// Levels above error are written as E.
func LetterLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch {
	case l >= zapcore.ErrorLevel:
		enc.AppendString("E")
	case l == zapcore.WarnLevel:
		enc.AppendString("W")
	case l == zapcore.InfoLevel:
		enc.AppendString("I")
	default:
		enc.AppendString("D")
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func resolvePath(tmpl string) string {
	startLocal := StartTime.Format("2006-01-02_15-04-05")
	repl := map[string]string{
		"{start}": startLocal,
		"{pid}":   fmt.Sprintf("%d", os.Getpid()),
	}
	path := tmpl
	for k, v := range repl {
		path = strings.ReplaceAll(path, k, v)
	}
	return path
}

// ValidLevel reports whether lvl names a level Init understands.
func ValidLevel(lvl string) bool {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug", "info", "", "warn", "warning", "error", "err":
		return true
	}
	return false
}

func parseLevel(lvl string) zapcore.LevelEnabler {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error", "err":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
