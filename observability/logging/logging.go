package logging

import (
	"log"
	"log/slog"
	"os"
	"strings"
)

// Options controls how the process logger is built.
type Options struct {
	// Service is stamped on every line.
	Service string
	// Environment is stamped when non-empty (local, testnet, mainnet).
	Environment string
	// Level defaults to info. Set via the LOG_LEVEL environment variable
	// when empty: debug, info, warn or error.
	Level string
}

// Setup installs a JSON slog handler as the process default and bridges the
// standard library logger through it. Keys follow the log pipeline's schema:
// timestamp, severity, message.
func Setup(service, env string) *slog.Logger {
	return SetupWith(Options{Service: service, Environment: env})
}

// SetupWith is Setup with explicit options.
func SetupWith(opts Options) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "timestamp"
			case slog.LevelKey:
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			case slog.MessageKey:
				attr.Key = "message"
			}
			return attr
		},
	})

	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(opts.Service))}
	if env := strings.TrimSpace(opts.Environment); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}

	base := slog.New(handler.WithAttrs(attrs))
	slog.SetDefault(base)

	// Packages still using the stdlib logger feed through the same handler.
	bridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	bridge.SetFlags(0)
	log.SetOutput(bridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

func parseLevel(raw string) slog.Level {
	if raw == "" {
		raw = os.Getenv("LOG_LEVEL")
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
