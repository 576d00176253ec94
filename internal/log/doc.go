// Package log builds the run logger on top of the standard slog package.
//
// One *slog.Logger feeds two destinations:
//   - the shared log file, where every record becomes exactly one line of
//     the form "<ISO-8601 UTC timestamp> - <message>"
//   - the console, where records are rendered by slog's text handler and
//     the level follows the --verbose flag
//
// The log file is opened append-only and is never truncated, so it
// accumulates the history of every run.
//
// # Security Features
//
// The SecureHandler masks sensitive attribute values before any
// destination sees them: verification payload tokens, cookies,
// authorization headers and long opaque token-like strings.
//
// # Usage
//
//	f, err := log.OpenFile(cfg.LogFile)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	logger := log.New(f, os.Stderr, cfg.Verbose)
//	logger.Info("Iteration 1 started.")
package log
