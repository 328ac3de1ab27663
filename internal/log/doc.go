// Package log provides slog loggers that keep save identifiers out of log
// output.
//
// Save files carry a persistent identifier that ties a save to a player
// account, and their paths usually contain the user's home directory. The
// RedactingHandler masks:
//   - attributes keyed persistent_id, guid, steam_id and similar
//   - values that look like opaque identifiers (32+ alphanumerics, GUIDs)
//
// and rewrites absolute paths under the home directory to start with "~".
// Masking applies in verbose mode too.
//
// # Usage
//
//	logger := log.NewRedactingLogger(os.Stderr, verbose)
//	logger.Warn("chunk failed", "path", "/home/alice/saves/a.sav") // path=~/saves/a.sav
//	slog.SetDefault(logger)
package log
