/*
Package log provides structured logging for the dataset manager using
zerolog.

It wraps zerolog with a global logger, component- and dataset-scoped child
loggers, and the handful of package-level helpers (Info, Debug, Warn, Error,
Errorf, Fatal) the rest of this module calls.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	logger := log.WithComponent("manager").With().Str("dataset", id.String()).Logger()
	logger.Info().Msg("flush complete")
*/
package log
