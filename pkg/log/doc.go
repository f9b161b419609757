/*
Package log provides structured logging for the engine using zerolog.

A single global Logger is initialized once via Init. WithComponent,
WithInstanceID, and WithTxID are thin, single-field wrappers around
With, which tags a child logger with any number of key/value pairs in
one call — the shape pkg/engine reaches for when a log line needs both
the target instance and the transaction id at once.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	log.Info("engine starting")

	txLog := log.With("instance_id", "instance_001", "tx_id", txID)
	txLog.Info().Msg("transaction accepted")
*/
package log
