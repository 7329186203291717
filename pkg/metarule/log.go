package metarule

import "go.uber.org/zap"

// NewLogger builds a zap.Logger at the given level name ("debug", "info",
// "warn", "error"; anything else falls back to "info"), following the
// nop-default convention NewBackwardProver and NewReteForwardProver already
// use for a nil logger. Intended for the CLI, which knows a level name from
// RunConfig.LogLevel and has nothing more specific to configure.
func NewLogger(levelName string) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(levelName)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	logger, err := cfg.Build()
	if err != nil {
		return nil, wrapInputContractError(err, "build logger at level %q", levelName)
	}
	return logger, nil
}

// NopLogger returns a logger that discards everything, for callers (tests,
// library use without logging) that don't pass one of their own.
func NopLogger() *zap.Logger {
	return zap.NewNop()
}
