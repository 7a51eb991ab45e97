// Package logging provides the Logger interface used across insighthub and
// HubLogger, a log/slog backed implementation with session and agent scoped
// attributes.
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	orch, err := orchestrator.New(agents, func(o *orchestrator.Options) { o.Logger = logger })
//
// Components accept a nil Logger and fall back to NoOpLogger.
package logging
