// Package logger builds the zap logger used by the bake CLI and preview
// server.
//
// Level "debug" selects zap's development configuration (ISO8601 timestamps,
// caller info); anything else uses the production configuration. Format
// "console" switches to a colored, human readable encoder.
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "json"})
//	log.Info("rendered", zap.String("template", "index.tpl"))
//
// Inside HTTP handlers, WithRequestID tags entries with the request id set by
// the server middleware.
package logger
