// Package logging configures the structured loggers used by stubd.
//
// All stubd components log through log/slog. Components accept a
// *slog.Logger through their constructor or an option and fall back to Nop.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  "debug",
//	    Format: logging.FormatJSON,
//	})
//
//	logger.Info("admin API listening", "port", 4290)
//	logger.Warn("stub field is not valid JSON", "stubId", id, "field", "request")
//
// Component attaches a "component" attribute so log lines from the engine,
// compiler and admin API can be told apart.
package logging
