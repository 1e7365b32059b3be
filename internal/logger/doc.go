// Package logger wraps zap's sugared logger with a process-wide instance and
// context helpers, so components log through the context they were given.
package logger
