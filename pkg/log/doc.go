// Package log provides the structured logging pipeline used across the
// quartermaster engine. Loggers are constructed once at the entry point and
// passed down explicitly; components tag their entries with WithComponent.
package log
