// Package logger builds the zap logger shared by every component.
//
// Production mode emits JSON, development mode a colored console format.
// Output always goes to stderr. Fx wraps the logger for fx lifecycle events.
package logger
