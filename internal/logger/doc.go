// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Every service of the presence controller accepts a context and extracts the
// logger from it, so a trigger carries its member name and request id through
// the dispatcher, the scene client and the notifier.
package logger
