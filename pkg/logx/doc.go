// Package logx configures botcast's structured logging.
//
// It is a small wrapper (logx.Logger) on top of zerolog that keeps:
//   - Console output readable (short timestamps, key=value fields)
//   - File output JSON-structured
package logx
