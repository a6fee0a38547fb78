// Package logx configures agentoast's structured logging.
//
// A small wrapper (logx.Logger) on top of zerolog keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured, rotated aside when it grows too large
//   - Repeating failure paths quiet through a rate-limited Limited logger
package logx
