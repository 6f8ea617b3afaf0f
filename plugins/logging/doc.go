// Package logging provides a plugin owning a zap logger exposed through
// observe.Logger.
//
// Style selects the encoder: "json" or "txt" (zap's console encoder).
// Handler selects the destination: "stdout", or "list" for an in-memory
// record list that tests and the control routes can read back. A positive
// BufferSize buffers writes until the buffer fills, FlushInterval elapses or
// an entry at FlushLevel or above is logged.
package logging
