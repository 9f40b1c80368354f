// Package report renders analysis results as aligned plain text.
//
// A Writer carries the numeric precision; each result kind has its own
// Write method over an io.Writer, so callers compose freely with
// buffers, stdout or ToFile. Nothing here computes; rendering only.
package report
