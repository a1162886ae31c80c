// Package memory holds conversation state between model calls. History is a
// mutex-guarded message log with a sliding window; SessionStore maps session
// ids to independent histories so one process can serve many conversations.
package memory
