package scripting

import "strings"

// ErrorBuffer accumulates script diagnostics and print output until the
// owning entity emits a pop-up.
type ErrorBuffer struct {
	b strings.Builder
}

// Add appends msg as one line.
func (e *ErrorBuffer) Add(msg string) {
	e.b.WriteString(msg)
	e.b.WriteByte('\n')
}

// Write appends s verbatim.
func (e *ErrorBuffer) Write(s string) {
	e.b.WriteString(s)
}

// Len returns the number of buffered bytes.
func (e *ErrorBuffer) Len() int {
	return e.b.Len()
}

// String returns the buffered text.
func (e *ErrorBuffer) String() string {
	return e.b.String()
}

// Reset empties the buffer.
func (e *ErrorBuffer) Reset() {
	e.b.Reset()
}
