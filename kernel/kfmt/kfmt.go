// Package kfmt provides a minimal, allocation-free Printf implementation for
// use before (and after) a heap allocator is available, plus the panic path
// used by every fatal error in this module (spec §7.2). It mirrors the
// teacher's kernel/kfmt package.
package kfmt

import "io"

// sink receives formatted output. It defaults to io.Discard so that calls
// made before a console driver is attached are silently dropped instead of
// panicking.
var sink io.Writer = io.Discard

// SetOutputSink registers the writer that Printf/Fprintf write to.
func SetOutputSink(w io.Writer) { sink = w }

// GetOutputSink returns the currently registered output sink.
func GetOutputSink() io.Writer { return sink }

// Printf writes a formatted string to the registered output sink. Only a
// small subset of fmt's verbs are supported (%d, %x, %X, %s, %t, %v, %%) since the
// full fmt package pulls in reflection machinery this module does not need.
func Printf(format string, args ...interface{}) {
	Fprintf(sink, format, args...)
}

// Fprintf writes a formatted string to w.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	if w == nil {
		return
	}
	var buf [256]byte
	out := formatInto(buf[:0], format, args...)
	_, _ = w.Write(out)
}

// Sprintf formats according to format and returns the resulting string. It
// is used by panicf-style helpers across this module to build *kernel.Error
// messages without depending on the standard fmt package.
func Sprintf(format string, args ...interface{}) string {
	var buf [256]byte
	return string(formatInto(buf[:0], format, args...))
}
