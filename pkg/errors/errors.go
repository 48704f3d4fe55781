package errors

import (
	"fmt"
	"os"
	"strings"
)

// MqjsError is the interface implemented by all host-level diagnostics:
// lexer/compiler failures and the malformed-input errors surfaced by the
// bytecode container and configuration loaders. It is distinct from a
// thrown script-level error Value, which reaches the host only when no
// handler catches it, wrapped in a RuntimeError by package mqjs.
type MqjsError interface {
	error
	Pos() Position
	Kind() string // "Syntax", "Compile", "Runtime", "Container", "Config"
	Message() string
	Unwrap() error
}

// SyntaxError represents an error found while lexing (an unterminated
// literal or an unexpected character). The lexer collects these in
// Lexer.Errors; compiler.Compile does not return them and reports the
// resulting ILLEGAL token as a CompileError.
type SyntaxError struct {
	Position
	Msg   string
	Cause error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Syntax Error at %d:%d: %s", e.Line, e.Column, e.Msg)
}
func (e *SyntaxError) Pos() Position   { return e.Position }
func (e *SyntaxError) Kind() string    { return "Syntax" }
func (e *SyntaxError) Message() string { return e.Msg }
func (e *SyntaxError) Unwrap() error   { return e.Cause }
func (e *SyntaxError) CausedBy(cause error) *SyntaxError {
	e.Cause = cause
	return e
}

// CompileError represents every diagnostic compiler.Compile returns: an
// unexpected or missing token, an invalid assignment target, a
// break/continue outside any loop.
type CompileError struct {
	Position
	Msg   string
	Cause error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("Compile Error at %d:%d: %s", e.Line, e.Column, e.Msg)
}
func (e *CompileError) Pos() Position   { return e.Position }
func (e *CompileError) Kind() string    { return "Compile" }
func (e *CompileError) Message() string { return e.Msg }
func (e *CompileError) Unwrap() error   { return e.Cause }
func (e *CompileError) CausedBy(cause error) *CompileError {
	e.Cause = cause
	return e
}

// RuntimeError wraps a failure surfaced outside the normal thrown-Value
// channel. Engine.Eval and Engine.LoadBytes use it to report a script
// exception that no handler caught, with the thrown value's display
// string in Msg; a caught exception stays an ordinary Value.
type RuntimeError struct {
	Position
	Msg   string
	Cause error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("Runtime Error at %d:%d: %s", e.Line, e.Column, e.Msg)
}
func (e *RuntimeError) Pos() Position   { return e.Position }
func (e *RuntimeError) Kind() string    { return "Runtime" }
func (e *RuntimeError) Message() string { return e.Msg }
func (e *RuntimeError) Unwrap() error   { return e.Cause }
func (e *RuntimeError) CausedBy(cause error) *RuntimeError {
	e.Cause = cause
	return e
}

// ContainerError represents a malformed bytecode container: bad magic,
// unknown version, or a payload that fails to decode.
type ContainerError struct {
	Msg   string
	Cause error
}

func (e *ContainerError) Error() string {
	return fmt.Sprintf("Container Error: %s", e.Msg)
}
func (e *ContainerError) Pos() Position   { return Position{} }
func (e *ContainerError) Kind() string    { return "Container" }
func (e *ContainerError) Message() string { return e.Msg }
func (e *ContainerError) Unwrap() error   { return e.Cause }

// ConfigError represents a malformed configuration file: an unreadable
// path or a value that fails to parse against the TOML schema.
type ConfigError struct {
	Msg   string
	Cause error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Config Error: %s", e.Msg)
}
func (e *ConfigError) Pos() Position   { return Position{} }
func (e *ConfigError) Kind() string    { return "Config" }
func (e *ConfigError) Message() string { return e.Msg }
func (e *ConfigError) Unwrap() error   { return e.Cause }

// DisplayErrors prints a list of MqjsErrors to stderr, one per diagnostic,
// including the offending source line and a column marker where a
// Position is available.
func DisplayErrors(source string, errs []MqjsError) {
	if len(errs) == 0 {
		return
	}

	lines := strings.Split(source, "\n")

	for _, err := range errs {
		pos := err.Pos()
		kind := err.Kind()
		msg := err.Message()

		lineIdx := pos.Line - 1
		if lineIdx < 0 || lineIdx >= len(lines) {
			fmt.Fprintf(os.Stderr, "%s Error: %s\n", kind, msg)
			continue
		}

		sourceLine := lines[lineIdx]
		trimmedLine := strings.TrimRight(sourceLine, "\r\n\t ")

		fmt.Fprintf(os.Stderr, "%s Error at %d:%d: %s\n", kind, pos.Line, pos.Column, msg)
		fmt.Fprintf(os.Stderr, "  %s\n", trimmedLine)
		marker := strings.Repeat(" ", pos.Column) + "^"
		fmt.Fprintf(os.Stderr, "  %s\n", marker)
		fmt.Fprintln(os.Stderr)
	}
}
