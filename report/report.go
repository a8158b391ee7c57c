// Package report is the diagnostics sink shared by every pipeline stage.
// Each stage writes its errors here and the driver inspects the flags at
// phase boundaries.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/thomasha1310/jlox-interpreter/token"
)

type Reporter struct {
	Err io.Writer

	HadError        bool
	HadRuntimeError bool
}

func NewReporter() *Reporter {
	return &Reporter{Err: os.Stderr}
}

// Error reports a scan-time error which has no token to anchor to.
func (r *Reporter) Error(line int, message string) {
	r.report(line, "", message)
}

// ErrorAt reports a parse or resolution error at the given token.
func (r *Reporter) ErrorAt(tok token.Token, message string) {
	if tok.Kind == token.EOF {
		r.report(tok.Line, " at end", message)
	} else {
		r.report(tok.Line, " at '"+tok.Lexeme+"'", message)
	}
}

func (r *Reporter) RuntimeError(tok token.Token, message string) {
	fmt.Fprintf(r.Err, "RuntimeError [line %v]: %v\n", tok.Line, message)
	r.HadRuntimeError = true
}

// ResetError clears the compile error flag so a REPL session can continue
// past a bad line.
func (r *Reporter) ResetError() {
	r.HadError = false
}

func (r *Reporter) report(line int, where, message string) {
	fmt.Fprintf(r.Err, "[line %v] Error%v: %v\n", line, where, message)
	r.HadError = true
}
