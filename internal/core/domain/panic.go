package domain

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// PanicContext records where a recovered panic originated.
type PanicContext struct {
	File      string    `json:"file"`
	Line      int       `json:"line"`
	Function  string    `json:"function"`
	Timestamp time.Time `json:"timestamp"`
}

func (p *PanicContext) String() string {
	return fmt.Sprintf("%s at %s:%d, %s", p.Function, p.File, p.Line, p.Timestamp.Format(time.RFC3339))
}

// NewPanicError converts a recovered value into a KindPanic error. It must be
// called from the deferred function that called recover().
func NewPanicError(recovered any) *Error {
	e := &Error{
		Kind:    KindPanic,
		Message: fmt.Sprint(recovered),
		Panic:   capturePanicContext(),
	}
	if err, ok := recovered.(error); ok {
		e.Err = err
	}
	return e
}

// capturePanicContext walks the stack and returns the first frame outside the
// Go runtime and this file, which is the frame that panicked.
func capturePanicContext() *PanicContext {
	pc := make([]uintptr, 32)
	n := runtime.Callers(2, pc)
	frames := runtime.CallersFrames(pc[:n])

	ctx := &PanicContext{Timestamp: time.Now().UTC()}
	sawPanic := false
	for {
		frame, more := frames.Next()
		if frame.Function == "runtime.gopanic" {
			sawPanic = true
		} else if sawPanic && !strings.HasPrefix(frame.Function, "runtime.") {
			ctx.File = frame.File
			ctx.Line = frame.Line
			ctx.Function = frame.Function
			return ctx
		}
		if !more {
			break
		}
	}
	// Not called during a panic unwind; report the caller instead.
	if n > 1 {
		frame, _ := runtime.CallersFrames(pc[1:n]).Next()
		ctx.File = frame.File
		ctx.Line = frame.Line
		ctx.Function = frame.Function
	}
	return ctx
}

// Recover converts a panic into *err. Use as `defer domain.Recover(&err)`.
func Recover(err *error) {
	if r := recover(); r != nil {
		*err = NewPanicError(r)
	}
}
