package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/ui"
)

// exitError carries a process exit code up to run. An empty msg exits
// silently.
type exitError struct {
	code  int
	msg   string
	usage string
}

func (e *exitError) Error() string { return e.msg }

// exitWithError fails the command with code and a formatted message.
func exitWithError(code int, format string, args ...any) error {
	return &exitError{code: code, msg: fmt.Sprintf(format, args...)}
}

// exitWithUsage fails with a user error followed by a usage hint.
func exitWithUsage(msg, usage string) error {
	return &exitError{code: defaults.ExitUserError, msg: msg, usage: usage}
}

// exitQuiet sets the exit code without printing anything.
func exitQuiet(code int) error {
	return &exitError{code: code}
}

// exitCode prints err to w and maps it to a process exit code.
func exitCode(err error, w io.Writer) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return defaults.ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.msg != "" {
			ui.PrintError(w, ee.msg)
		}
		if ee.usage != "" {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Usage:", ee.usage)
		}
		return ee.code
	}
	ui.PrintError(w, err.Error())
	return defaults.ExitInternalError
}
