package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/conneroisu/ngssc/internal/errors"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	labelColor   = color.New(color.FgCyan)
	faintColor   = color.New(color.Faint)
)

func printSuccess(w io.Writer, format string, args ...interface{}) {
	successColor.Fprint(w, "✔ ")
	fmt.Fprintf(w, format+"\n", args...)
}

func printWarning(w io.Writer, format string, args ...interface{}) {
	warnColor.Fprint(w, "! ")
	fmt.Fprintf(w, format+"\n", args...)
}

// printError prints err, one line per error for batch failures.
func printError(w io.Writer, err error) {
	for _, e := range errors.Flatten(err) {
		errorColor.Fprint(w, "✘ ")
		fmt.Fprintln(w, e.Error())
	}
}

// printList prints a labelled list, "(none)" when it is empty.
func printList(w io.Writer, label string, items []string) {
	labelColor.Fprintf(w, "%s:", label)
	if len(items) == 0 {
		faintColor.Fprintln(w, " (none)")
		return
	}
	fmt.Fprintln(w)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}
