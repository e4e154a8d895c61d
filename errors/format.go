package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
)

// Formatter formats errors with colors for terminal display.
type Formatter struct {
	// UseColor enables ANSI color codes in output.
	UseColor bool
}

// NewFormatter creates a new error formatter.
func NewFormatter(useColor bool) *Formatter {
	return &Formatter{UseColor: useColor}
}

// Colors used for error formatting
var (
	colorErrorBold = []color.Attribute{color.FgHiRed, color.Bold}
	colorCode      = []color.Attribute{color.FgHiBlack}
	colorLocation  = []color.Attribute{color.FgCyan}
	colorPipe      = []color.Attribute{color.FgHiBlack}
	colorNote      = []color.Attribute{color.FgHiBlue}
)

func (f *Formatter) paint(attrs []color.Attribute, s string) string {
	if !f.UseColor {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

// Format renders err in a multi-line style:
//
//	error[J3002]: jump to undefined label 12
//	  --> reading class 'Foo' version 52.0
//	  --> method 'bar'
//	   = note: ...
//
// Errors that are not an *Error are rendered by their message alone.
func (f *Formatter) Format(err error) string {
	return f.formatWithPrefix(err, "")
}

func (f *Formatter) formatWithPrefix(err error, prefix string) string {
	var b strings.Builder
	e, ok := As(err)
	if !ok {
		b.WriteString(f.paint(colorErrorBold, "error"))
		if prefix != "" {
			b.WriteString(f.paint(colorCode, fmt.Sprintf("[%s]", prefix)))
		}
		b.WriteString(": ")
		b.WriteString(err.Error())
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(f.paint(colorErrorBold, "error"))
	bracket := string(e.Code)
	if prefix != "" {
		bracket = prefix + " " + bracket
	}
	b.WriteString(f.paint(colorCode, fmt.Sprintf("[%s]", bracket)))
	b.WriteString(": ")
	b.WriteString(e.Message)
	b.WriteString("\n")

	for _, frame := range e.Where {
		b.WriteString("  ")
		b.WriteString(f.paint(colorLocation, "-->"))
		b.WriteString(" ")
		b.WriteString(frame)
		b.WriteString("\n")
	}

	b.WriteString("   ")
	b.WriteString(f.paint(colorPipe, "= "))
	b.WriteString(f.paint(colorNote, "note: "))
	b.WriteString(e.Kind().String())
	b.WriteString(", ")
	b.WriteString(e.Code.Description())
	b.WriteString("\n")

	if e.Cause != nil {
		b.WriteString("   ")
		b.WriteString(f.paint(colorPipe, "= "))
		b.WriteString(f.paint(colorNote, "caused by: "))
		b.WriteString(e.Cause.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// FormatMultiple formats every error aggregated in err. A go-multierror value
// is expanded into its members; any other error is formatted alone.
func (f *Formatter) FormatMultiple(err error) string {
	merr, ok := err.(*multierror.Error)
	if ok && len(merr.Errors) == 0 {
		return ""
	}
	if !ok || len(merr.Errors) == 1 {
		if ok {
			return f.Format(merr.Errors[0])
		}
		return f.Format(err)
	}

	var b strings.Builder
	total := len(merr.Errors)
	for i, err := range merr.Errors {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.formatWithPrefix(err, fmt.Sprintf("%d/%d", i+1, total)))
	}
	b.WriteString("\n")
	b.WriteString(f.paint(colorErrorBold, fmt.Sprintf("found %d errors", total)))
	b.WriteString("\n")
	return b.String()
}
