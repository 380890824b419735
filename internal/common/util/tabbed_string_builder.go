package util

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// TabbedStringBuilder is a wrapper around a *tabwriter.Writer that allows for efficiently building
// tab-aligned strings.
// *tabwriter.Writer returns errors propagated from the underlying io.Writer. Here the underlying
// Writer is always a strings.Builder, which never errors, so callers get a simpler interface.
type TabbedStringBuilder struct {
	sb     *strings.Builder
	writer *tabwriter.Writer
}

// NewTabbedStringBuilder creates a new TabbedStringBuilder.  All parameters are equivalent to those defined in tabwriter.NewWriter
func NewTabbedStringBuilder(minwidth, tabwidth, padding int, padchar byte, flags uint) *TabbedStringBuilder {
	sb := &strings.Builder{}
	return &TabbedStringBuilder{
		sb:     sb,
		writer: tabwriter.NewWriter(sb, minwidth, tabwidth, padding, padchar, flags),
	}
}

// Writef formats according to a format specifier and writes to the underlying writer
func (t *TabbedStringBuilder) Writef(format string, a ...any) {
	_, _ = fmt.Fprintf(t.writer, format, a...)
}

// Write the string to the underlying writer
func (t *TabbedStringBuilder) Write(a ...any) {
	_, _ = fmt.Fprint(t.writer, a...)
}

// WriteRow writes cells as one tab-separated, newline-terminated row.
// Floats are rendered with two decimals.
func (t *TabbedStringBuilder) WriteRow(cells ...any) {
	for i, cell := range cells {
		if i > 0 {
			_, _ = fmt.Fprint(t.writer, "\t")
		}
		switch v := cell.(type) {
		case float64:
			_, _ = fmt.Fprintf(t.writer, "%.2f", v)
		default:
			_, _ = fmt.Fprint(t.writer, v)
		}
	}
	_, _ = fmt.Fprint(t.writer, "\n")
}

// String returns the accumulated string.
// Flush on the underlying writer is automatically called
func (t *TabbedStringBuilder) String() string {
	_ = t.writer.Flush()
	return t.sb.String()
}
