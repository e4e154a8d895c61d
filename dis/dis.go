// Package dis renders classes and method bodies as human-readable text.
// The output is meant for people reading a class during debugging; it is
// not a format to be parsed back.
//
// Colors are applied through github.com/fatih/color and follow its global
// color.NoColor switch.
package dis

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/deepnoodle-ai/javabinary/attr"
	"github.com/deepnoodle-ai/javabinary/bytecode"
	"github.com/deepnoodle-ai/javabinary/classfile"
	"github.com/deepnoodle-ai/javabinary/descriptor"
	"github.com/deepnoodle-ai/javabinary/internal/table"
	"github.com/deepnoodle-ai/javabinary/stackmap"
)

var (
	keyword = color.New(color.FgBlue)
	name    = color.New(color.Bold)
	literal = color.New(color.FgYellow)
	text    = color.New(color.FgGreen)
	label   = color.New(color.FgCyan)
	note    = color.New(color.FgHiBlack)
)

// Row is one disassembled instruction.
type Row struct {
	Label    int
	Line     int
	Mnemonic string
	Operands string
	// Frame is the recorded branch-target frame at this label, if any.
	Frame string
}

// Disassemble returns one row per instruction of code.
func Disassemble(code *bytecode.Code) []Row {
	rows := make([]Row, 0, len(code.Instructions))
	for _, ins := range code.Instructions {
		mnemonic, operands, _ := strings.Cut(ins.String(), " ")
		row := Row{Label: ins.Label, Line: ins.Line, Mnemonic: mnemonic, Operands: operands}
		if code.Frames != nil {
			if f, ok := code.Frames.Frame(ins.Label); ok && f.Branch {
				row.Frame = FormatFrame(f)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// FormatFrame renders a stack-map frame as its locals and stack.
func FormatFrame(f *stackmap.Frame) string {
	return "locals " + typeList(f.Locals) + " stack " + typeList(f.Stack)
}

func typeList(types []stackmap.Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(indent int, s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, strings.Repeat("  ", indent)+s+"\n")
}

func (p *printer) linef(indent int, format string, args ...any) {
	p.line(indent, fmt.Sprintf(format, args...))
}

// Fprint writes an indented listing of c to w: the class header, its
// fields, and each method with its instructions, exception ranges, local
// variables and stack-map frames.
func Fprint(w io.Writer, c *classfile.Class) error {
	p := &printer{w: w}
	header := withFlags(c.Flags.Format(classfile.ClassTarget), "class "+name.Sprint(c.Name))
	if !c.Super.IsZero() {
		header += " " + keyword.Sprint("extends") + " " + c.Super.String()
	}
	if len(c.Interfaces) > 0 {
		names := make([]string, len(c.Interfaces))
		for i, iface := range c.Interfaces {
			names[i] = iface.String()
		}
		header += " " + keyword.Sprint("implements") + " " + strings.Join(names, ", ")
	}
	p.line(0, header)
	p.linef(1, "version %d.%d", c.Version.Major, c.Version.Minor)
	if c.SourceFile != "" {
		p.line(1, "source "+text.Sprint(c.SourceFile))
	}
	if c.Signature != "" {
		p.line(1, "signature "+c.Signature)
	}
	if outer, ok := c.Outer(); ok {
		p.line(1, "outer "+outer.String())
	}
	if e := c.Enclosing; e != nil && e.Method != "" {
		p.linef(1, "enclosing method %s%s", e.Method, e.Descriptor)
	}
	for _, n := range c.Nesting {
		if n != nil && n.Inner != c.Name {
			p.line(1, "nested "+innerClass(n))
		}
	}
	for i := range c.InnerRefs {
		p.line(1, "inner "+innerClass(&c.InnerRefs[i]))
	}
	printAttributes(p, 1, c.Attributes)

	for _, f := range c.Fields {
		p.line(0, "")
		printField(p, f)
	}
	for _, m := range c.Methods {
		p.line(0, "")
		printMethod(p, m)
	}
	return p.err
}

func withFlags(flags, rest string) string {
	if flags == "" {
		return rest
	}
	return keyword.Sprint(flags) + " " + rest
}

func innerClass(n *attr.InnerClass) string {
	s := n.Inner.String()
	if n.Name == "" {
		s += " (anonymous)"
	}
	if flags := classfile.AccessFlags(n.Flags).Format(classfile.ClassTarget); flags != "" {
		s += " " + keyword.Sprint(flags)
	}
	return s
}

func printAttributes(p *printer, indent int, set attr.Set) {
	for _, a := range set {
		p.line(indent, note.Sprint("attribute "+a.Name()))
	}
}

func printField(p *printer, f *classfile.Field) {
	s := withFlags(f.Flags.Format(classfile.FieldTarget), f.Type.String()+" "+name.Sprint(f.Name))
	if f.Constant != nil {
		s += " = " + constant(f.Constant)
	}
	p.line(1, s)
	if f.Signature != "" {
		p.line(2, "signature "+f.Signature)
	}
	printAttributes(p, 2, f.Attributes)
}

func constant(v any) string {
	switch v := v.(type) {
	case string:
		return text.Sprintf("%q", v)
	case int32, int64, float32, float64:
		return literal.Sprint(v)
	}
	return fmt.Sprint(v)
}

func printMethod(p *printer, m *classfile.Method) {
	ret := m.Descriptor.Return
	if ret.IsZero() {
		ret = descriptor.TypeVoid
	}
	params := make([]string, len(m.Descriptor.Params))
	for i, t := range m.Descriptor.Params {
		params[i] = t.String()
		if i < len(m.Parameters) && m.Parameters[i].Name != "" {
			params[i] += " " + m.Parameters[i].Name
		}
	}
	sig := fmt.Sprintf("%s %s(%s)", ret, name.Sprint(m.Name), strings.Join(params, ", "))
	p.line(1, withFlags(m.Flags.Format(classfile.MethodTarget), sig))
	if len(m.Exceptions) > 0 {
		names := make([]string, len(m.Exceptions))
		for i, t := range m.Exceptions {
			names[i] = t.String()
		}
		p.line(2, keyword.Sprint("throws")+" "+strings.Join(names, ", "))
	}
	if m.Signature != "" {
		p.line(2, "signature "+m.Signature)
	}
	printAttributes(p, 2, m.Attributes)
	if m.Code != nil {
		printCode(p, m.Code)
	}
}

func printCode(p *printer, code *bytecode.Code) {
	p.linef(2, "max stack %d, max locals %d", code.MaxStack, code.MaxLocals)

	var rows [][]string
	for _, r := range Disassemble(code) {
		line := ""
		if r.Line != 0 {
			line = fmt.Sprint(r.Line)
		}
		rows = append(rows, []string{
			label.Sprintf("L%d", r.Label),
			line,
			name.Sprint(r.Mnemonic),
			r.Operands,
			note.Sprint(r.Frame),
		})
	}
	var buf bytes.Buffer
	err := table.NewTable(&buf).
		WithHeader([]string{"LABEL", "LINE", "OPCODE", "OPERANDS", "FRAME"}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignRight,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
		}).
		WithRows(rows).
		Render()
	if err != nil {
		p.err = err
		return
	}
	for _, l := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		p.line(2, l)
	}

	if len(code.Exceptions) > 0 {
		p.line(2, "exceptions")
		for _, e := range code.Exceptions {
			catch := "any"
			if !e.CatchType.IsZero() {
				catch = e.CatchType.String()
			}
			p.linef(3, "%s..%s -> %s %s", label.Sprintf("L%d", e.Start), label.Sprintf("L%d", e.End),
				label.Sprintf("L%d", e.Handler), catch)
		}
	}
	if len(code.Locals) > 0 {
		p.line(2, "locals")
		for _, v := range code.Locals {
			p.linef(3, "%d %s %s %s..%s", v.Slot, name.Sprint(v.Name), v.Descriptor,
				label.Sprintf("L%d", v.Start), label.Sprintf("L%d", v.End))
		}
	}
	printAttributes(p, 2, code.Attributes)
}
