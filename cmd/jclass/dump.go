package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/javabinary/classfile"
	"github.com/deepnoodle-ai/javabinary/dis"
)

type memberSummary struct {
	Name         string `json:"name"`
	Descriptor   string `json:"descriptor"`
	Flags        string `json:"flags,omitempty"`
	Instructions int    `json:"instructions,omitempty"`
}

type classSummary struct {
	Name       string          `json:"name"`
	Super      string          `json:"super,omitempty"`
	Version    string          `json:"version"`
	Flags      string          `json:"flags,omitempty"`
	Interfaces []string        `json:"interfaces,omitempty"`
	Fields     []memberSummary `json:"fields"`
	Methods    []memberSummary `json:"methods"`
}

func summarize(c *classfile.Class) classSummary {
	s := classSummary{
		Name:    c.Name.String(),
		Version: fmt.Sprintf("%d.%d", c.Version.Major, c.Version.Minor),
		Flags:   c.Flags.Format(classfile.ClassTarget),
		Fields:  []memberSummary{},
		Methods: []memberSummary{},
	}
	if !c.Super.IsZero() {
		s.Super = c.Super.String()
	}
	for _, iface := range c.Interfaces {
		s.Interfaces = append(s.Interfaces, iface.String())
	}
	for _, f := range c.Fields {
		s.Fields = append(s.Fields, memberSummary{
			Name:       f.Name,
			Descriptor: f.Type.Descriptor(),
			Flags:      f.Flags.Format(classfile.FieldTarget),
		})
	}
	for _, m := range c.Methods {
		ms := memberSummary{
			Name:       m.Name,
			Descriptor: m.Descriptor.Descriptor(),
			Flags:      m.Flags.Format(classfile.MethodTarget),
		}
		if m.Code != nil {
			ms.Instructions = len(m.Code.Instructions)
		}
		s.Methods = append(s.Methods, ms)
	}
	return s
}

func newDumpCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump FILE...",
		Short: "Print a readable listing of class files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, classes, err := a.load(cmd.Context(), args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format, _ := cmd.Flags().GetString("output"); format {
			case "json":
				summaries := make([]classSummary, len(classes))
				for i, c := range classes {
					summaries[i] = summarize(c)
				}
				f := prettyjson.NewFormatter()
				f.DisabledColor = color.NoColor
				data, err := f.Marshal(summaries)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			case "text":
				for i, c := range classes {
					if i > 0 {
						fmt.Fprintln(out)
					}
					if err := dis.Fprint(out, c); err != nil {
						return err
					}
				}
				return nil
			default:
				return fmt.Errorf("unknown output format: %s", format)
			}
		},
	}
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	return cmd
}
