package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

var (
	okColor      = color.New(color.FgGreen)
	changedColor = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed, color.Bold)
)

func newCheckCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Decode, validate and re-encode class files",
		Long: `Check decodes each class file, validates it and encodes it again.
A file is reported as "ok" when re-encoding reproduces its bytes exactly and
as "rewritten" otherwise. With --write, rewritten files are saved in place.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			write, _ := cmd.Flags().GetBool("write")
			blobs, classes, err := a.load(cmd.Context(), args)
			if blobs == nil {
				return err
			}
			var result *multierror.Error
			if err != nil {
				result = multierror.Append(result, err)
			}

			out := cmd.OutOrStdout()
			for i, path := range args {
				c := classes[i]
				if c == nil {
					fmt.Fprintf(out, "%s %s\n", failColor.Sprint("FAIL"), path)
					continue
				}
				b, err := c.Bytes(a.options()...)
				if err != nil {
					fmt.Fprintf(out, "%s %s\n", failColor.Sprint("FAIL"), path)
					result = multierror.Append(result, err)
					continue
				}
				if bytes.Equal(b, blobs[i]) {
					fmt.Fprintf(out, "%s %s\n", okColor.Sprint("ok"), path)
					continue
				}
				fmt.Fprintf(out, "%s %s (%d -> %d bytes)\n", changedColor.Sprint("rewritten"), path, len(blobs[i]), len(b))
				if write {
					if err := os.WriteFile(path, b, 0o644); err != nil {
						result = multierror.Append(result, err)
					}
				}
			}
			return result.ErrorOrNil()
		},
	}
	cmd.Flags().BoolP("write", "w", false, "Save rewritten class files in place")
	return cmd
}
