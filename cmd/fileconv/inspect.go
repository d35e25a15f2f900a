package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fileconverter/internal/codec"
	"github.com/JonMunkholm/fileconverter/internal/table"
)

func newInspectCmd() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show columns, types and the first rows of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			t, format, err := codec.Parse(args[0], f)
			if err != nil {
				return err
			}
			return printInspect(cmd.OutOrStdout(), args[0], format, t, rows)
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 5, "number of rows to show")
	return cmd
}

func printInspect(w io.Writer, name string, format codec.Format, t *table.Table, rows int) error {
	fmt.Fprintf(w, "%s: %s, %d rows, %d columns\n\n", name, format.Label(), t.NumRows(), t.NumCols())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tMISSING")
	for _, c := range t.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Name, c.Kind, c.MissingCount())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if rows <= 0 || t.NumCols() == 0 {
		return nil
	}

	head := t.Head(rows)
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(head.Names(), "\t"))
	for i := 0; i < head.NumRows(); i++ {
		fmt.Fprintln(tw, strings.Join(head.Record(i), "\t"))
	}
	return tw.Flush()
}
