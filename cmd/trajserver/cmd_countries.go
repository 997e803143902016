package main

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/iafilius/DeathTrajectories/src/dataset"
)

func newCountriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List countries in the dataset with their row counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ds, err := opts.loadAll()
			if err != nil {
				return err
			}
			writeCountryTable(cmd.OutOrStdout(), ds)
			return nil
		},
	}
}

func writeCountryTable(w io.Writer, ds *dataset.Dataset) {
	countries := ds.Countries()
	rows := make([][]string, 0, len(countries))
	for _, c := range countries {
		rows = append(rows, []string{c, strconv.Itoa(ds.RowCount(c))})
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Country", "Rows"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}
