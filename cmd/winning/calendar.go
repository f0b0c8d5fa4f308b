package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/winning-app/winning/config"
	"github.com/winning-app/winning/period"
)

func newCalendarCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "calendar [YYYY-MM]",
		Short: "Print the month grid",
		Long: `Calendar prints the six-week grid of a month (the current month by
default). Today is shown in brackets, days of the neighbouring months in
parentheses.`,
		Example: `  winning calendar
  winning calendar 2024-02 --first-weekday monday`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cal, err := cfg.Calendar()
			if err != nil {
				return err
			}
			month := cal.CurrentMonth()
			if len(args) == 1 {
				month = args[0]
			}
			return printCalendar(cmd.OutOrStdout(), cal, month)
		},
	}
}

func printCalendar(w io.Writer, cal *period.Calendar, month string) error {
	grid, err := cal.BuildMonthGrid(month)
	if err != nil {
		return fmt.Errorf("invalid month %q (use YYYY-MM): %w", month, err)
	}

	fmt.Fprintln(w, month)
	table := tablewriter.NewWriter(w)
	table.SetHeader(cal.WeekdayHeaders())
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, row := range period.Rows(grid) {
		line := make([]string, len(row))
		for i, c := range row {
			line[i] = cellLabel(c)
		}
		table.Append(line)
	}
	table.Render()
	return nil
}

func cellLabel(c period.Cell) string {
	day := strconv.Itoa(c.Day)
	switch {
	case c.IsToday:
		return "[" + day + "]"
	case !c.InMonth:
		return "(" + day + ")"
	}
	return day
}
