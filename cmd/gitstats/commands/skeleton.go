package commands

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/benvon/portfolio-api/internal/models"
	"github.com/benvon/portfolio-api/internal/services/contributions"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newSkeletonCmd() *cobra.Command {
	var year string

	cmd := &cobra.Command{
		Use:   "skeleton",
		Short: "Print the week layout of the contribution calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			skeleton := contributions.BuildSkeleton().Skeleton()

			years := slices.Sorted(maps.Keys(skeleton))
			if year != "" {
				if _, ok := skeleton[year]; !ok {
					return fmt.Errorf("year %s is outside the calendar (%d-%d)", year, contributions.FirstYear, contributions.LastYear)
				}
				years = []string{year}
			}

			renderSkeleton(cmd.OutOrStdout(), skeleton, years)
			return nil
		},
	}

	cmd.Flags().StringVar(&year, "year", "", "show a single year")

	return cmd
}

func renderSkeleton(w io.Writer, skeleton models.Skeleton, years []string) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Year", "Weeks", "Days", "Days in year", "First day", "Last day"})

	for _, year := range years {
		yd := skeleton[year]
		days, inYear := 0, 0
		for _, week := range yd.Weeks {
			for _, day := range week.ContributionDays {
				days++
				if day.Date[:4] == year {
					inYear++
				}
			}
		}

		first, last := "-", "-"
		if n := len(yd.Weeks); n > 0 {
			first = yd.Weeks[0].ContributionDays[0].Date
			lastWeek := yd.Weeks[n-1].ContributionDays
			last = lastWeek[len(lastWeek)-1].Date
		}
		tbl.AppendRow(table.Row{year, len(yd.Weeks), days, inYear, first, last})
	}

	tbl.Render()
}
