package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/benvon/portfolio-api/internal/config"
	"github.com/benvon/portfolio-api/internal/models"
	"github.com/benvon/portfolio-api/internal/services/contributions"
	"github.com/benvon/portfolio-api/internal/services/github"
	"github.com/benvon/portfolio-api/internal/services/gitlab"
	"github.com/benvon/portfolio-api/internal/validation"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newAggregateCmd(opts *rootOptions) *cobra.Command {
	var (
		years  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Run one aggregation against the configured sources",
		Long:  "Fetch GitHub, GitLab and private contributions for the given years and print a yearly summary. Without --years every year from 2016 through the current one is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			wanted := validation.DefaultYears(contributions.FirstYear, time.Now())
			if cmd.Flags().Changed("years") {
				wanted, err = validation.ParseYears(years)
				if err != nil {
					return err
				}
			}

			agg := contributions.NewAggregator(
				github.NewClient(cfg.GitHubToken, cfg.GitHubUser, cfg.ProviderTimeout,
					github.WithEndpoint(cfg.GitHubAPIURL),
					github.WithLogger(opts.logger),
				),
				gitlab.NewClient(cfg.GitLabToken, cfg.ProviderTimeout,
					gitlab.WithBaseURL(cfg.GitLabAPIURL),
					gitlab.WithLogger(opts.logger),
				),
				contributions.NewPrivateSource(cfg.PrivateContributionsFile),
				opts.logger,
			)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ProviderTimeout+5*time.Second)
			defer cancel()

			data, err := agg.Aggregate(ctx, wanted)
			if err != nil {
				return fmt.Errorf("aggregate: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(data)
			}
			renderSummary(cmd.OutOrStdout(), data)
			return nil
		},
	}

	cmd.Flags().StringVar(&years, "years", "", "comma-separated years, e.g. 2019,2020")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")

	return cmd
}

// renderSummary prints yearly commit totals followed by the source statuses
func renderSummary(w io.Writer, data *models.GitStatsData) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Year", "Commits", "Calendar total"})

	for _, year := range slices.Sorted(maps.Keys(data.YearlyCommits)) {
		calendar := "-"
		if yd, ok := data.ContributionData[year]; ok {
			calendar = humanize.Comma(int64(yd.Total))
		}
		tbl.AppendRow(table.Row{year, humanize.Comma(int64(data.YearlyCommits[year])), calendar})
	}

	tbl.AppendFooter(table.Row{"Total", humanize.Comma(int64(data.TotalCommits)), ""})
	tbl.Render()

	fmt.Fprintf(w, "Pull and merge requests: %s\n", humanize.Comma(int64(data.TotalPullRequests)))

	if !data.Degraded() {
		return
	}
	fmt.Fprintln(w, "Failed sources:")
	for _, s := range data.Sources {
		if !s.OK {
			fmt.Fprintf(w, "  - %s: %s\n", s.Source, s.Error)
		}
	}
}
