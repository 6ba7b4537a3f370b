package commands

import (
	"fmt"

	"github.com/benvon/portfolio-api/internal/services/contributions"
	"github.com/spf13/cobra"
)

func newPrivateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "private",
		Short: "Work with the private contributions document",
	}
	cmd.AddCommand(newPrivateValidateCmd())
	return cmd
}

func newPrivateValidateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a private contributions document",
		Long:  "Load and validate a private contributions document. Without --file the document compiled into the binary is checked. Every problem found is reported.",
		RunE: func(cmd *cobra.Command, args []string) error {
			source := contributions.NewPrivateSource(file)
			doc, err := source.Load(cmd.Context())
			if err != nil {
				return err
			}

			days := 0
			for _, yd := range doc.ContributionData {
				for _, week := range yd.Weeks {
					days += len(week.ContributionDays)
				}
			}

			name := source.Path()
			if name == "" {
				name = "embedded document"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d years, %d days, %d merge request entries\n",
				name, len(doc.ContributionData), days, len(doc.MergeRequests))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the document (defaults to the embedded copy)")

	return cmd
}
