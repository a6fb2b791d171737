package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pkordes/school-directory/internal/domain"
	"github.com/pkordes/school-directory/internal/service"
)

func newClientsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Report on the client tag set",
		Long: `Print every tagged school with its location, the total number of
students at client schools and the clients per province.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := a.open(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			defer b.close()

			entries, err := service.NewClientService(b.tags, b.pub, a.log).ListClients(ctx)
			if err != nil {
				return err
			}
			schools := service.NewSchoolService(b.schools, b.tags, b.pub, a.log, a.cfg.FetchPageSize)
			sum, err := schools.Summary(ctx, domain.Filter{ClientsOnly: true}, domain.DimProvince, 0)
			if err != nil {
				return err
			}
			return writeClientReport(cmd.OutOrStdout(), entries, sum)
		},
	}

	cmd.AddCommand(newTagCmd(a, domain.TagAdd), newTagCmd(a, domain.TagRemove))
	return cmd
}

// newTagCmd builds "clients add" and "clients remove".
func newTagCmd(a *app, op domain.TagOp) *cobra.Command {
	var createdBy string

	cmd := &cobra.Command{
		Use:   string(op) + " <school-id>",
		Short: fmt.Sprintf("%s the client tag of a school", op),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch := domain.TagChange{SchoolID: args[0], Op: op}
			if createdBy != "" {
				by, err := uuid.Parse(createdBy)
				if err != nil {
					return fmt.Errorf("invalid --by: %w", err)
				}
				ch.CreatedBy = &by
			}

			ctx := cmd.Context()
			b, err := a.open(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			defer b.close()

			result, err := service.NewClientService(b.tags, b.pub, a.log).SetTag(ctx, ch)
			if err != nil {
				return err
			}
			if result.Changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", result.SchoolID, op)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: unchanged\n", result.SchoolID)
			}
			return nil
		},
	}
	if op == domain.TagAdd {
		cmd.Flags().StringVar(&createdBy, "by", "", "UUID recorded as the tag's creator")
	}
	return cmd
}

func writeClientReport(out io.Writer, entries []domain.ClientEntry, sum domain.Summary) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "CLIENTS (%d)\n", len(entries))
	fmt.Fprintln(tw, "ID\tNAME\tCITY\tPROVINCE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.SchoolID, e.Name, orDash(e.City), orDash(e.Province))
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "total students\t%d\n", sum.EnrollmentSum)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "PROVINCE\tCLIENTS\tSTUDENTS")
	for _, g := range sum.Groups {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", g.Key, g.Count, g.EnrollmentSum)
	}
	return tw.Flush()
}

func orDash(p *string) string {
	if p == nil || *p == "" {
		return "-"
	}
	return *p
}
