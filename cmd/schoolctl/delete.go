package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkordes/school-directory/internal/service"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <school-id>",
		Short: "Remove a school and its client tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.open(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			defer b.close()

			svc := service.NewSchoolService(b.schools, b.tags, b.pub, a.log, a.cfg.FetchPageSize)
			if err := svc.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
