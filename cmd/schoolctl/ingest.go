package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkordes/school-directory/internal/domain"
	"github.com/pkordes/school-directory/internal/ingest"
)

func newIngestCmd(a *app) *cobra.Command {
	var (
		file        string
		dir         string
		mappingFile string
		batchSize   int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load a school extract into the directory",
		Long: `Load a CSV school extract and upsert every row by school id.

Without --file the first known extract found in --dir is used. Running the
same extract twice leaves the directory unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if dir == "" {
				dir = a.cfg.ExtractDir
			}
			if mappingFile == "" {
				mappingFile = a.cfg.MappingFile
			}
			if batchSize == 0 {
				batchSize = a.cfg.IngestBatchSize
			}

			path := file
			if path == "" {
				var err error
				if path, err = ingest.ResolveExtract(dir, ingest.DefaultCandidates()); err != nil {
					return err
				}
			}

			mapping := ingest.DefaultMapping()
			if mappingFile != "" {
				var err error
				if mapping, err = ingest.LoadMapping(mappingFile); err != nil {
					return err
				}
			}

			b, err := a.open(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			defer b.close()

			rep, err := ingest.NewPipeline(b.schools, mapping, batchSize, a.log).RunFile(ctx, path)
			if err != nil {
				var be *domain.BatchError
				if errors.As(err, &be) {
					fmt.Fprintf(cmd.OutOrStdout(), "batch %d failed; %d rows were committed before it\n", be.Batch, be.Committed)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows read, %d upserted, %d skipped, %d batches\n",
				rep.Source, rep.Rows, rep.Upserted, rep.Skipped, rep.Batches)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "extract to load (default: first known extract in --dir)")
	cmd.Flags().StringVar(&dir, "dir", "", "directory searched for an extract (default $EXTRACT_DIR)")
	cmd.Flags().StringVar(&mappingFile, "mapping", "", "YAML column mapping override (default $MAPPING_FILE)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "rows per transaction (default $INGEST_BATCH_SIZE)")
	return cmd
}
