// Package ingest loads CSV school extracts into the record store.
// Rows are normalized into domain.School values and written in batched,
// idempotent upserts keyed by the extract's school identifier.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkordes/school-directory/internal/domain"
)

// DefaultBatchSize is the number of rows written per upsert transaction.
const DefaultBatchSize = 500

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Store is the write side of the record store used by the pipeline.
// repo.SchoolRepo satisfies it.
type Store interface {
	UpsertBatch(ctx context.Context, schools []domain.School) error
}

// Report summarizes one ingestion run.
type Report struct {
	Source   string `json:"source"`
	Rows     int    `json:"rows"`
	Upserted int    `json:"upserted"`
	Skipped  int    `json:"skipped"`
	Batches  int    `json:"batches"`
}

// Pipeline reads an extract and upserts its rows in batches.
type Pipeline struct {
	store     Store
	mapping   Mapping
	batchSize int
	log       *slog.Logger
}

// NewPipeline constructs a Pipeline. A nil mapping selects DefaultMapping,
// a non-positive batchSize selects DefaultBatchSize and a nil logger
// selects slog.Default().
func NewPipeline(store Store, mapping Mapping, batchSize int, log *slog.Logger) *Pipeline {
	if mapping == nil {
		mapping = DefaultMapping()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{store: store, mapping: mapping, batchSize: batchSize, log: log}
}

// RunFile ingests the extract at path.
func (p *Pipeline) RunFile(ctx context.Context, path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{Source: path}, fmt.Errorf("ingest.Pipeline.RunFile: %w: %v", domain.ErrPrecondition, err)
	}
	defer f.Close()

	rep, err := p.run(ctx, f, path)
	if err != nil {
		return rep, fmt.Errorf("ingest.Pipeline.RunFile: %w", err)
	}
	return rep, nil
}

// Run ingests an extract from r. source is used only for reporting.
//
// Rows without an identifier or name are skipped and counted. A failed batch
// stops the run and returns a *domain.BatchError; batches written before it
// stay committed.
func (p *Pipeline) Run(ctx context.Context, r io.Reader, source string) (Report, error) {
	rep, err := p.run(ctx, r, source)
	if err != nil {
		return rep, fmt.Errorf("ingest.Pipeline.Run: %w", err)
	}
	return rep, nil
}

func (p *Pipeline) run(ctx context.Context, r io.Reader, source string) (Report, error) {
	rep := Report{Source: source}

	cr, err := newCSVReader(r)
	if err != nil {
		return rep, err
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return rep, fmt.Errorf("%w: extract has no header row", domain.ErrValidation)
		}
		return rep, fmt.Errorf("%w: header: %v", domain.ErrValidation, err)
	}
	cols := p.mapping.resolve(header)
	for _, required := range []Field{FieldID, FieldName} {
		if len(cols[required]) == 0 {
			return rep, fmt.Errorf("%w: header has no column for %s", domain.ErrValidation, required)
		}
	}

	batch := make([]domain.School, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.store.UpsertBatch(ctx, batch); err != nil {
			return &domain.BatchError{Batch: rep.Batches, Committed: rep.Upserted, Err: err}
		}
		rep.Batches++
		rep.Upserted += len(batch)
		p.log.Debug("ingest batch committed", "batch", rep.Batches, "rows", len(batch))
		batch = make([]domain.School, 0, p.batchSize)
		return nil
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rep.Rows++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				rep.Skipped++
				p.log.Warn("ingest row skipped", "line", pe.Line, "error", pe.Err)
				continue
			}
			return rep, fmt.Errorf("read row %d: %w", rep.Rows, err)
		}

		s, ok := cols.school(row)
		if !ok {
			rep.Skipped++
			continue
		}
		batch = append(batch, s)
		if len(batch) == p.batchSize {
			if err := flush(); err != nil {
				return rep, err
			}
		}
	}
	if err := flush(); err != nil {
		return rep, err
	}

	p.log.Info("ingest complete",
		"source", rep.Source,
		"rows", rep.Rows,
		"upserted", rep.Upserted,
		"skipped", rep.Skipped,
		"batches", rep.Batches,
	)
	return rep, nil
}

// newCSVReader strips a leading UTF-8 byte-order mark and returns a reader
// that tolerates ragged rows; missing trailing columns read as blank.
func newCSVReader(r io.Reader) (*csv.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(utf8BOM))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr, nil
}

// school maps one CSV row onto a School. It reports false when the row has no
// identifier or no name.
func (c columns) school(row []string) (domain.School, bool) {
	id, ok := c.value(row, FieldID)
	if !ok {
		return domain.School{}, false
	}
	name, ok := c.value(row, FieldName)
	if !ok {
		return domain.School{}, false
	}

	s := domain.School{ID: id, Name: name}
	str := func(f Field) *string {
		v, _ := c.value(row, f)
		return text(v)
	}
	s.City = str(FieldCity)
	s.Province = str(FieldProvince)
	s.Phone = str(FieldPhone)
	s.EducationStructure = str(FieldEducationStructure)
	s.LevelsOffered = str(FieldLevelsOffered)
	s.SizeCategory = str(FieldSizeCategory)
	s.Denomination = str(FieldDenomination)

	if v, ok := c.value(row, FieldWebsite); ok {
		s.Website = NormalizeURL(v)
	}
	if v, ok := c.value(row, FieldHasWebsite); ok {
		s.HasWebsite = ParseBool(v)
	}
	if v, ok := c.value(row, FieldLatitude); ok {
		s.Latitude = ParseFloat(v)
	}
	if v, ok := c.value(row, FieldLongitude); ok {
		s.Longitude = ParseFloat(v)
	}
	if v, ok := c.value(row, FieldEnrollmentTotal); ok {
		s.EnrollmentTotal = ParseCount(v)
	}
	for level, f := range levelFields {
		if v, ok := c.value(row, f); ok {
			*s.Levels.Flag(level) = ParseBool(v)
		}
	}
	return s, true
}
