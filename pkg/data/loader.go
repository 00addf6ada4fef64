package data

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/log"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const defaultInferRows = 200

// Options configures CSV loading.
type Options struct {
	// Schema is validated against the header. Nil infers one from the first rows.
	Schema *Schema
	// Label must exist, be categorical and be non-empty in every row.
	Label string
	// InferRows is the number of rows sampled for schema inference.
	InferRows int
}

// LoadCSV reads a delimited file with a header row into a Dataset.
func LoadCSV(path string, opts Options) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	ds, err := ReadCSV(file, opts)
	if err != nil {
		return nil, errors.Annotatef(err, "load %s", path)
	}
	log.Logger().Info("load dataset",
		zap.String("path", path),
		zap.Int("rows", ds.Len()),
		zap.Int("fields", ds.Schema().Len()))
	return ds, nil
}

// ReadCSV parses CSV from r. Malformed rows fail the load instead of being skipped.
func ReadCSV(r io.Reader, opts Options) (*Dataset, error) {
	// every cell is loaded as a raw string, kinds come from the schema
	df := dataframe.ReadCSV(bufio.NewReader(r),
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil))
	if df.Err != nil {
		return nil, parseError(df.Err)
	}
	// the first record holds the generated column names
	records := df.Records()[1:]
	header := CleanHeader(records[0])
	rows := records[1:]

	schema := opts.Schema
	if schema == nil {
		n := opts.InferRows
		if n <= 0 {
			n = defaultInferRows
		}
		inferred, err := InferSchema(header, rows[:min(n, len(rows))], opts.Label)
		if err != nil {
			return nil, errors.Trace(err)
		}
		schema = &inferred
	} else if err := schema.Validate(header); err != nil {
		return nil, errors.Trace(err)
	}

	labelCol := -1
	if opts.Label != "" {
		f, err := schema.Field(opts.Label)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if f.Kind != Categorical {
			return nil, core.Invalidf("csv: label %q must be categorical", opts.Label)
		}
		labelCol = schema.Index(opts.Label)
	}

	ds := New(*schema)
	for _, rec := range rows {
		if labelCol >= 0 && labelCol < len(rec) && strings.TrimSpace(rec[labelCol]) == "" {
			return nil, core.Invalidf("csv: row %d has an empty label", ds.Len())
		}
		if err := ds.Append(rec); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if ds.Len() == 0 {
		return nil, core.Invalidf("csv: no data rows")
	}
	return ds, nil
}

func parseError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return core.Invalidf("csv: line %d: %v", perr.Line, perr.Err)
	}
	// an input without records
	return core.Invalidf("csv: no header row: %v", err)
}
