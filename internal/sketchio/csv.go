// Package sketchio loads and saves populations as (item, base64 sketch) CSV
// files or from the SQLite sketch store.
package sketchio

import (
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/population"
	"github.com/ppiankov/sketchmine/internal/report"
	"github.com/ppiankov/sketchmine/internal/sketch"
)

// TotalName labels the total row
const TotalName = "total"

// ReadCSV parses headerless "item,base64" rows. A first row named "total"
// (any case) or with an empty name holds the total sketch; without it, or
// when it estimates zero, the total is the union of all items.
func ReadCSV(r io.Reader, source string, codec sketch.Codec) (*population.Population, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var total sketch.Sketch
	items := make(map[string]sketch.Sketch)
	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &model.DataError{Source: source, Row: pe.Line, Err: pe.Err}
			}
			return nil, &model.DataError{Source: source, Row: row, Err: err}
		}
		if len(record) != 2 {
			return nil, &model.DataError{Source: source, Row: row, Err: fmt.Errorf("expected 2 fields, got %d", len(record))}
		}

		name := strings.TrimSpace(record[0])
		s, err := decode(record[1], codec)
		if err != nil {
			return nil, &model.DataError{Source: source, Row: row, Item: name, Err: err}
		}

		if row == 1 && (name == "" || strings.EqualFold(name, TotalName)) {
			total = s
			continue
		}
		if err := model.CheckItem(name); err != nil {
			return nil, &model.DataError{Source: source, Row: row, Item: name, Err: err}
		}
		if _, dup := items[name]; dup {
			return nil, &model.DataError{Source: source, Row: row, Item: name, Err: fmt.Errorf("duplicate item")}
		}
		items[name] = s
	}

	if row == 0 {
		return nil, &model.DataError{Source: source, Err: fmt.Errorf("no sketch rows")}
	}
	if total != nil && total.Estimate() == 0 && len(items) > 0 {
		total = nil
	}
	return population.New(source, total, items)
}

// ReadCSVFile opens path and parses it with ReadCSV
func ReadCSVFile(path string, codec sketch.Codec) (*population.Population, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sketch file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f, path, codec)
}

// WriteCSV writes the total row followed by items in ascending order
func WriteCSV(w io.Writer, pop *population.Population) error {
	cw := csv.NewWriter(w)
	if err := writeRow(cw, TotalName, pop.Total()); err != nil {
		return err
	}
	for _, item := range pop.Items() {
		s, err := pop.Sketch(item)
		if err != nil {
			return err
		}
		if err := writeRow(cw, item, s); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes pop to path atomically
func WriteCSVFile(path string, pop *population.Population) error {
	return report.WriteFileAtomic(path, func(w io.Writer) error {
		return WriteCSV(w, pop)
	})
}

func writeRow(cw *csv.Writer, name string, s sketch.Sketch) error {
	data, err := s.MarshalBinary()
	if err != nil {
		return fmt.Errorf("serialize %s: %w", name, err)
	}
	if err := cw.Write([]string{name, base64.StdEncoding.EncodeToString(data)}); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func decode(field string, codec sketch.Codec) (sketch.Sketch, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(field))
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	s, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	return s, nil
}
