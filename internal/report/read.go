package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ppiankov/sketchmine/internal/model"
)

// readTable reads all records and checks the header and field counts
func readTable(r io.Reader, source string, header []string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	first, err := cr.Read()
	if err == io.EOF {
		return nil, &model.DataError{Source: source, Err: fmt.Errorf("empty report")}
	}
	if err != nil {
		return nil, csvError(source, err)
	}
	if strings.Join(first, ",") != strings.Join(header, ",") {
		return nil, &model.DataError{Source: source, Row: 1, Err: fmt.Errorf("unexpected header %q", strings.Join(first, ","))}
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, csvError(source, err)
	}
	return records, nil
}

func csvError(source string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &model.DataError{Source: source, Row: pe.Line, Err: pe.Err}
	}
	return &model.DataError{Source: source, Err: err}
}

// fieldParser keeps the first conversion error of a row
type fieldParser struct {
	source string
	row    int
	err    error
}

func (p *fieldParser) parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil && p.err == nil {
		p.err = &model.DataError{Source: p.source, Row: p.row, Err: fmt.Errorf("invalid integer %q", s)}
	}
	return v
}

func (p *fieldParser) parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && p.err == nil {
		p.err = &model.DataError{Source: p.source, Row: p.row, Err: fmt.Errorf("invalid number %q", s)}
	}
	return v
}
