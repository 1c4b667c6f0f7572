// Package convert turns raw transaction files into per-item sketches.
package convert

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/population"
	"github.com/ppiankov/sketchmine/internal/sketch"
)

// Input formats
const (
	FormatCSV  = "csv"
	FormatList = "list"
)

// Options control how transactions are read
type Options struct {
	Format     string
	Delimiter  string
	SkipHeader bool
}

// Validate checks the format and delimiter
func (o Options) Validate() error {
	switch o.Format {
	case FormatCSV, "":
		if o.Delimiter != "" && utf8.RuneCountInString(o.Delimiter) != 1 {
			return model.NewConfigError("delimiter", "must be a single character, got %q", o.Delimiter)
		}
	case FormatList:
	default:
		return model.NewConfigError("format", "must be csv or list, got %q", o.Format)
	}
	return nil
}

// ReadTransactions parses one transaction per row. Items are trimmed, empty
// items dropped and empty transactions skipped.
func ReadTransactions(r io.Reader, source string, opts Options) ([][]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Format == FormatList {
		return readList(r, source, opts.SkipHeader)
	}
	return readCSV(r, source, opts)
}

func readCSV(r io.Reader, source string, opts Options) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if opts.Delimiter != "" {
		cr.Comma, _ = utf8.DecodeRuneInString(opts.Delimiter)
	}

	var transactions [][]string
	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, &model.DataError{Source: source, Row: row, Err: err}
		}
		if row == 1 && opts.SkipHeader {
			continue
		}
		if items := clean(record); len(items) > 0 {
			transactions = append(transactions, items)
		}
	}
	return transactions, nil
}

func readList(r io.Reader, source string, skipHeader bool) ([][]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)

	var transactions [][]string
	row := 0
	for scanner.Scan() {
		row++
		if row == 1 && skipHeader {
			continue
		}
		if items := strings.Fields(scanner.Text()); len(items) > 0 {
			transactions = append(transactions, items)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &model.DataError{Source: source, Row: row + 1, Err: err}
	}
	return transactions, nil
}

func clean(record []string) []string {
	out := make([]string, 0, len(record))
	for _, item := range record {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Build creates one sketch per item holding the indices of the transactions
// that contain it, plus a total sketch over every transaction index.
func Build(name string, transactions [][]string, codec sketch.Codec) (*population.Population, error) {
	if len(transactions) == 0 {
		return nil, &model.DataError{Source: name, Err: fmt.Errorf("no transactions")}
	}

	builders := make(map[string]sketch.Builder)
	total := codec.NewBuilder()
	for i, transaction := range transactions {
		id := uint64(i)
		total.Add(id)
		for _, item := range transaction {
			b, ok := builders[item]
			if !ok {
				b = codec.NewBuilder()
				builders[item] = b
			}
			b.Add(id)
		}
	}

	names := make([]string, 0, len(builders))
	for item := range builders {
		names = append(names, item)
	}
	sort.Strings(names)

	items := make(map[string]sketch.Sketch, len(builders))
	for _, item := range names {
		items[item] = builders[item].Sketch()
	}
	return population.New(name, total.Sketch(), items)
}

// File reads a transaction file and builds its population
func File(path string, opts Options, codec sketch.Codec) (*population.Population, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open transactions: %w", err)
	}
	defer func() { _ = f.Close() }()

	transactions, err := ReadTransactions(f, path, opts)
	if err != nil {
		return nil, 0, err
	}
	pop, err := Build(path, transactions, codec)
	if err != nil {
		return nil, 0, err
	}
	return pop, len(transactions), nil
}
