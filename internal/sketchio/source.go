package sketchio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/population"
	"github.com/ppiankov/sketchmine/internal/sketch"
	"github.com/ppiankov/sketchmine/internal/storage"
)

// SourceKind tells how a population source is read
type SourceKind int

const (
	SourceCSV SourceKind = iota
	SourceSQLite
)

// Source is a parsed input reference: "file.csv" or "file.db#population"
type Source struct {
	Kind       SourceKind
	Path       string
	Population string
}

func (s Source) String() string {
	if s.Kind == SourceSQLite {
		return s.Path + "#" + s.Population
	}
	return s.Path
}

// ParseSource interprets a source string. SQLite databases are recognized by
// a .db, .sqlite or .sqlite3 extension and must name a population after '#'.
func ParseSource(ref string) (Source, error) {
	if ref == "" {
		return Source{}, model.NewConfigError("input", "no input source given")
	}
	path, name, hasName := strings.Cut(ref, "#")
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		if !hasName || name == "" {
			return Source{}, model.NewConfigError("input", "%s: sqlite source needs a population name (%s#name)", ref, path)
		}
		return Source{Kind: SourceSQLite, Path: path, Population: name}, nil
	default:
		return Source{Kind: SourceCSV, Path: ref}, nil
	}
}

// Open loads the population named by ref
func Open(ctx context.Context, ref string, codec sketch.Codec) (*population.Population, error) {
	src, err := ParseSource(ref)
	if err != nil {
		return nil, err
	}
	if src.Kind == SourceCSV {
		return ReadCSVFile(src.Path, codec)
	}

	store, err := storage.Open(ctx, src.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	pop, err := store.LoadPopulation(ctx, src.Population, codec)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src, err)
	}
	return pop, nil
}
