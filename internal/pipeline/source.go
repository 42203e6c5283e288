package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dongnemap/facility-sync/internal/domain"
	"github.com/dongnemap/facility-sync/internal/fetch"
	"github.com/dongnemap/facility-sync/internal/textio"
)

// RowSource produces the raw rows of one category's dataset.
type RowSource interface {
	Rows(ctx context.Context) ([]domain.RawRow, error)
}

// FileSource reads a delimited text file of unknown encoding. A single-shot
// read failure is terminal for the category run; only paginated fetches
// carry a retry budget.
type FileSource struct {
	Path      string
	Delimiter rune
	SkipRows  int
	Logger    *slog.Logger
}

func (s FileSource) Rows(_ context.Context) ([]domain.RawRow, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}

	text, enc, err := textio.DecodeText(raw)
	if errors.Is(err, textio.ErrAmbiguousEncoding) {
		s.Logger.Warn("encoding detection inconclusive, using best-effort decode",
			"path", s.Path, "assumed", enc)
	}
	s.Logger.Debug("decoded source file", "path", s.Path, "encoding", enc, "bytes", len(raw))

	return textio.ParseDelimited(text, s.Delimiter, s.SkipRows), nil
}

// APISource pulls all pages of a paginated open-API endpoint.
type APISource struct {
	Client   *fetch.Client
	Endpoint fetch.Endpoint
	Logger   *slog.Logger
}

func (s APISource) Rows(ctx context.Context) ([]domain.RawRow, error) {
	rows, total, err := s.Client.FetchAll(ctx, s.Endpoint)
	if err != nil {
		return nil, err
	}
	if len(rows) != total {
		// The portals' totalCount is advisory; rows can lag it when data
		// changes between page requests.
		s.Logger.Warn("row count differs from reported total", "rows", len(rows), "total", total)
	}
	return rows, nil
}
