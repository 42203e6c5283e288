package pipeline_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dongnemap/facility-sync/internal/pipeline"
)

func TestFileSource_ReadsDelimitedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.csv")
	content := "도서관명,위도,경도\n못골도서관,37.4731,127.1028\n일원도서관,37.49,127.08\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	src := pipeline.FileSource{Path: path, Delimiter: ',', Logger: slog.Default()}
	rows, err := src.Rows(context.Background())
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "못골도서관", rows[0]["도서관명"])
	assert.Equal(t, "127.08", rows[1]["경도"])
}

func TestFileSource_SkipRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "park.csv")
	content := "전국도시공원표준데이터\n공원명,위도,경도\n율현공원,37.4702,127.1104\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	src := pipeline.FileSource{Path: path, Delimiter: ',', SkipRows: 1, Logger: slog.Default()}
	rows, err := src.Rows(context.Background())
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "율현공원", rows[0]["공원명"])
}

func TestFileSource_MissingFile(t *testing.T) {
	src := pipeline.FileSource{
		Path:      filepath.Join(t.TempDir(), "absent.csv"),
		Delimiter: ',',
		Logger:    slog.Default(),
	}
	_, err := src.Rows(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read source file")
}
