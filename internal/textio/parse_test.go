package textio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDelimited_Basic(t *testing.T) {
	rows := ParseDelimited("name,addr,lat\nA,Seoul,37.5\nB,Busan,35.1\n", ',', 0)

	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0]["name"])
	assert.Equal(t, "Seoul", rows[0]["addr"])
	assert.Equal(t, "35.1", rows[1]["lat"])
}

func TestParseDelimited_QuotedFields(t *testing.T) {
	t.Run("delimiter inside quotes", func(t *testing.T) {
		rows := ParseDelimited("name,addr\n\"상가, 1층\",서울\n", ',', 0)
		require.Len(t, rows, 1)
		assert.Equal(t, "상가, 1층", rows[0]["name"])
	})

	t.Run("embedded line break inside quotes", func(t *testing.T) {
		rows := ParseDelimited("name,note\nA,\"first line\nsecond line\"\n", ',', 0)
		require.Len(t, rows, 1)
		assert.Equal(t, "first line\nsecond line", rows[0]["note"])
	})

	t.Run("doubled quote is a literal quote", func(t *testing.T) {
		rows := ParseDelimited("name,note\nA,\"say \"\"hello\"\"\"\n", ',', 0)
		require.Len(t, rows, 1)
		assert.Equal(t, `say "hello"`, rows[0]["note"])
	})
}

func TestParseDelimited_LineEndings(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"LF", "h1,h2\na,b\nc,d\n"},
		{"CRLF", "h1,h2\r\na,b\r\nc,d\r\n"},
		{"CR", "h1,h2\ra,b\rc,d\r"},
		{"no trailing newline", "h1,h2\na,b\nc,d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := ParseDelimited(tt.text, ',', 0)
			require.Len(t, rows, 2)
			assert.Equal(t, "a", rows[0]["h1"])
			assert.Equal(t, "d", rows[1]["h2"])
		})
	}
}

func TestParseDelimited_BlankRowsDropped(t *testing.T) {
	rows := ParseDelimited("h1,h2\n\n , \na,b\n,,\n", ',', 0)

	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0]["h1"])
}

func TestParseDelimited_SkipRows(t *testing.T) {
	text := "공공데이터 목록\n2026-01-01 기준\nname,addr\nA,서울\n"

	rows := ParseDelimited(text, ',', 2)

	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0]["name"])
}

func TestParseDelimited_RaggedRows(t *testing.T) {
	rows := ParseDelimited("h1,h2,h3\na,b\nx,y,z,extra\n", ',', 0)

	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0]["h3"], "short rows pad with empty string")
	assert.Equal(t, "z", rows[1]["h3"], "long rows truncate extras")
}

func TestParseDelimited_TabDelimiter(t *testing.T) {
	rows := ParseDelimited("h1\th2\na\tb\n", '\t', 0)

	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0]["h2"])
}

func TestParseDelimited_Degenerate(t *testing.T) {
	assert.Nil(t, ParseDelimited("", ',', 0))
	assert.Nil(t, ParseDelimited("only,a,header\n", ',', 0))
	assert.Nil(t, ParseDelimited("h1,h2\na,b\n", ',', 10), "skip past end")
}
