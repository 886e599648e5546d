package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cellValues(c Column) []string {
	out := make([]string, len(c.Values))
	for i, v := range c.Values {
		if v == nil {
			out[i] = "<nil>"
		} else {
			out[i] = *v
		}
	}
	return out
}

func TestLoadReader_Basic(t *testing.T) {
	input := "id,name,score\n1,alice,3.5\n2,bob,4\n"

	ds, err := LoadReader(context.Background(), strings.NewReader(input), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "score"}, ds.Names())
	assert.Equal(t, 2, ds.Rows)
	assert.Equal(t, []string{"1", "2"}, cellValues(ds.Columns[0]))
	assert.Equal(t, []string{"alice", "bob"}, cellValues(ds.Columns[1]))
	assert.Equal(t, []string{"3.5", "4"}, cellValues(ds.Columns[2]))
}

func TestLoadReader_NATokens(t *testing.T) {
	input := "a\nNot Available\nN/A\nNA\nNaN\n\"\"\n  NA  \nna\nvalue\n"

	ds, err := LoadReader(context.Background(), strings.NewReader(input), DefaultOptions())
	require.NoError(t, err)

	col := ds.Columns[0]
	assert.Equal(t, []string{"<nil>", "<nil>", "<nil>", "<nil>", "<nil>", "<nil>", "na", "value"}, cellValues(col))
	assert.Equal(t, 2, col.NonNullCount())
}

func TestLoadReader_CustomNATokens(t *testing.T) {
	opts := Options{NATokens: []string{"-"}}

	ds, err := LoadReader(context.Background(), strings.NewReader("a\n-\nNA\n"), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"<nil>", "NA"}, cellValues(ds.Columns[0]))
}

func TestLoadReader_Delimiter(t *testing.T) {
	opts := Options{Delimiter: ';'}

	ds, err := LoadReader(context.Background(), strings.NewReader("a;b\n1;2\n"), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, ds.Names())
}

func TestLoadReader_ShortRowsPadded(t *testing.T) {
	ds, err := LoadReader(context.Background(), strings.NewReader("a,b,c\n1\n1,2,3\n"), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"<nil>", "3"}, cellValues(ds.Columns[2]))
	for _, c := range ds.Columns {
		assert.Len(t, c.Values, ds.Rows)
	}
}

func TestLoadReader_LongRowFails(t *testing.T) {
	_, err := LoadReader(context.Background(), strings.NewReader("a,b\n1,2\n1,2,3\n"), DefaultOptions())
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 3, le.Line)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadReader_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "\n\n"} {
		_, err := LoadReader(context.Background(), strings.NewReader(input), DefaultOptions())
		assert.ErrorIs(t, err, ErrEmptyFile)
		assert.ErrorIs(t, err, ErrLoad)
	}
}

func TestLoadReader_HeaderOnly(t *testing.T) {
	ds, err := LoadReader(context.Background(), strings.NewReader("a,b\n"), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, ds.Rows)
	assert.Equal(t, []string{"a", "b"}, ds.Names())
}

func TestLoadReader_DuplicateAndBlankHeaders(t *testing.T) {
	ds, err := LoadReader(context.Background(), strings.NewReader("x,x,,x.1,x\n1,2,3,4,5\n"), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "x.1", "Unnamed: 2", "x.1.1", "x.2"}, ds.Names())
}

func TestLoadReader_BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name\nvalue\n")...)

	ds, err := LoadReader(context.Background(), strings.NewReader(string(input)), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"name"}, ds.Names())
}

func TestLoadReader_InvalidUTF8(t *testing.T) {
	input := []byte("name\nok\nbad\xff\n")

	_, err := LoadReader(context.Background(), strings.NewReader(string(input)), DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadReader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadReader(ctx, strings.NewReader("a\n1\n"), DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,x\n2,y\n"), 0o600))

	ds, err := Load(context.Background(), path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Rows)
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")

	_, err := Load(context.Background(), path, DefaultOptions())
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, path, le.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_PathOnParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1,2\n"), 0o600))

	_, err := Load(context.Background(), path, DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "line 2")
}

func TestColumnCounts(t *testing.T) {
	a, b := "a", "b"
	col := Column{Name: "c", Values: []Cell{&a, nil, &b, &a, nil}}

	assert.Equal(t, 3, col.NonNullCount())
	assert.Equal(t, 2, col.UniqueCount())
}
