package seedfile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgdeclare/internal/seedfile"
)

func TestLoadReadsAllRowsInOrder(t *testing.T) {
	t.Parallel()

	rows, err := seedfile.Load("testdata", "widgets.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "widget-one", "42"}, rows[0])
	assert.Equal(t, []string{"2", "widget-two", "7"}, rows[1])
}

func TestLoadResolvesRelativeToBaseDir(t *testing.T) {
	t.Parallel()

	rows, err := seedfile.Load(".", "testdata/widgets.csv")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestLoadMissingFileErrors(t *testing.T) {
	t.Parallel()

	_, err := seedfile.Load("testdata", "missing.csv")
	assert.Error(t, err)
}
