package writers

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
)

func TestXLSXWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, NewXLSXWriter(&buf).Write(annotatedReport(language.English)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Findings", "Pages", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Findings")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Columns(), rows[0])
	assert.Equal(t, "xss_reflected", rows[2][0])
	assert.Equal(t, "high", rows[2][1])

	pages, err := f.GetRows("Pages")
	require.NoError(t, err)
	assert.Len(t, pages, 3)

	target, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/", target)
}
