package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func usageDataset() Dataset {
	return Dataset{
		Title:   "Advisor quota usage",
		Headers: []string{"name", "leading_quota", "leading_count"},
		Rows: []map[string]string{
			{"name": "Ada Lovelace", "leading_quota": "2", "leading_count": "1"},
			{"name": "Alan Turing", "leading_quota": "1", "leading_count": "1"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestRenderCSV(t *testing.T) {
	file, err := Render(FormatCSV, usageDataset(), "usage")
	require.NoError(t, err)
	assert.Equal(t, "usage.csv", file.Name)
	assert.Equal(t, "text/csv", file.ContentType)

	records, err := csv.NewReader(bytes.NewReader(file.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"name", "leading_quota", "leading_count"}, records[0])
	assert.Equal(t, []string{"Alan Turing", "1", "1"}, records[2])
}

func TestRenderCSVQuotesFormulaCells(t *testing.T) {
	data := Dataset{
		Headers: []string{"name", "leading_count"},
		Rows: []map[string]string{
			{"name": "=HYPERLINK(\"http://x\")", "leading_count": "-1"},
			{"name": "@Budi", "leading_count": "0"},
			{"name": "Sari"},
		},
	}
	file, err := Render(FormatCSV, data, "usage")
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(file.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"'=HYPERLINK(\"http://x\")", "-1"}, records[1])
	assert.Equal(t, []string{"'@Budi", "0"}, records[2])
	assert.Equal(t, []string{"Sari", ""}, records[3])
}

func TestRenderPDF(t *testing.T) {
	file, err := Render(FormatPDF, usageDataset(), "usage")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestRenderXLSX(t *testing.T) {
	file, err := Render(FormatXLSX, usageDataset(), "usage")
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(file.Body))
	require.NoError(t, err)
	defer book.Close()

	name, err := book.GetCellValue("Advisor quota usage", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", name)
	quota, err := book.GetCellValue("Advisor quota usage", "B3")
	require.NoError(t, err)
	assert.Equal(t, "1", quota)
}

func TestRenderRequiresHeaders(t *testing.T) {
	_, err := Render(FormatCSV, Dataset{}, "empty")
	assert.Error(t, err)
}
