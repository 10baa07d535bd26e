package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/outreach-cli/internal/model"
)

func sampleCandidate(url string, isOpp bool) model.OpportunityCandidate {
	return model.OpportunityCandidate{
		SearchResult: model.SearchResult{
			URL:           url,
			Title:         "Write For Us",
			Snippet:       "Guest post guidelines for contributors.",
			Backend:       model.BackendExa,
			OriginalQuery: `"write for us" seo`,
		},
		RelevanceScore:      0.85,
		ContentQualityScore: 0.6,
		AuthorityScore:      0.5,
		SpamRiskScore:       0.1,
		Confidence:          model.ConfidenceHigh,
		IsOpportunity:       isOpp,
		ContactEmail:        "editor@example.com",
	}
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "opportunities.xlsx")
	candidates := []model.OpportunityCandidate{
		sampleCandidate("https://www.example.com/write-for-us", true),
		sampleCandidate("https://blog.example.org/contribute", false),
	}

	require.NoError(t, WriteXLSX(path, candidates))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Opportunities", sheet.Name)
	require.Len(t, sheet.Rows, 3, "header plus one row per candidate")

	header := sheet.Rows[0]
	assert.Equal(t, "URL", header.Cells[0].Value)
	assert.Equal(t, "Contact Email", header.Cells[11].Value)

	first := sheet.Rows[1]
	assert.Equal(t, "https://www.example.com/write-for-us", first.Cells[0].Value)
	assert.Equal(t, "example.com", first.Cells[1].Value, "domain column strips www")
	assert.Equal(t, "exa", first.Cells[3].Value)
	assert.Equal(t, "high", first.Cells[9].Value)
	assert.Equal(t, "editor@example.com", first.Cells[11].Value)

	rel, err := first.Cells[5].Float()
	require.NoError(t, err)
	assert.InDelta(t, 0.85, rel, 1e-9)
}

func TestWriteXLSX_Empty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteXLSX(path, nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets[0].Rows, 1, "header only")
}

func TestWriteXLSX_BadPath(t *testing.T) {
	t.Parallel()
	err := WriteXLSX(filepath.Join(t.TempDir(), "missing", "deep", "report.xlsx"), nil)
	assert.Error(t, err)
}
