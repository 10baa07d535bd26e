// Package export writes discovered opportunities to outside systems:
// an XLSX report for manual review, a Notion database for the outreach
// team, and Salesforce Leads for the sales pipeline.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/process"
)

var xlsxHeader = []string{
	"URL", "Domain", "Title", "Backend", "Query",
	"Relevance", "Quality", "Authority", "Spam Risk",
	"Confidence", "Opportunity", "Contact Email",
}

// WriteXLSX writes candidates to an XLSX workbook at path. Candidates are
// written in the order given; callers sort beforehand.
func WriteXLSX(path string, candidates []model.OpportunityCandidate) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Opportunities")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range xlsxHeader {
		header.AddCell().Value = h
	}

	for _, c := range candidates {
		row := sheet.AddRow()
		row.AddCell().Value = c.URL
		row.AddCell().Value = process.Domain(c.URL)
		row.AddCell().Value = c.Title
		row.AddCell().Value = string(c.Backend)
		row.AddCell().Value = c.OriginalQuery
		row.AddCell().SetFloatWithFormat(c.RelevanceScore, "0.00")
		row.AddCell().SetFloatWithFormat(c.ContentQualityScore, "0.00")
		row.AddCell().SetFloatWithFormat(c.AuthorityScore, "0.00")
		row.AddCell().SetFloatWithFormat(c.SpamRiskScore, "0.00")
		row.AddCell().Value = string(c.Confidence)
		row.AddCell().SetBool(c.IsOpportunity)
		row.AddCell().Value = c.ContactEmail
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}

	zap.L().Info("export: wrote xlsx report",
		zap.String("path", path),
		zap.Int("rows", len(candidates)),
	)
	return nil
}
