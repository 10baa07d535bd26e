package export

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/notion"
)

// NotionExporter upserts opportunities into a Notion database keyed by URL.
type NotionExporter struct {
	client notion.Client
	dbID   string
	retry  resilience.RetryConfig
}

// NewNotionExporter creates an exporter targeting the given database.
func NewNotionExporter(client notion.Client, dbID string) *NotionExporter {
	return &NotionExporter{
		client: client,
		dbID:   dbID,
		retry:  resilience.DefaultRetryConfig(),
	}
}

// Export writes each candidate as a page, updating pages that already exist
// for the same URL. Returns the number of pages created.
func (e *NotionExporter) Export(ctx context.Context, candidates []model.OpportunityCandidate) (int, error) {
	created := 0
	for _, c := range candidates {
		existing, err := notion.FindPageByURL(ctx, e.client, e.dbID, c.URL)
		if err != nil {
			return created, eris.Wrapf(err, "export: look up %s", c.URL)
		}

		props := e.pageProperties(c)
		if existing != nil {
			err = resilience.Retry(ctx, e.retry, "notion update", func(ctx context.Context) error {
				_, uerr := e.client.UpdatePage(ctx, string(existing.ID), &notionapi.PageUpdateRequest{
					Properties: props,
				})
				return uerr
			})
			if err != nil {
				return created, eris.Wrapf(err, "export: update page for %s", c.URL)
			}
			continue
		}

		err = resilience.Retry(ctx, e.retry, "notion create", func(ctx context.Context) error {
			_, cerr := e.client.CreatePage(ctx, &notionapi.PageCreateRequest{
				Parent: notionapi.Parent{
					Type:       notionapi.ParentTypeDatabaseID,
					DatabaseID: notionapi.DatabaseID(e.dbID),
				},
				Properties: props,
			})
			return cerr
		})
		if err != nil {
			return created, eris.Wrapf(err, "export: create page for %s", c.URL)
		}
		created++
	}

	zap.L().Info("export: notion sync complete",
		zap.Int("total", len(candidates)),
		zap.Int("created", created),
	)
	return created, nil
}

func (e *NotionExporter) pageProperties(c model.OpportunityCandidate) notionapi.Properties {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: c.Title}}},
		},
		"URL": notionapi.URLProperty{URL: c.URL},
		"Relevance": notionapi.NumberProperty{
			Number: c.RelevanceScore,
		},
		"Authority": notionapi.NumberProperty{
			Number: c.AuthorityScore,
		},
		"Confidence": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(c.Confidence)},
		},
		"Backend": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(c.Backend)},
		},
	}
	if c.ContactEmail != "" {
		props["Contact Email"] = notionapi.EmailProperty{Email: c.ContactEmail}
	}
	return props
}
