package notionsync

import (
	"github.com/jomei/notionapi"

	"github.com/dvloznov/spendsense/internal/recommend"
)

// RecommendationToNotionProperties converts a stored recommendation to the
// Notion review database's properties. The "Recommendation ID" title
// property is the idempotency key for the sync.
func RecommendationToNotionProperties(rec *recommend.Recommendation) notionapi.Properties {
	props := notionapi.Properties{
		"Recommendation ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: rec.RecommendationID,
					},
				},
			},
		},
	}

	if rec.UserID != "" {
		props["User"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: rec.UserID,
					},
				},
			},
		}
	}

	if rec.Type != "" {
		props["Type"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: rec.Type,
			},
		}
	}

	if rec.Title != "" {
		props["Title"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: rec.Title,
					},
				},
			},
		}
	}

	if rec.Rationale != "" {
		props["Rationale"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: rec.Rationale,
					},
				},
			},
		}
	}

	if rec.DecisionTrace.PersonaMatch != "" {
		props["Persona"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: rec.DecisionTrace.PersonaMatch,
			},
		}
	}

	props["Tone Valid"] = notionapi.CheckboxProperty{
		Checkbox: rec.ToneValid,
	}

	if !rec.ShownAt.IsZero() {
		shown := notionapi.Date(rec.ShownAt)
		props["Shown At"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: &shown,
			},
		}
	}

	return props
}

// extractRecommendationID pulls the Recommendation ID title back out of a
// Notion page; empty when the page has no usable title.
func extractRecommendationID(page notionapi.Page) string {
	prop, ok := page.Properties["Recommendation ID"]
	if !ok {
		return ""
	}
	title, ok := prop.(*notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 {
		return ""
	}
	return title.Title[0].PlainText
}
