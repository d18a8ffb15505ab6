package enrich

import (
	"fmt"

	"github.com/breachwatch/hibp-relay/internal/models"
)

// Bundle accumulates documents produced across all processed emails.
// Append order is processing order and is preserved verbatim in the
// rendered response, which callers observe.
type Bundle struct {
	indicators    []models.Indicator
	sightings     []models.Sighting
	relationships []models.Relationship
}

func NewBundle() *Bundle {
	return &Bundle{}
}

// Add appends a document to the sequence of its kind.
func (b *Bundle) Add(doc any) error {
	switch d := doc.(type) {
	case models.Indicator:
		b.indicators = append(b.indicators, d)
	case models.Sighting:
		b.sightings = append(b.sightings, d)
	case models.Relationship:
		b.relationships = append(b.relationships, d)
	default:
		return fmt.Errorf("unsupported document type %T", doc)
	}
	return nil
}

// FormattedDocs is the rendered per-kind group.
type FormattedDocs struct {
	Count int `json:"count"`
	Docs  any `json:"docs"`
}

// Render groups the accumulated documents by kind. Kinds with zero documents
// are omitted entirely rather than emitted as empty groups; an untouched
// bundle renders as {}.
func (b *Bundle) Render() map[string]FormattedDocs {
	data := make(map[string]FormattedDocs)

	if len(b.indicators) > 0 {
		data["indicators"] = FormattedDocs{Count: len(b.indicators), Docs: b.indicators}
	}
	if len(b.sightings) > 0 {
		data["sightings"] = FormattedDocs{Count: len(b.sightings), Docs: b.sightings}
	}
	if len(b.relationships) > 0 {
		data["relationships"] = FormattedDocs{Count: len(b.relationships), Docs: b.relationships}
	}

	return data
}
