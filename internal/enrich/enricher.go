// Package enrich maps HIBP breach records into CTIM documents and assembles
// the per-request response bundle.
package enrich

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/breachwatch/hibp-relay/internal/hibp"
	"github.com/breachwatch/hibp-relay/internal/models"
)

// Fetcher is the upstream breach-lookup collaborator.
type Fetcher interface {
	FetchBreaches(ctx context.Context, key, email string, truncate bool) ([]hibp.Breach, *models.APIError)
}

// Enricher drives the per-email enrichment loop.
type Enricher struct {
	fetcher       Fetcher
	entitiesLimit int
	uiURL         string
}

// New wires an Enricher. entitiesLimit caps the rendered documents per email
// per kind; uiURL is a template with one placeholder for the escaped email.
func New(fetcher Fetcher, entitiesLimit int, uiURL string) *Enricher {
	return &Enricher{
		fetcher:       fetcher,
		entitiesLimit: entitiesLimit,
		uiURL:         uiURL,
	}
}

// Observe enriches every email-type observable and returns the rendered
// bundle. Emails are processed strictly in input order; an upstream error
// aborts the loop and is returned alongside whatever the bundle already
// holds, so callers can still use the partial data.
func (e *Enricher) Observe(ctx context.Context, key string, observables []models.Observable) (map[string]FormattedDocs, *models.APIError) {
	bundle := NewBundle()

	for _, email := range models.Emails(observables) {
		breaches, apiErr := e.fetcher.FetchBreaches(ctx, key, email, false)
		if apiErr != nil {
			return bundle.Render(), apiErr
		}

		// The sighting count reports the full total even when the rendered
		// list is truncated below.
		total := len(breaches)

		// Most recent first. BreachDate is YYYY-MM-DD, so the lexicographic
		// comparison is chronological; the stable sort keeps upstream order
		// among equal dates.
		sort.SliceStable(breaches, func(i, j int) bool {
			return breaches[i].BreachDate > breaches[j].BreachDate
		})

		if len(breaches) > e.entitiesLimit {
			breaches = breaches[:e.entitiesLimit]
		}

		sourceURI := fmt.Sprintf(e.uiURL, url.QueryEscape(email))

		for _, breach := range breaches {
			indicator, err := mapIndicator(breach)
			if err != nil {
				return bundle.Render(), mappingFailure(err)
			}
			sighting, err := mapSighting(breach, total, email, sourceURI)
			if err != nil {
				return bundle.Render(), mappingFailure(err)
			}
			relationship, err := mapRelationship(indicator, sighting)
			if err != nil {
				return bundle.Render(), mappingFailure(err)
			}

			bundle.Add(indicator)
			bundle.Add(sighting)
			bundle.Add(relationship)
		}
	}

	return bundle.Render(), nil
}

// Refer builds one static search link per email observable. No upstream call
// is involved.
func (e *Enricher) Refer(observables []models.Observable) []models.Reference {
	references := make([]models.Reference, 0)

	for _, email := range models.Emails(observables) {
		escaped := url.QueryEscape(email)
		references = append(references, models.Reference{
			ID:          "ref-hibp-search-email-" + escaped,
			Title:       "Search for this email",
			Description: "Check this email status with Have I Been Pwned",
			URL:         fmt.Sprintf(e.uiURL, escaped),
			Categories:  []string{"Search", "Have I Been Pwned"},
		})
	}

	return references
}

// Deliberate returns the empty verdict set: HIBP data does not translate
// into verdicts.
func (e *Enricher) Deliberate() map[string]any {
	return map[string]any{}
}

func mappingFailure(err error) *models.APIError {
	return models.NewAPIError(models.CodeOops, fmt.Sprintf("Something went wrong. %s.", err))
}
