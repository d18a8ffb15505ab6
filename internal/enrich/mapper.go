package enrich

import (
	"fmt"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/google/uuid"

	"github.com/breachwatch/hibp-relay/internal/hibp"
	"github.com/breachwatch/hibp-relay/internal/models"
)

const (
	producer         = "Have I Been Pwned"
	indicatorSource  = "Have I Been Pwned Breaches"
	indicatorURI     = "https://haveibeenpwned.com"
	sightingSource   = "Have I Been Pwned"
	sightingTitle    = "Found on Have I Been Pwned"
	relationshipKind = "sighting-of"
	passwordsClass   = "Passwords"
)

// The converter is read-only after construction and safe to share across
// requests. EmDelimiter is pinned to "*" to match the upstream description
// style already seen by consumers.
var htmlToMarkdown = md.NewConverter("", true, &md.Options{EmDelimiter: "*"})

// transientID mints a process-unique document id. The "transient:<type>-"
// prefix is part of the observed contract and kept as is.
func transientID(docType string) string {
	return fmt.Sprintf("transient:%s-%s", docType, uuid.NewString())
}

func confidenceOf(breach hibp.Breach) string {
	if breach.IsVerified {
		return "High"
	}
	return "Medium"
}

func severityOf(breach hibp.Breach) string {
	if breach.IsVerified && containsClass(breach.DataClasses, passwordsClass) {
		return "High"
	}
	return "Medium"
}

func containsClass(classes []string, want string) bool {
	for _, class := range classes {
		if class == want {
			return true
		}
	}
	return false
}

func descriptionOf(breach hibp.Breach) (string, error) {
	markdown, err := htmlToMarkdown.ConvertString(breach.Description)
	if err != nil {
		return "", fmt.Errorf("converting breach description: %w", err)
	}
	return markdown, nil
}

// breachTime converts the date-only BreachDate into an ISO 8601 timestamp at
// midnight UTC. A date that does not parse is an upstream contract violation.
func breachTime(breach hibp.Breach) (string, error) {
	if _, err := time.Parse("2006-01-02", breach.BreachDate); err != nil {
		return "", fmt.Errorf("parsing breach date %q: %w", breach.BreachDate, err)
	}
	return breach.BreachDate + "T00:00:00Z", nil
}

func mapIndicator(breach hibp.Breach) (models.Indicator, error) {
	startTime, err := breachTime(breach)
	if err != nil {
		return models.Indicator{}, err
	}

	description, err := descriptionOf(breach)
	if err != nil {
		return models.Indicator{}, err
	}

	return models.Indicator{
		ID:               transientID("indicator"),
		Type:             "indicator",
		SchemaVersion:    models.SchemaVersion,
		Producer:         producer,
		Source:           indicatorSource,
		SourceURI:        indicatorURI,
		TLP:              "white",
		ValidTime:        models.ObservedTime{StartTime: startTime},
		Confidence:       confidenceOf(breach),
		Severity:         severityOf(breach),
		Description:      description,
		ShortDescription: breach.Title,
		Tags:             breach.DataClasses,
		Title:            breach.Name,
	}, nil
}

// mapSighting builds the sighting for one (email, breach) pair. count is the
// total number of breaches found for the email before any truncation.
func mapSighting(breach hibp.Breach, count int, email, sourceURI string) (models.Sighting, error) {
	startTime, err := breachTime(breach)
	if err != nil {
		return models.Sighting{}, err
	}

	observedTime := models.ObservedTime{StartTime: startTime, EndTime: startTime}
	observables := []models.Observable{{Type: "email", Value: email}}

	sighting := models.Sighting{
		ID:            transientID("sighting"),
		Type:          "sighting",
		SchemaVersion: models.SchemaVersion,
		Source:        sightingSource,
		SourceURI:     sourceURI,
		Title:         sightingTitle,
		Internal:      false,
		Count:         count,
		Confidence:    confidenceOf(breach),
		Severity:      severityOf(breach),
		ObservedTime:  observedTime,
		Description:   fmt.Sprintf("%s present in %s breach.", email, breach.Title),
		Observables:   observables,
		Targets: []models.Target{{
			Observables:  observables,
			ObservedTime: observedTime,
			Type:         "email",
		}},
	}

	if breach.Domain != "" {
		sighting.Relations = []models.ObservableRelation{{
			Origin:    sightingSource,
			OriginURI: sourceURI,
			Relation:  "Leaked_From",
			Source:    models.Observable{Type: "email", Value: email},
			Related:   models.Observable{Type: "domain", Value: breach.Domain},
		}}
	}

	return sighting, nil
}

func mapRelationship(indicator models.Indicator, sighting models.Sighting) (models.Relationship, error) {
	if indicator.ID == "" || sighting.ID == "" {
		return models.Relationship{}, fmt.Errorf("relationship requires mapped documents with ids")
	}

	return models.Relationship{
		ID:               transientID("relationship"),
		Type:             "relationship",
		SchemaVersion:    models.SchemaVersion,
		RelationshipType: relationshipKind,
		SourceRef:        sighting.ID,
		TargetRef:        indicator.ID,
	}, nil
}
