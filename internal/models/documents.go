package models

// CTIM document shapes produced by the enrichment flow. Field names follow
// the CTIM JSON convention (snake_case), hence the explicit tags.

const SchemaVersion = "1.0.17"

// ObservedTime is a CTIM time range. EndTime is set only for point-in-time
// events, where it equals StartTime.
type ObservedTime struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
}

// Observable is a typed value submitted for enrichment, e.g.
// {"type": "email", "value": "user@example.com"}.
type Observable struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ObservableRelation links the sighted observable to a related one,
// e.g. an email leaked from a domain.
type ObservableRelation struct {
	Origin    string     `json:"origin"`
	OriginURI string     `json:"origin_uri"`
	Relation  string     `json:"relation"`
	Source    Observable `json:"source"`
	Related   Observable `json:"related"`
}

type Target struct {
	Observables  []Observable `json:"observables"`
	ObservedTime ObservedTime `json:"observed_time"`
	Type         string       `json:"type"`
}

// Indicator describes a breach event in the abstract, reusable across
// sightings of different observables.
type Indicator struct {
	ID               string       `json:"id"`
	Type             string       `json:"type"`
	SchemaVersion    string       `json:"schema_version"`
	Producer         string       `json:"producer"`
	Source           string       `json:"source"`
	SourceURI        string       `json:"source_uri"`
	TLP              string       `json:"tlp"`
	ValidTime        ObservedTime `json:"valid_time"`
	Confidence       string       `json:"confidence"`
	Severity         string       `json:"severity"`
	Description      string       `json:"description"`
	ShortDescription string       `json:"short_description"`
	Tags             []string     `json:"tags"`
	Title            string       `json:"title"`
}

// Sighting asserts that a specific observable was seen in a specific breach.
// Relations is omitted entirely (not emitted as an empty list) when the
// breach has no source domain; consumers distinguish the two.
type Sighting struct {
	ID            string               `json:"id"`
	Type          string               `json:"type"`
	SchemaVersion string               `json:"schema_version"`
	Source        string               `json:"source"`
	SourceURI     string               `json:"source_uri"`
	Title         string               `json:"title"`
	Internal      bool                 `json:"internal"`
	Count         int                  `json:"count"`
	Confidence    string               `json:"confidence"`
	Severity      string               `json:"severity"`
	ObservedTime  ObservedTime         `json:"observed_time"`
	Description   string               `json:"description"`
	Observables   []Observable         `json:"observables"`
	Relations     []ObservableRelation `json:"relations,omitempty"`
	Targets       []Target             `json:"targets"`
}

// Relationship is a directed "sighting-of" link from a Sighting to the
// Indicator it evidences.
type Relationship struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	SchemaVersion    string `json:"schema_version"`
	RelationshipType string `json:"relationship_type"`
	SourceRef        string `json:"source_ref"`
	TargetRef        string `json:"target_ref"`
}

// Reference is a clickable deep link into the upstream UI, returned by the
// refer capability without any upstream call.
type Reference struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Categories  []string `json:"categories"`
}
