package domain

// SourceType tags where an incident came from.
type SourceType string

const (
	SourceNews          SourceType = "news"
	SourceNewsArchive   SourceType = "news_archive"
	SourceSitemap       SourceType = "news_archive_wdtv"
	SourceOfficialWV511 SourceType = "official_wv511"
	SourceManual        SourceType = "manual"
)

// VerificationStatus records how much an incident's facts can be trusted.
type VerificationStatus string

const (
	StatusUnverified VerificationStatus = "unverified"
	StatusOfficial   VerificationStatus = "official"
	StatusVerified   VerificationStatus = "verified"
)

// UnspecifiedLocation is the location text used when no place is recognized.
const UnspecifiedLocation = "Unspecified stretch"

// Incident is one normalized record describing a reported crash or delay.
type Incident struct {
	ID                  string             `json:"id"`
	Title               string             `json:"title"`
	URL                 string             `json:"url"`
	Source              string             `json:"source"`
	PublishedAt         string             `json:"published_at"`
	Summary             string             `json:"summary"`
	LocationText        string             `json:"location_text"`
	Lat                 *float64           `json:"lat"`
	Lon                 *float64           `json:"lon"`
	ConstructionRelated bool               `json:"construction_related"`
	SuspectedFatalities int                `json:"suspected_fatalities"`
	SourceType          SourceType         `json:"source_type"`
	VerificationStatus  VerificationStatus `json:"verification_status"`
	VerifiedFatalities  *int               `json:"verified_fatalities"`
	Notes               string             `json:"notes"`
}

// EffectiveFatalities returns the verified count when a human has supplied one,
// otherwise the heuristic estimate.
func (i Incident) EffectiveFatalities() int {
	if i.VerifiedFatalities != nil {
		return *i.VerifiedFatalities
	}
	return i.SuspectedFatalities
}

// IsVerified reports whether the incident comes from an official source or
// has been confirmed by hand.
func (i Incident) IsVerified() bool {
	return i.VerificationStatus == StatusOfficial || i.VerificationStatus == StatusVerified
}

// SetLocation copies a resolved location onto the incident.
func (i *Incident) SetLocation(loc Location) {
	i.LocationText = loc.Name
	i.Lat, i.Lon = loc.Coordinates()
}

// Summary holds aggregate statistics for a dataset.
type Summary struct {
	GeneratedAt              string `json:"generated_at"`
	IncidentCount            int    `json:"incident_count"`
	SuspectedFatalities      int    `json:"suspected_fatalities"`
	ConstructionRelatedCount int    `json:"construction_related_count"`
	OfficialSourceCount      int    `json:"official_source_count"`
	VerifiedCount            int    `json:"verified_count"`
}

// Dataset is the published document: summary plus incidents, newest first.
type Dataset struct {
	Summary   Summary    `json:"summary"`
	Incidents []Incident `json:"incidents"`
}

// OverridePayload is the manual corrections document. IncidentOverrides maps
// an incident ID to a partial field patch; ManualIncidents are hand-entered
// records. Values are left loosely typed because the document is edited by
// hand and each field is coerced when applied.
type OverridePayload struct {
	IncidentOverrides map[string]map[string]any `json:"incident_overrides"`
	ManualIncidents   []map[string]any          `json:"manual_incidents"`
}

// EmptyOverrides returns a payload with no patches and no manual incidents.
func EmptyOverrides() OverridePayload {
	return OverridePayload{
		IncidentOverrides: map[string]map[string]any{},
		ManualIncidents:   []map[string]any{},
	}
}
