package domain

// Analyzer bundles the text components built from one Lexicon. Adapters and
// the merge engine share a single Analyzer per run.
type Analyzer struct {
	Lexicon    *Lexicon
	Classifier *Classifier
	Resolver   *LocationResolver
	Estimator  *FatalityEstimator
}

// NewAnalyzer builds every component over lex.
func NewAnalyzer(lex *Lexicon) *Analyzer {
	return &Analyzer{
		Lexicon:    lex,
		Classifier: NewClassifier(lex),
		Resolver:   NewLocationResolver(lex),
		Estimator:  NewFatalityEstimator(lex),
	}
}

// NewsCandidate builds an unverified incident from a news article. Location
// is resolved from locationText, fatalities are estimated from fatalityText
// and the construction flag is read from constructionText.
func (a *Analyzer) NewsCandidate(c NewsArticle) Incident {
	inc := Incident{
		ID:                  IncidentID(c.URL, c.Title),
		Title:               c.Title,
		URL:                 c.URL,
		Source:              c.Source,
		PublishedAt:         c.PublishedAt,
		Summary:             c.Summary,
		ConstructionRelated: a.Classifier.IsConstructionRelated(c.ConstructionText),
		SuspectedFatalities: a.Estimator.Estimate(c.FatalityText),
		SourceType:          c.SourceType,
		VerificationStatus:  StatusUnverified,
	}
	inc.SetLocation(a.Resolver.Resolve(c.LocationText))
	return inc
}

// NewsArticle is the adapter-neutral shape of a news item. Each adapter fills
// the text fields from the parts of its source that the corresponding check
// should see.
type NewsArticle struct {
	Title       string
	URL         string
	Source      string
	PublishedAt string
	Summary     string
	SourceType  SourceType

	LocationText     string
	FatalityText     string
	ConstructionText string
}
