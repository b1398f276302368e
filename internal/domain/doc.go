// Package domain models traffic incidents on the I-79 corridor through
// north-central West Virginia.
//
// # Data Sources
//
// Incidents come from four kinds of origin, each with its own adapter under
// internal/adapter:
//
//   - Local news RSS feeds (live, source type "news").
//   - The WBOY WordPress search API, queried per search term over the lookback
//     window (source type "news_archive").
//   - The WDTV sitemap plus per-article Open Graph metadata
//     (source type "news_archive_wdtv").
//   - The WV511 travel delay page, an official but unstructured HTML listing
//     (source type "official_wv511").
//
// Hand-curated records from the manual overrides document use source type
// "manual".
//
// # Text Conventions
//
// All matching is substring based on lower-cased text with no stemming. The
// corridor is recognized by three surface forms: "i-79", "i 79" and
// "interstate 79". Tables live in [Lexicon] and are passed explicitly to each
// component so tests can substitute their own.
//
// Location resolution is two-phase:
//
//	1. County names matched on word boundaries. When several counties appear,
//	   the one whose match starts earliest wins.
//	2. Otherwise the ordered hint table (cities and counties) is scanned and
//	   the first name found anywhere in the text wins.
//
// Nothing matched yields "Unspecified stretch" with nil coordinates.
//
// Fatality estimation is conservative. Counts above 10 are discarded as likely
// mile markers or route numbers, and a fatal clue with no parseable count
// defaults to one fatality.
//
// # WV511 Delay Listing
//
// The delay page has no per-event URL. After markup is stripped, each event is
// a block of lines:
//
//	I-79 Possible Delay
//	Last Updated: 02/15/2025 10:30:00 AM
//	County: Marion County
//	Description: I-79 southbound lane closure near Fairmont due to crash.
//	Comments: Use caution
//
// Blocks for other routes ("I-77 ...") end the current corridor block. See
// [DelayListingParser].
//
// # ID Generation
//
// Incident IDs are the first 12 hex characters of SHA-1("<url>|<title>"). The
// same article yields the same ID on every run, which is what lets manual
// overrides target incidents by ID. Different outlets covering one crash get
// different IDs; no fuzzy matching is attempted. See [IncidentID].
package domain
