package domain

import "time"

// PageStatus is the lifecycle state of an ingested page.
type PageStatus string

// Page lifecycle states. Status advances forward only, except ERROR which
// absorbs from any state and is exited only by a fresh ingestion attempt.
const (
	PageStatusPending  PageStatus = "PENDING"
	PageStatusParsed   PageStatus = "PARSED"
	PageStatusEmbedded PageStatus = "EMBEDDED"
	PageStatusError    PageStatus = "ERROR"
)

// CanTransition reports whether the lifecycle allows moving from s to next.
// Allowed: PENDING->PARSED, PARSED->EMBEDDED, any->ERROR, ERROR->PENDING.
// ERROR->PENDING happens only when a page is re-ingested from scratch.
func (s PageStatus) CanTransition(next PageStatus) bool {
	if next == PageStatusError {
		return true
	}
	switch s {
	case PageStatusPending:
		return next == PageStatusParsed
	case PageStatusParsed:
		return next == PageStatusEmbedded
	case PageStatusError:
		return next == PageStatusPending
	default:
		return false
	}
}

// Page represents an incident postmortem document tracked through the
// ingestion pipeline. PageID is the source's stable identifier.
type Page struct {
	// PageID is the document source's stable page identifier.
	PageID string

	// SpaceKey identifies the source space the page belongs to.
	SpaceKey string

	// Title is the page title as reported by the source.
	Title string

	// URL is the canonical page URL.
	URL string

	// Tags are the source labels attached to the page.
	Tags []string

	// LastModified is the source-reported last modification time.
	LastModified time.Time

	// IngestedAt is when the page record was (re)created.
	IngestedAt time.Time

	// ParsedAt is when section extraction last succeeded.
	ParsedAt time.Time

	// EmbeddedAt is when chunk embedding last succeeded.
	EmbeddedAt time.Time

	// Status is the current lifecycle state.
	Status PageStatus

	// ErrorMessage holds the failure message when Status is ERROR.
	ErrorMessage string
}

// ParsedRCA holds the structured sections extracted from one page.
// It is replaced wholesale on every re-parse.
type ParsedRCA struct {
	// PageID links to the owning Page.
	PageID string

	// Symptoms is the concatenation of all symptom-like sections.
	Symptoms string

	// RootCause is the first root-cause-like section.
	RootCause string

	// Resolution is the first resolution-like section.
	Resolution string

	// IncidentDate is the first ISO date found in the page text, if any.
	IncidentDate *time.Time
}

// PageContent is a raw page as fetched from the document source,
// before parsing.
type PageContent struct {
	// ID is the source page identifier.
	ID string

	// SpaceKey identifies the containing space.
	SpaceKey string

	// Title is the page title.
	Title string

	// URL is the canonical page URL.
	URL string

	// Body is the raw markup (storage format / HTML).
	Body string

	// LastModified is the source-reported modification time.
	LastModified time.Time

	// Labels are the page's tags.
	Labels []string
}

// HasAnyTag reports whether the page carries at least one of the given tags.
// An empty tag list matches everything.
func (p PageContent) HasAnyTag(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		for _, have := range p.Labels {
			if have == want {
				return true
			}
		}
	}
	return false
}
