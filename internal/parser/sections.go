// Package parser extracts structured RCA sections from raw postmortem markup.
// It is a heuristic structural parser: pages are segmented into a
// heading-delimited outline and sections are recognised by keyword patterns
// in the heading text.
package parser

import (
	"html"
	"regexp"
	"strings"
	"time"
)

// Section-specific heading patterns, matched case-insensitively against the
// heading's plain text.
var (
	symptomsPattern   = regexp.MustCompile(`(?i)(symptoms|impact|alerts? fired|user reports?|what happened|incident description)`)
	rootCausePattern  = regexp.MustCompile(`(?i)(root cause|technical fault|why|the fix|resolution|what was the problem)`)
	resolutionPattern = regexp.MustCompile(`(?i)(resolution|fix|solution|action taken|remediation)`)

	isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// Pre-compiled regular expressions for markup handling.
var (
	headingTag        = regexp.MustCompile(`(?is)<h[1-6][^>]*>(.*?)</h[1-6]\s*>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags            = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	multiSpaces       = regexp.MustCompile(`[ \t]+`)
	multiNewlines     = regexp.MustCompile(`\n{2,}`)
)

// Extraction is the result of parsing one page.
type Extraction struct {
	// Symptoms is the newline-joined text of every symptom-like section.
	Symptoms string

	// RootCause is the text of the first root-cause-like section.
	RootCause string

	// Resolution is the text of the first resolution-like section.
	Resolution string

	// IncidentDate is the first ISO date found in the title or page text.
	IncidentDate *time.Time
}

// section is one heading plus the plain text of the blocks under it.
type section struct {
	heading string
	body    string
}

// Extract parses raw page markup into RCA sections.
//
// The page is cut into a heading-delimited outline (any heading level); a
// section's body is the plain text of everything between its heading and the
// next heading of any level. All symptom matches are collected and joined
// with newlines; root cause and resolution take the first match in document
// order. When neither symptoms nor root cause is found, the full cleaned
// page text is substituted as symptoms so the page always has embeddable
// content. The title participates only in the incident-date scan:
// postmortem titles conventionally start with the incident date, so it is
// searched before the body.
func Extract(title, markup string) Extraction {
	sections := outline(markup)

	var symptoms []string
	var rootCause, resolution string
	var rootCauseFound, resolutionFound bool

	for _, sec := range sections {
		if sec.body != "" && symptomsPattern.MatchString(sec.heading) {
			symptoms = append(symptoms, sec.body)
		}
		if !rootCauseFound && rootCausePattern.MatchString(sec.heading) {
			rootCause = sec.body
			rootCauseFound = true
		}
		if !resolutionFound && resolutionPattern.MatchString(sec.heading) {
			resolution = sec.body
			resolutionFound = true
		}
	}

	ext := Extraction{
		Symptoms:     strings.Join(symptoms, "\n"),
		RootCause:    rootCause,
		Resolution:   resolution,
		IncidentDate: extractIncidentDate(title + "\n" + CleanText(markup)),
	}

	if ext.Symptoms == "" && ext.RootCause == "" {
		ext.Symptoms = CleanText(markup)
	}

	return ext
}

// outline segments markup into heading-delimited sections.
func outline(markup string) []section {
	matches := headingTag.FindAllStringSubmatchIndex(markup, -1)
	sections := make([]section, 0, len(matches))

	for i, m := range matches {
		heading := strings.TrimSpace(CleanText(markup[m[2]:m[3]]))

		bodyStart := m[1]
		bodyEnd := len(markup)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}

		sections = append(sections, section{
			heading: heading,
			body:    CleanText(markup[bodyStart:bodyEnd]),
		})
	}

	return sections
}

// extractIncidentDate opportunistically recovers a date from the page text.
// Absent or unparseable dates yield nil, never an error.
func extractIncidentDate(text string) *time.Time {
	match := isoDatePattern.FindString(text)
	if match == "" {
		return nil
	}
	date, err := time.Parse("2006-01-02", match)
	if err != nil {
		return nil
	}
	return &date
}

// CleanText strips markup down to readable plain text: scripts, styles and
// comments are dropped, block elements become newlines, entities are
// decoded, and whitespace is collapsed.
func CleanText(markup string) string {
	content := scriptTag.ReplaceAllString(markup, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	content = openBlockElements.ReplaceAllString(content, "\n")
	content = blockElements.ReplaceAllString(content, "\n")
	content = brTags.ReplaceAllString(content, "\n")
	content = hrTags.ReplaceAllString(content, "\n")

	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	content = multiSpaces.ReplaceAllString(content, " ")

	// Trim trailing spaces per line before collapsing blank runs.
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	content = strings.Join(lines, "\n")
	content = multiNewlines.ReplaceAllString(content, "\n")

	return strings.TrimSpace(content)
}
