package respond

import (
	"regexp"
	"strings"
)

// Outbound messages must not identify internals. These patterns strip
// filesystem paths, "line N" references, source-file fragments, and raw
// memory addresses from anything we send to a client. Server-side logs keep
// the untouched message.
var sanitizePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:[A-Za-z]:)?(?:/[\w.\-]+){2,}/?`), // filesystem paths
	regexp.MustCompile(`\bline \d+\b`),
	regexp.MustCompile(`\b[\w\-]+(?:/[\w\-]+)*\.go(?::\d+)?\b`), // source file references
	regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`),                    // memory addresses
}

var collapseSpaces = regexp.MustCompile(`\s{2,}`)

// Sanitize strips internal detail from an outbound message.
func Sanitize(msg string) string {
	for _, re := range sanitizePatterns {
		msg = re.ReplaceAllString(msg, "")
	}
	msg = collapseSpaces.ReplaceAllString(msg, " ")
	return strings.TrimSpace(msg)
}

// sanitizeFieldPath drops the synthetic "body" root segment from a
// validation field path.
func sanitizeFieldPath(field string) string {
	if field == "body" {
		return field
	}
	return strings.TrimPrefix(field, "body.")
}
