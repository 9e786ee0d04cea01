// Package policy applies outbound data-handling rules before anything
// leaves the process for a third-party service.
package policy

import "regexp"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
	ssnPattern   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
)

// RedactTranscript masks common high-risk PII in transcript text bound for
// the automation endpoint. Card numbers run before phone numbers so long
// digit runs are not misclassified.
func RedactTranscript(input string) (redacted string, changed bool) {
	out := input

	apply := func(p *regexp.Regexp, marker string) {
		next := p.ReplaceAllString(out, marker)
		changed = changed || next != out
		out = next
	}

	apply(emailPattern, "[REDACTED_EMAIL]")
	apply(ssnPattern, "[REDACTED_SSN]")
	apply(cardPattern, "[REDACTED_CARD]")
	apply(phonePattern, "[REDACTED_PHONE]")

	return out, changed
}
