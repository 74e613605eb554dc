package serialline

import "regexp"

// Pattern is a text predicate applied to inbound lines. Matching is by
// containment: a pattern satisfied anywhere within a line matches it, and
// anchoring is left to the expression itself. A global pattern reports every
// non-overlapping occurrence left to right; a single-match pattern reports
// at most one occurrence per line.
type Pattern struct {
	re     *regexp.Regexp
	global bool
}

// NewPattern wraps a compiled regular expression as a single-match pattern.
func NewPattern(re *regexp.Regexp) *Pattern {
	return &Pattern{re: re}
}

// NewGlobalPattern wraps a compiled regular expression as a global pattern.
func NewGlobalPattern(re *regexp.Regexp) *Pattern {
	return &Pattern{re: re, global: true}
}

// CompilePattern compiles expr into a single-match pattern.
func CompilePattern(expr string) (*Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Pattern{re: re}, nil
}

// MustPattern is like CompilePattern but panics on a bad expression.
func MustPattern(expr string) *Pattern {
	return &Pattern{re: regexp.MustCompile(expr)}
}

// Literal returns a single-match pattern matching s verbatim.
func Literal(s string) *Pattern {
	return &Pattern{re: regexp.MustCompile(regexp.QuoteMeta(s))}
}

// Global returns whether the pattern reports repeated occurrences.
func (p *Pattern) Global() bool { return p.global }

// Match reports whether line contains at least one occurrence of p.
func (p *Pattern) Match(line string) bool {
	return p.re.MatchString(line)
}

// Occurrences returns the matched text for each reported occurrence of p in
// line: every non-overlapping occurrence for a global pattern, at most the
// first occurrence otherwise.
func (p *Pattern) Occurrences(line string) []string {
	if p.global {
		return p.re.FindAllString(line, -1)
	}
	loc := p.re.FindStringIndex(line)
	if loc == nil {
		return nil
	}
	return []string{line[loc[0]:loc[1]]}
}

func (p *Pattern) String() string { return p.re.String() }
