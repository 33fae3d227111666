package latex

import (
	"regexp"
	"strings"
)

// DefaultPathLength is the n-gram window used for symbol paths.
const DefaultPathLength = 2

// tokenPattern splits normalized LaTeX into commands (\sum), braces,
// single alphanumerics, and operator characters.
var tokenPattern = regexp.MustCompile(`\\[a-zA-Z]+|[{}]|[0-9a-zA-Z]|[\+\-\*/=\(\)_\^]`)

// Tokenize splits a normalized LaTeX string into structural tokens.
// Whitespace is not a token and is skipped by the pattern itself; deleting
// it up front would fuse a command with a following variable (\infty e
// would scan as the unknown command \inftye).
func Tokenize(norm string) []string {
	if norm == "" {
		return nil
	}
	return tokenPattern.FindAllString(norm, -1)
}

// Paths extracts overlapping n-gram symbol paths from a token stream.
// A path of length 2 over [\frac { 1] yields "\frac->{" and "{->1".
func Paths(tokens []string, length int) []string {
	if length < 1 {
		length = DefaultPathLength
	}
	if len(tokens) < length {
		return nil
	}
	paths := make([]string, 0, len(tokens)-length+1)
	for i := 0; i+length <= len(tokens); i++ {
		paths = append(paths, strings.Join(tokens[i:i+length], "->"))
	}
	return paths
}

// PathCounts tokenizes a normalized LaTeX string and tallies the term
// frequencies of its symbol paths.
func PathCounts(norm string, length int) map[string]int {
	paths := Paths(Tokenize(norm), length)
	if len(paths) == 0 {
		return nil
	}
	counts := make(map[string]int, len(paths))
	for _, p := range paths {
		counts[p]++
	}
	return counts
}
