package latex

import (
	"encoding/xml"
	"regexp"
	"strings"
)

// Tags carrying no topological information in a MathML tree.
var skeletonIgnored = map[string]bool{
	"math":           true,
	"semantics":      true,
	"annotation":     true,
	"annotation-xml": true,
	"mstyle":         true,
	"mrow":           true,
	"mtext":          true,
}

var (
	environmentRe = regexp.MustCompile(`\\(begin|end)\{[^}]+\}`)
	alignmentRe   = strings.NewReplacer("&", "", `\\`, "")
)

// StripEnvironments removes environment wrappers and alignment markers
// from a LaTeX string before MathML conversion. Environments such as
// align* change layout, not formula topology.
func StripEnvironments(latexStr string) string {
	s := environmentRe.ReplaceAllString(latexStr, "")
	s = alignmentRe.Replace(s)
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// Skeleton reduces a MathML document to its tag-name skeleton: element
// names in document order, lowercased, comma-joined, with purely
// presentational wrappers filtered out. Returns an empty string when
// the input is empty or not well-formed XML.
func Skeleton(mathml string) string {
	if strings.TrimSpace(mathml) == "" {
		return ""
	}

	dec := xml.NewDecoder(strings.NewReader(mathml))
	// MathML fragments frequently omit entity declarations; don't fail on them.
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var tags []string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		name := strings.ToLower(start.Name.Local)
		if skeletonIgnored[name] {
			continue
		}
		tags = append(tags, name)
	}

	return strings.Join(tags, ",")
}
