// Copyright 2025 The me-ir Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package latex

import (
	"regexp"
	"strings"
)

// commandAliases maps LaTeX command variants to a canonical spelling.
// Commands are matched as whole tokens so \le never rewrites \leq.
var commandAliases = map[string]string{
	`\Vert`:       `||`,
	`\lbrace`:     `{`,
	`\rbrace`:     `}`,
	`\langle`:     `<`,
	`\rangle`:     `>`,
	`\varepsilon`: `\epsilon`,
	`\vartheta`:   `\theta`,
	`\varkappa`:   `\kappa`,
	`\varpi`:      `\pi`,
	`\varrho`:     `\rho`,
	`\varsigma`:   `\sigma`,
	`\varphi`:     `\phi`,
	`\le`:         `\leq`,
	`\ge`:         `\geq`,
	`\ne`:         `\neq`,
	`\to`:         `\rightarrow`,
	`\gets`:       `\leftarrow`,
	`\land`:       `\wedge`,
	`\lor`:        `\vee`,
	`\lnot`:       `\neg`,
	`\dfrac`:      `\frac`,
	`\tfrac`:      `\frac`,
}

// literalAliases are non-command rewrites resolving heterogeneous
// notation for norms and transposition (\| vs ||, ^H vs ^T).
var literalAliases = [][2]string{
	{`^\dagger`, `^T`},
	{`\|`, `||`},
	{`^H`, `^T`},
	{`^*`, `^T`},
}

// fontCommands are presentation-only decorations stripped during normalization.
var fontCommands = []string{
	`\mathbf`, `\mathrm`, `\mathit`, `\mathsf`, `\mathtt`,
	`\mathbb`, `\mathcal`, `\mathfrak`, `\text`, `\bm`,
}

// decorCommands are sizing and layout commands that carry no structure.
// Matched as whole tokens so \left never chews into \leftarrow.
var decorCommands = map[string]bool{
	`\left`:         true,
	`\right`:        true,
	`\displaystyle`: true,
	`\limits`:       true,
}

var (
	delimPattern     = regexp.MustCompile(`\$\$?|\\\[|\\\]`)
	commandPattern   = regexp.MustCompile(`\\[a-zA-Z]+`)
	matrixBeginRe    = regexp.MustCompile(`\\begin\{(p|b|v|V)matrix\}`)
	matrixEndRe      = regexp.MustCompile(`\\end\{(p|b|v|V)matrix\}`)
	spacePattern     = regexp.MustCompile(`\s+`)
	cmdBoundaryRe    = regexp.MustCompile(`(\\[a-zA-Z]+)\s+([0-9a-zA-Z])`)
	redundantBraceRe = regexp.MustCompile(`\{+([^{}]+)\}+`)
)

// stripSpaces removes whitespace, keeping a single separating space where
// a command is followed by an alphanumeric. Deleting that space would fuse
// \infty e into the unknown command \inftye and change the hash.
func stripSpaces(s string) string {
	s = cmdBoundaryRe.ReplaceAllString(s, "$1\x00$2")
	s = spacePattern.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "\x00", " ")
}

// Normalize cleans a raw LaTeX string into the canonical form used for
// hashing, path extraction and embedding. It removes math delimiters,
// strips font decorations, rewrites symbol aliases to canonical
// spellings, unifies matrix environments, drops sizing decorations and
// whitespace, and collapses redundant brace nesting.
//
// The second return value reports whether any of the enhanced rules
// (aliases, font stripping, matrix unification, brace collapsing)
// changed the string beyond plain delimiter and whitespace removal.
func Normalize(latexStr string) (string, bool) {
	if latexStr == "" {
		return "", false
	}

	s := delimPattern.ReplaceAllString(latexStr, "")
	for _, cmd := range fontCommands {
		s = strings.ReplaceAll(s, cmd, "")
	}
	s = commandPattern.ReplaceAllStringFunc(s, func(cmd string) string {
		if decorCommands[cmd] {
			return ""
		}
		if canonical, ok := commandAliases[cmd]; ok {
			return canonical
		}
		return cmd
	})
	for _, pair := range literalAliases {
		s = strings.ReplaceAll(s, pair[0], pair[1])
	}
	s = matrixBeginRe.ReplaceAllString(s, `\begin{matrix}`)
	s = matrixEndRe.ReplaceAllString(s, `\end{matrix}`)
	s = stripSpaces(strings.TrimSpace(s))
	s = redundantBraceRe.ReplaceAllString(s, `{$1}`)

	// Baseline clean: delimiters and whitespace only. Anything beyond
	// that counts as enhanced normalization.
	base := stripSpaces(strings.TrimSpace(delimPattern.ReplaceAllString(latexStr, "")))

	return s, s != base
}
