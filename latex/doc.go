// Package latex provides LaTeX normalization and structural analysis
// for mathematical expressions.
//
// Normalization rewrites a raw LaTeX string into a canonical form:
// notation aliases resolve to a single spelling, presentation-only
// decorations are stripped, and whitespace is removed. The canonical
// form feeds three downstream consumers:
//   - structural fingerprints (hash bucket recall)
//   - symbol path extraction (path inverted index)
//   - embedding input (semantic ranking)
//
// The package also reduces MathML documents to tag skeletons, which
// capture formula topology independent of symbol choice.
package latex
