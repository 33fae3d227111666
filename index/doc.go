// Package index implements structural candidate recall over the formula
// store. Recall runs a cascade of stages: exact fingerprint lookup,
// MathML skeleton lookup, TF-IDF scoring against the path inverted index,
// and a fuzzy fingerprint scan that tolerates small Hamming distances.
// Each stage only contributes formulas the previous stages missed, so the
// output preserves precision ordering while widening coverage.
package index
