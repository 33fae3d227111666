package fcg

import (
	"sort"
	"strings"

	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/latex"
)

// ExtractedConcept is a mathematical concept identified in a formula.
type ExtractedConcept struct {
	// Name is the concept identifier, e.g. "integral", "fraction".
	Name string

	// Type is one of the core.ConceptType constants.
	Type core.ConceptType

	// Weight reflects how strongly the concept characterizes the formula,
	// in (0, 1]. Repeated occurrences raise the weight.
	Weight float32
}

type conceptRule struct {
	name   string
	ctype  core.ConceptType
	weight float32
}

// conceptRules maps normalized LaTeX tokens to concepts. Tokens not listed
// here (plain variables, digits, braces) carry no conceptual signal.
var conceptRules = map[string]conceptRule{
	// operators
	`\int`:     {"integral", core.ConceptTypeOperator, 0.9},
	`\oint`:    {"contour integral", core.ConceptTypeOperator, 0.9},
	`\iint`:    {"double integral", core.ConceptTypeOperator, 0.9},
	`\sum`:     {"summation", core.ConceptTypeOperator, 0.9},
	`\prod`:    {"product", core.ConceptTypeOperator, 0.9},
	`\lim`:     {"limit", core.ConceptTypeOperator, 0.9},
	`\partial`: {"partial derivative", core.ConceptTypeOperator, 0.8},
	`\nabla`:   {"gradient", core.ConceptTypeOperator, 0.8},
	`\pm`:      {"plus minus", core.ConceptTypeOperator, 0.4},
	`\cdot`:    {"multiplication", core.ConceptTypeOperator, 0.3},
	`\times`:   {"multiplication", core.ConceptTypeOperator, 0.3},
	`\otimes`:  {"tensor product", core.ConceptTypeOperator, 0.8},
	`\oplus`:   {"direct sum", core.ConceptTypeOperator, 0.8},
	"+":        {"addition", core.ConceptTypeOperator, 0.2},
	"-":        {"subtraction", core.ConceptTypeOperator, 0.2},

	// functions
	`\sin`:   {"sine", core.ConceptTypeFunction, 0.8},
	`\cos`:   {"cosine", core.ConceptTypeFunction, 0.8},
	`\tan`:   {"tangent", core.ConceptTypeFunction, 0.8},
	`\log`:   {"logarithm", core.ConceptTypeFunction, 0.8},
	`\ln`:    {"natural logarithm", core.ConceptTypeFunction, 0.8},
	`\exp`:   {"exponential", core.ConceptTypeFunction, 0.8},
	`\det`:   {"determinant", core.ConceptTypeFunction, 0.8},
	`\max`:   {"maximum", core.ConceptTypeFunction, 0.6},
	`\min`:   {"minimum", core.ConceptTypeFunction, 0.6},
	`\sup`:   {"supremum", core.ConceptTypeFunction, 0.7},
	`\inf`:   {"infimum", core.ConceptTypeFunction, 0.7},
	`\arg`:   {"argument", core.ConceptTypeFunction, 0.5},
	`\gcd`:   {"greatest common divisor", core.ConceptTypeFunction, 0.8},
	`\binom`: {"binomial coefficient", core.ConceptTypeFunction, 0.8},

	// relations
	"=":           {"equality", core.ConceptTypeRelation, 0.3},
	`\leq`:        {"inequality", core.ConceptTypeRelation, 0.5},
	`\geq`:        {"inequality", core.ConceptTypeRelation, 0.5},
	`\neq`:        {"inequality", core.ConceptTypeRelation, 0.5},
	`\approx`:     {"approximation", core.ConceptTypeRelation, 0.6},
	`\sim`:        {"similarity", core.ConceptTypeRelation, 0.5},
	`\equiv`:      {"equivalence", core.ConceptTypeRelation, 0.6},
	`\propto`:     {"proportionality", core.ConceptTypeRelation, 0.7},
	`\in`:         {"set membership", core.ConceptTypeRelation, 0.5},
	`\subset`:     {"subset", core.ConceptTypeRelation, 0.6},
	`\subseteq`:   {"subset", core.ConceptTypeRelation, 0.6},
	`\cup`:        {"set union", core.ConceptTypeRelation, 0.6},
	`\cap`:        {"set intersection", core.ConceptTypeRelation, 0.6},
	`\rightarrow`: {"mapping", core.ConceptTypeRelation, 0.5},
	`\mapsto`:     {"mapping", core.ConceptTypeRelation, 0.5},

	// structures
	`\frac`:     {"fraction", core.ConceptTypeStructure, 0.6},
	`\sqrt`:     {"radical", core.ConceptTypeStructure, 0.7},
	`\vec`:      {"vector", core.ConceptTypeStructure, 0.7},
	`\hat`:      {"operator hat", core.ConceptTypeStructure, 0.5},
	`\overline`: {"overline", core.ConceptTypeStructure, 0.5},
	"^":         {"exponentiation", core.ConceptTypeStructure, 0.3},
	"_":         {"subscript", core.ConceptTypeStructure, 0.2},

	// symbols
	`\infty`:    {"infinity", core.ConceptTypeSymbol, 0.7},
	`\pi`:       {"pi", core.ConceptTypeSymbol, 0.5},
	`\alpha`:    {"alpha", core.ConceptTypeSymbol, 0.3},
	`\beta`:     {"beta", core.ConceptTypeSymbol, 0.3},
	`\gamma`:    {"gamma", core.ConceptTypeSymbol, 0.3},
	`\delta`:    {"delta", core.ConceptTypeSymbol, 0.3},
	`\epsilon`:  {"epsilon", core.ConceptTypeSymbol, 0.3},
	`\theta`:    {"theta", core.ConceptTypeSymbol, 0.3},
	`\lambda`:   {"lambda", core.ConceptTypeSymbol, 0.3},
	`\mu`:       {"mu", core.ConceptTypeSymbol, 0.3},
	`\sigma`:    {"sigma", core.ConceptTypeSymbol, 0.3},
	`\phi`:      {"phi", core.ConceptTypeSymbol, 0.3},
	`\omega`:    {"omega", core.ConceptTypeSymbol, 0.3},
	`\hbar`:     {"planck constant", core.ConceptTypeSymbol, 0.8},
	`\emptyset`: {"empty set", core.ConceptTypeSymbol, 0.6},
}

// ExtractConcepts identifies the mathematical concepts in a normalized
// LaTeX string. Repeated occurrences of a concept raise its weight, capped
// at 1.0. The result is sorted by descending weight, then by name for
// determinism.
func ExtractConcepts(latexNorm string) []ExtractedConcept {
	tokens := latex.Tokenize(latexNorm)

	byName := make(map[string]*ExtractedConcept)
	// Matrix environments survive normalization as \begin{matrix}, which
	// tokenizes into letters, so detect them on the raw string.
	if strings.Contains(latexNorm, `\begin{matrix}`) {
		byName["matrix"] = &ExtractedConcept{
			Name:   "matrix",
			Type:   core.ConceptTypeStructure,
			Weight: 0.9,
		}
	}
	for _, token := range tokens {
		rule, ok := conceptRules[token]
		if !ok {
			continue
		}
		if existing, ok := byName[rule.name]; ok {
			existing.Weight += rule.weight * 0.25
			if existing.Weight > 1.0 {
				existing.Weight = 1.0
			}
			continue
		}
		byName[rule.name] = &ExtractedConcept{
			Name:   rule.name,
			Type:   rule.ctype,
			Weight: rule.weight,
		}
	}

	concepts := make([]ExtractedConcept, 0, len(byName))
	for _, c := range byName {
		concepts = append(concepts, *c)
	}
	sort.Slice(concepts, func(i, j int) bool {
		if concepts[i].Weight != concepts[j].Weight {
			return concepts[i].Weight > concepts[j].Weight
		}
		return concepts[i].Name < concepts[j].Name
	})
	return concepts
}
