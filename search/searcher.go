package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/jonewei/me-ir/ai"
	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/fcg"
	"github.com/jonewei/me-ir/index"
	"github.com/jonewei/me-ir/latex"
	"github.com/jonewei/me-ir/rank"
	"github.com/jonewei/me-ir/storage"
)

// DefaultMinSimilarity is the similarity threshold for the semantic
// fallback scan when structural recall finds nothing.
const DefaultMinSimilarity = 0.60

// fallbackScanFactor widens the fallback scan beyond maxHits so fusion
// and filtering still have candidates to work with.
const fallbackScanFactor = 4

// Searcher runs the retrieval cascade over indexed formulas: structural
// recall, semantic scoring, rank fusion, concept graph re-ranking and
// confidence filtering.
type Searcher struct {
	formulas storage.FormulaRepository
	concepts storage.ConceptRepository
	recall   *index.Recall
	embedder ai.Embedder
	reranker *fcg.Reranker
	filter   *rank.ConfidenceFilter
	logger   *slog.Logger

	minSimilarity  float32
	rrfK           int
	weightedAlpha  float32
	useWeighted    bool
	featureWeights *rank.Weights
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithReranker enables concept graph re-ranking.
func WithReranker(reranker *fcg.Reranker) Option {
	return func(s *Searcher) error {
		s.reranker = reranker
		return nil
	}
}

// WithMinSimilarity sets the semantic fallback similarity threshold.
func WithMinSimilarity(threshold float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = threshold
		return nil
	}
}

// WithConfidenceThreshold enables the high-confidence filter with the
// given similarity threshold.
func WithConfidenceThreshold(threshold float32) Option {
	return func(s *Searcher) error {
		s.filter = rank.NewConfidenceFilter(threshold)
		return nil
	}
}

// WithRRFConstant sets the reciprocal rank fusion smoothing constant.
func WithRRFConstant(k int) Option {
	return func(s *Searcher) error {
		s.rrfK = k
		return nil
	}
}

// WithWeightedFusion switches fusion from reciprocal rank fusion to a
// weighted blend: alpha for the structural list, 1-alpha for the semantic
// list.
func WithWeightedFusion(alpha float32) Option {
	return func(s *Searcher) error {
		s.useWeighted = true
		s.weightedAlpha = alpha
		return nil
	}
}

// WithFeatureRanking replaces list fusion with linear-model scoring over
// per-candidate features.
func WithFeatureRanking(weights rank.Weights) Option {
	return func(s *Searcher) error {
		s.featureWeights = &weights
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	formulas storage.FormulaRepository,
	concepts storage.ConceptRepository,
	recall *index.Recall,
	provider ai.Provider,
	opts ...Option,
) (*Searcher, error) {
	if formulas == nil {
		return nil, ErrFormulaRepositoryRequired
	}
	if concepts == nil {
		return nil, ErrConceptRepositoryRequired
	}
	if recall == nil {
		return nil, ErrRecallRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		formulas:      formulas,
		concepts:      concepts,
		recall:        recall,
		embedder:      provider.Embedder(),
		logger:        slog.Default(),
		minSimilarity: DefaultMinSimilarity,
		rrfK:          rank.DefaultRRFConstant,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindMatches searches for formulas matching the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindMatches(ctx context.Context, query *core.Query, maxHits int) ([]*core.SearchResult, error) {
	return s.FindMatchesWithMonitor(ctx, query, maxHits, nil)
}

// FindMatchesWithMonitor searches for matching formulas with monitoring.
// The monitor receives callbacks at each stage of the cascade.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindMatchesWithMonitor(ctx context.Context, query *core.Query, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if query == nil || strings.TrimSpace(query.Latex) == "" {
		return nil, ErrEmptyQuery
	}

	monitor.Start(query.Latex)

	// 1. Normalize and fingerprint the query
	parsed := s.parseQuery(query)
	monitor.AfterNormalization(parsed.LatexNorm)

	// 2. Structural recall
	candidates, err := s.recall.Candidates(ctx, parsed)
	if err != nil {
		s.logger.Error("structural recall failed", "err", err)
		return nil, err
	}
	monitor.AfterStructuralRecall(candidates)

	// 3. Semantic scoring
	embedding, err := s.embedder.EmbedText(ctx, parsed.LatexNorm)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query.Latex, "err", err)
		return nil, err
	}

	structural, semantic, similarities, err := s.semanticStage(ctx, candidates, embedding, maxHits, monitor)
	if err != nil {
		return nil, err
	}

	if len(structural) == 0 && len(semantic) == 0 {
		return []*core.SearchResult{}, nil
	}

	// 4. Query concepts, resolved against the stored concept set
	queryConcepts := s.resolveQueryConcepts(ctx, parsed.LatexNorm)

	// 5. Fuse the structural and semantic rankings
	var results []*core.SearchResult
	switch {
	case s.featureWeights != nil:
		results = s.featureRank(parsed, candidates, structural, semantic, similarities, queryConcepts)
	case s.useWeighted:
		results = rank.WeightedFusion(s.weightedAlpha, structural, semantic)
	default:
		results = rank.ReciprocalRankFusion(s.rrfK, structural, semantic)
	}
	monitor.AfterFusion(results)

	// 6. Concept graph re-ranking
	if s.reranker != nil && len(queryConcepts) > 0 {
		results = s.reranker.Rerank(queryConcepts, results)
	}
	monitor.AfterConceptRerank(results)

	// 7. Confidence filter
	if s.filter != nil {
		results = s.filter.Filter(results, similarities)
	}

	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}

// parseQuery normalizes the query LaTeX and computes its fingerprints.
func (s *Searcher) parseQuery(query *core.Query) *index.ParsedQuery {
	norm, _ := latex.Normalize(query.Latex)
	parsed := &index.ParsedQuery{
		LatexNorm:  norm,
		LatexHash:  core.HashContent(norm),
		PathCounts: latex.PathCounts(norm, latex.DefaultPathLength),
	}
	if query.MathMLSkel != "" {
		parsed.SkelHash = core.HashContent(query.MathMLSkel)
	}
	return parsed
}

// semanticStage scores recall candidates against the query embedding and
// builds the structural and semantic ranked lists. When recall produced
// nothing, it falls back to a full similarity scan.
func (s *Searcher) semanticStage(
	ctx context.Context,
	candidates []index.Candidate,
	embedding []float32,
	maxHits int,
	monitor SearchMonitor,
) (structural, semantic []*core.SearchResult, similarities map[core.ID]float32, err error) {
	similarities = make(map[core.ID]float32)

	if len(candidates) == 0 {
		// Structural recall found nothing: scan the whole corpus
		monitor.SemanticFallback()
		matches, err := s.formulas.FindSimilar(ctx, embedding, s.minSimilarity, maxHits*fallbackScanFactor)
		if err != nil {
			s.logger.Error("semantic fallback scan failed", "err", err)
			return nil, nil, nil, err
		}
		ids := make([]uint64, 0, len(matches))
		for _, match := range matches {
			similarities[match.Formula.Id] = match.Score
			ids = append(ids, uint64(match.Formula.Id))
		}
		monitor.AfterSemanticScoring(ids)
		return nil, matches, similarities, nil
	}

	ids := make([]core.ID, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Id)
	}
	formulas, err := s.formulas.GetFormulas(ctx, ids...)
	if err != nil {
		s.logger.Error("error retrieving candidate formulas", "count", len(ids), "err", err)
		return nil, nil, nil, err
	}
	byID := make(map[core.ID]*core.Formula, len(formulas))
	for _, formula := range formulas {
		byID[formula.Id] = formula
	}

	// Structural list keeps the recall ordering
	structural = make([]*core.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		formula, ok := byID[c.Id]
		if !ok {
			continue
		}
		structural = append(structural, &core.SearchResult{Formula: formula, Score: c.Score})
	}

	// Semantic list re-ranks the same candidates by embedding similarity
	semantic = make([]*core.SearchResult, 0, len(formulas))
	scoredIds := make([]uint64, 0, len(formulas))
	for _, formula := range formulas {
		if len(formula.Vector) == 0 {
			continue
		}
		sim := dotProduct(embedding, formula.Vector)
		similarities[formula.Id] = sim
		semantic = append(semantic, &core.SearchResult{Formula: formula, Score: sim})
		scoredIds = append(scoredIds, uint64(formula.Id))
	}
	sort.Slice(semantic, func(i, j int) bool {
		if semantic[i].Score != semantic[j].Score {
			return semantic[i].Score > semantic[j].Score
		}
		return semantic[i].Formula.Id < semantic[j].Formula.Id
	})
	monitor.AfterSemanticScoring(scoredIds)

	return structural, semantic, similarities, nil
}

// resolveQueryConcepts extracts concepts from the normalized query and
// keeps those present in the stored concept set.
func (s *Searcher) resolveQueryConcepts(ctx context.Context, latexNorm string) []core.ConceptRef {
	extracted := fcg.ExtractConcepts(latexNorm)
	if len(extracted) == 0 {
		return nil
	}

	refs := make([]core.ConceptRef, 0, len(extracted))
	for _, ec := range extracted {
		tuple := "(" + string(ec.Type) + "," + ec.Name + ")"
		conceptID := core.IDFromContent(tuple)
		concept, err := s.concepts.GetConcept(ctx, conceptID)
		if err != nil {
			if err != storage.ErrNotFound {
				s.logger.Warn("error looking up concept", "tuple", tuple, "err", err)
			}
			continue
		}
		refs = append(refs, core.ConceptRef{ConceptId: concept.Id, Weight: ec.Weight})
	}
	return refs
}

// featureRank scores each candidate with the linear feature model.
func (s *Searcher) featureRank(
	parsed *index.ParsedQuery,
	candidates []index.Candidate,
	structural []*core.SearchResult,
	semantic []*core.SearchResult,
	similarities map[core.ID]float32,
	queryConcepts []core.ConceptRef,
) []*core.SearchResult {
	structuralScores := make(map[core.ID]float32, len(candidates))
	for _, c := range candidates {
		structuralScores[c.Id] = c.Score
	}

	byID := make(map[core.ID]*core.SearchResult)
	for _, r := range structural {
		byID[r.Formula.Id] = r
	}
	for _, r := range semantic {
		if _, ok := byID[r.Formula.Id]; !ok {
			byID[r.Formula.Id] = r
		}
	}

	scored := make([]rank.Scored, 0, len(byID))
	for id, r := range byID {
		features := rank.Features{
			Structural:     structuralScores[id],
			Semantic:       similarities[id],
			ConceptOverlap: rank.ConceptOverlap(queryConcepts, r.Formula.Concepts),
		}
		if r.Formula.LatexHash == parsed.LatexHash {
			features.ExactHash = 1.0
		}
		scored = append(scored, rank.Scored{Result: r, Features: features})
	}

	ranker := rank.NewFeatureRanker(*s.featureWeights)
	return ranker.Rank(scored)
}

// dotProduct computes the inner product of two vectors. Embeddings are
// unit-normalized at ingest, so this is the cosine similarity.
func dotProduct(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
