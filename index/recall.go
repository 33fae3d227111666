package index

import (
	"context"
	"log/slog"
	"math"
	"math/bits"
	"sort"

	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/storage"
)

// Default recall parameters.
const (
	DefaultTopK            = 2000
	DefaultFuzzyDistance   = 2
	DefaultMaxFuzzyBuckets = 50
)

// Source identifies which recall stage produced a candidate.
type Source int

const (
	SourceExact Source = iota
	SourceSkeleton
	SourcePath
	SourceFuzzy
)

// String returns the stage name for logging.
func (s Source) String() string {
	switch s {
	case SourceExact:
		return "exact"
	case SourceSkeleton:
		return "skeleton"
	case SourcePath:
		return "path"
	case SourceFuzzy:
		return "fuzzy"
	default:
		return "unknown"
	}
}

// Candidate is a formula produced by structural recall.
type Candidate struct {
	Id     core.ID
	Score  float32
	Source Source
}

// ParsedQuery carries the structural fingerprints of a query formula.
type ParsedQuery struct {
	LatexNorm  string
	LatexHash  core.Hash
	SkelHash   core.Hash
	PathCounts map[string]int
}

// Recall generates structurally similar candidates for a query formula.
// It runs up to four stages in order of decreasing precision: exact
// fingerprint match, skeleton match, path index scoring, and fuzzy
// fingerprint match. Later stages only add formulas not already found.
type Recall struct {
	formulas storage.FormulaRepository
	paths    storage.PathRepository
	logger   *slog.Logger

	topK            int
	fuzzyDistance   int
	maxFuzzyBuckets int
}

// Option configures a Recall.
type Option func(*Recall) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recall) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithTopK sets the maximum number of candidates returned.
func WithTopK(topK int) Option {
	return func(r *Recall) error {
		if topK <= 0 {
			return ErrInvalidTopK
		}
		r.topK = topK
		return nil
	}
}

// WithFuzzyDistance sets the maximum Hamming distance between fingerprints
// accepted by the fuzzy stage.
func WithFuzzyDistance(distance int) Option {
	return func(r *Recall) error {
		if distance < 0 {
			return ErrInvalidFuzzyDistance
		}
		r.fuzzyDistance = distance
		return nil
	}
}

// WithMaxFuzzyBuckets caps how many fingerprint buckets the fuzzy stage
// may accept before stopping.
func WithMaxFuzzyBuckets(n int) Option {
	return func(r *Recall) error {
		if n <= 0 {
			return ErrInvalidMaxFuzzyBuckets
		}
		r.maxFuzzyBuckets = n
		return nil
	}
}

// NewRecall creates a structural recall stage.
func NewRecall(formulas storage.FormulaRepository, paths storage.PathRepository, opts ...Option) (*Recall, error) {
	if formulas == nil {
		return nil, ErrFormulaRepositoryRequired
	}
	if paths == nil {
		return nil, ErrPathRepositoryRequired
	}

	r := &Recall{
		formulas:        formulas,
		paths:           paths,
		logger:          slog.Default(),
		topK:            DefaultTopK,
		fuzzyDistance:   DefaultFuzzyDistance,
		maxFuzzyBuckets: DefaultMaxFuzzyBuckets,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Candidates runs the recall stages for a parsed query. Results are
// deduplicated, keeping the earliest stage that found each formula, and
// capped at topK. Within a stage, candidates are ordered by descending
// score.
func (r *Recall) Candidates(ctx context.Context, query *ParsedQuery) ([]Candidate, error) {
	if query == nil {
		return nil, ErrQueryRequired
	}

	seen := make(map[core.ID]bool)
	var candidates []Candidate

	add := func(id core.ID, score float32, source Source) {
		if seen[id] {
			return
		}
		seen[id] = true
		candidates = append(candidates, Candidate{Id: id, Score: score, Source: source})
	}

	// 1. Exact fingerprint match
	if query.LatexHash != 0 {
		ids, err := r.formulas.GetByLatexHash(ctx, query.LatexHash)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			add(id, 1.0, SourceExact)
		}
		r.logger.Debug("exact recall stage", "hits", len(ids))
	}

	// 2. Skeleton match
	if query.SkelHash != 0 && len(candidates) < r.topK {
		ids, err := r.formulas.GetBySkelHash(ctx, query.SkelHash)
		if err != nil {
			return nil, err
		}
		before := len(candidates)
		for _, id := range ids {
			add(id, 0.9, SourceSkeleton)
		}
		r.logger.Debug("skeleton recall stage", "hits", len(candidates)-before)
	}

	// 3. Path index scoring
	if len(query.PathCounts) > 0 && len(candidates) < r.topK {
		scored, err := r.pathStage(ctx, query.PathCounts)
		if err != nil {
			return nil, err
		}
		before := len(candidates)
		for _, c := range scored {
			add(c.Id, c.Score, SourcePath)
		}
		r.logger.Debug("path recall stage", "hits", len(candidates)-before)
	}

	// 4. Fuzzy fingerprint match
	if query.LatexHash != 0 && len(candidates) < r.topK {
		before := len(candidates)
		if err := r.fuzzyStage(ctx, query.LatexHash, add, func() int { return len(candidates) }); err != nil {
			return nil, err
		}
		r.logger.Debug("fuzzy recall stage", "hits", len(candidates)-before)
	}

	if len(candidates) > r.topK {
		candidates = candidates[:r.topK]
	}
	return candidates, nil
}

// pathStage scores formulas against the query paths with TF-IDF and
// normalizes by formula length.
func (r *Recall) pathStage(ctx context.Context, pathCounts map[string]int) ([]Candidate, error) {
	total, err := r.formulas.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	scores := make(map[core.ID]float64)
	for path, queryTF := range pathCounts {
		postings, err := r.paths.GetPostings(ctx, path)
		if err != nil {
			return nil, err
		}
		if len(postings) == 0 {
			continue
		}

		idf := math.Log10(float64(total) / float64(len(postings)+1))
		if idf <= 0 {
			continue
		}
		// Each posting counts once per query path. Multiplying in the
		// stored TF would let long repetitive formulas dominate before
		// length normalization.
		for _, posting := range postings {
			scores[posting.FormulaId] += float64(queryTF) * idf
		}
	}
	if len(scores) == 0 {
		return nil, nil
	}

	// Length normalization needs each candidate's path count
	ids := make([]core.ID, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	formulas, err := r.formulas.GetFormulas(ctx, ids...)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(formulas))
	for _, formula := range formulas {
		score := scores[formula.Id]
		if formula.PathCount > 0 {
			score /= math.Sqrt(float64(formula.PathCount))
		}
		candidates = append(candidates, Candidate{
			Id:     formula.Id,
			Score:  float32(score),
			Source: SourcePath,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Id < candidates[j].Id
	})
	if len(candidates) > r.topK {
		candidates = candidates[:r.topK]
	}
	return candidates, nil
}

// fuzzyStage scans fingerprint buckets and accepts those within the
// Hamming distance threshold. It stops after maxFuzzyBuckets accepted
// buckets or once enough candidates are collected.
func (r *Recall) fuzzyStage(ctx context.Context, queryHash core.Hash, add func(core.ID, float32, Source), count func() int) error {
	accepted := 0
	return r.formulas.IterateLatexHashBuckets(ctx, func(hash core.Hash, ids []core.ID) bool {
		distance := bits.OnesCount64(uint64(hash) ^ uint64(queryHash))
		if distance == 0 || distance > r.fuzzyDistance {
			return true
		}

		// Closer fingerprints score higher
		score := 0.8 * (1.0 - float32(distance)/float32(r.fuzzyDistance+1))
		for _, id := range ids {
			add(id, score, SourceFuzzy)
		}

		accepted++
		if accepted >= r.maxFuzzyBuckets || count() >= r.topK {
			return false
		}
		return true
	})
}
