// README: Knowledge-base retriever over a CSV Q/A corpus. Hybrid
// retrieval: optional embeddings, lexical token overlap, then a fuzzy
// fallback. The index is swapped atomically on reload so readers never
// see a half-built structure.
package kb

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// QA is one retrievable question/answer pair.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Embedder turns text into a vector. Optional; when absent retrieval is
// purely lexical.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

type doc struct {
	q      string
	a      string
	text   string
	tokens map[string]struct{}
	emb    []float64
	norm   float64
	embSet bool
}

type index struct {
	mu   sync.Mutex // guards lazy embedding fills
	docs []*doc
}

type Service struct {
	csvPath  string
	embedder Embedder
	log      zerolog.Logger
	idx      atomic.Pointer[index]
}

// NewService builds an empty retriever; call Load to populate it.
func NewService(csvPath string, embedder Embedder, log zerolog.Logger) *Service {
	s := &Service{csvPath: csvPath, embedder: embedder, log: log}
	s.idx.Store(&index{})
	return s
}

// Load rebuilds the index from the configured CSV and swaps it in.
// Embeddings are not computed here; they fill lazily on first use.
func (s *Service) Load() (int, error) {
	rows, err := readRows(s.csvPath)
	if err != nil {
		return 0, err
	}
	next := &index{docs: make([]*doc, 0, len(rows))}
	for _, r := range rows {
		next.docs = append(next.docs, &doc{
			q:      r[0],
			a:      r[1],
			text:   "Q: " + r[0] + "\nA: " + r[1],
			tokens: tokenize(r[0] + " " + r[1]),
			norm:   1.0,
		})
	}
	s.idx.Store(next)
	s.log.Info().Int("count", len(next.docs)).Str("path", s.csvPath).Msg("knowledge base loaded")
	return len(next.docs), nil
}

// Count reports the number of indexed pairs.
func (s *Service) Count() int {
	return len(s.idx.Load().docs)
}

type scored struct {
	score float64
	doc   *doc
}

// Retrieve returns up to k pairs ranked best first. An empty result
// means "no match", never an error.
func (s *Service) Retrieve(ctx context.Context, query string, k int) []QA {
	idx := s.idx.Load()
	if len(idx.docs) == 0 || strings.TrimSpace(query) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	query = normalizeTypos(query)

	if top := s.retrieveEmbed(ctx, idx, query, k); len(top) > 0 {
		return top
	}
	if top := retrieveLexical(idx, query, k); len(top) > 0 {
		return top
	}
	return retrieveFuzzy(idx, query, k)
}

func (s *Service) retrieveEmbed(ctx context.Context, idx *index, query string, k int) []QA {
	if s.embedder == nil {
		return nil
	}
	qEmb, err := s.embedder.Embed(ctx, query)
	if err != nil || len(qEmb) == 0 {
		if err != nil {
			s.log.Warn().Err(err).Msg("query embedding failed, falling back to lexical")
		}
		return nil
	}
	var ranked []scored
	for _, d := range idx.docs {
		s.ensureEmbedding(ctx, idx, d)
		if sim := cosine(qEmb, d.emb, d.norm); sim > 0 {
			ranked = append(ranked, scored{sim, d})
		}
	}
	return topK(ranked, k)
}

// ensureEmbedding computes a doc's embedding once, under the index lock.
func (s *Service) ensureEmbedding(ctx context.Context, idx *index, d *doc) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if d.embSet {
		return
	}
	emb, err := s.embedder.Embed(ctx, d.text)
	if err != nil {
		s.log.Warn().Err(err).Msg("doc embedding failed")
		emb = nil
	}
	d.emb = emb
	d.norm = vecNorm(emb)
	d.embSet = true
}

func retrieveLexical(idx *index, query string, k int) []QA {
	qTokens := queryTokens(query)
	if len(qTokens) == 0 {
		return nil
	}
	normQ := stripAccents(query)
	var ranked []scored
	for _, d := range idx.docs {
		score := float64(intersect(qTokens, d.tokens))
		if normQ != "" && strings.Contains(stripAccents(d.text), normQ) {
			score += 0.5
		}
		if score > 0 {
			ranked = append(ranked, scored{score, d})
		}
	}
	return topK(ranked, k)
}

const fuzzyFloor = 0.35

func retrieveFuzzy(idx *index, query string, k int) []QA {
	normQ := stripAccents(query)
	var ranked []scored
	for _, d := range idx.docs {
		if r := diceSimilarity(normQ, stripAccents(d.text)); r > fuzzyFloor {
			ranked = append(ranked, scored{r, d})
		}
	}
	return topK(ranked, k)
}

// quickAnswerThreshold is the similarity a stored question must reach
// for its answer to be returned verbatim.
const quickAnswerThreshold = 0.55

// QuickAnswer returns the stored answer whose question closely matches
// the query, if any.
func (s *Service) QuickAnswer(query string) (string, bool) {
	idx := s.idx.Load()
	if len(idx.docs) == 0 || strings.TrimSpace(query) == "" {
		return "", false
	}

	candidates := []string{query}
	if fixed := normalizeTypos(query); fixed != query {
		candidates = append([]string{fixed}, candidates...)
	}

	bestScore, bestDoc := 0.0, (*doc)(nil)
	for _, cand := range candidates {
		qTokens := tokenize(cand)
		normQ := stripAccents(cand)
		for _, d := range idx.docs {
			dqTokens := tokenize(d.q)
			if len(dqTokens) == 0 {
				continue
			}
			inter := intersect(qTokens, dqTokens)
			union := len(qTokens) + len(dqTokens) - inter
			if union == 0 {
				union = 1
			}
			sim := float64(inter) / float64(union)
			normDQ := stripAccents(d.q)
			switch {
			case normQ == normDQ:
				sim = 1.0
			case normQ != "" && (strings.Contains(normDQ, normQ) || strings.Contains(normQ, normDQ)):
				if sim < 0.9 {
					sim = 0.9
				}
			}
			if sim < 0.6 {
				if r := diceSimilarity(normQ, normDQ); r > sim {
					sim = r
				}
			}
			if sim > bestScore {
				bestScore, bestDoc = sim, d
			}
		}
	}
	if bestDoc != nil && bestScore >= quickAnswerThreshold && bestDoc.a != "" {
		return bestDoc.a, true
	}
	return "", false
}

// normalizeTypos fixes the common "tn" mistype of the device shorthand.
func normalizeTypos(q string) string {
	if strings.Contains(strings.ToLower(q), "tn") {
		return strings.ReplaceAll(strings.ToLower(q), "tn", "tl")
	}
	return q
}

func topK(ranked []scored, k int) []QA {
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]QA, len(ranked))
	for i, r := range ranked {
		out[i] = QA{Question: r.doc.q, Answer: r.doc.a}
	}
	return out
}

func vecNorm(v []float64) float64 {
	if len(v) == 0 {
		return 1.0
	}
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return 1.0
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float64, bNorm float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}
	dot := 0.0
	for i := range a {
		dot += a[i] * b[i]
	}
	an := vecNorm(a)
	if an == 0 || bNorm == 0 {
		return 0.0
	}
	return dot / (an * bNorm)
}
