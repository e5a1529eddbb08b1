// Package retrieval selects prior turns to feed back to the narrator.
//
// Each stored response is one document. A query is weighted by TF-IDF against
// those documents, every prompt/response pair is scored, and pairs are
// accepted greedily until the next one would overflow the word budget. The
// accepted pairs are always emitted oldest first.
package retrieval

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/tatianab/grave-master/internal/models"
)

// Ranking is the order candidates are offered to the budget.
type Ranking string

const (
	// ByRelevance offers the highest scoring pairs first, newer pairs first
	// on equal scores.
	ByRelevance Ranking = "relevance"
	// ByChronology offers pairs oldest first; scores are computed but never
	// change the order.
	ByChronology Ranking = "chronological"
)

// =============================================================================
// CONFIG
// =============================================================================

type Config struct {
	WordBudget   int
	RecentWindow int
	Ranking      Ranking
	// ExcludeStructural drops recent turns that read like state dumps or bare
	// movement from the candidates. When false they are only reported.
	ExcludeStructural bool
}

func DefaultConfig() Config {
	return Config{
		WordBudget:   700,
		RecentWindow: 8,
		Ranking:      ByRelevance,
	}
}

var structuralKeywords = []string{
	"Seed:", "Room Description:", "Coordinates:", "Objects in Room:", "Exits:",
	"XP:", "Score:", "Artifacts Found:", "Quests Achieved:", "HP:", "Inventory:",
	"PC:", "NPCs:", "Rooms Visited:", "Turns:",
}

// "up" is left out; it is too common outside of movement.
var directionWord = regexp.MustCompile(`\b(north|south|east|west|northeast|southeast|northwest|southwest|down)\b`)

// =============================================================================
// INDEX
// =============================================================================

type document struct {
	index    int
	prompt   string
	response string
	words    int
	// counts holds response term counts; length is the response token count.
	counts map[string]int
	length int
	// pairTokens are the tokens of prompt and response, in order.
	pairTokens []string
}

// Index holds one conversation's turns. Appending a turn tokenizes only that
// turn; document frequencies are kept incrementally.
type Index struct {
	cfg    Config
	logger *zap.Logger

	mu   sync.RWMutex
	docs []document
	df   map[string]int
}

func NewIndex(cfg Config, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Ranking == "" {
		cfg.Ranking = ByRelevance
	}
	return &Index{cfg: cfg, logger: logger, df: make(map[string]int)}
}

// Add appends a turn. Entries must arrive in sequence order.
func (ix *Index) Add(e models.TurnLogEntry) {
	respTokens := Tokenize(e.Response)
	counts := make(map[string]int, len(respTokens))
	for _, t := range respTokens {
		counts[t]++
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for t := range counts {
		ix.df[t]++
	}
	ix.docs = append(ix.docs, document{
		index:      e.SequenceIndex,
		prompt:     e.Prompt,
		response:   e.Response,
		words:      WordCount(e.Prompt) + WordCount(e.Response),
		counts:     counts,
		length:     len(respTokens),
		pairTokens: append(Tokenize(e.Prompt), respTokens...),
	})
}

// Rebuild replaces the index contents with entries.
func (ix *Index) Rebuild(entries []models.TurnLogEntry) {
	ix.mu.Lock()
	ix.docs = nil
	ix.df = make(map[string]int)
	ix.mu.Unlock()
	for _, e := range entries {
		ix.Add(e)
	}
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Scored is a turn with its relevance to a query.
type Scored struct {
	Index    int
	Prompt   string
	Response string
	Words    int
	Score    float64
	// Structural marks a recent turn caught by the structural filter.
	Structural bool
}

// Score rates every turn against query.
func (ix *Index) Score(query string) []Scored {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := len(ix.docs)
	if n == 0 {
		return nil
	}

	idf := func(t string) float64 {
		df := ix.df[t]
		if df == 0 {
			return 0
		}
		return math.Log(float64(n) / float64(df))
	}

	qTokens := Tokenize(query)
	qCounts := make(map[string]int, len(qTokens))
	for _, t := range qTokens {
		qCounts[t]++
	}
	qWeight := make(map[string]float64, len(qCounts))
	for t, c := range qCounts {
		qWeight[t] = float64(c) / float64(len(qTokens)) * idf(t)
	}

	structural := ix.structural()
	out := make([]Scored, n)
	for i, d := range ix.docs {
		var score float64
		for _, t := range d.pairTokens {
			qw, ok := qWeight[t]
			if !ok || d.length == 0 {
				continue
			}
			score += qw * float64(d.counts[t]) / float64(d.length) * idf(t)
		}
		out[i] = Scored{
			Index:      d.index,
			Prompt:     d.prompt,
			Response:   d.response,
			Words:      d.words,
			Score:      score,
			Structural: structural[i],
		}
	}
	return out
}

// structural flags the most recent RecentWindow turns whose response holds a
// state keyword or a direction word. Callers hold the read lock.
func (ix *Index) structural() map[int]bool {
	out := make(map[int]bool)
	start := max(len(ix.docs)-ix.cfg.RecentWindow, 0)
	for i := start; i < len(ix.docs); i++ {
		resp := ix.docs[i].response
		if directionWord.MatchString(strings.ToLower(resp)) {
			out[i] = true
			continue
		}
		for _, kw := range structuralKeywords {
			if strings.Contains(resp, kw) {
				out[i] = true
				break
			}
		}
	}
	return out
}

// Select returns the turns chosen for query under budget, oldest first.
func (ix *Index) Select(query string, budget int) []Scored {
	scored := ix.Score(query)

	candidates := scored[:0:0]
	filtered := 0
	for _, s := range scored {
		if s.Structural {
			filtered++
			if ix.cfg.ExcludeStructural {
				continue
			}
		}
		candidates = append(candidates, s)
	}
	if filtered > 0 {
		ix.logger.Debug("structural turns in recent window",
			zap.Int("count", filtered),
			zap.Bool("excluded", ix.cfg.ExcludeStructural))
	}

	switch ix.cfg.Ranking {
	case ByChronology:
		sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Index < candidates[j].Index })
	default:
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].Score != candidates[j].Score {
				return candidates[i].Score > candidates[j].Score
			}
			return candidates[i].Index > candidates[j].Index
		})
	}

	var accepted []Scored
	used := 0
	for _, c := range candidates {
		if used+c.Words > budget {
			break
		}
		used += c.Words
		accepted = append(accepted, c)
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Index < accepted[j].Index })
	return accepted
}

// Retrieve assembles the selected turns as prompt/response blocks separated
// by blank lines.
func (ix *Index) Retrieve(query string, budget int) string {
	selected := ix.Select(query, budget)
	blocks := make([]string, len(selected))
	for i, s := range selected {
		blocks[i] = s.Prompt + "\n" + s.Response
	}
	return strings.Join(blocks, "\n\n")
}
