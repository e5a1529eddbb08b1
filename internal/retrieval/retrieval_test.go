package retrieval

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tatianab/grave-master/internal/dice"
	"github.com/tatianab/grave-master/internal/models"
)

func entry(i int, prompt, response string) models.TurnLogEntry {
	return models.TurnLogEntry{ConversationID: "c", SequenceIndex: i, Prompt: prompt, Response: response}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"the", "wyvern", "sleeps", "rope", "50", "ft"},
		Tokenize("The Wyvern (sleeps); rope 50 ft."))
	assert.Empty(t, Tokenize("  ...  "))
}

func TestEmptyIndex(t *testing.T) {
	ix := NewIndex(DefaultConfig(), zap.NewNop())
	assert.Equal(t, "", ix.Retrieve("anything", 700))
	assert.Zero(t, ix.Len())
}

func TestRetrieveFormat(t *testing.T) {
	ix := NewIndex(DefaultConfig(), zap.NewNop())
	ix.Add(entry(0, "look", "A crypt."))
	ix.Add(entry(1, "listen", "Water drips."))

	assert.Equal(t, "look\nA crypt.\n\nlisten\nWater drips.", ix.Retrieve("crypt", 700))
}

func TestRelevanceWinsUnderTightBudget(t *testing.T) {
	ix := NewIndex(DefaultConfig(), zap.NewNop())
	ix.Add(entry(0, "open the door", "The iron door groans open onto a wyvern lair."))
	ix.Add(entry(1, "wait", "Dust settles on the floor of the hall."))
	ix.Add(entry(2, "listen", "Far away a bell tolls in the hall."))

	got := ix.Select("where is the wyvern", 12)

	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Index)
}

func TestChronologicalRanking(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ranking = ByChronology
	ix := NewIndex(cfg, zap.NewNop())
	ix.Add(entry(0, "wait", "Dust settles on the floor of the hall."))
	ix.Add(entry(1, "open the door", "The iron door groans open onto a wyvern lair."))

	got := ix.Select("where is the wyvern", 12)

	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Index, "oldest pair is offered first")
}

func TestGreedyStopsAtFirstOverflow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ranking = ByChronology
	ix := NewIndex(cfg, zap.NewNop())
	ix.Add(entry(0, "a", "one two"))
	ix.Add(entry(1, "b", "one two three four"))
	ix.Add(entry(2, "c", "x"))

	got := ix.Select("one", 7)

	require.Len(t, got, 1, "selection stops at the pair that overflows")
	assert.Equal(t, 0, got[0].Index)
}

func TestWeightsArePerDocument(t *testing.T) {
	ix := NewIndex(DefaultConfig(), zap.NewNop())
	ix.Add(entry(0, "q", "ghost ghost ghost lamp"))
	ix.Add(entry(1, "q", "ghost stone stone stone stone stone stone stone"))
	ix.Add(entry(2, "q", "nothing here"))

	scores := ix.Score("ghost")

	require.Len(t, scores, 3)
	assert.Greater(t, scores[0].Score, scores[1].Score)
	assert.Greater(t, scores[1].Score, 0.0)
	assert.Zero(t, scores[2].Score)
}

func TestTokenInEveryDocumentHasNoWeight(t *testing.T) {
	ix := NewIndex(DefaultConfig(), zap.NewNop())
	ix.Add(entry(0, "q", "the crypt"))
	ix.Add(entry(1, "q", "the hall"))

	for _, s := range ix.Score("the") {
		assert.Zero(t, s.Score)
	}
	for _, s := range ix.Score("unseen words") {
		assert.Zero(t, s.Score)
	}
}

func TestStructuralFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RecentWindow = 2
	for _, exclude := range []bool{false, true} {
		cfg.ExcludeStructural = exclude
		ix := NewIndex(cfg, zap.NewNop())
		ix.Add(entry(0, "go north", "You walk north into the crypt."))
		ix.Add(entry(1, "look", "A crypt of bones."))
		ix.Add(entry(2, "status", "HP: 20 XP: 0"))
		ix.Add(entry(3, "go east", "You head east."))

		var picked []int
		for _, s := range ix.Select("crypt", 700) {
			picked = append(picked, s.Index)
		}
		if exclude {
			assert.Equal(t, []int{0, 1}, picked, "recent structural turns are dropped, older ones kept")
		} else {
			assert.Equal(t, []int{0, 1, 2, 3}, picked)
		}
	}
}

func TestBudgetAndOrderProperty(t *testing.T) {
	words := strings.Fields("crypt bone wyvern torch altar shadow bell water stair gate rope skull throne ash")
	for seed := int64(1); seed <= 20; seed++ {
		rng := dice.NewRand(seed)
		for _, ranking := range []Ranking{ByRelevance, ByChronology} {
			cfg := DefaultConfig()
			cfg.Ranking = ranking
			ix := NewIndex(cfg, zap.NewNop())
			for i := 0; i < 60; i++ {
				ix.Add(entry(i, phrase(rng, words, 1, 6), phrase(rng, words, 5, 60)))
			}

			budget := dice.Between(rng, 0, 400)
			query := phrase(rng, words, 1, 10)
			out := ix.Retrieve(query, budget)
			assert.LessOrEqual(t, WordCount(out), budget, "seed %d %s", seed, ranking)

			selected := ix.Select(query, budget)
			for i := 1; i < len(selected); i++ {
				assert.Less(t, selected[i-1].Index, selected[i].Index)
			}
		}
	}
}

func TestRebuild(t *testing.T) {
	ix := NewIndex(DefaultConfig(), zap.NewNop())
	ix.Add(entry(0, "x", "stale"))
	ix.Rebuild([]models.TurnLogEntry{entry(0, "a", "fresh crypt"), entry(1, "b", "fresh hall")})

	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, "a\nfresh crypt", ix.Retrieve("crypt", 3))
}

func phrase(rng dice.Rand, words []string, lo, hi int) string {
	n := dice.Between(rng, lo, hi)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = dice.Pick(rng, words)
	}
	return fmt.Sprint(strings.Join(parts, " "), ".")
}
