package recommend

import (
	"sort"
	"strings"

	"github.com/arnavs06/HackNYU/internal/models"
)

const (
	// AlternativesLimit bounds the alternatives returned with a scan.
	AlternativesLimit = 5
	// PicksLimit bounds personalized picks.
	PicksLimit = 10

	// MaterialBonus is added when a candidate shares a fiber with the
	// user's common materials.
	MaterialBonus = 15
	// LowScorePenalty is subtracted when a candidate scores below
	// LowScoreRatio of the user's average.
	LowScorePenalty = 15
	LowScoreRatio   = 0.9
)

// Rank filters, deduplicates and orders candidates.
//
// Without a profile, candidates scoring at least as well as the original are
// kept (best first) and the list is backfilled with the best remaining
// candidates so it is never empty when candidates exist. With a profile,
// candidates are ordered by a composite of eco-score, material affinity and a
// penalty for scoring well below the user's average.
func Rank(original models.EcoScore, candidates []models.Candidate, profile *models.PreferenceProfile, limit int) []models.Candidate {
	if limit <= 0 || len(candidates) == 0 {
		return []models.Candidate{}
	}

	unique := Dedupe(candidates)
	var ranked []models.Candidate
	if profile == nil {
		ranked = rankPlain(original, unique, limit)
	} else {
		ranked = rankPersonalized(unique, profile)
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Dedupe keeps the first occurrence of each normalized (title, brand) pair
func Dedupe(candidates []models.Candidate) []models.Candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := normalizeKey(c.Title) + "\x00" + normalizeKey(c.Brand)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func rankPlain(original models.EcoScore, candidates []models.Candidate, limit int) []models.Candidate {
	var better, rest []models.Candidate
	for _, c := range candidates {
		if c.EcoScore >= original.Score {
			better = append(better, c)
		} else {
			rest = append(rest, c)
		}
	}
	byScore := func(list []models.Candidate) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].EcoScore > list[j].EcoScore
		})
	}
	byScore(better)
	byScore(rest)

	out := make([]models.Candidate, 0, limit)
	out = append(out, better...)
	for _, c := range rest {
		if len(out) >= limit {
			break
		}
		out = append(out, c)
	}
	return out
}

func rankPersonalized(candidates []models.Candidate, profile *models.PreferenceProfile) []models.Candidate {
	common := make(map[string]bool, len(profile.CommonMaterials))
	for _, m := range profile.CommonMaterials {
		common[normalizeKey(m)] = true
	}

	composite := make([]int, len(candidates))
	for i, c := range candidates {
		composite[i] = CompositeScore(c, common, profile.AverageScore)
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if composite[i] != composite[j] {
			return composite[i] > composite[j]
		}
		return candidates[i].EcoScore > candidates[j].EcoScore
	})

	out := make([]models.Candidate, len(order))
	for pos, i := range order {
		out[pos] = candidates[i]
	}
	return out
}

// CompositeScore is the personalized ranking key of a candidate.
// common holds normalized material keys.
func CompositeScore(c models.Candidate, common map[string]bool, averageScore float64) int {
	score := c.EcoScore
	if sharesMaterial(c, common) {
		score += MaterialBonus
	}
	if float64(c.EcoScore) < averageScore*LowScoreRatio {
		score -= LowScorePenalty
	}
	return score
}

func sharesMaterial(c models.Candidate, common map[string]bool) bool {
	if len(common) == 0 {
		return false
	}
	for _, f := range c.Fibers {
		if common[normalizeKey(f)] {
			return true
		}
	}
	if len(c.Fibers) == 0 && c.Material != "" {
		return common[normalizeKey(c.Material)]
	}
	return false
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
