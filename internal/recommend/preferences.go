package recommend

import (
	"sort"
	"strings"

	"github.com/arnavs06/HackNYU/internal/models"
)

// Derive builds a preference profile from a user's scan history. The style
// summary is left empty; it comes from a narrator, not from history.
func Derive(history []models.ScanResult) models.PreferenceProfile {
	profile := models.PreferenceProfile{
		CommonMaterials:    []string{},
		PreferredCountries: []string{},
	}
	if len(history) == 0 {
		return profile
	}

	total := 0
	counts := make(map[string]int)
	countries := make(map[string]string)
	for _, scan := range history {
		total += scan.EcoScore.Score
		for _, m := range scanMaterials(scan) {
			counts[m]++
		}
		if c := strings.TrimSpace(scan.Country); c != "" && !strings.EqualFold(c, "unknown") {
			key := strings.ToLower(c)
			if _, ok := countries[key]; !ok {
				countries[key] = c
			}
		}
	}
	profile.AverageScore = float64(total) / float64(len(history))

	for m, n := range counts {
		if n >= 2 {
			profile.CommonMaterials = append(profile.CommonMaterials, m)
		}
	}
	sort.Strings(profile.CommonMaterials)
	if len(profile.CommonMaterials) == 0 {
		if m, ok := mostFrequent(counts); ok {
			profile.CommonMaterials = append(profile.CommonMaterials, m)
		}
	}

	for _, c := range countries {
		profile.PreferredCountries = append(profile.PreferredCountries, c)
	}
	sort.Strings(profile.PreferredCountries)
	return profile
}

// SelectReference picks the scan that seeds a picks request. The caller
// passes the rotation index explicitly; it wraps around the history.
func SelectReference(history []models.ScanResult, rotation int) (models.ScanResult, bool) {
	if len(history) == 0 {
		return models.ScanResult{}, false
	}
	i := rotation % len(history)
	if i < 0 {
		i += len(history)
	}
	return history[i], true
}

// scanMaterials returns the distinct materials of one scan, preferring the
// resolved fiber keys over the raw material text.
func scanMaterials(scan models.ScanResult) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(m string) {
		m = normalizeKey(m)
		if m == "" || m == "unknown" || seen[m] {
			return
		}
		seen[m] = true
		out = append(out, m)
	}
	if len(scan.Fibers) > 0 {
		for _, f := range scan.Fibers {
			add(f)
		}
		return out
	}
	add(scan.Material)
	return out
}

// mostFrequent breaks ties lexically so the result does not depend on map order.
func mostFrequent(counts map[string]int) (string, bool) {
	best, bestN := "", 0
	for m, n := range counts {
		if n > bestN || (n == bestN && m < best) {
			best, bestN = m, n
		}
	}
	return best, bestN > 0
}
