package database

import (
	"math"

	"github.com/arnavs06/HackNYU/internal/models"
)

// NoMaterial is reported as the most common material of an empty history.
const NoMaterial = "N/A"

// ComputeStats summarizes a newest-first history. The improvement trend is
// the mean score of the newer half minus the mean of the older half.
func ComputeStats(history []models.ScanResult) models.ScanStats {
	if len(history) == 0 {
		return models.ScanStats{MostCommonMaterial: NoMaterial}
	}

	total := 0
	counts := make(map[string]int)
	var order []string
	for _, s := range history {
		total += s.EcoScore.Score
		if counts[s.Material] == 0 {
			order = append(order, s.Material)
		}
		counts[s.Material]++
	}

	// Ties go to the material seen first, which is the newest scan.
	common := order[0]
	for _, m := range order[1:] {
		if counts[m] > counts[common] {
			common = m
		}
	}

	return models.ScanStats{
		TotalScans:         len(history),
		AverageScore:       int(math.Round(float64(total) / float64(len(history)))),
		MostCommonMaterial: common,
		ImprovementTrend:   trend(history),
	}
}

func trend(history []models.ScanResult) int {
	if len(history) < 2 {
		return 0
	}
	mid := len(history) / 2
	return int(math.Round(meanScore(history[:mid]) - meanScore(history[mid:])))
}

func meanScore(scans []models.ScanResult) float64 {
	sum := 0
	for _, s := range scans {
		sum += s.EcoScore.Score
	}
	return float64(sum) / float64(len(scans))
}
