package ecoscore

import (
	"math"

	"github.com/arnavs06/HackNYU/internal/models"
)

var flagLabels = map[models.FlagType]map[models.Severity]string{
	models.FlagMicroplastic: {
		models.SeverityLow:    "Some Microplastic Shedding",
		models.SeverityMedium: "Microplastic Shedding",
		models.SeverityHigh:   "Heavy Microplastic Shedding",
	},
	models.FlagCarbon: {
		models.SeverityLow:    "Low Carbon Footprint",
		models.SeverityMedium: "Moderate Carbon Footprint",
		models.SeverityHigh:   "High Carbon Footprint",
	},
	models.FlagWater: {
		models.SeverityLow:    "Low Water Usage",
		models.SeverityMedium: "Moderate Water Usage",
		models.SeverityHigh:   "High Water Usage",
	},
	models.FlagLabor: {
		models.SeverityLow:    "Low Labor Risk",
		models.SeverityMedium: "Moderate Labor Risk",
		models.SeverityHigh:   "High Labor Risk",
	},
}

// flags evaluates microplastic, carbon, water and labor in that order.
// Unknown fibers carry no carbon or water data and an unknown origin raises
// no labor flag.
func flags(fibers []WeightedFiber, originWeight float64, originKnown bool) []models.ImpactFlag {
	out := []models.ImpactFlag{}

	synthetic := 0.0
	for _, f := range fibers {
		if f.Synthetic && f.Share > synthetic {
			synthetic = f.Share
		}
	}
	if synthetic >= MicroplasticThreshold {
		sev := models.SeverityLow
		switch {
		case synthetic >= 70:
			sev = models.SeverityHigh
		case synthetic >= 50:
			sev = models.SeverityMedium
		}
		out = appendFlag(out, models.FlagMicroplastic, sev)
	}

	if tier, ok := fiberTier(fibers, func(f Fiber) int { return f.Carbon }); ok {
		out = appendFlag(out, models.FlagCarbon, severityForTier(tier))
	}
	if tier, ok := fiberTier(fibers, func(f Fiber) int { return f.Water }); ok {
		out = appendFlag(out, models.FlagWater, severityForTier(tier))
	}
	if originKnown {
		out = appendFlag(out, models.FlagLabor, severityForTier(tierOf(originWeight)))
	}
	return out
}

func appendFlag(out []models.ImpactFlag, t models.FlagType, sev models.Severity) []models.ImpactFlag {
	if sev == "" {
		return out
	}
	return append(out, models.ImpactFlag{Type: t, Severity: sev, Label: flagLabels[t][sev]})
}

// fiberTier is the share-weighted tier of fibers that carry data for attr.
func fiberTier(fibers []WeightedFiber, attr func(Fiber) int) (int, bool) {
	sum, shares := 0.0, 0.0
	for _, f := range fibers {
		v := attr(f.Fiber)
		if !f.Known || v <= 0 {
			continue
		}
		sum += float64(v) * f.Share
		shares += f.Share
	}
	if shares == 0 {
		return 0, false
	}
	return tierOf(sum / shares), true
}

func tierOf(weight float64) int {
	return min(max(int(math.Round(weight)), 1), 5)
}

// severityForTier returns "" for the best tier, which raises no flag.
func severityForTier(tier int) models.Severity {
	switch {
	case tier <= 1:
		return ""
	case tier == 2:
		return models.SeverityLow
	case tier == 3:
		return models.SeverityMedium
	default:
		return models.SeverityHigh
	}
}
