package ecoscore

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/arnavs06/HackNYU/internal/models"
)

var (
	compositionSeparators = regexp.MustCompile(`[,/;+\n]+`)
	percentPattern        = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)
	decimalComma          = regexp.MustCompile(`(\d),(\d)`)
)

// ParseComposition reads a free-form composition such as
// "80% cotton, 20% polyester" or "55% hemp 45% organic cotton".
// Fibers without a stated percentage get a zero Percentage. A comma between
// two digits is a decimal comma ("87,5%"), not a separator.
func ParseComposition(text string) []models.FiberShare {
	text = decimalComma.ReplaceAllString(text, "$1.$2")
	var shares []models.FiberShare
	for _, part := range compositionSeparators.Split(text, -1) {
		for _, piece := range splitAtPercents(part) {
			share, ok := parseShare(piece)
			if ok {
				shares = append(shares, share)
			}
		}
	}
	return shares
}

// splitAtPercents breaks "55% hemp 45% cotton" into one piece per percentage.
func splitAtPercents(part string) []string {
	locs := percentPattern.FindAllStringIndex(part, -1)
	if len(locs) < 2 {
		return []string{part}
	}
	pieces := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(part)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		start := loc[0]
		if i == 0 {
			start = 0
		}
		pieces = append(pieces, part[start:end])
	}
	return pieces
}

func parseShare(piece string) (models.FiberShare, bool) {
	var pct float64
	if m := percentPattern.FindStringSubmatch(piece); m != nil {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err == nil {
			pct = v
		}
		piece = strings.Replace(piece, m[0], " ", 1)
	}
	if i := strings.LastIndex(piece, ":"); i >= 0 {
		piece = piece[i+1:]
	}
	name := strings.Join(strings.Fields(strings.Trim(piece, " .-()*\t\r")), " ")
	if name == "" {
		return models.FiberShare{}, false
	}
	return models.FiberShare{Fiber: strings.ToLower(name), Percentage: pct}, true
}

// FormatComposition renders shares back into "80% cotton, 20% polyester".
func FormatComposition(shares []models.FiberShare) string {
	parts := make([]string, 0, len(shares))
	for _, s := range shares {
		if s.Percentage > 0 {
			parts = append(parts, strconv.FormatFloat(s.Percentage, 'f', -1, 64)+"% "+s.Fiber)
			continue
		}
		parts = append(parts, s.Fiber)
	}
	return strings.Join(parts, ", ")
}
