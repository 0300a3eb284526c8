package ecoscore

// Tips returns shopper advice for an assessed item, keyed off its score band.
func Tips(a Assessment) []string {
	switch {
	case a.Score >= 80:
		return []string{
			"Great pick. Keep supporting brands that certify their supply chain",
			"Share your low-impact finds with friends",
			"Repair and care for this item to make it last",
		}
	case a.Score >= 60:
		return []string{
			"Solid choice. Look for organic or recycled versions next time",
			"Wash cold and line dry to cut energy use",
			"Favor brands that publish where their clothes are made",
		}
	}

	tips := []string{
		"Look for organic or recycled materials next time",
		"Choose low-impact fibers like linen, hemp or lyocell",
		"Favor brands that publish where their clothes are made",
		"Consider second-hand or vintage options",
	}
	for _, f := range a.Fibers {
		if f.Synthetic && f.Share > 0 {
			tips = append(tips, "Use a microfiber-catching wash bag for synthetic fabrics")
			break
		}
	}
	return tips
}
