package scoring

import "strings"

// Weights configures the scoring lookup tables. Keys are matched case-insensitively.
type Weights struct {
	Intent            map[string]float64
	Engagement        map[string]float64
	DefaultIntent     float64
	DefaultEngagement float64
	RevenueIntent     float64
	RevenueEngagement float64
	PredictiveFactor  float64
}

// DefaultWeights returns the canonical weighting scheme.
func DefaultWeights() Weights {
	return Weights{
		Intent: map[string]float64{
			"form_submit":  10,
			"signup":       10,
			"demo_request": 10,
			"booking":      15,
			"purchase":     20,
			"pricing_view": 5,
			"email_click":  3,
			"pageview":     1.5,
			"page_view":    1.5,
		},
		Engagement: map[string]float64{
			"email":       2,
			"paid_search": 2.5,
			"website":     1.5,
			"social":      1.5,
			"referral":    1.5,
			"direct":      1,
			"crm":         1,
		},
		DefaultIntent:     1,
		DefaultEngagement: 1,
		RevenueIntent:     0.1,
		RevenueEngagement: 0.05,
		PredictiveFactor:  0.5,
	}
}

// Merge overlays non-zero values from override onto w. Table entries are merged key by key.
func (w Weights) Merge(override Weights) Weights {
	out := Weights{
		Intent:            mergeTable(w.Intent, override.Intent),
		Engagement:        mergeTable(w.Engagement, override.Engagement),
		DefaultIntent:     pick(override.DefaultIntent, w.DefaultIntent),
		DefaultEngagement: pick(override.DefaultEngagement, w.DefaultEngagement),
		RevenueIntent:     pick(override.RevenueIntent, w.RevenueIntent),
		RevenueEngagement: pick(override.RevenueEngagement, w.RevenueEngagement),
		PredictiveFactor:  pick(override.PredictiveFactor, w.PredictiveFactor),
	}
	return out
}

// normalize lowercases keys and clamps every weight to be non-negative so scores never decrease.
func (w Weights) normalize() Weights {
	w.Intent = lowerTable(w.Intent)
	w.Engagement = lowerTable(w.Engagement)
	w.DefaultIntent = nonNegative(w.DefaultIntent)
	w.DefaultEngagement = nonNegative(w.DefaultEngagement)
	w.RevenueIntent = nonNegative(w.RevenueIntent)
	w.RevenueEngagement = nonNegative(w.RevenueEngagement)
	w.PredictiveFactor = nonNegative(w.PredictiveFactor)
	return w
}

func mergeTable(base, override map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func lowerTable(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[strings.ToLower(strings.TrimSpace(k))] = nonNegative(v)
	}
	return out
}

func pick(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
