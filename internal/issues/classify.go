package issues

import (
	"strings"

	"opspulse/pkg/contracts/domain"
)

type layerRule struct {
	layer    domain.TechLayer
	keywords []string
}

// rules are checked in order; the first keyword hit decides the layer.
var rules = []layerRule{
	{domain.LayerApp, []string{"app", "software", "finish button", "order stuck", "otp"}},
	{domain.LayerHardware, []string{"atg", "sensor", "battery", "hardware", "pump"}},
	{domain.LayerConnectivity, []string{"bluetooth", "connectivity", "network", "offline"}},
	{domain.LayerDataSync, []string{"sync", "data", "mismatch", "backend", "correction"}},
}

// Classify maps an issue token to its tech layer by case-insensitive keyword
// containment. Tokens matching no keyword are Other.
func Classify(token string) domain.TechLayer {
	lower := strings.ToLower(token)
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.layer
			}
		}
	}
	return domain.LayerOther
}

// LayerBreakdown counts the issue tokens of every record per tech layer.
// All five layers are returned in precedence order, zero counts included.
func LayerBreakdown(records []domain.Record) []domain.LayerCount {
	counts := make(map[domain.TechLayer]int, len(rules)+1)
	for _, r := range records {
		for _, token := range Tokenize(r.IssueText()) {
			counts[Classify(token)]++
		}
	}

	layers := domain.TechLayers()
	out := make([]domain.LayerCount, len(layers))
	for i, layer := range layers {
		out[i] = domain.LayerCount{Layer: layer, Count: counts[layer]}
	}
	return out
}
