package catalog

import (
	"math/rand/v2"
	"strings"

	"github.com/dukerupert/lifemate/internal/i18n"
)

const (
	TipsRain    = "rain"
	TipsCold    = "cold"
	TipsHot     = "hot"
	TipsGeneral = "general"
)

// TipPool picks the health-tip pool for the current weather.
func TipPool(condition string, temperatureCelsius float64) string {
	cond := strings.ToLower(condition)
	switch {
	case strings.Contains(cond, "rain") || strings.Contains(cond, "drizzle"):
		return TipsRain
	case temperatureCelsius < 15:
		return TipsCold
	case temperatureCelsius > 28:
		return TipsHot
	default:
		return TipsGeneral
	}
}

// HealthTip returns a random tip from pool, or from the general pool when
// pool is unknown or empty.
func (c *Catalog) HealthTip(pool string) i18n.Translations {
	tips := c.HealthTips[pool]
	if len(tips) == 0 {
		tips = c.HealthTips[TipsGeneral]
	}
	if len(tips) == 0 {
		return nil
	}
	return tips[rand.IntN(len(tips))]
}
