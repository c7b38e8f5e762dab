package bar

import (
	"math"

	"boneyard.bar/internal/sim/catalogs"
)

// UpgradeCost is the undiscounted price of buying def at the given level.
func UpgradeCost(def catalogs.UpgradeDef, level int) float64 {
	return math.Floor(def.BaseCost * math.Pow(def.CostMultiplier, float64(level)))
}

// upgradeCost applies the sustainable-practices discount on top of the base
// exponential curve. The discount is global: it covers every upgrade,
// including sustainable_practices itself.
func (b *Bar) upgradeCost(def catalogs.UpgradeDef) float64 {
	cost := UpgradeCost(def, b.level(def.ID))
	discount := 1 - float64(b.level("sustainable_practices"))*0.05
	if discount < 0 {
		discount = 0
	}
	return math.Floor(cost * discount)
}

func (b *Bar) upgradeMaxed(def catalogs.UpgradeDef) bool {
	return def.MaxLevel > 0 && b.level(def.ID) >= def.MaxLevel
}
