package profile

import (
	"math"

	"github.com/dustin/go-humanize"
)

// Device tiers
const (
	TierPremium = "premium"
	TierHighEnd = "high-end"
	TierMid     = "mid-range"
	TierBudget  = "budget"
)

const deviceBaseValue = 300

var gpuValue = map[GPUClass]float64{
	GPUPremium:    1500,
	GPUHigh:       800,
	GPUMid:        300,
	GPUIntegrated: 0,
	GPUVirtual:    -100,
	GPUUnknown:    0,
}

// Device is the hardware-value lane's output
type Device struct {
	Tier           string `json:"tier"`
	GPUClass       string `json:"gpuClass"`
	EstimatedValue int    `json:"estimatedValue"`
	ValueLabel     string `json:"valueLabel"`
}

// estimateDevice prices the hardware additively from a base value, applies
// the Apple silicon multiplier, and rounds to the nearest 100.
func estimateDevice(s *Signals) Device {
	value := float64(deviceBaseValue) + gpuValue[s.GPUClass]

	switch {
	case s.Cores >= 16:
		value += 600
	case s.Cores >= 12:
		value += 400
	case s.Cores >= 8:
		value += 200
	case s.Cores >= 4:
		value += 50
	}

	switch {
	case s.MemoryGB >= 32:
		value += 500
	case s.MemoryGB >= 16:
		value += 250
	case s.MemoryGB >= 8:
		value += 100
	}

	switch {
	case s.Is4K:
		value += 400
	case s.IsQHDOrRetina:
		value += 200
	}

	if s.AppleSilicon {
		value *= 1.15
	}

	rounded := int(math.Round(value/100) * 100)
	if rounded < 0 {
		rounded = 0
	}

	tier := TierBudget
	switch {
	case (s.GPUClass == GPUPremium && s.Cores >= 12) || rounded >= 2000:
		tier = TierPremium
	case rounded >= 1200:
		tier = TierHighEnd
	case rounded >= 600:
		tier = TierMid
	}

	return Device{
		Tier:           tier,
		GPUClass:       string(s.GPUClass),
		EstimatedValue: rounded,
		ValueLabel:     "~$" + humanize.Comma(int64(rounded)),
	}
}
