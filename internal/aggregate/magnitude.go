package aggregate

// Bin is a magnitude tier key. The stacking order is small, medium, large,
// major.
type Bin string

const (
	BinSmall  Bin = "small"
	BinMedium Bin = "medium"
	BinLarge  Bin = "large"
	BinMajor  Bin = "major"
)

// Tier is one row of the magnitude classification table.
type Tier struct {
	Threshold float64 `json:"threshold"` // magnitude must be strictly greater
	Bin       Bin     `json:"bin"`
	Label     string  `json:"label"`
	Color     string  `json:"color"`
	Radius    float64 `json:"radius"`
}

// tiers is ordered from the highest threshold down; the last entry catches
// everything.
var tiers = []Tier{
	{Threshold: 8, Bin: BinMajor, Label: ">8.0", Color: "#F44336", Radius: 8},
	{Threshold: 7, Bin: BinLarge, Label: "7.1-8.0", Color: "#FF5722", Radius: 6},
	{Threshold: 6, Bin: BinMedium, Label: "6.1-7.0", Color: "#FFC107", Radius: 4},
	{Bin: BinSmall, Label: "≤6.0", Color: "#4CAF50", Radius: 3},
}

// Classify returns the first tier whose threshold m strictly exceeds.
func Classify(m float64) Tier {
	for _, t := range tiers[:len(tiers)-1] {
		if m > t.Threshold {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// Legend lists the tiers in stacking order, small first.
func Legend() []Tier {
	out := make([]Tier, len(tiers))
	for i, t := range tiers {
		out[len(tiers)-1-i] = t
	}
	return out
}
