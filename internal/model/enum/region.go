package enum

// Region is a body region a hit can land on.
type Region uint8

const (
	_region_beg Region = iota
	RegionHead
	RegionChest
	RegionBelly
	RegionLeftArm
	RegionRightArm
	RegionLeftLeg
	RegionRightLeg
	RegionNeck
	_region_end
)

// RegionNone is the zero value; a hit without a region still counts toward damage totals.
const RegionNone = _region_beg

// RegionCount is the number of named regions.
const RegionCount = int(_region_end) - 1

var regionNames = [...]string{
	RegionHead:     "Head",
	RegionChest:    "Chest",
	RegionBelly:    "Belly",
	RegionLeftArm:  "LeftArm",
	RegionRightArm: "RightArm",
	RegionLeftLeg:  "LeftLeg",
	RegionRightLeg: "RightLeg",
	RegionNeck:     "Neck",
}

var regionColumns = [...]string{
	RegionHead:     "head",
	RegionChest:    "chest",
	RegionBelly:    "belly",
	RegionLeftArm:  "left_arm",
	RegionRightArm: "right_arm",
	RegionLeftLeg:  "left_leg",
	RegionRightLeg: "right_leg",
	RegionNeck:     "neck",
}

func (r Region) IsAvailable() bool {
	return r > _region_beg && r < _region_end
}

func (r Region) String() string {
	if !r.IsAvailable() {
		return "None"
	}
	return regionNames[r]
}

// Column returns the counter column name, or "" for RegionNone.
func (r Region) Column() string {
	if !r.IsAvailable() {
		return ""
	}
	return regionColumns[r]
}

// Classify maps a hit-location code to its region.
// Codes 1..8 follow the game's hitgroup numbering; anything else has no region.
func Classify(code int) (Region, bool) {
	r := Region(code)
	if code <= 0 || code >= int(_region_end) || !r.IsAvailable() {
		return RegionNone, false
	}
	return r, true
}

// Regions lists every named region in hitgroup order.
func Regions() []Region {
	out := make([]Region, 0, RegionCount)
	for r := _region_beg + 1; r < _region_end; r++ {
		out = append(out, r)
	}
	return out
}
