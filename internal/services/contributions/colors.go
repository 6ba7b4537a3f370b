package contributions

// MaxIntensity is the highest display bucket
const MaxIntensity = 4

var colorIntensity = map[string]int{
	"#ebedf0": 0,
	"#9be9a8": 1,
	"#40c463": 2,
	"#30a14e": 3,
	"#216e39": 4,
}

// ColorToIntensity maps a calendar cell colour to its intensity bucket.
// Unknown colours map to 0.
func ColorToIntensity(color string) int {
	return colorIntensity[color]
}

func clampIntensity(i int) int {
	return min(max(i, 0), MaxIntensity)
}
