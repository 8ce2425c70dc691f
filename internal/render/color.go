package render

import (
	"fmt"
	"math"
)

const resetANSI = "\x1b[0m"

// fgCodes holds the SGR foreground sequence for every xterm-256 index.
var fgCodes = func() (codes [256]string) {
	for i := range codes {
		codes[i] = fmt.Sprintf("\x1b[38;5;%dm", i)
	}
	return codes
}()

func colorCode(index int) string {
	return fgCodes[clampInt(index, 0, len(fgCodes)-1)]
}

// hsvToRGB uses the channel formulation f(n) = v - v*s*max(0, min(k, 4-k, 1))
// with k = (n + 6h) mod 6, so no sector switch is needed.
func hsvToRGB(h, s, v float64) (r, g, b float64) {
	h, s, v = clamp01(h), clamp01(s), clamp01(v)
	channel := func(n float64) float64 {
		k := math.Mod(n+h*6, 6)
		return v - v*s*math.Max(0, math.Min(math.Min(k, 4-k), 1))
	}
	return channel(5), channel(3), channel(1)
}

// hsvToANSI picks the closest xterm-256 entry. Unsaturated colors go to the
// 24-step grey ramp (232-255), everything else to the 6x6x6 cube (16-231).
func hsvToANSI(h, s, v float64) int {
	r, g, b := hsvToRGB(h, s, v)
	if math.Max(r, math.Max(g, b))-math.Min(r, math.Min(g, b)) < 0.02 {
		return 232 + clampInt(int(math.Round(v*23)), 0, 23)
	}
	level := func(c float64) int { return clampInt(int(c*5+0.5), 0, 5) }
	return 16 + 36*level(r) + 6*level(g) + level(b)
}

func clamp01(v float64) float64 { return clampFloat(v, 0, 1) }

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
