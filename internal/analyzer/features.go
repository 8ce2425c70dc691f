package analyzer

// Features describes spectral energy distribution and a beat cue.
type Features struct {
	Bass         float64 `json:"bass"`
	Mid          float64 `json:"mid"`
	Treble       float64 `json:"treble"`
	Overall      float64 `json:"overall"`
	BeatStrength float64 `json:"beat"`
}

// Gate applies a noise floor so weak signals read as silence.
func Gate(f Features, floor float64) Features {
	if floor <= 0 || floor >= 1 {
		return f
	}
	gate := func(v float64) float64 {
		if v <= floor {
			return 0
		}
		return clamp((v-floor)/(1.0-floor), 0, 1)
	}
	return Features{
		Bass:         gate(f.Bass),
		Mid:          gate(f.Mid),
		Treble:       gate(f.Treble),
		Overall:      gate(f.Overall),
		BeatStrength: gate(f.BeatStrength),
	}
}
