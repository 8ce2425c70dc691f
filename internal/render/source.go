package render

import "math"

// sourceLuma stands in for the camera feed: a slowly drifting plasma in [0,1].
func sourceLuma(u, v, t float64) float64 {
	v1 := math.Sin((u*3.4 + t*1.2) * 0.9)
	v2 := math.Sin((v*4.1 - t*0.7) * 1.1)
	v3 := math.Sin((u+v)*2.3 + t*1.7)
	return clamp01(((v1+v2+v3)/3.0 + 1.0) * 0.5)
}

func sourceHue(u, v, t float64) float64 {
	return frac(0.55 + u*0.25 + v*0.15 + t*0.03)
}

// fractalNoise returns smooth value noise in [-1,1].
func fractalNoise(x, y float64) float64 {
	amp := 0.5
	freq := 1.0
	total := 0.0
	sumAmp := 0.0

	for i := 0; i < 4; i++ {
		total += valueNoise2(x*freq, y*freq) * amp
		sumAmp += amp
		amp *= 0.5
		freq *= 2.0
	}
	return (total/sumAmp)*2.0 - 1.0
}

func valueNoise2(x, y float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)

	sx := smoothstep(x - x0)
	sy := smoothstep(y - y0)

	n00 := hash2(x0, y0)
	n10 := hash2(x0+1, y0)
	n01 := hash2(x0, y0+1)
	n11 := hash2(x0+1, y0+1)

	return lerp(lerp(n00, n10, sx), lerp(n01, n11, sx), sy)
}

func hash2(x, y float64) float64 {
	return frac(math.Sin(x*127.1+y*311.7) * 43758.5453123)
}

func smoothstep(v float64) float64 {
	return v * v * (3 - 2*v)
}

func frac(v float64) float64 {
	return v - math.Floor(v)
}
