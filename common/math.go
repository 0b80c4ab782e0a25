package common

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MoveToward steps current toward target by at most maxDelta without
// overshooting.
func MoveToward(current, target, maxDelta float64) float64 {
	d := target - current
	if d > maxDelta {
		return current + maxDelta
	}
	if d < -maxDelta {
		return current - maxDelta
	}
	return target
}
