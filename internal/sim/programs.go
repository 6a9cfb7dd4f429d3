package sim

import "math"

// SteeringProgram scripts the pilot for headless runs: Steer returns
// the analog input in [-1, 1] for simulated time t.
type SteeringProgram interface {
	Steer(t float64) float64
}

// None keeps the bar centered.
type None struct{}

func (None) Steer(float64) float64 { return 0 }

// Hold applies a constant input.
type Hold struct{ Value float64 }

func (h Hold) Steer(float64) float64 { return h.Value }

// Square alternates between +Value and -Value every half Period,
// after an initial Delay of centered flight.
type Square struct {
	Period float64
	Value  float64
	Delay  float64
}

func (s Square) Steer(t float64) float64 {
	if t < s.Delay || s.Period <= 0 {
		return 0
	}
	phase := math.Mod(t-s.Delay, s.Period)
	if phase < s.Period/2 {
		return s.Value
	}
	return -s.Value
}

// Flip holds +1 until At, then -1: the hard steering reversal used to
// probe stability.
type Flip struct{ At float64 }

func (f Flip) Steer(t float64) float64 {
	if t < f.At {
		return 1
	}
	return -1
}

// Programs maps CLI names to program constructors.
func Programs() map[string]func() SteeringProgram {
	return map[string]func() SteeringProgram{
		"none":  func() SteeringProgram { return None{} },
		"left":  func() SteeringProgram { return Hold{Value: -1} },
		"right": func() SteeringProgram { return Hold{Value: 1} },
		"weave": func() SteeringProgram { return Square{Period: 6, Value: 0.7, Delay: 4} },
		"flip":  func() SteeringProgram { return Flip{At: 8} },
	}
}
