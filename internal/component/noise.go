package component

import "fmt"

type NoiseLevel uint8

const (
	NoiseNone NoiseLevel = iota
	NoiseSilent
	NoiseModerate
	NoiseLoud
	NoiseExtreme
)

var noiseRadius = [...]float64{
	NoiseNone:     0,
	NoiseSilent:   64,
	NoiseModerate: 360,
	NoiseLoud:     720,
	NoiseExtreme:  1440,
}

var noiseNames = [...]string{"none", "silent", "moderate", "loud", "extreme"}

// Radius is how far away the noise can be heard, in world units.
func (n NoiseLevel) Radius() float64 {
	if int(n) < len(noiseRadius) {
		return noiseRadius[n]
	}
	return noiseRadius[NoiseExtreme]
}

func (n NoiseLevel) String() string {
	if int(n) < len(noiseNames) {
		return noiseNames[n]
	}
	return fmt.Sprintf("noise(%d)", uint8(n))
}

func ParseNoiseLevel(s string) (NoiseLevel, error) {
	for i, name := range noiseNames {
		if name == s {
			return NoiseLevel(i), nil
		}
	}
	return NoiseNone, fmt.Errorf("unknown noise level %q", s)
}

// Aggression governs what an idle agent looks for.
type Aggression uint8

const (
	Neutral Aggression = iota
	Passive
	Aggressive
)

func (a Aggression) String() string {
	switch a {
	case Passive:
		return "passive"
	case Aggressive:
		return "aggressive"
	}
	return "neutral"
}

func ParseAggression(s string) (Aggression, error) {
	switch s {
	case "", "neutral":
		return Neutral, nil
	case "passive":
		return Passive, nil
	case "aggressive":
		return Aggressive, nil
	}
	return Neutral, fmt.Errorf("unknown aggression %q", s)
}
