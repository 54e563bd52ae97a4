package component

// Stats holds an agent's attributes, the values derived from them, and its
// current vitals.
type Stats struct {
	Strength     int
	Dexterity    int
	Constitution int
	Intelligence int
	Willpower    int
	Perception   int
	Charisma     int

	MaxHealth     float64
	MaxStamina    float64
	MaxEnergy     float64
	HealthRegen   float64
	StaminaRegen  float64
	EnergyRegen   float64
	MoveSpeed     float64
	ViewDistance  float64
	CarryCapacity float64

	Health  float64
	Stamina float64
	Energy  float64
}

// Recalculate derives maxima, regeneration, speed, view distance and carry
// capacity from the attributes. Integer division is intended.
func (s *Stats) Recalculate() {
	s.MaxHealth = float64(s.Constitution+s.Strength/4+s.Willpower/4) * 100
	s.MaxStamina = float64(s.Constitution+s.Dexterity/4+s.Willpower/4) * 100
	s.MaxEnergy = float64(s.Willpower+s.Constitution/2) * 100
	s.HealthRegen = float64(s.Constitution+s.Strength/4+s.Willpower/4) * 0.1
	s.StaminaRegen = float64(s.Constitution+s.Dexterity/4+s.Willpower/4) * 8
	s.EnergyRegen = float64(s.Willpower+s.Constitution/2) * 0.5
	s.MoveSpeed = float64(s.Dexterity+s.Strength/4+s.Willpower/4) * 0.1
	s.ViewDistance = float64(s.Perception+s.Intelligence/2) * 20
	s.CarryCapacity = float64(s.Strength+s.Constitution/4+s.Willpower/4) * 50
}

// FillVitals sets current vitals to their maxima.
func (s *Stats) FillVitals() {
	s.Health = s.MaxHealth
	s.Stamina = s.MaxStamina
	s.Energy = s.MaxEnergy
}

// Regenerate advances vitals by dt seconds without exceeding the maxima.
func (s *Stats) Regenerate(dt float64) {
	s.Health = min(s.Health+s.HealthRegen*dt, max(s.Health, s.MaxHealth))
	s.Stamina = min(s.Stamina+s.StaminaRegen*dt, max(s.Stamina, s.MaxStamina))
	s.Energy = min(s.Energy+s.EnergyRegen*dt, max(s.Energy, s.MaxEnergy))
}
