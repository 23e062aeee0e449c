package dynamo

import "fmt"

// Params are the physics parameters. They are passed by value into every
// sub-step, so a write between ticks is picked up on the next one.
type Params struct {
	Gravity        float64 `json:"gravity" yaml:"gravity"`
	Friction       float64 `json:"friction" yaml:"friction"`
	Repulsion      float64 `json:"repulsion" yaml:"repulsion"`
	BondStiffness  float64 `json:"bondStiffness" yaml:"bond_stiffness"`
	Temperature    float64 `json:"temperature" yaml:"temperature"`
	TimeStep       float64 `json:"timeStep" yaml:"time_step"`
	Electrostatics bool    `json:"useElectro" yaml:"electrostatics"`
}

func DefaultParams() Params {
	return Params{
		Gravity:        0,
		Friction:       0.96,
		Repulsion:      1500,
		BondStiffness:  0.1,
		Temperature:    0,
		TimeStep:       1,
		Electrostatics: true,
	}
}

// Validate rejects parameter sets the solver cannot run sensibly.
func (p Params) Validate() error {
	switch {
	case p.Gravity < 0:
		return fmt.Errorf("%w: gravity must be >= 0, got %g", ErrInvalidParams, p.Gravity)
	case p.Friction < 0 || p.Friction > 1:
		return fmt.Errorf("%w: friction must be in [0,1], got %g", ErrInvalidParams, p.Friction)
	case p.Repulsion < 0:
		return fmt.Errorf("%w: repulsion must be >= 0, got %g", ErrInvalidParams, p.Repulsion)
	case p.BondStiffness < 0 || p.BondStiffness > 1:
		return fmt.Errorf("%w: bond stiffness must be in [0,1], got %g", ErrInvalidParams, p.BondStiffness)
	case p.Temperature < 0:
		return fmt.Errorf("%w: temperature must be >= 0, got %g", ErrInvalidParams, p.Temperature)
	case p.TimeStep <= 0:
		return fmt.Errorf("%w: time step must be positive, got %g", ErrInvalidParams, p.TimeStep)
	}
	return nil
}

// GetParams exposes the numeric parameters by name for tuning UIs.
func (p Params) GetParams() map[string]float64 {
	electro := 0.0
	if p.Electrostatics {
		electro = 1
	}
	return map[string]float64{
		"gravity":        p.Gravity,
		"friction":       p.Friction,
		"repulsion":      p.Repulsion,
		"bond_stiffness": p.BondStiffness,
		"temperature":    p.Temperature,
		"time_step":      p.TimeStep,
		"electrostatics": electro,
	}
}

// SetParam sets a parameter by the names used in GetParams.
func (p *Params) SetParam(name string, value float64) error {
	next := *p
	switch name {
	case "gravity":
		next.Gravity = value
	case "friction":
		next.Friction = value
	case "repulsion":
		next.Repulsion = value
	case "bond_stiffness":
		next.BondStiffness = value
	case "temperature":
		next.Temperature = value
	case "time_step":
		next.TimeStep = value
	case "electrostatics":
		next.Electrostatics = value != 0
	default:
		return fmt.Errorf("%w: unknown parameter %q", ErrInvalidParams, name)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}
