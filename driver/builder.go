package driver

import (
	"github.com/sarchlab/accelsim/sim"
)

// Builder can build drivers.
type Builder struct {
	engine       sim.EventScheduler
	issuer       Issuer
	pollInterval sim.VTimeInTick
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		pollInterval: 10_000,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithIssuer sets where the register accesses go.
func (b Builder) WithIssuer(issuer Issuer) Builder {
	b.issuer = issuer
	return b
}

// WithPollInterval sets the time between two reads of a polled register.
func (b Builder) WithPollInterval(interval sim.VTimeInTick) Builder {
	b.pollInterval = interval
	return b
}

// Build creates a Driver.
func (b Builder) Build(name string) *Driver {
	if b.engine == nil {
		panic("engine is not set")
	}

	if b.issuer == nil {
		panic("issuer is not set")
	}

	return &Driver{
		ComponentBase: sim.NewComponentBase(name),
		engine:        b.engine,
		issuer:        b.issuer,
		pollInterval:  b.pollInterval,
	}
}
