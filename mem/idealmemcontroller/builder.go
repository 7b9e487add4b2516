package idealmemcontroller

import (
	"github.com/sarchlab/accelsim/mem"
	"github.com/sarchlab/accelsim/sim"
)

// Builder can build ideal memory controllers.
type Builder struct {
	latency          int
	freq             sim.Freq
	capacity         uint64
	engine           sim.EventScheduler
	storage          *mem.Storage
	addressConverter mem.AddressConverter
}

// MakeBuilder returns a new Builder
func MakeBuilder() Builder {
	return Builder{
		latency:  100,
		freq:     1 * sim.GHz,
		capacity: 4 * mem.GB,
	}
}

// WithLatency sets the latency of the memory controller, in cycles.
func (b Builder) WithLatency(latency int) Builder {
	b.latency = latency
	return b
}

// WithFreq sets the frequency of the memory controller
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithNewStorage sets the capacity of the memory controller
func (b Builder) WithNewStorage(capacity uint64) Builder {
	b.capacity = capacity
	return b
}

// WithEngine sets the engine of the memory controller
func (b Builder) WithEngine(engine sim.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithStorage sets the storage of the memory controller
func (b Builder) WithStorage(storage *mem.Storage) Builder {
	b.storage = storage
	return b
}

// WithAddressConverter sets the address converter of the memory controller
func (b Builder) WithAddressConverter(
	addressConverter mem.AddressConverter,
) Builder {
	b.addressConverter = addressConverter
	return b
}

// Build builds a new Comp
func (b Builder) Build(
	name string,
) *Comp {
	if b.engine == nil {
		panic("engine is not set")
	}

	c := &Comp{
		Engine:           b.engine,
		Freq:             b.freq,
		Latency:          b.latency,
		addressConverter: b.addressConverter,
	}

	c.ComponentBase = sim.NewComponentBase(name)

	if b.storage == nil {
		c.Storage = mem.NewStorage(b.capacity)
	} else {
		c.Storage = b.storage
	}

	return c
}
