package sim

// A Simulation holds the engine and the components of a simulated system.
type Simulation struct {
	engine        Engine
	components    []Component
	compNameIndex map[string]int
}

// NewSimulation creates a new simulation driven by the engine.
func NewSimulation(engine Engine) *Simulation {
	return &Simulation{
		engine:        engine,
		compNameIndex: make(map[string]int),
	}
}

// GetEngine returns the engine of the simulation.
func (s *Simulation) GetEngine() Engine {
	return s.engine
}

// RegisterComponent registers a component with the simulation.
func (s *Simulation) RegisterComponent(c Component) {
	compName := c.Name()
	if _, found := s.compNameIndex[compName]; found {
		panic("component " + compName + " already registered")
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1
}

// Components returns the registered components in registration order.
func (s *Simulation) Components() []Component {
	return s.components
}

// GetComponentByName returns the component with the given name, or nil.
func (s *Simulation) GetComponentByName(name string) Component {
	i, found := s.compNameIndex[name]
	if !found {
		return nil
	}

	return s.components[i]
}
