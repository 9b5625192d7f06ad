package domain

// StepMode tells the executor how to run the components of a step.
type StepMode string

const (
	// StepModeStepByStep runs components sequentially. Accepted by the executor
	// but never produced by the compiler.
	StepModeStepByStep StepMode = "StepByStep"
	// StepModeDAG runs the components of a step independently (in parallel).
	StepModeDAG StepMode = "DAG"
)

// Step is a named group of same-level components submitted to the executor.
type Step struct {
	Name       string   `json:"name" yaml:"name"`
	Mode       StepMode `json:"mode" yaml:"mode"`
	Components []string `json:"components" yaml:"components"`
}
