// Package prefabs loads YAML goal-set specs and compiles them against a
// behavior factory registry, so an agent's whole goal lineup lives in a
// data file. Embedded defaults ship with the binary and a prefabs/
// directory next to it overrides them during iteration.
package prefabs

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Spec is a named goal lineup for one kind of agent.
type Spec struct {
	Name  string     `yaml:"name"`
	Goals []GoalSpec `yaml:"goals"`
}

// GoalSpec describes one goal in a lineup. Behavior names a factory in
// the registry; Params carries the factory's tuning knobs. Composite
// entries add Mode, Loop, and Subs, scripted entries name their Script,
// and Flags overrides the claimed channels where the behavior cannot
// infer them.
type GoalSpec struct {
	Behavior  string         `yaml:"behavior"`
	ID        string         `yaml:"id"`
	Priority  int            `yaml:"priority"`
	Condition string         `yaml:"condition"`
	Params    map[string]any `yaml:"params"`
	Mode      string         `yaml:"mode"`
	Loop      bool           `yaml:"loop"`
	Subs      []GoalSpec     `yaml:"subs"`
	Script    string         `yaml:"script"`
	Flags     []string       `yaml:"flags"`
}

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// LoadGoalSet reads and sanity-checks a goal-set spec by filename.
func LoadGoalSet(filename string) (Spec, error) {
	spec, err := LoadSpec[Spec](filename)
	if err != nil {
		return Spec{}, err
	}
	if spec.Name == "" {
		return Spec{}, fmt.Errorf("prefabs: %s: missing name", filename)
	}
	if len(spec.Goals) == 0 {
		return Spec{}, fmt.Errorf("prefabs: %s: no goals", filename)
	}
	return spec, nil
}

// DecodeParams reinterprets a GoalSpec's raw params map as a typed
// params struct via a yaml round trip.
func DecodeParams[T any](raw map[string]any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}
