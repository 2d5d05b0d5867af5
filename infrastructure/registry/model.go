package registry

import "fmt"

// ErrUnknownModel indicates a submission named a model the registry
// has no definition for.
type ErrUnknownModel struct {
	Model string
}

func (e *ErrUnknownModel) Error() string {
	return fmt.Sprintf("unknown model %q", e.Model)
}

// Model is one registered evaluation job type: a name and the ordered
// parameters a submission must supply.
type Model struct {
	Name       string
	Parameters []Parameter
}

// parse validates raw against the model's parameter list, returning the
// coerced values keyed by parameter name.
func (m Model) parse(raw map[string]any) (map[string]any, error) {
	values := make(map[string]any, len(m.Parameters))
	for _, p := range m.Parameters {
		v, err := p.Parse(raw[p.Name()])
		if err != nil {
			return nil, err
		}
		values[p.Name()] = v
	}
	return values, nil
}
