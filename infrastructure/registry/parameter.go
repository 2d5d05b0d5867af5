// Package registry is a minimal, concrete model-parameter registry:
// the broker's one external collaborator, implementing the
// Decoder/Payload boundary the broker itself only depends on as an
// interface. A handful of typed parameter kinds, each validating and
// coercing the raw value a client submits.
package registry

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrValidation indicates a submitted parameter value failed coercion
// or range checking.
type ErrValidation struct {
	Parameter string
	Reason    string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Parameter, e.Reason)
}

// Parameter describes one named, typed field a model accepts.
type Parameter interface {
	// Name is the wire key this parameter binds to.
	Name() string

	// Parse validates and coerces a raw submitted value, returning the
	// value to store on the submission.
	Parse(raw any) (any, error)
}

// StringParameter accepts any value, stored as its string form.
type StringParameter struct {
	ParamName string
	Default   string
}

func (p StringParameter) Name() string { return p.ParamName }

func (p StringParameter) Parse(raw any) (any, error) {
	if raw == nil {
		return p.Default, nil
	}
	return fmt.Sprintf("%v", raw), nil
}

// FloatParameter accepts a number, optionally bounded by [RangeStart, RangeEnd].
type FloatParameter struct {
	ParamName            string
	RangeStart, RangeEnd *float64
	Default              float64
}

func (p FloatParameter) Name() string { return p.ParamName }

func (p FloatParameter) Parse(raw any) (any, error) {
	if raw == nil {
		return p.Default, nil
	}
	v, err := toFloat(raw)
	if err != nil {
		return nil, &ErrValidation{Parameter: p.ParamName, Reason: err.Error()}
	}
	if p.RangeStart != nil && v < *p.RangeStart {
		return nil, &ErrValidation{Parameter: p.ParamName, Reason: fmt.Sprintf("%v below minimum %v", v, *p.RangeStart)}
	}
	if p.RangeEnd != nil && v > *p.RangeEnd {
		return nil, &ErrValidation{Parameter: p.ParamName, Reason: fmt.Sprintf("%v above maximum %v", v, *p.RangeEnd)}
	}
	return v, nil
}

// IntegerParameter accepts a whole number, optionally bounded.
type IntegerParameter struct {
	ParamName            string
	RangeStart, RangeEnd *int
	Default              int
}

func (p IntegerParameter) Name() string { return p.ParamName }

func (p IntegerParameter) Parse(raw any) (any, error) {
	if raw == nil {
		return p.Default, nil
	}
	f, err := toFloat(raw)
	if err != nil {
		return nil, &ErrValidation{Parameter: p.ParamName, Reason: err.Error()}
	}
	v := int(f)
	if p.RangeStart != nil && v < *p.RangeStart {
		return nil, &ErrValidation{Parameter: p.ParamName, Reason: fmt.Sprintf("%d below minimum %d", v, *p.RangeStart)}
	}
	if p.RangeEnd != nil && v > *p.RangeEnd {
		return nil, &ErrValidation{Parameter: p.ParamName, Reason: fmt.Sprintf("%d above maximum %d", v, *p.RangeEnd)}
	}
	return v, nil
}

// RangeParameter accepts either a two-element slice or a "start-end"
// string and stores the bounds as a [2]float64.
type RangeParameter struct {
	ParamName            string
	RangeStart, RangeEnd float64
	Step                 float64
}

func (p RangeParameter) Name() string { return p.ParamName }

func (p RangeParameter) Parse(raw any) (any, error) {
	if raw == nil {
		return [2]float64{p.RangeStart, p.RangeEnd}, nil
	}
	switch v := raw.(type) {
	case string:
		parts := strings.SplitN(v, "-", 2)
		if len(parts) != 2 {
			return nil, &ErrValidation{Parameter: p.ParamName, Reason: fmt.Sprintf("expected \"start-end\", got %q", v)}
		}
		start, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, &ErrValidation{Parameter: p.ParamName, Reason: "non-numeric range start"}
		}
		end, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, &ErrValidation{Parameter: p.ParamName, Reason: "non-numeric range end"}
		}
		return [2]float64{start, end}, nil
	case []any:
		if len(v) != 2 {
			return nil, &ErrValidation{Parameter: p.ParamName, Reason: "expected a two-element range"}
		}
		start, err := toFloat(v[0])
		if err != nil {
			return nil, &ErrValidation{Parameter: p.ParamName, Reason: "non-numeric range start"}
		}
		end, err := toFloat(v[1])
		if err != nil {
			return nil, &ErrValidation{Parameter: p.ParamName, Reason: "non-numeric range end"}
		}
		return [2]float64{start, end}, nil
	default:
		return nil, &ErrValidation{Parameter: p.ParamName, Reason: "unsupported range representation"}
	}
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("cannot coerce %T to a number", raw)
	}
}
