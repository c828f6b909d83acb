package output

import (
	"encoding/json"

	"github.com/aeolens/aeolens/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatSimulation renders a simulation as JSON.
func (f *JSONFormatter) FormatSimulation(sim *core.Simulation) (string, error) {
	if sim == nil {
		return "", nil
	}
	return f.marshal(sim)
}

// FormatEnsemble renders an ensemble result as JSON.
func (f *JSONFormatter) FormatEnsemble(result *core.EnsembleResult) (string, error) {
	if result == nil {
		return "", nil
	}
	return f.marshal(result)
}

func (f *JSONFormatter) marshal(value any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
