package refdata

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/consolidador-t25/tarifas-cli/internal/normalize"
)

// Overlay is an optional operator-maintained extension file for the
// reference sets. New supplier sheets occasionally surface place names or
// boilerplate tokens the built-in lists miss; the overlay lets those be
// added without a release.
type Overlay struct {
	Cities              []string `yaml:"ciudades"`
	Departments         []string `yaml:"departamentos"`
	ExcludedSheets      []string `yaml:"hojas_excluir"`
	InvalidCodeKeywords []string `yaml:"palabras_invalidas"`
}

// LoadOverlay reads a YAML overlay file and merges it into the process-wide
// sets. It must be called during startup, before any extraction begins; the
// sets are treated as immutable afterwards.
func LoadOverlay(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrap(err, "refdata: read overlay")
	}

	var o Overlay
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return eris.Wrap(err, "refdata: parse overlay")
	}

	for _, c := range o.Cities {
		Cities[normalize.Text(c)] = true
	}
	for _, d := range o.Departments {
		Departments[normalize.Text(d)] = true
	}
	for _, h := range o.ExcludedSheets {
		ExcludedSheets[normalize.Text(h)] = true
	}
	for _, k := range o.InvalidCodeKeywords {
		InvalidCodeKeywords = append(InvalidCodeKeywords, normalize.Text(k))
	}

	return nil
}
