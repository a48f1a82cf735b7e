package pipeline

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/revelaction/naf/engine"
	"github.com/revelaction/naf/naf"
	"github.com/revelaction/naf/validate"
)

// ConfigError reports an invalid pipeline configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", engine.ErrConfig, e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return engine.ErrConfig
}

// Validation modes.
const (
	ValidateNone    = ""
	ValidateBuiltin = "builtin"
	ValidateDTD     = "dtd"
)

// Config is the configuration of a pipeline. It is read only once built
// and may be shared between runs.
type Config struct {
	Engine   engine.Name
	Language string

	// Model requested from the engine. Empty selects the engine default.
	Model string

	// Version is the NAF version written.
	Version string

	// Layers to build. Empty builds every layer.
	Layers []naf.Layer

	// PosMapping maps engine POS tags to the NAF tag set.
	PosMapping bool

	// Validation is one of ValidateNone, ValidateBuiltin or ValidateDTD.
	Validation string

	// Commands overrides the command of an engine.
	Commands map[engine.Name][]string

	// EngineOutput is precomputed engine JSON used instead of running the
	// engine.
	EngineOutput []byte

	// Registry resolves Engine. Nil uses DefaultRegistry.
	Registry *engine.Registry
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Engine:   engine.Spacy,
		Language: "en",
		Version:  naf.DefaultVersion,
	}
}

// Check reports the first invalid field as a *ConfigError.
func (c Config) Check() error {
	if c.Engine == "" {
		return &ConfigError{Field: "engine", Message: "no engine selected"}
	}
	if c.Language == "" {
		return &ConfigError{Field: "lang", Message: "no language set"}
	}
	if !lo.Contains(validate.Versions(), c.Version) {
		return &ConfigError{Field: "naf-version", Message: fmt.Sprintf("unsupported NAF version %q (known: %v)", c.Version, validate.Versions())}
	}
	for _, l := range c.Layers {
		if !lo.Contains(naf.Layers(), l) {
			return &ConfigError{Field: "layers", Message: fmt.Sprintf("unknown layer %q", l)}
		}
	}
	switch c.Validation {
	case ValidateNone, ValidateBuiltin, ValidateDTD:
	default:
		return &ConfigError{Field: "validate", Message: fmt.Sprintf("unknown validation mode %q", c.Validation)}
	}
	return nil
}

// builds reports whether layer l is selected.
func (c Config) builds(l naf.Layer) bool {
	return len(c.Layers) == 0 || lo.Contains(c.Layers, l)
}

func (c Config) registry() *engine.Registry {
	if c.Registry != nil {
		return c.Registry
	}
	return DefaultRegistry()
}

func (c Config) engineConfig() engine.Config {
	ec := engine.Config{
		Name:     c.Engine,
		Language: c.Language,
		Model:    c.Model,
		Command:  c.Commands[c.Engine],
	}
	if c.EngineOutput != nil {
		ec.Runner = engine.StaticRunner(c.EngineOutput)
	}
	return ec
}
