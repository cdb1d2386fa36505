// Package config holds the settings of one expansion run: the argument of
// the driving attribute and the optional tool configuration file.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/traitasync/internal/diag"
	"github.com/roach88/traitasync/internal/ir"
	"github.com/roach88/traitasync/internal/lifetime"
	"github.com/roach88/traitasync/internal/syntax"
)

//go:embed schema.cue
var schemaSource string

// Mode is the expansion mode selected by the attribute argument.
type Mode int

const (
	// ModeDefault requires the returned future to be Send and injects
	// capability bounds on Self.
	ModeDefault Mode = iota
	// ModeLocal drops Send from the handle and injects no bounds.
	ModeLocal
)

func (m Mode) String() string {
	if m == ModeLocal {
		return "local"
	}
	return "default"
}

// ParseArgs reads the argument of the driving attribute.
//
//	#[async_trait]          ModeDefault
//	#[async_trait(local)]   ModeLocal
//	#[async_trait(other)]   INVALID_CONFIGURATION at `other`
func ParseArgs(attr ir.Attribute) (Mode, error) {
	if !attr.HasArgs {
		return ModeDefault, nil
	}
	switch args := strings.TrimSpace(attr.Args); args {
	case "":
		return ModeDefault, nil
	case "local":
		return ModeLocal, nil
	default:
		return ModeDefault, diag.InvalidConfiguration(attr.ArgsSpan,
			"unexpected attribute argument `%s`", args).
			WithHelp("the only supported argument is `local`")
	}
}

// Config is the tool configuration.
type Config struct {
	// Attribute is the driving attribute name.
	Attribute string `yaml:"attribute" json:"attribute"`
	// CallScope is the base name of the generated call scope, without the
	// leading quote.
	CallScope string `yaml:"call_scope" json:"call_scope"`
	// HiddenReferences names types declared outside the unit that hide a
	// reference and must be written with an explicit scope argument.
	HiddenReferences []string `yaml:"hidden_references" json:"hidden_references"`
	// ForceLocal expands every item as if it were annotated with local.
	ForceLocal bool `yaml:"force_local" json:"force_local"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Attribute: syntax.DefaultAttribute,
		CallScope: lifetime.DefaultBase,
	}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks every field and reports the first invalid one.
func (c Config) Validate() error {
	if !identRe.MatchString(c.Attribute) {
		return diag.InvalidConfiguration(ir.Span{}, "attribute %q is not an identifier", c.Attribute)
	}
	if !identRe.MatchString(c.CallScope) {
		return diag.InvalidConfiguration(ir.Span{}, "call_scope %q is not an identifier", c.CallScope).
			WithHelp("write the scope name without the leading quote")
	}
	if c.CallScope == "static" || c.CallScope == "_" {
		return diag.InvalidConfiguration(ir.Span{}, "call_scope %q is reserved", c.CallScope)
	}
	for _, name := range c.HiddenReferences {
		if !identRe.MatchString(name) {
			return diag.InvalidConfiguration(ir.Span{}, "hidden_references entry %q is not an identifier", name)
		}
	}
	return nil
}

// Registry merges the configured hidden references into the ones found in
// a unit. Configured names count as one scope parameter unless the unit
// declares them.
func (c Config) Registry(unit map[string]int) lifetime.Registry {
	reg := make(lifetime.Registry, len(unit)+len(c.HiddenReferences))
	for name, n := range unit {
		reg[name] = n
	}
	for _, name := range c.HiddenReferences {
		if _, ok := reg[name]; !ok {
			reg[name] = 1
		}
	}
	return reg
}

// Load reads a configuration file. YAML files (.yaml, .yml) are decoded
// strictly; CUE files (.cue) are unified with the built-in schema. Fields
// the file omits keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		cfg, err = decodeYAML(data)
	case ".cue":
		cfg, err = decodeCUE(data, path)
	default:
		err = diag.InvalidConfiguration(ir.Span{}, "unsupported config format %q", ext).
			WithHelp("use a .yaml, .yml or .cue file")
	}
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		var d *diag.Diagnostic
		if errors.As(err, &d) {
			d.File = path
		}
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, diag.InvalidConfiguration(ir.Span{}, "failed to parse YAML: %v", err)
	}
	return cfg, nil
}

func decodeCUE(data []byte, path string) (Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compiling config schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return Config{}, diag.InvalidConfiguration(ir.Span{}, "building CUE value: %v", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, diag.InvalidConfiguration(ir.Span{}, "config does not match schema: %v", err)
	}

	cfg := Default()
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, diag.InvalidConfiguration(ir.Span{}, "decoding config: %v", err)
	}
	return cfg, nil
}
