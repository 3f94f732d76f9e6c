package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Format names a plan definition syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the syntax from a file extension, defaulting to YAML.
func FormatFromPath(path string) Format {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return FormatJSON
	}
	return FormatYAML
}

// PlanDefinition is the declarative form of a plan graph.
type PlanDefinition struct {
	Name  string           `yaml:"name" json:"name"`
	Root  string           `yaml:"root,omitempty" json:"root,omitempty"`
	Nodes []NodeDefinition `yaml:"nodes" json:"nodes" validate:"required,min=1,dive"`
	Edges []EdgeDefinition `yaml:"edges,omitempty" json:"edges,omitempty" validate:"dive"`
}

// NodeDefinition declares one node. Key is local to the definition and only
// used to wire edges; ID is the component's own identifier.
type NodeDefinition struct {
	Key   string `yaml:"key" json:"key" validate:"required"`
	Kind  string `yaml:"kind" json:"kind" validate:"required,plankind"`
	ID    *int   `yaml:"id,omitempty" json:"id,omitempty"`
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	State string `yaml:"state,omitempty" json:"state,omitempty"`
	Value any    `yaml:"value,omitempty" json:"value,omitempty"`
}

// EdgeDefinition declares a labeled transition between two node keys.
type EdgeDefinition struct {
	From string `yaml:"from" json:"from" validate:"required"`
	To   string `yaml:"to" json:"to" validate:"required"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

var planValidate *validator.Validate

func init() {
	planValidate = validator.New()
	_ = planValidate.RegisterValidation("plankind", func(fl validator.FieldLevel) bool {
		return domain.Kind(fl.Field().String()).Known()
	})
}

// Parser is responsible for converting raw bytes into a PlanDefinition.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes and validates a plan definition.
// JSON numbers are kept as json.Number so integer payloads stay exact.
func (p *Parser) Parse(data []byte, format Format) (*PlanDefinition, error) {
	var def PlanDefinition

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("failed to parse plan: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("failed to parse plan: %w", err)
		}
	}

	if err := p.Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks structural rules of a definition without building it.
func (p *Parser) Validate(def *PlanDefinition) error {
	if err := planValidate.Struct(def); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}

	keys := make(map[string]bool, len(def.Nodes))
	for _, n := range def.Nodes {
		if keys[n.Key] {
			return fmt.Errorf("invalid plan: duplicate node key %q", n.Key)
		}
		keys[n.Key] = true
	}
	return nil
}
