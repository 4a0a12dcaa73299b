package emit

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sghaida/constdefault/derive"
)

type manifest struct {
	Types []manifestType `yaml:"types"`
}

type manifestType struct {
	Name        string               `yaml:"name"`
	Pos         string               `yaml:"pos,omitempty"`
	Shape       string               `yaml:"shape"`
	Params      []manifestParam      `yaml:"params,omitempty"`
	Fields      []manifestField      `yaml:"fields,omitempty"`
	Constraints []manifestConstraint `yaml:"constraints,omitempty"`
}

type manifestParam struct {
	Kind  string `yaml:"kind"`
	Name  string `yaml:"name"`
	Bound string `yaml:"bound,omitempty"`
}

type manifestField struct {
	Key     string `yaml:"key,omitempty"`
	Index   int    `yaml:"index"`
	Default string `yaml:"default"`
}

type manifestConstraint struct {
	Type  string `yaml:"type"`
	Field string `yaml:"field"`
}

// Manifest renders impls as a YAML document, in the given order.
func Manifest(impls []derive.Impl) ([]byte, error) {
	m := manifest{Types: make([]manifestType, 0, len(impls))}
	for _, impl := range impls {
		mt := manifestType{Name: impl.Type, Shape: impl.Value.Kind.String()}
		if impl.Pos.IsValid() {
			mt.Pos = impl.Pos.String()
		}
		for _, p := range impl.Params {
			mt.Params = append(mt.Params, manifestParam{Kind: p.Kind.String(), Name: p.Name, Bound: p.Bound})
		}
		for _, f := range impl.Value.Fields {
			mt.Fields = append(mt.Fields, manifestField{Key: f.Key, Index: f.Index, Default: f.Default.String()})
		}
		for _, c := range impl.Constraints {
			mt.Constraints = append(mt.Constraints, manifestConstraint{Type: c.Type, Field: c.Field})
		}
		m.Types = append(m.Types, mt)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("emit: encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("emit: encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}
