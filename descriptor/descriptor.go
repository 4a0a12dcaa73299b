package descriptor

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sghaida/constdefault/derive"
)

// File is one descriptor document.
type File struct {
	Package     string
	Definitions []derive.Definition
}

// Error reports a malformed descriptor.
type Error struct {
	Pos token.Position
	Msg string
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Example: shapes.yaml:4:7: descriptor: unknown param kind "lifetime2"
	if e.Pos.IsValid() {
		return e.Pos.String() + ": descriptor: " + e.Msg
	}
	return "descriptor: " + e.Msg
}

type typeDoc struct {
	Name     string     `yaml:"name"`
	Shape    string     `yaml:"shape"`
	Params   []paramDoc `yaml:"params"`
	Fields   []fieldDoc `yaml:"fields"`
	Variants []string   `yaml:"variants"`
}

type paramDoc struct {
	Kind  string `yaml:"kind"`
	Name  string `yaml:"name"`
	Bound string `yaml:"bound"`
}

type fieldDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Attr string `yaml:"attr"`
}

// Load reads and parses the descriptor file at path.
func Load(path string) ([]File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("descriptor: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes every document of data. name is used in positions.
func Parse(name string, data []byte) ([]File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var files []File
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("descriptor: %s: %w", name, err)
		}
		f, err := parseDocument(name, &doc)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func parseDocument(name string, doc *yaml.Node) (File, error) {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return File{}, &Error{Pos: pos(name, root), Msg: "document must be a mapping"}
	}

	var f File
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "package":
			f.Package = value.Value
		case "types":
			if value.Kind != yaml.SequenceNode {
				return File{}, &Error{Pos: pos(name, value), Msg: "types must be a sequence"}
			}
			for _, item := range value.Content {
				def, err := parseType(name, item)
				if err != nil {
					return File{}, err
				}
				f.Definitions = append(f.Definitions, def)
			}
		default:
			return File{}, &Error{Pos: pos(name, key), Msg: "unknown key " + strconv.Quote(key.Value)}
		}
	}
	return f, nil
}

func parseType(name string, node *yaml.Node) (derive.Definition, error) {
	var td typeDoc
	if err := node.Decode(&td); err != nil {
		return derive.Definition{}, &Error{Pos: pos(name, node), Msg: err.Error()}
	}

	def := derive.Definition{Name: td.Name, Pos: pos(name, node)}
	switch strings.ToLower(td.Shape) {
	case "", "struct":
		def.Kind = derive.DeclStruct
	case "tuple":
		def.Kind = derive.DeclTuple
	case "unit":
		if len(td.Fields) > 0 {
			return derive.Definition{}, &Error{Pos: def.Pos, Msg: "unit shape " + strconv.Quote(td.Name) + " declares fields"}
		}
		def.Kind = derive.DeclStruct
	case "union", "enum", "sum":
		def.Kind = derive.DeclUnion
		if len(td.Variants) > 0 {
			def.Detail = "sum type with variants " + strings.Join(td.Variants, ", ")
		}
	default:
		def.Kind = derive.DeclOther
		def.Detail = "unknown shape " + strconv.Quote(td.Shape)
	}

	paramNodes := child(node, "params")
	for i, p := range td.Params {
		kind, ok := derive.ParseParamKind(p.Kind)
		if !ok {
			return derive.Definition{}, &Error{Pos: pos(name, item(paramNodes, i, node)), Msg: "unknown param kind " + strconv.Quote(p.Kind)}
		}
		def.Params = append(def.Params, derive.GenericParam{Kind: kind, Name: p.Name, Bound: p.Bound})
	}

	fieldNodes := child(node, "fields")
	for i, fd := range td.Fields {
		def.Fields = append(def.Fields, derive.FieldDecl{
			Name: fd.Name,
			Type: fd.Type,
			Pos:  pos(name, item(fieldNodes, i, node)),
			Attr: fd.Attr,
		})
	}
	return def, nil
}

// child returns the value node of key in a mapping node.
func child(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func item(seq *yaml.Node, i int, fallback *yaml.Node) *yaml.Node {
	if seq == nil || seq.Kind != yaml.SequenceNode || i >= len(seq.Content) {
		return fallback
	}
	return seq.Content[i]
}

func pos(filename string, node *yaml.Node) token.Position {
	return token.Position{Filename: filename, Line: node.Line, Column: node.Column}
}
