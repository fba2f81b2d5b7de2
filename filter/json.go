package filter

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/razeghi71/tabview/errhandling"
)

//go:embed schema/filter-tree.json
var embeddedSchema []byte

const schemaURL = "https://github.com/razeghi71/tabview/schemas/filter-tree.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaInitErr  error
)

func getCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(embeddedSchema))
		if err != nil {
			schemaInitErr = fmt.Errorf("failed to parse embedded schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			schemaInitErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}
		compiledSchema, err = compiler.Compile(schemaURL)
		if err != nil {
			schemaInitErr = fmt.Errorf("failed to compile schema: %w", err)
		}
	})
	return compiledSchema, schemaInitErr
}

// Validate checks raw JSON against the filter-tree schema.
func Validate(data []byte) error {
	sch, err := getCompiledSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return errhandling.New(errhandling.KindInvalidRequest, "filter", "invalid JSON: %v", err)
	}
	if err := sch.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			loc := "/" + strings.Join(verr.InstanceLocation, "/")
			return errhandling.New(errhandling.KindInvalidRequest, "filter", "filter tree does not match schema at %s: %v", loc, verr)
		}
		return errhandling.Wrap(errhandling.KindInvalidRequest, "filter", err)
	}
	return nil
}

// Parse validates and decodes a filter tree in its wire shape:
//
//	{"logic": "AND", "conditions": [{"column": "age", "operator": "GreaterThan", "value": "30"}]}
//
// An object carrying "logic", "conditions" or "children" is a group;
// anything else is a condition.
func Parse(data []byte) (Node, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	node, err := decodeNode(data)
	if err != nil {
		return nil, errhandling.Wrap(errhandling.KindInvalidRequest, "filter", err)
	}
	return node, nil
}

func decodeNode(data json.RawMessage) (Node, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	_, hasLogic := fields["logic"]
	_, hasConds := fields["conditions"]
	_, hasChildren := fields["children"]
	if !hasLogic && !hasConds && !hasChildren {
		return decodeCondition(data)
	}

	var w struct {
		Logic      *string           `json:"logic"`
		Conditions []json.RawMessage `json:"conditions"`
		Children   []json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	g := &Group{}
	if w.Logic != nil {
		g.Logic = *w.Logic
	}
	raw := w.Conditions
	if !hasConds {
		raw = w.Children
	}
	for i, r := range raw {
		child, err := decodeNode(r)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		g.Children = append(g.Children, child)
	}
	return g, nil
}

func decodeCondition(data json.RawMessage) (*Condition, error) {
	var w struct {
		Column   string   `json:"column"`
		Operator Operator `json:"operator"`
		Value    *string  `json:"value"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return &Condition{Column: w.Column, Operator: w.Operator, Value: w.Value}, nil
}

type wireCondition struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    *string  `json:"value,omitempty"`
}

type wireGroup struct {
	Logic      string `json:"logic"`
	Conditions []any  `json:"conditions"`
}

// Marshal encodes a tree in the same wire shape Parse accepts.
func Marshal(n Node) ([]byte, error) {
	w, err := toWire(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func toWire(n Node) (any, error) {
	switch v := n.(type) {
	case *Condition:
		return wireCondition{Column: v.Column, Operator: v.Operator, Value: v.Value}, nil
	case *Group:
		g := wireGroup{Logic: v.Logic, Conditions: make([]any, 0, len(v.Children))}
		for _, c := range v.Children {
			w, err := toWire(c)
			if err != nil {
				return nil, err
			}
			g.Conditions = append(g.Conditions, w)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown filter node %T", n)
	}
}
