// Package filter holds the predicate tree a user builds to filter a table:
// leaf conditions on one column, combined by AND/OR groups nested to any depth.
package filter

import (
	"fmt"
	"strings"
)

// Operator is the test a Condition applies to its column.
type Operator int

const (
	Contains Operator = iota
	NotContains
	Equals
	NotEquals
	StartsWith
	EndsWith
	GreaterThan
	LessThan
	IsNull
	IsNotNull
)

var operatorNames = map[Operator]string{
	Contains:    "Contains",
	NotContains: "NotContains",
	Equals:      "Equals",
	NotEquals:   "NotEquals",
	StartsWith:  "StartsWith",
	EndsWith:    "EndsWith",
	GreaterThan: "GreaterThan",
	LessThan:    "LessThan",
	IsNull:      "IsNull",
	IsNotNull:   "IsNotNull",
}

func (o Operator) String() string {
	if s, ok := operatorNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// ParseOperator maps a wire name ("GreaterThan") to an Operator.
func ParseOperator(s string) (Operator, error) {
	for op, name := range operatorNames {
		if name == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}

// NeedsValue reports whether the operator compares against a value.
func (o Operator) NeedsValue() bool {
	return o != IsNull && o != IsNotNull
}

// MarshalText implements encoding.TextMarshaler.
func (o Operator) MarshalText() ([]byte, error) {
	s, ok := operatorNames[o]
	if !ok {
		return nil, fmt.Errorf("unknown operator %d", int(o))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Operator) UnmarshalText(b []byte) error {
	op, err := ParseOperator(string(b))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// Node is either a *Condition or a *Group.
type Node interface {
	filterNode()
}

// Condition tests one column. Value is nil for the null checks.
type Condition struct {
	Column   string
	Operator Operator
	Value    *string
}

func (c *Condition) filterNode() {}

// ValueOrEmpty returns the comparison value, or "" when none was given.
func (c *Condition) ValueOrEmpty() string {
	if c.Value == nil {
		return ""
	}
	return *c.Value
}

func (c *Condition) String() string {
	if !c.Operator.NeedsValue() {
		return fmt.Sprintf("%s %s", c.Column, c.Operator)
	}
	return fmt.Sprintf("%s %s %q", c.Column, c.Operator, c.ValueOrEmpty())
}

// Logic names the connective of a Group.
const (
	LogicAnd = "AND"
	LogicOr  = "OR"
)

// Group combines its children. Logic "OR" (any case) means OR; anything else,
// including an empty string, means AND. A group without children matches
// every row.
type Group struct {
	Logic    string
	Children []Node
}

func (g *Group) filterNode() {}

// IsOr reports whether the group folds with OR.
func (g *Group) IsOr() bool {
	return strings.EqualFold(strings.TrimSpace(g.Logic), LogicOr)
}

// Cond builds a value condition.
func Cond(column string, op Operator, value string) *Condition {
	return &Condition{Column: column, Operator: op, Value: &value}
}

// NullCheck builds an IsNull / IsNotNull condition.
func NullCheck(column string, op Operator) *Condition {
	return &Condition{Column: column, Operator: op}
}

// And groups children with AND.
func And(children ...Node) *Group {
	return &Group{Logic: LogicAnd, Children: children}
}

// Or groups children with OR.
func Or(children ...Node) *Group {
	return &Group{Logic: LogicOr, Children: children}
}

// MatchAll is the filter that keeps every row.
func MatchAll() *Group {
	return &Group{Logic: LogicAnd}
}
