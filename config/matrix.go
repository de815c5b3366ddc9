package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Matrix is a matrix given in YAML as a scalar, a list of numbers or a list of rows.
// A list of numbers is a single row matrix.
type Matrix [][]float64

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Matrix) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		*m = Matrix{{v}}
		return nil
	case yaml.SequenceNode:
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			var rows [][]float64
			if err := node.Decode(&rows); err != nil {
				return err
			}
			*m = rows
			return nil
		}

		var row []float64
		if err := node.Decode(&row); err != nil {
			return err
		}
		*m = Matrix{row}
		return nil
	}

	return fmt.Errorf("line %d: invalid matrix", node.Line)
}

// IsEmpty returns true if m holds no values
func (m Matrix) IsEmpty() bool {
	for _, row := range m {
		if len(row) > 0 {
			return false
		}
	}

	return true
}

// Value returns m in a form accepted by filter constructors
func (m Matrix) Value() any {
	return [][]float64(m)
}
