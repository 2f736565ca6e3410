package quantity

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts either a bare number, read with an empty unit, or a
// mapping with value and unit keys.
func (q *Quantity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("quantity: line %d: %w", node.Line, err)
		}
		*q = Quantity{Magnitude: v}
		return nil
	}
	type plain Quantity
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*q = Quantity(p)
	return nil
}
