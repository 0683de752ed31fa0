// Package planfile reads success-plan template definitions from YAML or JSON
// files.
package planfile

// Definition is the top-level structure of a plan definition file.
type Definition struct {
	Name         string    `yaml:"name" json:"name" validate:"required,max=200"`
	Description  string    `yaml:"description,omitempty" json:"description,omitempty"`
	DurationDays int       `yaml:"duration_days" json:"duration_days" validate:"gte=0"`
	ProcessoID   string    `yaml:"processo_id,omitempty" json:"processo_id,omitempty"`
	Nodes        []NodeDef `yaml:"nodes" json:"nodes" validate:"dive"`

	// Source is the file the definition was read from, empty when parsed
	// from memory.
	Source string `yaml:"-" json:"-"`
}

// NodeDef is one prototype node. Kind accepts live names (fase) and template
// names (plano_fase) alike.
type NodeDef struct {
	Kind             string    `yaml:"kind" json:"kind" validate:"required"`
	Title            string    `yaml:"title" json:"title" validate:"required,max=500"`
	Description      string    `yaml:"description,omitempty" json:"description,omitempty"`
	Tag              string    `yaml:"tag,omitempty" json:"tag,omitempty"`
	DayOffset        *int      `yaml:"day_offset,omitempty" json:"day_offset,omitempty"`
	BusinessDaysOnly bool      `yaml:"business_days_only,omitempty" json:"business_days_only,omitempty"`
	Order            *int      `yaml:"order,omitempty" json:"order,omitempty"`
	Children         []NodeDef `yaml:"children,omitempty" json:"children,omitempty" validate:"dive"`
}

// OrderKey returns the explicit order, or the sibling position when none is set.
func (n *NodeDef) OrderKey(position int) int {
	if n.Order != nil {
		return *n.Order
	}
	return position
}

// CountNodes returns the number of nodes in the whole definition.
func (d *Definition) CountNodes() int {
	var count func([]NodeDef) int
	count = func(nodes []NodeDef) int {
		n := len(nodes)
		for i := range nodes {
			n += count(nodes[i].Children)
		}
		return n
	}
	return count(d.Nodes)
}
