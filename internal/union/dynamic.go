package union

import (
	"fmt"
	"strings"

	"github.com/danmuck/uniondec/internal/kind"
	"github.com/danmuck/uniondec/internal/value"
)

// Arm declares one branch of a union described at runtime.
type Arm struct {
	Name string
	Kind kind.Tag
}

// Branch is the resolved value of a runtime-described union. Index is the
// declaration index of the arm, so Index plus Value is enough to write the
// value back out as branch indicator and payload.
type Branch struct {
	Union string    `json:"union"`
	Index int       `json:"index"`
	Name  string    `json:"branch"`
	Kind  kind.Tag  `json:"kind"`
	Value value.Raw `json:"value"`
}

func (b Branch) String() string {
	return fmt.Sprintf("%s.%s(%s)", b.Union, b.Name, b.Value)
}

// Dynamic builds a Schema whose variants produce Branch values. An arm
// without a name is named after its kind.
func Dynamic(name string, arms ...Arm) (*Schema[Branch], error) {
	name = strings.TrimSpace(name)
	variants := make([]Variant[Branch], len(arms))
	for i, arm := range arms {
		idx := i
		armName := arm.Name
		if armName == "" {
			armName = arm.Kind.String()
		}
		variants[i] = NewVariant(armName, arm.Kind, func(raw value.Raw) (Branch, error) {
			return Branch{Union: name, Index: idx, Name: armName, Kind: raw.Kind(), Value: raw}, nil
		})
	}
	return Build(name, variants...)
}

// DynamicKinds is Dynamic with arms named after their kinds.
func DynamicKinds(name string, kinds ...kind.Tag) (*Schema[Branch], error) {
	arms := make([]Arm, len(kinds))
	for i, k := range kinds {
		arms[i] = Arm{Kind: k}
	}
	return Dynamic(name, arms...)
}
