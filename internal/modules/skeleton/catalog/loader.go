package catalog

import (
	"bytes"
	"os"

	"github.com/aarondl/null/v8"
	"github.com/friendsofgo/errors"
	"gopkg.in/yaml.v3"
)

// 目录文件格式
//
//	archetypes:
//	  - archetype: light
//	    description: Fast scout frame
//	    constraints:
//	      head: {min: 1, max: 1, default: 1}
//	      arm: {min: 0, default: 2}        # 省略 max 表示无上限
//	    slots:
//	      - id: light_head_1
//	        category: head
//	        position: head
//	        index: 0
//	        required: true
//	        constraints: {max_size: 2, accepted_sub_types: [heavy]}

type fileDefinitions struct {
	Archetypes []fileArchetype `yaml:"archetypes"`
}

type fileArchetype struct {
	Archetype   string                    `yaml:"archetype"`
	Description string                    `yaml:"description,omitempty"`
	Constraints map[string]fileConstraint `yaml:"constraints"`
	Slots       []fileSlot                `yaml:"slots"`
}

type fileConstraint struct {
	Min     int  `yaml:"min"`
	Max     *int `yaml:"max,omitempty"`
	Default int  `yaml:"default"`
}

type fileSlot struct {
	ID                   string               `yaml:"id"`
	Category             string               `yaml:"category"`
	Position             string               `yaml:"position"`
	Index                int                  `yaml:"index"`
	Required             bool                 `yaml:"required,omitempty"`
	CompatibleCategories []string             `yaml:"compatible_categories,omitempty"`
	Constraints          *fileSlotConstraints `yaml:"constraints,omitempty"`
}

type fileSlotConstraints struct {
	AcceptedSubTypes []string       `yaml:"accepted_sub_types,omitempty"`
	MaxSize          *int           `yaml:"max_size,omitempty"`
	Placement        *filePlacement `yaml:"placement,omitempty"`
}

type filePlacement struct {
	X     int `yaml:"x"`
	Y     int `yaml:"y"`
	Layer int `yaml:"layer"`
}

// LoadDefinitionsFile 从 YAML 文件读取目录定义
func LoadDefinitionsFile(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read catalog file %s", path)
	}
	defs, err := ParseDefinitions(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load catalog file %s", path)
	}
	return defs, nil
}

// ParseDefinitions 解析 YAML 目录定义; 未知字段视为错误
func ParseDefinitions(data []byte) (*Definitions, error) {
	var raw fileDefinitions
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "invalid catalog yaml")
	}
	if len(raw.Archetypes) == 0 {
		return nil, errors.New("catalog yaml declares no archetypes")
	}
	return raw.toDefinitions(), nil
}

// EncodeDefinitions 将目录定义序列化为 YAML
func EncodeDefinitions(defs *Definitions) ([]byte, error) {
	if defs == nil {
		return nil, errors.New("nil catalog definitions")
	}
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(fromDefinitions(defs)); err != nil {
		return nil, errors.Wrap(err, "failed to encode catalog yaml")
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to flush catalog yaml")
	}
	return buf.Bytes(), nil
}

func (f fileDefinitions) toDefinitions() *Definitions {
	defs := &Definitions{Archetypes: make([]ArchetypeDefinition, 0, len(f.Archetypes))}
	for _, a := range f.Archetypes {
		def := ArchetypeDefinition{
			Archetype:   Archetype(a.Archetype),
			Description: a.Description,
			Constraints: make(map[Category]CategoryConstraint, len(a.Constraints)),
			Slots:       make([]SlotDefinition, 0, len(a.Slots)),
		}
		for category, c := range a.Constraints {
			def.Constraints[Category(category)] = CategoryConstraint{
				Min:     c.Min,
				Max:     null.IntFromPtr(c.Max),
				Default: c.Default,
			}
		}
		for _, s := range a.Slots {
			def.Slots = append(def.Slots, s.toSlotDefinition())
		}
		defs.Archetypes = append(defs.Archetypes, def)
	}
	return defs
}

func (s fileSlot) toSlotDefinition() SlotDefinition {
	slot := SlotDefinition{
		ID:       s.ID,
		Category: Category(s.Category),
		Position: s.Position,
		Index:    s.Index,
		Required: s.Required,
	}
	for _, c := range s.CompatibleCategories {
		slot.CompatibleCategories = append(slot.CompatibleCategories, Category(c))
	}
	if s.Constraints != nil {
		for _, st := range s.Constraints.AcceptedSubTypes {
			slot.Constraints.AcceptedSubTypes = append(slot.Constraints.AcceptedSubTypes, SubType(st))
		}
		slot.Constraints.MaxSize = null.IntFromPtr(s.Constraints.MaxSize)
		if p := s.Constraints.Placement; p != nil {
			slot.Constraints.Placement = &Placement{X: p.X, Y: p.Y, Layer: p.Layer}
		}
	}
	return slot
}

func fromDefinitions(defs *Definitions) fileDefinitions {
	out := fileDefinitions{Archetypes: make([]fileArchetype, 0, len(defs.Archetypes))}
	for _, a := range defs.Archetypes {
		fa := fileArchetype{
			Archetype:   string(a.Archetype),
			Description: a.Description,
			Constraints: make(map[string]fileConstraint, len(a.Constraints)),
			Slots:       make([]fileSlot, 0, len(a.Slots)),
		}
		for category, c := range a.Constraints {
			fa.Constraints[string(category)] = fileConstraint{Min: c.Min, Max: c.Max.Ptr(), Default: c.Default}
		}
		for _, s := range a.Slots {
			fa.Slots = append(fa.Slots, fromSlotDefinition(s))
		}
		out.Archetypes = append(out.Archetypes, fa)
	}
	return out
}

func fromSlotDefinition(s SlotDefinition) fileSlot {
	fs := fileSlot{
		ID:       s.ID,
		Category: string(s.Category),
		Position: s.Position,
		Index:    s.Index,
		Required: s.Required,
	}
	for _, c := range s.CompatibleCategories {
		fs.CompatibleCategories = append(fs.CompatibleCategories, string(c))
	}

	sc := s.Constraints
	if len(sc.AcceptedSubTypes) == 0 && !sc.MaxSize.Valid && sc.Placement == nil {
		return fs
	}
	fs.Constraints = &fileSlotConstraints{MaxSize: sc.MaxSize.Ptr()}
	for _, st := range sc.AcceptedSubTypes {
		fs.Constraints.AcceptedSubTypes = append(fs.Constraints.AcceptedSubTypes, string(st))
	}
	if sc.Placement != nil {
		fs.Constraints.Placement = &filePlacement{X: sc.Placement.X, Y: sc.Placement.Y, Layer: sc.Placement.Layer}
	}
	return fs
}
