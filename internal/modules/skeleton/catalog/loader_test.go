package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsu-botforge/internal/pkg/log"
)

const droneCatalog = `
archetypes:
  - archetype: drone
    description: Minimal hover drone
    constraints:
      head: {min: 0, max: 1, default: 0}
      torso: {min: 1, max: 1, default: 1}
      arm: {min: 0, max: 0, default: 0}
      leg: {min: 0, max: 0, default: 0}
      accessory: {min: 1, default: 2}
      expansion-chip: {min: 0, max: 1, default: 0}
      soul-chip: {min: 1, max: 1, default: 1}
    slots:
      - id: drone_torso_1
        category: torso
        position: hull
        index: 0
        required: true
      - id: drone_accessory_1
        category: accessory
        position: rotor-left
        index: 0
        required: true
        constraints:
          accepted_sub_types: [thruster]
          max_size: 1
          placement: {x: 0, y: 1, layer: 2}
      - id: drone_accessory_2
        category: accessory
        position: rotor-right
        index: 1
      - id: drone_soul_chip_1
        category: soul-chip
        position: soul-socket
        index: 0
        required: true
`

func TestParseDefinitions(t *testing.T) {
	defs, err := ParseDefinitions([]byte(droneCatalog))
	require.NoError(t, err)
	require.Len(t, defs.Archetypes, 1)

	drone := defs.Archetypes[0]
	assert.Equal(t, Archetype("drone"), drone.Archetype)
	assert.Len(t, drone.Slots, 4)
	assert.True(t, drone.Constraints[CategoryAccessory].Unbounded())
	assert.Equal(t, Bounded(0, 1, 0), drone.Constraints[CategoryHead])

	rotor := drone.Slots[1]
	assert.Equal(t, []SubType{SubTypeThruster}, rotor.Constraints.AcceptedSubTypes)
	assert.Equal(t, null.IntFrom(1), rotor.Constraints.MaxSize)
	require.NotNil(t, rotor.Constraints.Placement)
	assert.Equal(t, Placement{X: 0, Y: 1, Layer: 2}, *rotor.Constraints.Placement)

	c, err := NewCatalog(defs, log.NewNopLogger(), nil)
	require.NoError(t, err)
	counts, err := c.GetSlotCounts("drone")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[CategoryAccessory])
	assert.Equal(t, 0, counts[CategoryArm])
}

func TestParseDefinitions_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"非法YAML", "archetypes: [\n"},
		{"未知字段", "archetypes:\n  - archetype: x\n    colour: red\n"},
		{"没有骨架类型", "archetypes: []\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinitions([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestEncodeDefinitions_RoundTrip(t *testing.T) {
	original := DefaultDefinitions()

	data, err := EncodeDefinitions(original)
	require.NoError(t, err)

	parsed, err := ParseDefinitions(data)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestLoadDefinitionsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(droneCatalog), 0o600))

	defs, err := LoadDefinitionsFile(path)
	require.NoError(t, err)
	assert.Equal(t, Archetype("drone"), defs.Archetypes[0].Archetype)

	_, err = LoadDefinitionsFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read catalog file")
}
