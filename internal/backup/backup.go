// Package backup serializes the device's sample-slot layout to YAML so a
// set of downloaded WAV files can later be restored to the same slots.
package backup

import (
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tamzrod/volsa/internal/proto"
)

// SampleSlots is the fixed 200-slot layout. Only occupied slots carry a
// name; empty slots are omitted from the serialized form, so the YAML is
// a sparse slot-to-name map in slot order.
type SampleSlots struct {
	slots [proto.NumSlots]string
}

// Len returns the fixed number of slots.
func (s *SampleSlots) Len() int {
	return len(s.slots)
}

// Name returns the stored sample name for a slot, empty for empty slots.
func (s *SampleSlots) Name(slot int) string {
	return s.slots[slot]
}

// SetName records a sample name for a slot. An empty name clears it.
func (s *SampleSlots) SetName(slot int, name string) {
	s.slots[slot] = name
}

// MarshalYAML renders the occupied slots as an ordered map.
func (s SampleSlots) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for i, name := range s.slots {
		if name == "" {
			continue
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(i)},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
		)
	}
	return node, nil
}

// UnmarshalYAML reads the sparse map back, rejecting out-of-range slots.
func (s *SampleSlots) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("backup: expected a slot-to-name map, got %v", value.Kind)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		slot, err := strconv.Atoi(key.Value)
		if err != nil {
			return fmt.Errorf("backup: invalid slot key %q", key.Value)
		}
		if slot < 0 || slot >= len(s.slots) {
			return fmt.Errorf("backup: slot %d out of range [0, %d]",
				slot, len(s.slots)-1)
		}
		s.slots[slot] = val.Value
	}
	return nil
}

// Backup is the persisted layout document.
type Backup struct {
	SampleSlots SampleSlots `yaml:"sample_slots"`
}

// Save writes the layout as YAML.
func Save(w io.Writer, b *Backup) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("backup: encode: %w", err)
	}
	return enc.Close()
}

// Load reads a layout written by Save.
func Load(r io.Reader) (*Backup, error) {
	var b Backup
	if err := yaml.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("backup: decode: %w", err)
	}
	return &b, nil
}
