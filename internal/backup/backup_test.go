package backup

import (
	"bytes"
	"testing"

	"gopkg.in/yaml.v3"
)

const expectedYAML = "0: Hello1\n2: Hello3\n"

func TestSampleSlotsMarshal(t *testing.T) {
	var slots SampleSlots
	slots.SetName(0, "Hello1")
	slots.SetName(2, "Hello3")

	out, err := yaml.Marshal(slots)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != expectedYAML {
		t.Fatalf("marshal = %q, want %q", out, expectedYAML)
	}
}

func TestSampleSlotsUnmarshal(t *testing.T) {
	var slots SampleSlots
	if err := yaml.Unmarshal([]byte(expectedYAML), &slots); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if slots.Name(0) != "Hello1" || slots.Name(2) != "Hello3" {
		t.Fatalf("slots = %q/%q", slots.Name(0), slots.Name(2))
	}
	for i := 0; i < slots.Len(); i++ {
		if i != 0 && i != 2 && slots.Name(i) != "" {
			t.Fatalf("slot %d unexpectedly occupied", i)
		}
	}
}

func TestSampleSlotsRejectsOutOfRange(t *testing.T) {
	var slots SampleSlots
	if err := yaml.Unmarshal([]byte("200: TooFar\n"), &slots); err == nil {
		t.Fatal("slot 200 accepted")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	var b Backup
	b.SampleSlots.SetName(13, "Kick")
	b.SampleSlots.SetName(199, "Last")

	var buf bytes.Buffer
	if err := Save(&buf, &b); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(&buf)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.SampleSlots.Name(13) != "Kick" || loaded.SampleSlots.Name(199) != "Last" {
		t.Fatalf("loaded = %q/%q", loaded.SampleSlots.Name(13), loaded.SampleSlots.Name(199))
	}
}
