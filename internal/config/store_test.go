package config

import "testing"

func TestNewStoreSeedsImageThinkingFlag(t *testing.T) {
	store := NewStore(&Config{ImageThinkingMode: "disabled"})
	if !store.ImageThinkingDisabled() {
		t.Fatalf("expected disabled flag to be seeded true")
	}
}

func TestReplaceUpdatesSnapshotAndFlag(t *testing.T) {
	store := NewStore(&Config{ImageThinkingMode: "enabled", ServerAddr: ":1"})
	store.Replace(&Config{ImageThinkingMode: "disabled", ServerAddr: ":2"})

	if store.Get().ServerAddr != ":2" {
		t.Fatalf("expected replaced snapshot, got %+v", store.Get())
	}
	if !store.ImageThinkingDisabled() {
		t.Fatalf("expected flag to flip to disabled after replace")
	}
}
