package theme

import "testing"

func TestByName(t *testing.T) {
	if got := ByName("terminal"); got.Name != "terminal" {
		t.Errorf("ByName(terminal) = %q", got.Name)
	}
	// Names from older configs fall back to the default.
	if got := ByName("tokyo-night"); got.Name != FlexokiDark.Name {
		t.Errorf("ByName(tokyo-night) = %q, want %q", got.Name, FlexokiDark.Name)
	}
	if got := ByName("nope"); got.Name != FlexokiDark.Name {
		t.Errorf("ByName(unknown) = %q, want %q", got.Name, FlexokiDark.Name)
	}
}

func TestNextCyclesThroughAll(t *testing.T) {
	seen := make(map[string]bool)
	name := All[0].Name
	for range All {
		seen[name] = true
		name = Next(name).Name
	}
	if len(seen) != len(All) {
		t.Errorf("visited %d themes, want %d", len(seen), len(All))
	}
	if name != All[0].Name {
		t.Errorf("Next did not wrap: ended on %q", name)
	}
}
