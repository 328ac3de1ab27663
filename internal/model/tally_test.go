package model

import (
	"encoding/json"
	"testing"
)

func TestTallyJSONKeepsOrder(t *testing.T) {
	t.Parallel()

	tally := Tally{
		{Name: "Smelter", Count: 9},
		{Name: "Constructor", Count: 4},
		{Name: "Assembler", Count: 4},
	}
	data, err := json.Marshal(tally)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `{"Smelter":9,"Constructor":4,"Assembler":4}`
	if string(data) != expected {
		t.Errorf("got %s, expected %s", data, expected)
	}

	var decoded Tally
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decoded) != 3 || decoded[0].Name != "Smelter" || decoded[2].Name != "Assembler" {
		t.Errorf("order not preserved: %+v", decoded)
	}
}

func TestTallyFromMap(t *testing.T) {
	t.Parallel()

	got := TallyFromMap(map[string]int{"b": 2, "a": 2, "c": 5})
	want := []string{"c", "a", "b"}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("position %d: got %q, expected %q", i, got[i].Name, name)
		}
	}
	if got.Total() != 9 {
		t.Errorf("Total() = %d, expected 9", got.Total())
	}
	if got.Get("a") != 2 || got.Get("missing") != 0 {
		t.Errorf("unexpected Get results")
	}
}

func TestFactoryAndTotalsJSON(t *testing.T) {
	t.Parallel()

	report := Report{
		Factory: Factory{
			{Category: CategoryMachines, Items: Tally{{Name: "Constructor", Count: 2}}},
			{Category: CategoryVehicles, Items: Tally{{Name: "Tractor", Count: 1}}},
		},
		Totals: Totals{
			Categories: Tally{{Name: "machines", Count: 2}, {Name: "vehicles", Count: 1}},
			All:        3,
		},
		Summary: "3 total buildings (2 machines)",
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var generic struct {
		Factory  map[string]map[string]int `json:"factory"`
		Totals   map[string]int            `json:"totals"`
		Unmapped map[string]int            `json:"unmapped"`
	}
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if generic.Factory["machines"]["Constructor"] != 2 {
		t.Errorf("expected factory.machines.Constructor == 2, got %v", generic.Factory)
	}
	if generic.Totals["all"] != 3 || generic.Totals["vehicles"] != 1 {
		t.Errorf("unexpected totals %v", generic.Totals)
	}
	if generic.Unmapped != nil {
		t.Errorf("expected unmapped to be omitted, got %v", generic.Unmapped)
	}

	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Totals.All != 3 || decoded.Totals.Get(CategoryMachines) != 2 {
		t.Errorf("unexpected decoded totals %+v", decoded.Totals)
	}
	if len(decoded.Factory) != 2 || decoded.Factory[1].Category != CategoryVehicles {
		t.Errorf("unexpected decoded factory %+v", decoded.Factory)
	}
	if decoded.Factory.Get(CategoryOther) != nil {
		t.Error("expected nil tally for absent category")
	}
}

func TestEmptyTotalsJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Totals{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"all":0}` {
		t.Errorf("got %s", data)
	}
}

func TestTallyUnmarshalRejectsNonObject(t *testing.T) {
	t.Parallel()

	var tally Tally
	if err := json.Unmarshal([]byte(`[1,2]`), &tally); err == nil {
		t.Error("expected error for array input")
	}
}

func TestDiagnosticsNotSerialized(t *testing.T) {
	t.Parallel()

	r := NewReport("world.sav")
	r.AddDiagnostic(NewDiagnostic(SeverityWarning, StageDecompress, "chunk %d failed", 3))
	if !r.HasDiagnostics() {
		t.Fatal("expected diagnostics")
	}
	if r.Diagnostics[0].String() != "[WARNING] decompress: chunk 3 failed" {
		t.Errorf("unexpected diagnostic text %q", r.Diagnostics[0].String())
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m["diagnostics"]; ok {
		t.Error("diagnostics must not appear in JSON")
	}
	if _, ok := m["Diagnostics"]; ok {
		t.Error("diagnostics must not appear in JSON")
	}
	if r.Source.RunID == "" {
		t.Error("expected run id to be set")
	}
}
