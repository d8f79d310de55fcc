// File path: internal/weld/merge_test.go
package weld

import (
	"errors"
	"reflect"
	"testing"
)

func TestMergeEmptyInputFails(t *testing.T) {
	if _, err := Merge(nil); !errors.Is(err, ErrNoFragments) {
		t.Fatalf("expected ErrNoFragments, got %v", err)
	}
	if _, err := Merge([]Fragment{}); !errors.Is(err, ErrNoFragments) {
		t.Fatalf("expected ErrNoFragments for empty slice, got %v", err)
	}
}

func TestMergeSingleFragmentCopies(t *testing.T) {
	original := Fragment{"preheat": map[string]interface{}{"preheat_temp": "200"}}
	merged, err := Merge([]Fragment{original})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	section := merged["preheat"].(map[string]interface{})
	section["preheat_temp"] = "999"
	if original["preheat"].(map[string]interface{})["preheat_temp"] != "200" {
		t.Fatalf("merge aliased its input fragment")
	}
}

func TestMergeFirstSeenWinsOnScalarConflict(t *testing.T) {
	f1 := Fragment{"joints": map[string]interface{}{"backing": "yes"}}
	f2 := Fragment{"joints": map[string]interface{}{"backing": "no!"}}

	forward, err := Merge([]Fragment{f1, f2})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if got := forward["joints"].(map[string]interface{})["backing"]; got != "yes" {
		t.Fatalf("expected first fragment to win, got %v", got)
	}

	reversed, err := Merge([]Fragment{f2, f1})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if got := reversed["joints"].(map[string]interface{})["backing"]; got != "no!" {
		t.Fatalf("expected first fragment to win after reorder, got %v", got)
	}
}

func TestMergeLongerStringWins(t *testing.T) {
	f1 := Fragment{"technique": map[string]interface{}{"cleaning_method": "grind"}}
	f2 := Fragment{"technique": map[string]interface{}{"cleaning_method": "grinding and wire brushing"}}
	merged, err := Merge([]Fragment{f1, f2})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if got := merged["technique"].(map[string]interface{})["cleaning_method"]; got != "grinding and wire brushing" {
		t.Fatalf("expected longer string to win, got %v", got)
	}
}

func TestMergeEmptyNeverOverwrites(t *testing.T) {
	f1 := Fragment{
		"gas":      map[string]interface{}{"shielding_gas": "argon"},
		"position": "",
	}
	f2 := Fragment{
		"gas":      map[string]interface{}{"shielding_gas": ""},
		"position": map[string]interface{}{"position": "1G"},
	}
	merged, err := Merge([]Fragment{f1, f2})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if got := merged["gas"].(map[string]interface{})["shielding_gas"]; got != "argon" {
		t.Fatalf("empty incoming value overwrote non-empty accumulator: %v", got)
	}
	position, ok := merged["position"].(map[string]interface{})
	if !ok || position["position"] != "1G" {
		t.Fatalf("non-empty incoming value did not replace empty accumulator: %v", merged["position"])
	}
}

func TestMergeListUnionPreservesOrder(t *testing.T) {
	f1 := Fragment{"processes": []interface{}{"GTAW", "SMAW"}}
	f2 := Fragment{"processes": []interface{}{"SMAW", "FCAW"}}
	merged, err := Merge([]Fragment{f1, f2})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	want := []interface{}{"GTAW", "SMAW", "FCAW"}
	if !reflect.DeepEqual(merged["processes"], want) {
		t.Fatalf("expected %v, got %v", want, merged["processes"])
	}
}

func TestMergeAdoptsMissingKeysRecursively(t *testing.T) {
	f1 := Fragment{"base_metals": map[string]interface{}{"p_number": "1"}}
	f2 := Fragment{"base_metals": map[string]interface{}{"group_number": "2"}, "preheat": map[string]interface{}{"preheat_temp": "150"}}
	merged, err := Merge([]Fragment{f1, f2})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	base := merged["base_metals"].(map[string]interface{})
	if base["p_number"] != "1" || base["group_number"] != "2" {
		t.Fatalf("expected recursive key adoption, got %v", base)
	}
	if _, ok := merged["preheat"]; !ok {
		t.Fatalf("expected missing top-level key to be adopted")
	}
}

func TestMergeIdempotent(t *testing.T) {
	f1 := Fragment{
		"joints": map[string]interface{}{"joint_design": "single V", "backing": "yes"},
		"gas":    map[string]interface{}{"shielding_gas": "argon 75/25"},
	}
	f2 := Fragment{
		"joints": map[string]interface{}{"joint_design": "single V groove butt joint"},
		"gas":    map[string]interface{}{"backing_gas": "none"},
	}
	once, err := Merge([]Fragment{f1, f2})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	twice, err := Merge([]Fragment{once, f2})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge not idempotent:\nonce:  %v\ntwice: %v", once, twice)
	}
}
