// File path: internal/weld/compare_test.go
package weld

import "testing"

func TestCompatibleRangeContainment(t *testing.T) {
	cases := []struct {
		spec     string
		observed string
		field    string
		want     bool
	}{
		{"100-150", "approximately 120A", "amperage_range", true},
		{"100-150", "200", "amperage_range", false},
		{"100 to 150", "150", "amperage_range", true},
		{"100 to 150", "99.9", "amperage_range", false},
		{"120", "120 amps", "amperage_range", true},
		{"200-300", "250", "preheat_temp", true},
		{"18-24", "22.5V", "voltage_range", true},
	}
	for _, tc := range cases {
		if got := Compatible(tc.spec, tc.observed, tc.field); got != tc.want {
			t.Fatalf("Compatible(%q, %q, %q) = %v, want %v", tc.spec, tc.observed, tc.field, got, tc.want)
		}
	}
}

func TestCompatiblePositionSubset(t *testing.T) {
	if !Compatible("Flat, Horizontal", "flat", "position") {
		t.Fatalf("observed subset of allowed positions should be compatible")
	}
	if Compatible("Flat", "Overhead", "position") {
		t.Fatalf("position outside the allowed set should not be compatible")
	}
	if !Compatible("1G, 2G, 3G", "2g, 1g", "position") {
		t.Fatalf("case and order should not matter for position tokens")
	}
}

func TestCompatibleSubstringFallback(t *testing.T) {
	if !Compatible("DC Electrode Positive, DCEP", "DCEP", "polarity") {
		t.Fatalf("substring match should be compatible")
	}
	if Compatible("DCEP", "AC", "polarity") {
		t.Fatalf("unrelated values should not be compatible")
	}
}

func TestCompatibleUnparseableRangeFallsThrough(t *testing.T) {
	// No digits on the spec side: range parsing fails and the substring
	// fallback decides.
	if !Compatible("per procedure", "per procedure sheet", "amperage_range") {
		t.Fatalf("expected substring fallback after failed range parse")
	}
}

func singleSectionCatalog() []SectionSpec {
	return []SectionSpec{
		{
			ID: "preheat", Name: "Preheat (QW-406)", Weight: 10,
			Parameters: []ParameterSpec{
				{ID: "preheat_temp", Name: "Preheat Temperature", Weight: 3},
			},
		},
	}
}

func TestCompareRangeParameterEndToEnd(t *testing.T) {
	wps := Document{"preheat": map[string]interface{}{"preheat_temp": "200-300"}}
	pqr := Document{"preheat": map[string]interface{}{"preheat_temp": "250"}}
	report := Compare(wps, pqr, singleSectionCatalog())

	section := report.Sections["preheat"]
	if section == nil {
		t.Fatalf("preheat section missing from report")
	}
	if !section.Compliance || section.Score != 100 {
		t.Fatalf("expected compliant section with score 100, got %+v", section)
	}
	if !report.OverallCompliance || report.OverallScore != 100 {
		t.Fatalf("expected fully compliant report, got score=%d compliant=%v", report.OverallScore, report.OverallCompliance)
	}
	if section.Parameters[0].Reason != reasonCompatible {
		t.Fatalf("expected compatibility reason, got %q", section.Parameters[0].Reason)
	}
}

func TestCompareMissingSectionForcesNonCompliance(t *testing.T) {
	catalog := []SectionSpec{
		singleSectionCatalog()[0],
		{
			ID: "gas", Name: "Gas (QW-408)", Weight: 10,
			Parameters: []ParameterSpec{
				{ID: "shielding_gas", Name: "Shielding Gas", Weight: 3},
			},
		},
	}
	wps := Document{
		"preheat": map[string]interface{}{"preheat_temp": "200"},
		"gas":     map[string]interface{}{"shielding_gas": "argon"},
	}
	pqr := Document{
		"preheat": map[string]interface{}{"preheat_temp": "200"},
	}
	report := Compare(wps, pqr, catalog)

	gas := report.Sections["gas"]
	if gas.Compliance || gas.Score != 0 {
		t.Fatalf("missing section should score zero, got %+v", gas)
	}
	if len(gas.Issues) == 0 || gas.Issues[0] != reasonSectionGone {
		t.Fatalf("expected section-missing issue, got %v", gas.Issues)
	}
	if report.OverallCompliance {
		t.Fatalf("missing section must force overall non-compliance")
	}
	// preheat: 100*10, gas: 0*10 over weight 20.
	if report.OverallScore != 50 {
		t.Fatalf("expected overall score 50, got %d", report.OverallScore)
	}
}

func TestComparePresentButEmptySectionIsTerminal(t *testing.T) {
	wps := Document{"preheat": map[string]interface{}{}}
	pqr := Document{"preheat": map[string]interface{}{"preheat_temp": "200"}}
	report := Compare(wps, pqr, singleSectionCatalog())
	section := report.Sections["preheat"]
	if section.Compliance || section.Score != 0 {
		t.Fatalf("empty section should be terminal, got %+v", section)
	}
}

func TestCompareBothEmptyParameter(t *testing.T) {
	catalog := []SectionSpec{
		{
			ID: "preheat", Name: "Preheat (QW-406)", Weight: 10,
			Parameters: []ParameterSpec{
				{ID: "preheat_temp", Name: "Preheat Temperature", Weight: 3},
				{ID: "interpass_temp", Name: "Interpass Temperature", Weight: 3},
			},
		},
	}
	wps := Document{"preheat": map[string]interface{}{"preheat_temp": "200"}}
	pqr := Document{"preheat": map[string]interface{}{"preheat_temp": "200"}}
	report := Compare(wps, pqr, catalog)

	section := report.Sections["preheat"]
	if !section.Compliance || section.Score != 100 {
		t.Fatalf("both-empty parameter must keep its full weight, got %+v", section)
	}
	var emptyParam *ParameterResult
	for i := range section.Parameters {
		if section.Parameters[i].Name == "Interpass Temperature" {
			emptyParam = &section.Parameters[i]
		}
	}
	if emptyParam == nil || !emptyParam.Compliance || emptyParam.Reason != reasonNoData {
		t.Fatalf("expected compliant no-data parameter, got %+v", emptyParam)
	}
}

func TestCompareOneSidedEmptyParameter(t *testing.T) {
	wps := Document{"preheat": map[string]interface{}{"preheat_temp": "150"}}
	pqr := Document{"preheat": map[string]interface{}{"preheat_temp": "", "other": "x"}}
	report := Compare(wps, pqr, singleSectionCatalog())

	section := report.Sections["preheat"]
	if section.Compliance {
		t.Fatalf("one-sided empty parameter must force section non-compliance")
	}
	if section.Parameters[0].Reason != "PQR value is missing" {
		t.Fatalf("reason should name the missing side, got %q", section.Parameters[0].Reason)
	}
	if report.OverallCompliance {
		t.Fatalf("section non-compliance must propagate to the report")
	}
}

func TestComparePQRFieldAlias(t *testing.T) {
	catalog := []SectionSpec{
		{
			ID: "base_metals", Name: "Base Metals (QW-403)", Weight: 15,
			Parameters: []ParameterSpec{
				{ID: "thickness_range", Name: "Thickness Range", Weight: 2, PQRField: "thickness"},
			},
		},
	}
	wps := Document{"base_metals": map[string]interface{}{"thickness_range": "10-20"}}
	pqr := Document{"base_metals": map[string]interface{}{"thickness": "10-20"}}
	report := Compare(wps, pqr, catalog)
	section := report.Sections["base_metals"]
	if !section.Compliance {
		t.Fatalf("alias field should be read on the PQR side, got %+v", section)
	}
}

func TestCompareSpecialHandlingSection(t *testing.T) {
	catalog := []SectionSpec{
		{
			ID: "filler_metals", Name: "Filler Metals (QW-404)", Weight: 15,
			SpecialHandling: true,
			Parameters: []ParameterSpec{
				{ID: "f_number", Name: "F-Number", Weight: 3},
			},
		},
	}
	wps := Document{"filler_metals": map[string]interface{}{"processes": map[string]interface{}{"GTAW": map[string]interface{}{"f_number": "6"}}}}
	pqr := Document{"filler_metals": map[string]interface{}{"process_specific": map[string]interface{}{"GTAW": map[string]interface{}{"f_number": "99"}}}}
	report := Compare(wps, pqr, catalog)

	section := report.Sections["filler_metals"]
	if !section.Compliance || section.Score != 100 {
		t.Fatalf("special-handling section is presence-only, got %+v", section)
	}
	if len(section.Parameters) != 1 {
		t.Fatalf("expected single presence marker, got %d parameters", len(section.Parameters))
	}
}

func TestCompareZeroParameterSectionVacuouslyCompliant(t *testing.T) {
	catalog := []SectionSpec{
		{ID: "technique", Name: "Technique (QW-410)", Weight: 10, Parameters: nil},
	}
	wps := Document{"technique": map[string]interface{}{"anything": "x"}}
	pqr := Document{"technique": map[string]interface{}{"anything": "x"}}
	report := Compare(wps, pqr, catalog)
	section := report.Sections["technique"]
	if !section.Compliance || section.Score != 100 {
		t.Fatalf("zero-parameter section should be vacuously compliant, got %+v", section)
	}
}

func TestCompareDefaultCatalogDocumentInfo(t *testing.T) {
	wps := Document{"document_info": map[string]interface{}{"wps_number": "WPS-7", "date": "2024-01-02"}}
	pqr := Document{"document_info": map[string]interface{}{"pqr_number": "PQR-9", "date": "2023-11-30", "company": "Acme Fabrication"}}
	report := Compare(wps, pqr, DefaultCatalog())

	info := report.DocumentInfo
	if info.WPSNumber != "WPS-7" || info.PQRNumber != "PQR-9" {
		t.Fatalf("document numbers not carried over: %+v", info)
	}
	if info.Company != "Acme Fabrication" {
		t.Fatalf("company should fall back to the PQR side, got %q", info.Company)
	}
	if len(report.Sections) != len(DefaultCatalog()) {
		t.Fatalf("expected a result for every catalog section")
	}
}
