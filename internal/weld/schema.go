// File path: internal/weld/schema.go
package weld

import "strings"

// SectionSpec describes one comparable section of the canonical schema. The
// catalog is process-wide constant data and is never mutated.
type SectionSpec struct {
	ID              string
	Name            string
	Weight          int
	SpecialHandling bool
	Parameters      []ParameterSpec
}

// ParameterSpec describes one weighted field within a section. PQRField names
// the field the qualification record uses when it differs from the WPS field
// (for example thickness_range versus thickness).
type ParameterSpec struct {
	ID       string
	Name     string
	Weight   int
	PQRField string
}

// canonicalKeys maps folded observed key spellings to canonical schema keys.
// The fold strips case, spaces, hyphens, and underscores, so one entry covers
// "POST WELD HEAT TREATMENT", "post_weld_heat_treatment", and friends.
var canonicalKeys = buildKeyLookup(map[string][]string{
	"document_info": {
		"document_info", "document_information", "documentinfo",
		"document details", "doc_info",
	},
	"joints":      {"joints", "joint", "joints_qw402", "joints (qw-402)"},
	"base_metals": {"base_metals", "base metal", "base metals", "base_metals_qw403", "base metals (qw-403)"},
	"filler_metals": {
		"filler_metals", "filler metal", "filler metals",
		"filler_metals_qw404", "filler metals (qw-404)",
	},
	"position":  {"position", "positions", "position_qw405", "position (qw-405)"},
	"preheat":   {"preheat", "preheat_qw406", "preheat (qw-406)"},
	"pwht":      {"pwht", "post_weld_heat_treatment", "post weld heat treatment", "postweld heat treatment", "pwht_qw407", "pwht (qw-407)"},
	"gas":       {"gas", "gases", "gas_qw408", "gas (qw-408)", "shielding"},
	"electrical_characteristics": {
		"electrical_characteristics", "electrical characteristics",
		"electrical", "electrical_characteristics_qw409", "electrical characteristics (qw-409)",
	},
	"technique": {"technique", "techniques", "technique_qw410", "technique (qw-410)"},
	"welding_parameter_table": {
		"welding_parameter_table", "welding parameter table",
		"welding_parameters", "welding parameters", "parameter_table",
	},
	"tensile_test":     {"tensile_test", "tensile test", "tensile_tests", "tensile tests"},
	"guided_bend_test": {"guided_bend_test", "guided bend test", "guided_bend_tests", "bend_test", "bend tests"},
	"toughness_tests":  {"toughness_tests", "toughness test", "toughness tests", "impact_tests", "impact tests"},
	"process_specific": {"process_specific", "process specific"},
	"processes":        {"processes", "welding_processes", "welding processes"},
})

// sectionIDs marks the canonical keys whose values downstream code reads as
// mappings; bare scalars under these keys get wrapped during normalization.
var sectionIDs = map[string]struct{}{
	"document_info":              {},
	"joints":                     {},
	"base_metals":                {},
	"filler_metals":              {},
	"position":                   {},
	"preheat":                    {},
	"pwht":                       {},
	"gas":                        {},
	"electrical_characteristics": {},
	"technique":                  {},
	"welding_parameter_table":    {},
	"tensile_test":               {},
	"guided_bend_test":           {},
	"toughness_tests":            {},
}

// processTokens are the welding process names whose presence as mapping keys
// identifies an unwrapped per-process filler-metal structure.
var processTokens = map[string]struct{}{
	"GTAW": {},
	"SMAW": {},
	"GMAW": {},
	"FCAW": {},
	"SAW":  {},
}

// rangeFields are the parameters whose WPS value is read as a numeric range
// that must contain the observed PQR value.
var rangeFields = map[string]struct{}{
	"amperage_range": {},
	"voltage_range":  {},
	"preheat_temp":   {},
	"interpass_temp": {},
}

func buildKeyLookup(variants map[string][]string) map[string]string {
	lookup := make(map[string]string, len(variants)*4)
	for canonical, spellings := range variants {
		lookup[foldKey(canonical)] = canonical
		for _, spelling := range spellings {
			lookup[foldKey(spelling)] = canonical
		}
	}
	return lookup
}

// foldKey lowers a key and strips separator characters so that spelling
// variants collapse onto the same lookup entry.
func foldKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range strings.ToLower(strings.TrimSpace(key)) {
		switch r {
		case ' ', '_', '-', '\t':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DefaultCatalog returns the weighted ASME IX section catalog used for
// WPS/PQR comparison. Callers must treat the returned specs as read-only.
func DefaultCatalog() []SectionSpec {
	return defaultCatalog
}

var defaultCatalog = []SectionSpec{
	{
		ID: "joints", Name: "Joints (QW-402)", Weight: 10,
		Parameters: []ParameterSpec{
			{ID: "joint_design", Name: "Joint Design", Weight: 2},
			{ID: "backing", Name: "Backing", Weight: 2},
			{ID: "groove_angle", Name: "Groove Angle", Weight: 1},
			{ID: "root_opening", Name: "Root Opening", Weight: 1},
		},
	},
	{
		ID: "base_metals", Name: "Base Metals (QW-403)", Weight: 15,
		Parameters: []ParameterSpec{
			{ID: "p_number", Name: "P-Number", Weight: 3},
			{ID: "group_number", Name: "Group Number", Weight: 2},
			{ID: "material_spec", Name: "Material Specification", Weight: 3},
			{ID: "type_grade", Name: "Type/Grade", Weight: 3},
			{ID: "thickness_range", Name: "Thickness Range", Weight: 2, PQRField: "thickness"},
		},
	},
	{
		ID: "filler_metals", Name: "Filler Metals (QW-404)", Weight: 15,
		SpecialHandling: true,
		Parameters: []ParameterSpec{
			{ID: "f_number", Name: "F-Number", Weight: 3},
			{ID: "a_number", Name: "A-Number", Weight: 2},
			{ID: "specification", Name: "Specification", Weight: 3},
			{ID: "classification", Name: "Classification", Weight: 3},
		},
	},
	{
		ID: "position", Name: "Position (QW-405)", Weight: 10,
		Parameters: []ParameterSpec{
			{ID: "position", Name: "Position", Weight: 5},
			{ID: "progression", Name: "Progression", Weight: 2},
		},
	},
	{
		ID: "preheat", Name: "Preheat (QW-406)", Weight: 10,
		Parameters: []ParameterSpec{
			{ID: "preheat_temp", Name: "Preheat Temperature", Weight: 3},
			{ID: "interpass_temp", Name: "Interpass Temperature", Weight: 3},
			{ID: "preheat_maintenance", Name: "Preheat Maintenance", Weight: 2},
		},
	},
	{
		ID: "pwht", Name: "Post-Weld Heat Treatment (QW-407)", Weight: 10,
		Parameters: []ParameterSpec{
			{ID: "pwht_temp", Name: "PWHT Temperature", Weight: 3},
			{ID: "pwht_time", Name: "PWHT Time", Weight: 3},
		},
	},
	{
		ID: "gas", Name: "Gas (QW-408)", Weight: 10,
		Parameters: []ParameterSpec{
			{ID: "shielding_gas", Name: "Shielding Gas", Weight: 3},
			{ID: "shielding_flow_rate", Name: "Shielding Flow Rate", Weight: 2},
			{ID: "backing_gas", Name: "Backing Gas", Weight: 2},
		},
	},
	{
		ID: "electrical_characteristics", Name: "Electrical Characteristics (QW-409)", Weight: 10,
		Parameters: []ParameterSpec{
			{ID: "current_type", Name: "Current Type", Weight: 2},
			{ID: "polarity", Name: "Polarity", Weight: 2},
			{ID: "amperage_range", Name: "Amperage", Weight: 2, PQRField: "amperage"},
			{ID: "voltage_range", Name: "Voltage", Weight: 2, PQRField: "voltage"},
		},
	},
	{
		ID: "technique", Name: "Technique (QW-410)", Weight: 10,
		Parameters: []ParameterSpec{
			{ID: "string_weave", Name: "String/Weave Bead", Weight: 2},
			{ID: "cleaning_method", Name: "Cleaning Method", Weight: 2},
			{ID: "multi_single_pass", Name: "Multi/Single Pass", Weight: 2},
			{ID: "multi_single_electrode", Name: "Multi/Single Electrode", Weight: 2},
		},
	},
}
