// File path: internal/extract/prompts.go
package extract

import "fmt"

// DocType identifies which extraction prompt set a document gets.
type DocType string

const (
	DocTypeWPS DocType = "wps"
	DocTypePQR DocType = "pqr"
)

const wpsSystemPrompt = `You are an expert in analyzing Welding Procedure Specification (WPS) documents.
Extract structured information from the WPS document provided.

CRITICAL INSTRUCTIONS:
1. Extract all parameters accurately, correcting any OCR errors based on context
2. Maintain the proper units as specified in the document
3. Ensure all information is categorized in the correct sections
4. If a value is given as a range, include the full range
5. Include all reference standards and codes mentioned in the document

Your response MUST be valid, parsable JSON without any markdown code blocks.

Extract the following information, using empty strings if information is not found:

1. DOCUMENT INFORMATION: wps_number, revision, date, company,
   welding_process (object with "processes" array), pqr_reference
2. JOINTS (QW-402): joint_design, backing, joint_type, groove_angle,
   root_opening, root_face
3. BASE METALS (QW-403): p_number, group_number, material_spec, type_grade,
   to_p_number, to_group_number, thickness_range, diameter_range
4. FILLER METALS (QW-404): per process: f_number, a_number, specification,
   classification, filler_size
5. POSITION (QW-405): position, progression
6. PREHEAT (QW-406): preheat_temp, interpass_temp, preheat_maintenance
7. POST WELD HEAT TREATMENT (QW-407): pwht_temp, pwht_time
8. GAS (QW-408): shielding_gas, shielding_flow_rate, backing_gas
9. ELECTRICAL CHARACTERISTICS (QW-409): current_type, polarity,
   amperage_range, voltage_range
10. TECHNIQUE (QW-410): string_weave, cleaning_method, multi_single_pass,
    multi_single_electrode`

const pqrSystemPrompt = `You are an expert in analyzing Procedure Qualification Records (PQR) documents.
Extract structured information from the PQR document provided.

CRITICAL INSTRUCTIONS:
1. Extract all parameters accurately, correcting any OCR errors based on context
2. Maintain the proper units as specified in the document
3. Ensure all information is categorized in the correct sections
4. If a value is given as a range, include the full range
5. Include all reference standards and codes mentioned in the document
6. Pay special attention to test results and ensure all data is captured accurately

Your response MUST be valid, parsable JSON without any markdown code blocks.

Extract the following information, using empty strings if information is not found:

1. DOCUMENT INFORMATION: pqr_number, revision, date, company,
   welding_process (object with "processes" array), wps_reference
2. JOINTS (QW-402): joint_design, backing, joint_type, groove_angle,
   root_opening, root_face
3. BASE METALS (QW-403): p_number, group_number, material_spec, type_grade,
   to_p_number, to_group_number, thickness, diameter
4. FILLER METALS (QW-404): per process: f_number, a_number, specification,
   classification, filler_size
5. POSITION (QW-405): position, progression
6. PREHEAT (QW-406): preheat_temp, interpass_temp
7. POST WELD HEAT TREATMENT (QW-407): pwht_temp, pwht_time
8. GAS (QW-408): shielding_gas, shielding_flow_rate, backing_gas
9. ELECTRICAL CHARACTERISTICS (QW-409): current_type, polarity, amperage,
   voltage
10. TECHNIQUE (QW-410): string_weave, cleaning_method, multi_single_pass,
    multi_single_electrode
11. TENSILE TEST: specimens array with specimen_id, width, thickness, area,
    ultimate_load, ultimate_stress, failure_location
12. GUIDED BEND TEST: specimens array with specimen_id, type, result
13. TOUGHNESS TESTS: specimens array when present`

// systemPrompt returns the extraction instructions for the document type.
func systemPrompt(docType DocType) string {
	if docType == DocTypePQR {
		return pqrSystemPrompt
	}
	return wpsSystemPrompt
}

// userPrompt wraps one text chunk for extraction. Chunked documents tell the
// model it may be looking at a partial view so it leaves unseen fields empty.
func userPrompt(docType DocType, chunk string, index, total int) string {
	label := "WPS"
	if docType == DocTypePQR {
		label = "PQR"
	}
	if total > 1 {
		return fmt.Sprintf(
			"This is part %d of %d of a %s document. Extract whatever structured information this part contains and leave fields that are not visible in this part empty.\n\nDocument text:\n%s",
			index+1, total, label, chunk,
		)
	}
	return fmt.Sprintf("Extract structured information from this %s document.\n\nDocument text:\n%s", label, chunk)
}
