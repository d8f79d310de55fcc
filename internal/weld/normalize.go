// File path: internal/weld/normalize.go
package weld

import "strings"

// Normalizer rewrites the arbitrary key spellings produced by upstream
// extraction into the canonical schema vocabulary. It holds only references
// to the package-level immutable lookup tables, so a single instance can be
// shared freely across goroutines.
type Normalizer struct {
	lookup   map[string]string
	sections map[string]struct{}
}

// NewNormalizer returns a Normalizer backed by the canonical key table.
func NewNormalizer() *Normalizer {
	return &Normalizer{lookup: canonicalKeys, sections: sectionIDs}
}

// Normalize returns a canonical Document built from the fragment. The input
// is never mutated. Unknown keys are preserved verbatim; section values that
// arrive as bare scalars are wrapped into a single-key mapping so downstream
// code can treat every section uniformly.
func (n *Normalizer) Normalize(fragment Fragment) Document {
	if fragment == nil {
		return Document{}
	}
	return Document(n.normalizeMapping(map[string]interface{}(fragment)))
}

func (n *Normalizer) canonicalKey(key string) string {
	if canonical, ok := n.lookup[foldKey(key)]; ok {
		return canonical
	}
	return key
}

func (n *Normalizer) normalizeMapping(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for key, value := range m {
		canonical := n.canonicalKey(key)
		out[canonical] = n.normalizeSectionValue(canonical, value)
	}
	return out
}

func (n *Normalizer) normalizeSectionValue(key string, value interface{}) interface{} {
	normalized := n.normalizeValue(value)
	if _, isSection := n.sections[key]; !isSection {
		return normalized
	}
	switch kindOf(normalized) {
	case kindScalar:
		// Extraction sometimes flattens a whole section into one string.
		if normalized == nil {
			return normalized
		}
		return map[string]interface{}{"description": normalized}
	case kindList:
		if list, ok := normalized.([]interface{}); ok && listLooksPerProcess(list) {
			return map[string]interface{}{"processes": normalized}
		}
		return normalized
	default:
		if mapping, ok := asMapping(normalized); ok && mappingLooksPerProcess(mapping) {
			return map[string]interface{}{"processes": mapping}
		}
		return normalized
	}
}

func (n *Normalizer) normalizeValue(value interface{}) interface{} {
	switch kindOf(value) {
	case kindMapping:
		mapping, _ := asMapping(value)
		return n.normalizeMapping(mapping)
	case kindList:
		list := value.([]interface{})
		out := make([]interface{}, len(list))
		for i, item := range list {
			out[i] = n.normalizeValue(item)
		}
		return out
	default:
		return value
	}
}

// mappingLooksPerProcess reports whether a section mapping is an unwrapped
// per-process table: no grouping key yet, at least one process-name key, and
// mapping-shaped entries under those keys.
func mappingLooksPerProcess(m map[string]interface{}) bool {
	if _, ok := m["processes"]; ok {
		return false
	}
	if _, ok := m["process_specific"]; ok {
		return false
	}
	for key, value := range m {
		if _, known := processTokens[foldUpper(key)]; !known {
			continue
		}
		if _, isMapping := asMapping(value); isMapping {
			return true
		}
	}
	return false
}

func listLooksPerProcess(list []interface{}) bool {
	for _, item := range list {
		mapping, ok := asMapping(item)
		if !ok {
			continue
		}
		for key := range mapping {
			if _, known := processTokens[foldUpper(key)]; known {
				return true
			}
		}
	}
	return false
}

func foldUpper(key string) string {
	return strings.ToUpper(foldKey(key))
}
