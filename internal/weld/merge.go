// File path: internal/weld/merge.go
package weld

import (
	"errors"
	"reflect"
)

// ErrNoFragments is returned when Merge is called with an empty sequence.
// An empty sequence indicates a caller bug, not bad document data, so this is
// the one place the engine fails instead of degrading.
var ErrNoFragments = errors.New("no fragments to merge")

// Merge combines the structured results extracted from overlapping text
// chunks of one document into a single fragment. Fragments are folded
// strictly left to right: the first-seen value wins on irreconcilable scalar
// conflicts, a longer string replaces a shorter one (re-extraction across
// overlapping chunks truncates rather than contradicts), lists union in
// first-seen order, and a non-empty value always beats an empty one. The
// inputs are never mutated.
func Merge(fragments []Fragment) (Fragment, error) {
	if len(fragments) == 0 {
		return nil, ErrNoFragments
	}
	accumulator, _ := deepCopyValue(map[string]interface{}(fragments[0])).(map[string]interface{})
	for _, fragment := range fragments[1:] {
		mergeMapping(accumulator, map[string]interface{}(fragment))
	}
	return Fragment(accumulator), nil
}

func mergeMapping(target, source map[string]interface{}) {
	for key, incoming := range source {
		existing, present := target[key]
		if !present {
			target[key] = deepCopyValue(incoming)
			continue
		}
		targetMap, targetIsMap := asMapping(existing)
		sourceMap, sourceIsMap := asMapping(incoming)
		if targetIsMap && sourceIsMap {
			mergeMapping(targetMap, sourceMap)
			continue
		}
		target[key] = mergeValue(existing, incoming)
	}
}

// mergeValue resolves a conflict between an accumulator value and an incoming
// value at the same key. The accumulator value is returned unchanged unless
// the incoming value is strictly more complete.
func mergeValue(existing, incoming interface{}) interface{} {
	if isEmptyValue(incoming) {
		return existing
	}
	if isEmptyValue(existing) {
		return deepCopyValue(incoming)
	}
	if existingStr, ok := existing.(string); ok {
		if incomingStr, ok := incoming.(string); ok {
			if len(incomingStr) > len(existingStr) {
				return incomingStr
			}
			return existingStr
		}
	}
	if existingList, ok := existing.([]interface{}); ok {
		if incomingList, ok := incoming.([]interface{}); ok {
			return mergeLists(existingList, incomingList)
		}
	}
	return existing
}

func mergeLists(existing, incoming []interface{}) []interface{} {
	merged := make([]interface{}, len(existing))
	copy(merged, existing)
	for _, item := range incoming {
		if !containsValue(merged, item) {
			merged = append(merged, deepCopyValue(item))
		}
	}
	return merged
}

func containsValue(list []interface{}, value interface{}) bool {
	for _, item := range list {
		if reflect.DeepEqual(item, value) {
			return true
		}
	}
	return false
}
