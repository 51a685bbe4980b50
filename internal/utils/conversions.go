package utils

import "sort"

// FlattenSorted flattens field-level error messages into one slice, ordered
// by field name so the joined display string is stable.
func FlattenSorted(fields map[string][]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	messages := make([]string, 0, len(fields))
	for _, k := range keys {
		messages = append(messages, fields[k]...)
	}
	return messages
}
