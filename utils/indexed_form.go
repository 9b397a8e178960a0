package utils

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
)

// IndexedEntry holds the fields submitted under one index of an indexed form collection
type IndexedEntry struct {
	Index  int
	Fields map[string]string
}

// Get returns the value of a field, or "" if it was not submitted
func (e IndexedEntry) Get(field string) string {
	return e.Fields[field]
}

// ParseIndexedFields collects keys shaped like prefix[N][field] into entries ordered by N.
// Indexes may be sparse; entries are returned in ascending index order.
func ParseIndexedFields(values url.Values, prefix string) []IndexedEntry {
	pattern := regexp.MustCompile(`\A` + regexp.QuoteMeta(prefix) + `\[(\d+)\]\[([A-Za-z0-9_]+)\]\z`)

	byIndex := make(map[int]map[string]string)
	for key, vals := range values {
		m := pattern.FindStringSubmatch(key)
		if m == nil || len(vals) == 0 {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if byIndex[idx] == nil {
			byIndex[idx] = make(map[string]string)
		}
		// the last value wins, like a browser posting a hidden input before a checkbox
		byIndex[idx][m[2]] = vals[len(vals)-1]
	}

	entries := make([]IndexedEntry, 0, len(byIndex))
	for idx, fields := range byIndex {
		entries = append(entries, IndexedEntry{Index: idx, Fields: fields})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Index < entries[j].Index })
	return entries
}

// IndexedFieldName builds the form key for a field of the entry at index
func IndexedFieldName(prefix string, index int, field string) string {
	return prefix + "[" + strconv.Itoa(index) + "][" + field + "]"
}
