package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Кодеки для составных колонок. The database stores rosters, veto counters
// and histories as compact strings; everything outside the repositories works
// with the typed form only.

// ParseIDList decodes a "12,34,56" column into an id slice. Empty input
// yields an empty slice; a malformed element fails the whole parse.
func ParseIDList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid id %q in list %q: %w", part, s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatIDList is the inverse of ParseIDList.
func FormatIDList(ids []int) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// ParseVetoCounts decodes an "id.count/id.count" column into a counter map.
func ParseVetoCounts(s string) (map[int]int, error) {
	counts := make(map[int]int)
	s = strings.TrimSpace(s)
	if s == "" {
		return counts, nil
	}
	for _, entry := range strings.Split(s, "/") {
		pair := strings.SplitN(entry, ".", 2)
		if len(pair) != 2 {
			return nil, fmt.Errorf("invalid veto entry %q in %q", entry, s)
		}
		id, err := strconv.Atoi(pair[0])
		if err != nil {
			return nil, fmt.Errorf("invalid template id in veto entry %q: %w", entry, err)
		}
		count, err := strconv.Atoi(pair[1])
		if err != nil {
			return nil, fmt.Errorf("invalid count in veto entry %q: %w", entry, err)
		}
		counts[id] = count
	}
	return counts, nil
}

// FormatVetoCounts encodes a counter map as "id.count/id.count", ordered by
// template id so the encoding is canonical.
func FormatVetoCounts(counts map[int]int) string {
	if len(counts) == 0 {
		return ""
	}
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d.%d", id, counts[id])
	}
	return strings.Join(parts, "/")
}

// ParseSides decodes a "1,2;3,4" sides column into ordered side slices.
func ParseSides(s string) ([][]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return [][]int{}, nil
	}
	groups := strings.Split(s, ";")
	sides := make([][]int, 0, len(groups))
	for _, group := range groups {
		side, err := ParseIDList(group)
		if err != nil {
			return nil, fmt.Errorf("invalid side %q: %w", group, err)
		}
		sides = append(sides, side)
	}
	return sides, nil
}

// FormatSides is the inverse of ParseSides.
func FormatSides(sides [][]int) string {
	if len(sides) == 0 {
		return ""
	}
	parts := make([]string, len(sides))
	for i, side := range sides {
		parts[i] = FormatIDList(side)
	}
	return strings.Join(parts, ";")
}
