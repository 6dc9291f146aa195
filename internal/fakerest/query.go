package fakerest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/fivetwenty-io/restprovider/internal/constants"
	"github.com/fivetwenty-io/restprovider/pkg/provider"
)

// Query is a parsed list request: sort=[field,order], range=[start,end]
// and filter={...}, each JSON encoded.
type Query struct {
	SortField string
	SortOrder string
	Range     []int
	Filter    map[string]any
}

// ParseQuery decodes the list parameters of values. Absent parameters mean
// unsorted, unpaginated and unfiltered.
func ParseQuery(values url.Values) (Query, error) {
	var query Query

	if raw := values.Get(constants.QuerySort); raw != "" {
		var sortBy []string

		err := decodeParam(raw, &sortBy)
		if err != nil || len(sortBy) == 0 {
			return Query{}, fmt.Errorf("%w: sort=%s", constants.ErrInvalidQueryParam, raw)
		}

		query.SortField = sortBy[0]
		query.SortOrder = constants.SortOrderAsc

		if len(sortBy) > 1 {
			query.SortOrder = strings.ToUpper(sortBy[1])
		}
	}

	if raw := values.Get(constants.QueryRange); raw != "" {
		err := decodeParam(raw, &query.Range)
		if err != nil || len(query.Range) != 2 || query.Range[0] < 0 || query.Range[1] < query.Range[0] {
			return Query{}, fmt.Errorf("%w: range=%s", constants.ErrInvalidQueryParam, raw)
		}
	}

	if raw := values.Get(constants.QueryFilter); raw != "" {
		err := decodeParam(raw, &query.Filter)
		if err != nil {
			return Query{}, fmt.Errorf("%w: filter=%s", constants.ErrInvalidQueryParam, raw)
		}
	}

	return query, nil
}

func decodeParam(raw string, target any) error {
	decoder := json.NewDecoder(bytes.NewReader([]byte(raw)))
	decoder.UseNumber()

	return decoder.Decode(target)
}

func (q Query) matches(record provider.Record) bool {
	for field, want := range q.Filter {
		if field == constants.FilterFullText {
			if !matchesText(record, fmt.Sprint(want)) {
				return false
			}

			continue
		}

		got := record[field]

		if options, ok := want.([]any); ok {
			if !containsValue(options, got) {
				return false
			}

			continue
		}

		if !sameValue(got, want) {
			return false
		}
	}

	return true
}

// matchesText reports whether any scalar field contains text, ignoring case.
func matchesText(record provider.Record, text string) bool {
	text = strings.ToLower(text)

	for _, value := range record {
		switch value.(type) {
		case map[string]any, []any, nil:
			continue
		}

		if strings.Contains(strings.ToLower(fmt.Sprint(value)), text) {
			return true
		}
	}

	return false
}

func containsValue(options []any, value any) bool {
	for _, option := range options {
		if sameValue(value, option) {
			return true
		}
	}

	return false
}

// sameValue compares loosely so 1, 1.0 and json.Number("1") are equal.
func sameValue(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)

	if aok && bok {
		return af == bf
	}

	return fmt.Sprint(a) == fmt.Sprint(b)
}

func (q Query) sort(records []provider.Record) {
	if q.SortField == "" {
		return
	}

	desc := q.SortOrder == constants.SortOrderDesc

	sort.SliceStable(records, func(i, j int) bool {
		cmp := compareValues(records[i][q.SortField], records[j][q.SortField])
		if desc {
			return cmp > 0
		}

		return cmp < 0
	})
}

func compareValues(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)

	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// window returns the slice bounds of the requested inclusive range.
func (q Query) window(total int) (int, int) {
	if len(q.Range) != 2 {
		return 0, total
	}

	start := min(q.Range[0], total)
	end := min(q.Range[1]+1, total)

	return start, end
}

func toFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case json.Number:
		f, err := typed.Float64()

		return f, err == nil
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case float64:
		return typed, true
	default:
		return 0, false
	}
}
