package adapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/restprovider/internal/constants"
	"github.com/fivetwenty-io/restprovider/pkg/provider"
)

// marshalParam JSON-encodes v the way a browser's JSON.stringify would:
// no HTML escaping, no trailing newline.
func marshalParam(v any) (string, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	err := encoder.Encode(v)
	if err != nil {
		return "", fmt.Errorf("encoding query parameter: %w", err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// encodeQuery renders params sorted by key with encodeURIComponent-style
// escaping, so spaces become %20 rather than "+".
func encodeQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, escapeComponent(key)+"="+escapeComponent(params[key]))
	}

	return strings.Join(parts, "&")
}

func escapeComponent(s string) string {
	// QueryEscape already escapes a literal "+" as %2B.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// listQuery builds the sort/range/filter parameters of a list request.
func listQuery(sortBy provider.Sort, start, end int, filter any) (map[string]string, error) {
	sortParam, err := marshalParam([]string{sortBy.Field, string(sortBy.Order)})
	if err != nil {
		return nil, err
	}

	rangeParam, err := marshalParam([]int{start, end})
	if err != nil {
		return nil, err
	}

	filterParam, err := marshalParam(filter)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		constants.QuerySort:   sortParam,
		constants.QueryRange:  rangeParam,
		constants.QueryFilter: filterParam,
	}, nil
}

// isContentRange reports whether the count header is the default one.
func isContentRange(header string) bool {
	return strings.EqualFold(header, constants.HeaderContentRange)
}

// parseTotal extracts the list total from the count header. Content-Range
// holds "... /{total}", any other header the bare total.
func parseTotal(headers http.Header, countHeader string) (int, error) {
	if len(headers.Values(countHeader)) == 0 {
		return 0, &provider.CountHeaderError{Header: countHeader}
	}

	value := headers.Get(countHeader)

	if isContentRange(countHeader) {
		if idx := strings.LastIndex(value, "/"); idx >= 0 {
			value = value[idx+1:]
		}
	}

	total, ok := parseLeadingInt(value)
	if !ok {
		return 0, fmt.Errorf("%w: %s: %q", provider.ErrInvalidCountHeader, countHeader, headers.Get(countHeader))
	}

	return total, nil
}

// parseLeadingInt parses the integer prefix of s after leading whitespace,
// ignoring anything that follows, as JavaScript's parseInt does.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}

	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	if end == digitsStart {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}

	return n, true
}
