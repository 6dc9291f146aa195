package adapter

import (
	"fmt"
	"maps"

	"github.com/fivetwenty-io/restprovider/internal/constants"
	"github.com/fivetwenty-io/restprovider/pkg/provider"
)

// rekeyPayload moves data["id"] to data[key]. The input is never modified.
func rekeyPayload(data provider.Record, key string) provider.Record {
	if key == "" || data == nil {
		return data
	}

	out := make(provider.Record, len(data))

	for field, value := range data {
		if field != constants.IDField {
			out[field] = value
		}
	}

	if id, ok := data[constants.IDField]; ok {
		out[key] = id
	}

	return out
}

// rekeyFilter moves filter["id"] to filter[key] when an id is set.
func rekeyFilter(filter provider.Filter, key string) provider.Filter {
	if filter == nil {
		return nil
	}

	if key == "" {
		return filter
	}

	out := make(provider.Filter, len(filter))

	for field, value := range filter {
		if field != constants.IDField {
			out[field] = value
		}
	}

	if id := filter[constants.IDField]; id != nil {
		out[key] = id
	}

	return out
}

// rekeyRecord is the inverse of rekeyPayload for a single response record.
func rekeyRecord(resource string, record provider.Record, key string) (provider.Record, error) {
	if key == "" {
		return record, nil
	}

	value := record[key]
	if value == nil {
		return nil, &provider.RemapError{Resource: resource, Key: key, Value: record}
	}

	out := maps.Clone(record)
	delete(out, key)
	out[constants.IDField] = value

	return out, nil
}

// rekeyRecords applies rekeyRecord to every element.
func rekeyRecords(resource string, records []provider.Record, key string) ([]provider.Record, error) {
	if key == "" {
		return records, nil
	}

	out := make([]provider.Record, len(records))

	for i, record := range records {
		rekeyed, err := rekeyRecord(resource, record, key)
		if err != nil {
			return nil, err
		}

		out[i] = rekeyed
	}

	return out, nil
}

// transformRecords applies fn to every record; a nil fn is the identity.
func transformRecords(records []provider.Record, fn provider.ResponseTransform) []provider.Record {
	if fn == nil || records == nil {
		return records
	}

	out := make([]provider.Record, len(records))
	for i, record := range records {
		out[i] = fn(record)
	}

	return out
}

// transformRecord applies fn to a single record.
func transformRecord(record provider.Record, fn provider.ResponseTransform) provider.Record {
	if fn == nil || record == nil {
		return record
	}

	return fn(record)
}

// asRecord converts a decoded JSON value to a Record.
func asRecord(value any) (provider.Record, error) {
	switch typed := value.(type) {
	case provider.Record:
		return typed, nil
	case map[string]any:
		return provider.Record(typed), nil
	default:
		return nil, fmt.Errorf("%w: expected an object, got %T", provider.ErrUnexpectedResponse, value)
	}
}

// asRecords converts a decoded JSON array to records.
func asRecords(value any) ([]provider.Record, error) {
	switch typed := value.(type) {
	case []provider.Record:
		return typed, nil
	case []map[string]any:
		out := make([]provider.Record, len(typed))
		for i, obj := range typed {
			out[i] = obj
		}

		return out, nil
	case []any:
		out := make([]provider.Record, len(typed))

		for i, item := range typed {
			record, err := asRecord(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}

			out[i] = record
		}

		return out, nil
	default:
		return nil, fmt.Errorf("%w: expected an array, got %T", provider.ErrUnexpectedResponse, value)
	}
}

// identifierOf reads the primary key a write operation's response reports.
func identifierOf(resource string, value any, key string) (any, error) {
	record, err := asRecord(value)
	if err != nil {
		return nil, err
	}

	id := record[key]
	if id == nil {
		return nil, &provider.RemapError{Resource: resource, Key: key, Value: record}
	}

	return id, nil
}
