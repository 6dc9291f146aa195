package provider

// Record is a single resource record as exchanged with the caller.
// Every record crossing the uniform contract carries an "id" field.
type Record map[string]any

// Filter is an open set of field/value matchers. Values are opaque to the
// provider and are sent to the backend JSON-encoded.
type Filter map[string]any

// IdentifierRemap maps a resource name to the primary key field the backend
// uses for it instead of "id".
type IdentifierRemap map[string]string

// ResponseTransform post-processes every record fetched for a resource.
type ResponseTransform func(Record) Record

// ResponseTransforms maps a resource name to its response transform.
type ResponseTransforms map[string]ResponseTransform

// SortOrder is the direction of a sort.
type SortOrder string

const (
	// SortASC sorts ascending.
	SortASC SortOrder = "ASC"
	// SortDESC sorts descending.
	SortDESC SortOrder = "DESC"
)

// Pagination selects a page of results. Page is 1-based.
type Pagination struct {
	Page    int `json:"page"     yaml:"page"`
	PerPage int `json:"per_page" yaml:"per_page"`
}

// Range returns the inclusive zero-based record range covered by the page.
func (p Pagination) Range() (int, int) {
	return (p.Page - 1) * p.PerPage, p.Page*p.PerPage - 1
}

// Sort orders results by a single field.
type Sort struct {
	Field string    `json:"field" yaml:"field"`
	Order SortOrder `json:"order" yaml:"order"`
}

// GetListParams are the parameters of GetList.
type GetListParams struct {
	Pagination Pagination
	Sort       Sort
	Filter     Filter
}

// GetOneParams are the parameters of GetOne.
type GetOneParams struct {
	ID any
}

// GetManyParams are the parameters of GetMany.
type GetManyParams struct {
	IDs []any
}

// GetManyReferenceParams are the parameters of GetManyReference. Target is
// the field of the referencing resource that must equal ID.
type GetManyReferenceParams struct {
	Target     string
	ID         any
	Pagination Pagination
	Sort       Sort
	Filter     Filter
}

// CreateParams are the parameters of Create.
type CreateParams struct {
	Data Record
}

// UpdateParams are the parameters of Update.
type UpdateParams struct {
	ID           any
	Data         Record
	PreviousData Record
}

// UpdateManyParams are the parameters of UpdateMany.
type UpdateManyParams struct {
	IDs  []any
	Data Record
}

// DeleteParams are the parameters of Delete.
type DeleteParams struct {
	ID           any
	PreviousData Record
}

// DeleteManyParams are the parameters of DeleteMany.
type DeleteManyParams struct {
	IDs []any
}

// ListResult is a page of records plus the total number of matches.
type ListResult struct {
	Data  []Record `json:"data"  yaml:"data"`
	Total int      `json:"total" yaml:"total"`
}

// SingleResult wraps one record.
type SingleResult struct {
	Data Record `json:"data" yaml:"data"`
}

// ManyResult wraps an unpaginated set of records.
type ManyResult struct {
	Data []Record `json:"data" yaml:"data"`
}

// IdentifiersResult lists the identifiers affected by a bulk operation, in
// the order they were requested.
type IdentifiersResult struct {
	Data []any `json:"data" yaml:"data"`
}
