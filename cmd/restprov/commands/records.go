package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/restprovider/internal/constants"
	"github.com/fivetwenty-io/restprovider/pkg/provider"
)

// listFlags are shared by list and get-many-reference.
type listFlags struct {
	page    int
	perPage int
	sort    string
	order   string
	filter  string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", constants.DefaultPage, "page number (1-based)")
	cmd.Flags().IntVar(&f.perPage, "per-page", constants.DefaultPageSize, "records per page")
	cmd.Flags().StringVar(&f.sort, "sort", constants.IDField, "field to sort by")
	cmd.Flags().StringVar(&f.order, "order", constants.SortOrderAsc, "sort order (ASC or DESC)")
	cmd.Flags().StringVar(&f.filter, "filter", "", "filter as a JSON object, e.g. '{\"q\":\"hello\"}'")
}

func (f *listFlags) params() (provider.Pagination, provider.Sort, provider.Filter, error) {
	if f.page < 1 || f.perPage < 1 {
		return provider.Pagination{}, provider.Sort{}, nil, constants.ErrInvalidPagination
	}

	order, err := parseSortOrder(f.order)
	if err != nil {
		return provider.Pagination{}, provider.Sort{}, nil, err
	}

	filter := provider.Filter{}

	if f.filter != "" {
		obj, err := parseJSONObject(f.filter)
		if err != nil {
			return provider.Pagination{}, provider.Sort{}, nil, err
		}

		filter = obj
	}

	return provider.Pagination{Page: f.page, PerPage: f.perPage},
		provider.Sort{Field: f.sort, Order: order},
		filter, nil
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list RESOURCE",
		Short: "List records of a resource",
		Long:  "Fetch one page of a resource, sorted and filtered, with the total number of matches",
		Example: `  restprov list posts --sort title --order DESC
  restprov list posts --page 2 --per-page 25 --filter '{"author_id":3}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pagination, sortBy, filter, err := flags.params()
			if err != nil {
				return err
			}

			dataProvider, err := newProvider()
			if err != nil {
				return err
			}

			result, err := dataProvider.GetList(cmd.Context(), args[0], &provider.GetListParams{
				Pagination: pagination,
				Sort:       sortBy,
				Filter:     filter,
			})
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", args[0], err)
			}

			return renderRecords(cmd, result.Data, result.Total)
		},
	}

	flags.register(cmd)

	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get RESOURCE ID",
		Short: "Get a single record",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataProvider, err := newProvider()
			if err != nil {
				return err
			}

			result, err := dataProvider.GetOne(cmd.Context(), args[0], &provider.GetOneParams{ID: parseIdentifier(args[1])})
			if err != nil {
				return fmt.Errorf("failed to get %s %s: %w", args[0], args[1], err)
			}

			return renderRecord(cmd, result.Data)
		},
	}
}

// NewGetManyCommand creates the get-many command.
func NewGetManyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get-many RESOURCE ID...",
		Short: "Get several records by identifier",
		Args:  cobra.MinimumNArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataProvider, err := newProvider()
			if err != nil {
				return err
			}

			result, err := dataProvider.GetMany(cmd.Context(), args[0], &provider.GetManyParams{IDs: parseIdentifiers(args[1:])})
			if err != nil {
				return fmt.Errorf("failed to get %s: %w", args[0], err)
			}

			return renderRecords(cmd, result.Data, -1)
		},
	}
}

// NewGetManyReferenceCommand creates the get-many-reference command.
func NewGetManyReferenceCommand() *cobra.Command {
	flags := &listFlags{}

	var (
		target string
		id     string
	)

	cmd := &cobra.Command{
		Use:     "get-many-reference RESOURCE",
		Short:   "List records referencing another record",
		Example: `  restprov get-many-reference comments --target post_id --id 12`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" || id == "" {
				return constants.ErrTargetRequired
			}

			pagination, sortBy, filter, err := flags.params()
			if err != nil {
				return err
			}

			dataProvider, err := newProvider()
			if err != nil {
				return err
			}

			result, err := dataProvider.GetManyReference(cmd.Context(), args[0], &provider.GetManyReferenceParams{
				Target:     target,
				ID:         parseIdentifier(id),
				Pagination: pagination,
				Sort:       sortBy,
				Filter:     filter,
			})
			if err != nil {
				return fmt.Errorf("failed to list %s referencing %s=%s: %w", args[0], target, id, err)
			}

			return renderRecords(cmd, result.Data, result.Total)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&target, "target", "", "referencing field, e.g. post_id")
	cmd.Flags().StringVar(&id, "id", "", "identifier the target field must equal")

	return cmd
}

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	var data, file string

	cmd := &cobra.Command{
		Use:     "create RESOURCE",
		Short:   "Create a record",
		Example: `  restprov create posts --data '{"title":"Hello"}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := readRecordData(data, file)
			if err != nil {
				return err
			}

			dataProvider, err := newProvider()
			if err != nil {
				return err
			}

			result, err := dataProvider.Create(cmd.Context(), args[0], &provider.CreateParams{Data: record})
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", args[0], err)
			}

			return renderRecord(cmd, result.Data)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "record as a JSON object")
	cmd.Flags().StringVar(&file, "file", "", "read the record from a JSON file")

	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	var data, file string

	cmd := &cobra.Command{
		Use:   "update RESOURCE ID",
		Short: "Update a record",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := readRecordData(data, file)
			if err != nil {
				return err
			}

			dataProvider, err := newProvider()
			if err != nil {
				return err
			}

			result, err := dataProvider.Update(cmd.Context(), args[0], &provider.UpdateParams{
				ID:   parseIdentifier(args[1]),
				Data: record,
			})
			if err != nil {
				return fmt.Errorf("failed to update %s %s: %w", args[0], args[1], err)
			}

			return renderRecord(cmd, result.Data)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "changes as a JSON object")
	cmd.Flags().StringVar(&file, "file", "", "read the changes from a JSON file")

	return cmd
}

// NewUpdateManyCommand creates the update-many command.
func NewUpdateManyCommand() *cobra.Command {
	var data, file string

	cmd := &cobra.Command{
		Use:   "update-many RESOURCE ID...",
		Short: "Apply the same changes to several records",
		Args:  cobra.MinimumNArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := readRecordData(data, file)
			if err != nil {
				return err
			}

			dataProvider, err := newProvider()
			if err != nil {
				return err
			}

			result, err := dataProvider.UpdateMany(cmd.Context(), args[0], &provider.UpdateManyParams{
				IDs:  parseIdentifiers(args[1:]),
				Data: record,
			})
			if err != nil {
				return fmt.Errorf("failed to update %s: %w", args[0], err)
			}

			return renderIdentifiers(cmd, result.Data)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "changes as a JSON object")
	cmd.Flags().StringVar(&file, "file", "", "read the changes from a JSON file")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete RESOURCE ID",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataProvider, err := newProvider()
			if err != nil {
				return err
			}

			result, err := dataProvider.Delete(cmd.Context(), args[0], &provider.DeleteParams{ID: parseIdentifier(args[1])})
			if err != nil {
				return fmt.Errorf("failed to delete %s %s: %w", args[0], args[1], err)
			}

			return renderRecord(cmd, result.Data)
		},
	}
}

// NewDeleteManyCommand creates the delete-many command.
func NewDeleteManyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-many RESOURCE ID...",
		Short: "Delete several records",
		Args:  cobra.MinimumNArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataProvider, err := newProvider()
			if err != nil {
				return err
			}

			result, err := dataProvider.DeleteMany(cmd.Context(), args[0], &provider.DeleteManyParams{IDs: parseIdentifiers(args[1:])})
			if err != nil {
				return fmt.Errorf("failed to delete %s: %w", args[0], err)
			}

			return renderIdentifiers(cmd, result.Data)
		},
	}
}
