//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/fivetwenty-io/restprovider/pkg/provider"
	"github.com/fivetwenty-io/restprovider/pkg/restclient"
)

// ProviderWorkflowSuite drives the library through a full record lifecycle.
type ProviderWorkflowSuite struct {
	suite.Suite

	config       *TestConfig
	dataProvider provider.DataProvider
	created      []any
}

func (s *ProviderWorkflowSuite) SetupSuite() {
	s.config = LoadTestConfig(s.T())

	dataProvider, err := restclient.New(&provider.Config{
		APIURL:      s.config.APIURL,
		CountHeader: s.config.CountHeader,
		RetryMax:    2,
	})
	s.Require().NoError(err)

	s.dataProvider = dataProvider
}

func (s *ProviderWorkflowSuite) TearDownSuite() {
	if len(s.created) == 0 {
		return
	}

	_, err := s.dataProvider.DeleteMany(context.Background(), "posts", &provider.DeleteManyParams{IDs: s.created})
	if err != nil {
		s.T().Logf("cleanup failed: %v", err)
	}
}

func (s *ProviderWorkflowSuite) TestLifecycle() {
	ctx := context.Background()
	title := GenerateTestName("integration")

	created, err := s.dataProvider.Create(ctx, "posts", &provider.CreateParams{
		Data: provider.Record{"title": title},
	})
	s.Require().NoError(err)
	s.Require().NotNil(created.Data["id"])

	id := created.Data["id"]

	one, err := s.dataProvider.GetOne(ctx, "posts", &provider.GetOneParams{ID: id})
	s.Require().NoError(err)
	s.Equal(title, one.Data["title"])

	list, err := s.dataProvider.GetList(ctx, "posts", &provider.GetListParams{
		Pagination: provider.Pagination{Page: 1, PerPage: 10},
		Sort:       provider.Sort{Field: "id", Order: provider.SortDESC},
		Filter:     provider.Filter{"title": title},
	})
	s.Require().NoError(err)
	s.Equal(1, list.Total)

	updated, err := s.dataProvider.Update(ctx, "posts", &provider.UpdateParams{
		ID:   id,
		Data: provider.Record{"id": id, "title": title + "-updated"},
	})
	s.Require().NoError(err)
	s.Equal(title+"-updated", updated.Data["title"])

	deleted, err := s.dataProvider.Delete(ctx, "posts", &provider.DeleteParams{ID: id})
	s.Require().NoError(err)
	s.Equal(title+"-updated", deleted.Data["title"])

	_, err = s.dataProvider.GetOne(ctx, "posts", &provider.GetOneParams{ID: id})
	s.True(provider.IsNotFound(err))
}

func (s *ProviderWorkflowSuite) TestBulkOperations() {
	ctx := context.Background()

	ids := make([]any, 0, 3)

	for i := 0; i < 3; i++ {
		created, err := s.dataProvider.Create(ctx, "posts", &provider.CreateParams{
			Data: provider.Record{"title": GenerateTestName("bulk")},
		})
		s.Require().NoError(err)

		ids = append(ids, created.Data["id"])
	}

	s.created = append(s.created, ids...)

	many, err := s.dataProvider.GetMany(ctx, "posts", &provider.GetManyParams{IDs: ids})
	s.Require().NoError(err)
	s.Len(many.Data, 3)

	updated, err := s.dataProvider.UpdateMany(ctx, "posts", &provider.UpdateManyParams{
		IDs:  ids,
		Data: provider.Record{"published": true},
	})
	s.Require().NoError(err)
	s.Equal(ids, updated.Data)
}

func TestProviderWorkflow(t *testing.T) {
	suite.Run(t, new(ProviderWorkflowSuite))
}

func TestCLIWorkflow(t *testing.T) {
	config := LoadTestConfig(t)
	config.SkipIfNoBinary(t)

	runner := NewCommandRunner(config, t)
	title := GenerateTestName("cli")

	stdout, stderr, err := runner.Run("create", "posts", "--data", `{"title":"`+title+`"}`)
	require.NoError(t, err, stderr)

	var created map[string]any

	require.NoError(t, json.Unmarshal([]byte(stdout), &created))
	require.NotNil(t, created["id"])

	id, err := json.Marshal(created["id"])
	require.NoError(t, err)

	stdout, stderr, err = runner.Run("list", "posts", "--filter", `{"title":"`+title+`"}`)
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, `"total": 1`)

	_, stderr, err = runner.Run("delete", "posts", string(id))
	require.NoError(t, err, stderr)

	_, _, err = runner.Run("get", "posts", string(id))
	require.Error(t, err)
}
