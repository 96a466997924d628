package models

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cytomine-ULiege/cytomine-go-client/errors"
	"github.com/Cytomine-ULiege/cytomine-go-client/internal/testutil"
)

func TestAddFilterRejectsUnknown(t *testing.T) {
	terms := NewTermCollection()

	err := terms.AddFilter("image", 3)

	assert.ErrorIs(t, err, errors.ErrFilterNotAllowed)
	_, applied := terms.Filter("image")
	assert.False(t, applied, "a rejected filter must not mutate the collection")
	assert.Equal(t, "term.json", terms.Path())
}

func TestFilterPathComposition(t *testing.T) {
	images := NewImageInstanceCollection()
	require.NoError(t, images.AddFilter("project", 3))
	assert.Equal(t, "project/3/imageinstance.json", images.Path())

	users := NewUserCollection()
	require.NoError(t, users.AddFilter("project", 1))
	require.NoError(t, users.AddFilter("ontology", 2))
	assert.Equal(t, "project/1/ontology/2/user.json", users.Path())
}

func TestReapplyingFilterOverwrites(t *testing.T) {
	images := NewImageInstanceCollection()
	require.NoError(t, images.AddFilter("project", 3))
	require.NoError(t, images.AddFilter("project", 4))

	assert.Equal(t, "project/4/imageinstance.json", images.Path())
}

func TestFetchRequiresFilter(t *testing.T) {
	called := false
	api := &testutil.MockAPI{
		GetJSONFunc: func(ctx context.Context, path string, query url.Values, out any) error {
			called = true
			return nil
		},
	}

	err := NewImageInstanceCollection().Fetch(context.Background(), api)

	assert.ErrorIs(t, err, errors.ErrFilterRequired)
	assert.False(t, called, "no request must be issued without a required filter")
}

func TestFetchDecodesEnvelope(t *testing.T) {
	terms := NewTermCollection()
	terms.Max = 10
	terms.Offset = 20

	api := &testutil.MockAPI{
		GetJSONFunc: func(ctx context.Context, path string, query url.Values, out any) error {
			assert.Equal(t, "term.json", path)
			assert.Equal(t, "10", query.Get("max"))
			assert.Equal(t, "20", query.Get("offset"))
			return json.Unmarshal([]byte(`{
				"collection": [
					{"id": 1, "name": "tumor", "ontology": 3},
					{"id": 2, "name": "stroma", "ontology": 3}
				],
				"size": 12,
				"totalPages": 2
			}`), out)
		},
	}

	require.NoError(t, terms.Fetch(context.Background(), api))

	require.Len(t, terms.Items, 2)
	assert.Equal(t, int64(1), terms.Items[0].ID())
	assert.Equal(t, "stroma", terms.Items[1].Name())
	assert.Equal(t, int64(12), terms.Total())
	assert.Equal(t, int64(2), terms.TotalPages())
}

func TestSetParameterIsSent(t *testing.T) {
	projects := NewProjectCollection()
	projects.SetParameter("withLastActivity", "true")

	api := &testutil.MockAPI{
		GetJSONFunc: func(ctx context.Context, path string, query url.Values, out any) error {
			assert.Equal(t, "true", query.Get("withLastActivity"))
			return json.Unmarshal([]byte(`{"collection": [], "size": 0, "totalPages": 0}`), out)
		},
	}

	require.NoError(t, projects.Fetch(context.Background(), api))
}

func TestFetchAllPagesThroughListing(t *testing.T) {
	projects := NewProjectCollection()

	var calls int
	api := &testutil.MockAPI{
		GetJSONFunc: func(ctx context.Context, path string, query url.Values, out any) error {
			calls++
			assert.Equal(t, "2", query.Get("max"))
			switch query.Get("offset") {
			case "0":
				return json.Unmarshal([]byte(`{
					"collection": [{"id": 1}, {"id": 2}],
					"size": 3, "totalPages": 2
				}`), out)
			case "2":
				return json.Unmarshal([]byte(`{
					"collection": [{"id": 3}],
					"size": 3, "totalPages": 2
				}`), out)
			default:
				return fmt.Errorf("unexpected offset %q", query.Get("offset"))
			}
		},
	}

	require.NoError(t, projects.FetchAll(context.Background(), api, 2))

	assert.Equal(t, 2, calls)
	require.Len(t, projects.Items, 3)
	assert.Equal(t, int64(3), projects.Items[2].ID())
}

func TestFetchAllWithoutPageSize(t *testing.T) {
	projects := NewProjectCollection()

	var calls int
	api := &testutil.MockAPI{
		GetJSONFunc: func(ctx context.Context, path string, query url.Values, out any) error {
			calls++
			assert.Equal(t, "0", query.Get("max"))
			return json.Unmarshal([]byte(`{
				"collection": [{"id": 1}, {"id": 2}, {"id": 3}],
				"size": 3, "totalPages": 1
			}`), out)
		},
	}

	require.NoError(t, projects.FetchAll(context.Background(), api, 0))

	assert.Equal(t, 1, calls, "a zero page size must fetch the listing in one call")
	assert.Len(t, projects.Items, 3)
}

func TestCollectionSaveSkipsEmpty(t *testing.T) {
	called := false
	api := &testutil.MockAPI{
		PostJSONFunc: func(ctx context.Context, path string, body, out any) error {
			called = true
			return nil
		},
	}

	require.NoError(t, NewAnnotationCollection().Save(context.Background(), api))
	assert.False(t, called, "an empty collection must not issue a request")
}

func TestCollectionSavePostsItems(t *testing.T) {
	annotations := NewAnnotationCollection()
	first := NewAnnotation()
	first.SetLocation("POINT (10 10)")
	first.SetImageID(3)
	second := NewAnnotation()
	second.SetLocation("POINT (20 20)")
	second.SetImageID(3)
	annotations.Items = []*Annotation{first, second}

	api := &testutil.MockAPI{
		PostJSONFunc: func(ctx context.Context, path string, body, out any) error {
			assert.Equal(t, "annotation.json", path)

			data, err := json.Marshal(body)
			require.NoError(t, err)
			var wire []map[string]any
			require.NoError(t, json.Unmarshal(data, &wire))
			require.Len(t, wire, 2)
			assert.Equal(t, "POINT (10 10)", wire[0]["location"])
			assert.Equal(t, "POINT (20 20)", wire[1]["location"])
			return nil
		},
	}

	require.NoError(t, annotations.Save(context.Background(), api))
}
