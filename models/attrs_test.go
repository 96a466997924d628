package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "plain key", key: "name", want: "name"},
		{name: "id prefix stripped", key: "id_project", want: "project"},
		{name: "id itself kept", key: "id", want: "id"},
		{name: "uri remapped", key: "uri", want: "uri_"},
		{name: "class remapped", key: "class", want: "class_"},
		{name: "reserved underscore key", key: "_version", want: ""},
		{name: "camel case untouched", key: "instanceFilename", want: "instanceFilename"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.key))
		})
	}
}

func TestPopulateNormalizes(t *testing.T) {
	var s AttributeSet
	s.Populate(map[string]any{
		"id":         float64(42),
		"id_project": float64(3),
		"uri":        "/api/annotation/42.json",
		"class":      "be.cytomine.ontology.UserAnnotation",
		"_internal":  "dropped",
		"name":       "roi",
	})

	assert.Equal(t, []string{"class_", "id", "name", "project", "uri_"}, s.Keys())

	project, ok := s.Int64("project")
	require.True(t, ok)
	assert.Equal(t, int64(3), project)

	class, ok := s.String("class_")
	require.True(t, ok)
	assert.Equal(t, "be.cytomine.ontology.UserAnnotation", class)

	_, ok = s.Get("_internal")
	assert.False(t, ok)
}

func TestPopulateIsIdempotent(t *testing.T) {
	payload := map[string]any{
		"id":    float64(7),
		"uri":   "/api/project/7.json",
		"class": "be.cytomine.project.Project",
	}

	var once AttributeSet
	once.Populate(payload)
	var twice AttributeSet
	twice.Populate(payload)
	twice.Populate(payload)

	assert.Equal(t, once.Snapshot(), twice.Snapshot())
}

func TestPopulateOverwritesExisting(t *testing.T) {
	var s AttributeSet
	s.Set("name", "before")
	s.Populate(map[string]any{"name": "after"})

	name, _ := s.String("name")
	assert.Equal(t, "after", name)
}

func TestTransportProjection(t *testing.T) {
	var s AttributeSet
	s.Populate(map[string]any{
		"id":   float64(42),
		"uri":  "/api/term/42.json",
		"name": "tumor",
	})
	s.Set("deleted", nil)
	s.Set("_scratch", "local")

	wire := s.Transport()

	assert.Equal(t, "/api/term/42.json", wire["uri"])
	_, hasInternal := wire["uri_"]
	assert.False(t, hasInternal)
	_, hasNil := wire["deleted"]
	assert.False(t, hasNil)
	_, hasScratch := wire["_scratch"]
	assert.False(t, hasScratch)
	assert.Equal(t, "tumor", wire["name"])
}

func TestTypedGetters(t *testing.T) {
	var s AttributeSet
	s.Populate(map[string]any{
		"id":       float64(42),
		"asString": "17",
		"ratio":    0.25,
		"reviewed": true,
		"term":     []any{float64(1), float64(2)},
	})
	s.Set("native", int64(5))

	id, ok := s.Int64("id")
	require.True(t, ok)
	assert.Equal(t, int64(42), id)

	fromString, ok := s.Int64("asString")
	require.True(t, ok)
	assert.Equal(t, int64(17), fromString)

	native, ok := s.Int64("native")
	require.True(t, ok)
	assert.Equal(t, int64(5), native)

	ratio, ok := s.Float64("ratio")
	require.True(t, ok)
	assert.Equal(t, 0.25, ratio)

	reviewed, ok := s.Bool("reviewed")
	require.True(t, ok)
	assert.True(t, reviewed)

	terms, ok := s.Int64s("term")
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2}, terms)

	scalar, ok := s.Int64s("id")
	require.True(t, ok)
	assert.Equal(t, []int64{42}, scalar)

	_, ok = s.Int64("missing")
	assert.False(t, ok)
	_, ok = s.String("id")
	assert.False(t, ok)
}

func TestSnapshotIsDetached(t *testing.T) {
	var s AttributeSet
	s.Set("name", "original")

	snap := s.Snapshot()
	snap["name"] = "mutated"

	name, _ := s.String("name")
	assert.Equal(t, "original", name)
}

func TestJSONUsesTransportProjection(t *testing.T) {
	var s AttributeSet
	s.Populate(map[string]any{"uri": "/api/user/1.json", "id": float64(1)})
	s.Set("skipped", nil)

	data, err := json.Marshal(&s)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, "/api/user/1.json", wire["uri"])
	_, ok := wire["skipped"]
	assert.False(t, ok)
}
