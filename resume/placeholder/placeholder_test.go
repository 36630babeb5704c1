package placeholder

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-tailor/resume/model"
)

func TestFlattenExpandsLists(t *testing.T) {
	in := model.Fields{{Key: "Bullets", Value: []any{"a", "b"}}}

	got := Flatten(in, " ")

	assert.Equal(t, model.Fields{
		{Key: "Bullets 1", Value: "a"},
		{Key: "Bullets 2", Value: "b"},
	}, got)
	_, ok := got.Get("Bullets")
	assert.False(t, ok)
}

func TestFlattenDropsEmptyList(t *testing.T) {
	got := Flatten(model.Fields{{Key: "Bullets", Value: []any{}}}, " ")
	assert.Empty(t, got)
}

func TestFlattenIsIdentityWithoutLists(t *testing.T) {
	in := model.Fields{
		{Key: "Name", Value: "Ava"},
		{Key: "Years", Value: json.Number("4")},
		{Key: "Remote", Value: true},
		{Key: "Nested", Value: model.Fields{{Key: "List", Value: []any{"x"}}}},
	}
	assert.Equal(t, in, Flatten(in, "-"))
}

func TestFlattenEmptySeparatorAndStringSlices(t *testing.T) {
	got := Flatten(model.Fields{{Key: "Skill", Value: []string{"Go", "SQL"}}}, "")
	assert.Equal(t, model.Fields{
		{Key: "Skill1", Value: "Go"},
		{Key: "Skill2", Value: "SQL"},
	}, got)
}

func TestMapKeysHonoursExceptions(t *testing.T) {
	in := model.Fields{{Key: "Name", Value: "Ava"}, {Key: "File Name", Value: "out"}}

	got := MapKeys(in, Braces, "File Name")

	assert.Equal(t, model.Fields{
		{Key: "{Name}", Value: "Ava"},
		{Key: "File Name", Value: "out"},
	}, got)
}

func TestBuildSkipsNonStrings(t *testing.T) {
	in := model.Fields{
		{Key: "Name", Value: "Ava"},
		{Key: "Years", Value: json.Number("4")},
		{Key: "Bullets", Value: []any{"one", false}},
	}

	assert.Equal(t, map[string]string{
		"{Name}":     "Ava",
		"{Bullets1}": "one",
	}, Build(in, ""))
}
