package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEq_Map(t *testing.T) {
	f := Eq(MetaCourseTitle, "Introduction to MCP")

	assert.Equal(t, map[string]any{"course_title": "Introduction to MCP"}, f.Map())
}

func TestAllOf_Map(t *testing.T) {
	f := AllOf(Eq(MetaCourseTitle, "Introduction to MCP"), Eq(MetaLessonNumber, 2))

	assert.Equal(t, map[string]any{
		"$and": []map[string]any{
			{"course_title": "Introduction to MCP"},
			{"lesson_number": 2},
		},
	}, f.Map())
}

func TestAllOf_DropsNil(t *testing.T) {
	assert.Nil(t, AllOf())
	assert.Nil(t, AllOf(nil, nil))

	single := Eq(MetaLessonNumber, 1)
	assert.Same(t, single, AllOf(nil, single))
}

func TestFilter_NilMatchesEverything(t *testing.T) {
	var f *Filter

	assert.True(t, f.Matches(Metadata{MetaCourseTitle: "anything"}))
	assert.Nil(t, f.Map())
	assert.Empty(t, f.Predicates())
}

// TestFilter_Matches tests equality and conjunction semantics
func TestFilter_Matches(t *testing.T) {
	meta := Metadata{MetaCourseTitle: "Introduction to MCP", MetaLessonNumber: float64(2)}

	tests := []struct {
		name   string
		filter *Filter
		want   bool
	}{
		{"course matches", Eq(MetaCourseTitle, "Introduction to MCP"), true},
		{"course differs", Eq(MetaCourseTitle, "Other"), false},
		{"lesson matches across numeric types", Eq(MetaLessonNumber, 2), true},
		{"lesson differs", Eq(MetaLessonNumber, 3), false},
		{"both match", AllOf(Eq(MetaCourseTitle, "Introduction to MCP"), Eq(MetaLessonNumber, 2)), true},
		{"one side fails", AllOf(Eq(MetaCourseTitle, "Introduction to MCP"), Eq(MetaLessonNumber, 1)), false},
		{"missing field", Eq(MetaChunkIndex, 0), false},
		{"string does not equal number", Eq(MetaLessonNumber, "2"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(meta))
		})
	}
}

func TestFilter_PredicatesFlatten(t *testing.T) {
	f := AllOf(Eq("a", 1), AllOf(Eq("b", 2), Eq("c", 3)))

	preds := f.Predicates()

	assert.Len(t, preds, 3)
	assert.Equal(t, "a", preds[0].Field)
	assert.Equal(t, "c", preds[2].Field)
}
