package course

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    ID
		wantErr bool
	}{
		{in: "1", want: 1},
		{in: "42", want: 42},
		{in: "0", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
		{in: " 7", wantErr: true},
		{in: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseID(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestID_UnmarshalJSON_AcceptsNumbersAndStrings(t *testing.T) {
	var m Module
	err := json.Unmarshal([]byte(`{"id":"2","title":"Intro","lessons":[{"id":5,"title":"a"},{"id":"6","title":"b"}]}`), &m)
	require.NoError(t, err)

	assert.Equal(t, ID(2), m.ID)
	require.Len(t, m.Lessons, 2)
	assert.Equal(t, ID(5), m.Lessons[0].ID)
	assert.Equal(t, ID(6), m.Lessons[1].ID)
}

func TestID_UnmarshalJSON_RejectsGarbage(t *testing.T) {
	for _, raw := range []string{`"x1"`, `true`, `1.5`, `"0"`, `0`, `-3`, `"-3"`} {
		var id ID
		err := json.Unmarshal([]byte(raw), &id)
		assert.ErrorIs(t, err, ErrInvalidID, raw)
	}
}

func TestID_UnmarshalJSON_ZeroRejectedInBothForms(t *testing.T) {
	var fromNumber, fromString ID
	errNumber := json.Unmarshal([]byte(`0`), &fromNumber)
	errString := json.Unmarshal([]byte(`"0"`), &fromString)

	assert.ErrorIs(t, errNumber, ErrInvalidID)
	assert.ErrorIs(t, errString, ErrInvalidID)

	var e Enrollment
	err := json.Unmarshal([]byte(`{"id":5,"courseId":0,"studentId":2}`), &e)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestUser_ZeroIDIsOmitted(t *testing.T) {
	b, err := json.Marshal(Course{ID: 1, Title: "x"})
	require.NoError(t, err)

	var back Course
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, ID(0), back.Instructor.ID)
}

func TestID_MarshalsAsNumber(t *testing.T) {
	b, err := json.Marshal(Lesson{ID: 9, Title: "x"})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"id":9`)
}

func TestCourse_LessonCount(t *testing.T) {
	var nilCourse *Course
	assert.Equal(t, 0, nilCourse.LessonCount())

	c := &Course{Modules: []Module{
		{ID: 1, Lessons: []Lesson{{ID: 1}, {ID: 2}}},
		{ID: 2},
		{ID: 3, Lessons: []Lesson{{ID: 3}}},
	}}
	assert.Equal(t, 3, c.LessonCount())
}
