package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseControl(t *testing.T) {
	tests := map[string]Control{
		"0":    Back,
		"b":    Back,
		" B ":  Back,
		"x":    Exit,
		"Q":    Exit,
		"S001": Ok,
		"":     Ok,
		"back": Ok,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseControl(in), "input %q", in)
	}
}

func TestRules_Fields(t *testing.T) {
	r := NewRules()

	tests := []struct {
		name  string
		check func(string) error
		valid []string
		bad   []string
	}{
		{"roll", r.Roll, []string{"S001", "S123456"}, []string{"S01", "S1234567", "s001", "001", "S00A"}},
		{"code", r.Code, []string{"ENG101", "MTH999"}, []string{"eng101", "EN101", "ENGL101", "ENG10"}},
		{"name", r.Name, []string{"Ava", "Mary-Jane O'Neil", "Al"}, []string{"A", "Ms. Ray", "R2D2", "Abcdefghijklmnopqrstuvwxyzabcdefghijklmno"}},
		{"short", r.Short, []string{"1 Oak St", "x"}, []string{"", "   ", string(make([]byte, 61))}},
		{"phone", r.Phone, []string{"021 123 4567", "0211234567", "034-123-4567", "027 555 123"}, []string{"021-111", "12345", "+64 21 123 4567"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, v := range tc.valid {
				assert.NoError(t, tc.check(v), "%q should pass", v)
			}
			for _, v := range tc.bad {
				assert.Error(t, tc.check(v), "%q should fail", v)
			}
		})
	}
}

func TestRules_Mark(t *testing.T) {
	r := NewRules()

	for in, want := range map[string]float64{"0": 0, "100": 100, " 62.5 ": 62.5} {
		got, err := r.Mark(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := r.Mark("abc")
	assert.ErrorIs(t, err, errNumber)
	_, err = r.Mark("-0.1")
	assert.ErrorIs(t, err, errMarks)
	_, err = r.Mark("100.01")
	assert.ErrorIs(t, err, errMarks)
}

func TestRules_Structs(t *testing.T) {
	r := NewRules()

	assert.NoError(t, r.Student(StudentInput{RollNo: "S010", Name: "Ava Lee", Address: "1 Test Rd", Contact: "021 123 4567"}))

	err := r.Student(StudentInput{RollNo: "S010", Name: "Ava Lee", Address: "", Contact: "021 123 4567"})
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Address", fe.Field)
	assert.ErrorIs(t, err, errShort)

	err = r.Course(CourseInput{Code: "art101", Title: "Art", Description: "Paint", Teacher: "Ms Hue"})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Code", fe.Field)

	assert.NoError(t, r.Marks(MarksInput{Internal: 0, Final: 100}))
	assert.ErrorIs(t, r.Marks(MarksInput{Internal: 50, Final: 101}), errMarks)
}
