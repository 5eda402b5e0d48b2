package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"sql":              "Sql",
		"python":           "Python",
		"machine learning": "Machine Learning",
		"JAVA":             "Java",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, TitleCase(in), "TitleCase(%q)", in)
	}
}

func TestNormalizeSkill(t *testing.T) {
	assert.Equal(t, "python", NormalizeSkill("  Python "))
}

func TestCalculateMD5(t *testing.T) {
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", CalculateMD5([]byte("hello")))
}

func TestConvertArrayToJSON(t *testing.T) {
	assert.Equal(t, "[]", string(ConvertArrayToJSON(nil)))
	assert.Equal(t, `["a","b"]`, string(ConvertArrayToJSON([]string{"a", "b"})))
}
