package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParsedResumeMarshalsEmptyContainers(t *testing.T) {
	r := NewParsedResume("")
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{"experience", "education", "skills", "projects", "certifications"} {
		v, ok := m[key]
		require.True(t, ok, "字段 %s 应该存在", key)
		assert.NotNil(t, v, "字段 %s 不应为 null", key)
		assert.Len(t, v, 0)
	}
	assert.NotContains(t, m, "parse_error")
}

func TestParsedResumeNormalize(t *testing.T) {
	var r ParsedResume
	require.NoError(t, json.Unmarshal([]byte(`{"experience":[{"title":"Dev"}],"skills":null}`), &r))
	r.Normalize()

	assert.NotNil(t, r.Skills)
	assert.NotNil(t, r.Education)
	assert.NotNil(t, r.Projects)
	assert.NotNil(t, r.Certifications)
	require.Len(t, r.Experience, 1)
	assert.NotNil(t, r.Experience[0].Responsibilities)
}

func TestParsedResumeCloneIsIndependent(t *testing.T) {
	orig := NewParsedResume("raw")
	orig.Skills = append(orig.Skills, "Go")
	orig.Experience = append(orig.Experience, ExperienceEntry{Title: "Engineer", Responsibilities: []string{"a"}})

	c := orig.Clone()
	c.Skills[0] = "Rust"
	c.Experience[0].Responsibilities[0] = "b"

	assert.Equal(t, "Go", orig.Skills[0])
	assert.Equal(t, "a", orig.Experience[0].Responsibilities[0])
}

func TestKeywordDensityJSONKeepsOrder(t *testing.T) {
	kd := KeywordDensity{
		{Keyword: "python", Density: 2.5},
		{Keyword: "api", Density: 0},
		{Keyword: "docker", Density: 1.25},
	}
	data, err := json.Marshal(kd)
	require.NoError(t, err)
	assert.Equal(t, `{"python":2.5,"api":0,"docker":1.25}`, string(data))

	var back KeywordDensity
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, kd, back)

	v, ok := back.Get("docker")
	assert.True(t, ok)
	assert.Equal(t, 1.25, v)
	assert.Equal(t, []string{"python", "api", "docker"}, back.Keywords())
}

func TestKeywordDensityUnmarshalRejectsArray(t *testing.T) {
	var kd KeywordDensity
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &kd))
}

func TestParseDocumentFormat(t *testing.T) {
	tests := []struct {
		in   string
		want DocumentFormat
	}{
		{"pdf", FormatPDF},
		{".PDF", FormatPDF},
		{"docx", FormatDOCX},
		{"doc", FormatDOC},
		{"text/plain; charset=utf-8", FormatText},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", FormatDOCX},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDocumentFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDocumentFormat("rtf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat), "未知格式应返回 ErrUnsupportedFormat")

	var docErr *DocumentError
	require.True(t, errors.As(err, &docErr))
	assert.Equal(t, "detect", docErr.Op)
}

func TestFormatFromFilename(t *testing.T) {
	f, err := FormatFromFilename("resume.Docx")
	require.NoError(t, err)
	assert.True(t, f.IsDocLike())

	_, err = FormatFromFilename("resume")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
