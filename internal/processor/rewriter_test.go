package processor

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"ai-resume-go/internal/agent"
	"ai-resume-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResume() types.ParsedResume {
	r := types.NewParsedResume("Jane Doe\nSkills\nGo, Python")
	r.PersonalInfo = types.PersonalInfo{Name: "Jane Doe", Summary: "Backend engineer"}
	r.Skills = []string{"Go", "Python"}
	r.Experience = []types.ExperienceEntry{
		{Title: "Software Engineer", Description: "Built APIs", Responsibilities: []string{}},
		{Title: "", Description: "Maintained scripts", Responsibilities: []string{}},
	}
	r.Title = "Jane Doe"
	return r
}

func testJob() types.JobDescription {
	return types.JobDescription{
		Title:          "Backend Engineer",
		Company:        "Acme",
		Description:    "Build services in Go and Kubernetes",
		Requirements:   []string{"3+ years Go", "Cloud experience"},
		SkillsRequired: []string{"Go", "Kubernetes", "SQL"},
	}
}

func TestParseCustomizationLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    CustomizationLevel
		wantErr bool
	}{
		{"", LevelModerate, false},
		{"light", LevelLight, false},
		{" HEAVY ", LevelHeavy, false},
		{"moderate", LevelModerate, false},
		{"extreme", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCustomizationLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCustomizationLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got.Instruction())
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	got, ok := ExtractJSONObject("Sure! Here it is:\n{\"a\": {\"b\": 1}}\nHope this helps.")
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": 1}}`, got)

	_, ok = ExtractJSONObject("no json here")
	assert.False(t, ok)

	_, ok = ExtractJSONObject("} backwards {")
	assert.False(t, ok)
}

func TestTrackChanges(t *testing.T) {
	original := testResume()

	t.Run("no changes", func(t *testing.T) {
		assert.Equal(t, []string{"Minor keyword and formatting optimizations"}, TrackChanges(original, original.Clone()))
	})

	t.Run("summary skills and descriptions", func(t *testing.T) {
		customized := original.Clone()
		customized.PersonalInfo.Summary = "Go backend engineer"
		customized.Skills = []string{"Python", "Go"}
		customized.Experience[0].Description = "Built Go APIs"
		customized.Experience[1].Description = "Automated scripts"

		assert.Equal(t, []string{
			"Updated professional summary",
			"Reorganized and optimized skills section",
			"Enhanced description for Software Engineer role",
			"Enhanced description for position role",
		}, TrackChanges(original, customized))
	})

	t.Run("skills reordered only", func(t *testing.T) {
		customized := original.Clone()
		slices.Reverse(customized.Skills)
		assert.Equal(t, []string{"Reorganized and optimized skills section"}, TrackChanges(original, customized))
	})

	t.Run("nil and empty skills are equal", func(t *testing.T) {
		a := types.ParsedResume{Skills: nil}
		b := types.ParsedResume{Skills: []string{}}
		assert.Equal(t, []string{"Minor keyword and formatting optimizations"}, TrackChanges(a, b))
	})

	t.Run("experience count differs", func(t *testing.T) {
		customized := original.Clone()
		customized.Experience = customized.Experience[:1]
		customized.Experience[0].Description = "changed"
		assert.Equal(t, []string{"Minor keyword and formatting optimizations"}, TrackChanges(original, customized))
	})
}

func TestCustomizationSuggestions(t *testing.T) {
	high := CustomizationSuggestions(types.MatchResult{JobMatchScore: 80})
	assert.Len(t, high, 3)

	low := CustomizationSuggestions(types.MatchResult{
		JobMatchScore: 40,
		MissingSkills: []string{"a", "b", "c", "d"},
	})
	require.Len(t, low, 5)
	assert.Equal(t, "Consider gaining experience in missing key skills", low[3])
	assert.Equal(t, "Focus on developing the most critical missing skills", low[4])
}

func TestLLMRewriterRewrite(t *testing.T) {
	reply := `Here is the customized resume:
{"raw_text":"","personal_info":{"name":"Jane Doe","summary":"Go backend engineer"},"skills":["Go","Kubernetes","Python"],"experience":[{"title":"Software Engineer","description":"Built Go APIs"}],"title":"Jane Doe"}
Good luck!`
	mock := agent.NewMockChatModel(reply, nil)
	rw := NewLLMRewriter(mock, WithRewriteMaxTokens(1500))

	req := RewriteRequest{
		Resume:   testResume(),
		Job:      testJob(),
		Analysis: types.MatchResult{JobMatchScore: 42.3, MissingSkills: []string{"Kubernetes", "SQL"}},
		Level:    LevelLight,
	}
	out, err := rw.Rewrite(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, "Go backend engineer", out.PersonalInfo.Summary)
	assert.Equal(t, []string{"Go", "Kubernetes", "Python"}, out.Skills)
	assert.Equal(t, req.Resume.RawText, out.RawText)
	assert.NotNil(t, out.Education)

	opts := mock.LastOptions()
	require.NotNil(t, opts.Temperature)
	assert.InDelta(t, 0.5, *opts.Temperature, 1e-6)
	assert.Equal(t, 1500, *opts.MaxTokens)

	prompt := mock.LastMessages()[0].Content
	assert.Contains(t, prompt, "Customization Level: light - Make minimal changes, focus on keyword optimization and summary adjustment")
	assert.Contains(t, prompt, "Required Skills: Go, Kubernetes, SQL")
	assert.Contains(t, prompt, "Current Match Score: 42.3%")
	assert.Contains(t, prompt, "Missing Skills: Kubernetes, SQL")
	assert.True(t, strings.HasSuffix(prompt, "Return only the JSON object:\n"))
}

func TestLLMRewriterUnusableReplies(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		err     error
		wantErr error
	}{
		{"no json", "I cannot help with that", nil, ErrRewriteUnusable},
		{"broken json", "{\"skills\": [}", nil, ErrRewriteUnusable},
		{"empty object", "{}", nil, ErrRewriteUnusable},
		{"model error", "", errors.New("timeout"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw := NewLLMRewriter(agent.NewMockChatModel(tt.reply, tt.err))
			req := RewriteRequest{Resume: types.NewParsedResume(""), Job: testJob(), Level: LevelModerate}
			out, err := rw.Rewrite(context.Background(), req)
			assert.Error(t, err)
			assert.Nil(t, out)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLLMRewriterRejectsUnknownLevel(t *testing.T) {
	mock := agent.NewMockChatModel("{}", nil)
	_, err := NewLLMRewriter(mock).Rewrite(context.Background(), RewriteRequest{Level: "extreme"})
	assert.ErrorIs(t, err, ErrInvalidCustomizationLevel)
	assert.Equal(t, 0, mock.Calls())
}

func TestSplitSuggestions(t *testing.T) {
	text := "1\nAdd Kubernetes projects\n\n  2  \n  Quantify impact  \n3\nMention SQL\nA\nB\nC"
	assert.Equal(t, []string{"Add Kubernetes projects", "Quantify impact", "Mention SQL", "A", "B"}, SplitSuggestions(text, 5))
	assert.Empty(t, SplitSuggestions("\n1\n2\n", 5))
}

func TestLLMSuggestionGenerator(t *testing.T) {
	mock := agent.NewMockChatModel("1\nHighlight Go services\n2\nAdd SQL experience", nil)
	gen := NewLLMSuggestionGenerator(mock, nil)

	got := gen.Suggest(context.Background(), testResume(), testJob(), []string{"Kubernetes", "SQL"})
	assert.Equal(t, []string{"Highlight Go services", "Add SQL experience"}, got)

	opts := mock.LastOptions()
	assert.InDelta(t, 0.7, *opts.Temperature, 1e-6)
	assert.Equal(t, 500, *opts.MaxTokens)
	prompt := mock.LastMessages()[0].Content
	assert.Contains(t, prompt, "Job Requirements:\n3+ years Go Cloud experience")
	assert.Contains(t, prompt, "Missing Skills: Kubernetes, SQL")

	failing := NewLLMSuggestionGenerator(agent.NewMockChatModel("", errors.New("quota exceeded")), nil)
	assert.Equal(t, []string{FallbackSuggestion}, failing.Suggest(context.Background(), testResume(), testJob(), nil))

	assert.Equal(t, []string{FallbackSuggestion}, NewLLMSuggestionGenerator(nil, nil).Suggest(context.Background(), testResume(), testJob(), nil))
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		size    int64
		wantMsg string
	}{
		{"ok pdf", "cv.pdf", 1024, ""},
		{"ok upper docx", "CV.DOCX", 1024, ""},
		{"empty name", "  ", 10, "Invalid filename"},
		{"bad ext", "cv.exe", 10, "File type not allowed. Supported types: pdf, docx, doc"},
		{"no ext", "resume", 10, "File type not allowed. Supported types: pdf, docx, doc"},
		{"too big", "cv.pdf", DefaultMaxFileSize + 1, "File size exceeds maximum limit of 10.0MB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.file, tt.size, nil, 0)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidUpload)
			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}
