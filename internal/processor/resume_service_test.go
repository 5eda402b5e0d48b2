package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"ai-resume-go/internal/agent"
	"ai-resume-go/internal/constants"
	"ai-resume-go/internal/processor/processortest"
	"ai-resume-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// stubRewriter 返回固定结果或错误
type stubRewriter struct {
	out   *types.ParsedResume
	err   error
	calls int
	last  RewriteRequest
}

func (r *stubRewriter) Rewrite(_ context.Context, req RewriteRequest) (*types.ParsedResume, error) {
	r.calls++
	r.last = req
	return r.out, r.err
}

type fixedSuggester []string

func (f fixedSuggester) Suggest(context.Context, types.ParsedResume, types.JobDescription, []string) []string {
	return f
}

// panicSuggester 对指定简历触发 panic
type panicSuggester struct{ name string }

func (p panicSuggester) Suggest(_ context.Context, r types.ParsedResume, _ types.JobDescription, _ []string) []string {
	if r.PersonalInfo.Name == p.name {
		panic("boom")
	}
	return []string{"ok"}
}

const textResume = `Jane Doe
jane.doe@example.com
Summary
Backend engineer
Experience
Software Engineer
2019 - Present
Built Go services
Skills
Go, Python, SQL
`

type testEnv struct {
	svc     *ResumeService
	store   *processortest.Store
	objects *processortest.Objects
	dedup   *processortest.Dedup
}

func newTestEnv(t *testing.T, comp Components, opts ...SettingOpt) *testEnv {
	t.Helper()
	env := &testEnv{store: processortest.NewStore(), objects: processortest.NewObjects(), dedup: processortest.NewDedup()}
	comp.Resumes = env.store
	comp.Logs = env.store
	comp.Objects = env.objects
	comp.Dedup = env.dedup
	opts = append([]SettingOpt{
		WithUploadLimits([]string{"pdf", "docx", "doc", "txt"}, 0),
		WithEventRouting("resume.events", "", "", ""),
	}, opts...)
	env.svc = NewResumeService(&comp, nil, opts...)
	return env
}

func (e *testEnv) upload(t *testing.T, name, body string) *UploadResult {
	t.Helper()
	res, err := e.svc.UploadResume(context.Background(), name, []byte(body))
	require.NoError(t, err)
	return res
}

// withSpanRecorder 替换全局 TracerProvider，测试结束后恢复
func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func spanAttrs(recorder *tracetest.SpanRecorder, name string) map[string]string {
	for _, s := range recorder.Ended() {
		if s.Name() != name {
			continue
		}
		attrs := make(map[string]string)
		for _, kv := range s.Attributes() {
			attrs[string(kv.Key)] = kv.Value.Emit()
		}
		return attrs
	}
	return nil
}

func TestUploadResumeMasksPIIInSpan(t *testing.T) {
	recorder := withSpanRecorder(t)
	env := newTestEnv(t, Components{})
	res := env.upload(t, "jane.txt", textResume)

	attrs := spanAttrs(recorder, "ResumeService.UploadResume")
	require.NotNil(t, attrs)
	assert.Equal(t, res.ResumeID, attrs["resume.id"])
	assert.Equal(t, "Ja****oe", attrs["resume.name"])
	assert.NotEqual(t, "jane.doe@example.com", attrs["resume.email"])
	assert.Equal(t, "ja****************om", attrs["resume.email"])
	assert.NotContains(t, attrs["resume.text_preview"], "jane.doe@example.com")
	assert.Equal(t, "3", attrs["resume.skills"])
}

func TestUploadResume(t *testing.T) {
	env := newTestEnv(t, Components{})

	res := env.upload(t, "jane.txt", textResume)
	assert.False(t, res.Duplicate)
	assert.Equal(t, "jane.txt", res.FileName)
	assert.Equal(t, int64(len(textResume)), res.FileSize)
	assert.Equal(t, "Jane Doe", res.ParsedContent.PersonalInfo.Name)

	record, err := env.store.GetResume(context.Background(), res.ResumeID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusUploaded, record.Status)
	assert.Equal(t, res.ResumeID+".txt", record.ObjectKey)
	assert.Equal(t, "Jane Doe", record.Title)
	assert.NotEmpty(t, record.FileMD5)

	assert.True(t, env.objects.Has(record.ObjectKey))

	events := env.store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, constants.EventResumeParsed, events[0].EventType)
	assert.Equal(t, "resume.events", events[0].TargetExchange)
	assert.Equal(t, constants.EventResumeParsed, events[0].TargetRoutingKey)
}

func TestUploadResumeDuplicateReturnsExisting(t *testing.T) {
	env := newTestEnv(t, Components{})
	first := env.upload(t, "jane.txt", textResume)

	second := env.upload(t, "copy.txt", textResume)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.ResumeID, second.ResumeID)
	assert.Equal(t, 1, env.store.Count())
}

func TestUploadResumeValidation(t *testing.T) {
	env := newTestEnv(t, Components{}, WithUploadLimits([]string{"pdf"}, 10))

	_, err := env.svc.UploadResume(context.Background(), "cv.pdf", nil)
	assert.EqualError(t, err, "No file provided")

	_, err = env.svc.UploadResume(context.Background(), "cv.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidUpload)

	_, err = env.svc.UploadResume(context.Background(), "cv.pdf", make([]byte, 11))
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Message, "File size exceeds maximum limit")
}

func TestUploadResumeRollsBackOnStoreFailure(t *testing.T) {
	env := newTestEnv(t, Components{})
	env.store.FailNextCreate(errors.New("db down"))

	_, err := env.svc.UploadResume(context.Background(), "jane.txt", []byte(textResume))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.Equal(t, 0, env.objects.Len())
	assert.Equal(t, 0, env.dedup.Claimed())
}

func TestListGetUpdateDelete(t *testing.T) {
	env := newTestEnv(t, Components{})
	res := env.upload(t, "jane.txt", textResume)
	env.upload(t, "john.txt", "John Smith\nSkills\nJava")

	page, err := env.svc.ListResumes(context.Background(), 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, MaxPageLimit, page.Limit)

	title := "Jane Doe - Backend"
	skills := []string{"Go", "Kubernetes"}
	updated, err := env.svc.UpdateResume(context.Background(), res.ResumeID, ResumeUpdate{Title: &title, Skills: &skills})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	content, err := env.svc.GetResumeContent(context.Background(), res.ResumeID)
	require.NoError(t, err)
	assert.Equal(t, skills, content.Skills)
	assert.Equal(t, skills, content.Content.Skills)
	assert.Equal(t, "Jane Doe", content.Content.PersonalInfo.Name)

	file, err := env.svc.DownloadResume(context.Background(), res.ResumeID)
	require.NoError(t, err)
	assert.Equal(t, textResume, string(file.Data))
	assert.Equal(t, "jane.txt", file.FileName)

	require.NoError(t, env.svc.DeleteResume(context.Background(), res.ResumeID))
	_, err = env.svc.GetResume(context.Background(), res.ResumeID)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, 1, env.objects.Len())
	assert.Equal(t, 1, env.dedup.Claimed())

	assert.True(t, IsNotFound(env.svc.DeleteResume(context.Background(), "missing")))
}

func TestAnalyzeResumeLogsActivity(t *testing.T) {
	env := newTestEnv(t, Components{Suggester: fixedSuggester{"Add Kubernetes"}})
	res := env.upload(t, "jane.txt", textResume)

	analysis, err := env.svc.AnalyzeResume(context.Background(), res.ResumeID, testJob())
	require.NoError(t, err)
	assert.Equal(t, res.ResumeID, analysis.ResumeID)
	assert.Greater(t, analysis.JobMatchScore, 0.0)
	assert.Contains(t, analysis.MissingSkills, "Kubernetes")
	assert.Equal(t, []string{"Add Kubernetes"}, analysis.SuggestedImprovements)

	logs := env.store.LogsOf(constants.ActivityJobMatchAnalysis)
	require.Len(t, logs, 1)
	assert.Equal(t, constants.StatusCompleted, logs[0].Status)
	require.NotNil(t, logs[0].MatchScore)
	assert.Equal(t, analysis.JobMatchScore, *logs[0].MatchScore)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal(logs[0].Details, &details))
	assert.Equal(t, "Backend Engineer", details["job_title"])
	assert.EqualValues(t, len(analysis.MissingSkills), details["missing_skills_count"])
	assert.EqualValues(t, 1, details["job_analysis_count"])

	_, err = env.svc.AnalyzeResume(context.Background(), "missing", testJob())
	assert.True(t, IsNotFound(err))
}

func TestCustomizeResumeFallsBackOnRewriteError(t *testing.T) {
	rw := &stubRewriter{err: ErrRewriteUnusable}
	svc := NewResumeService(&Components{Rewriter: rw}, nil)

	resume := testResume()
	result, err := svc.CustomizeResume(context.Background(), resume, testJob(), LevelHeavy)
	require.NoError(t, err)
	assert.Equal(t, 1, rw.calls)
	assert.Equal(t, LevelHeavy, rw.last.Level)
	assert.Equal(t, resume, result.CustomizedResume)
	assert.Equal(t, []string{"Minor keyword and formatting optimizations"}, result.ChangesMade)
	assert.GreaterOrEqual(t, len(result.Suggestions), 3)

	_, err = svc.CustomizeResume(context.Background(), resume, testJob(), "extreme")
	assert.ErrorIs(t, err, ErrInvalidCustomizationLevel)
}

func TestCustomizeStoredResume(t *testing.T) {
	mock := agent.NewMockChatModel(`{"personal_info":{"name":"Jane Doe","summary":"Go and Kubernetes engineer"},"skills":["Go","Kubernetes","Python","SQL"]}`, nil)
	env := newTestEnv(t, Components{Rewriter: NewLLMRewriter(mock)})
	res := env.upload(t, "jane.txt", textResume)

	result, err := env.svc.CustomizeStoredResume(context.Background(), res.ResumeID, testJob(), "light")
	require.NoError(t, err)
	assert.NotEqual(t, res.ResumeID, result.ResumeID)
	assert.Equal(t, res.ResumeID, result.OriginalResumeID)
	assert.Contains(t, result.ChangesMade, "Updated professional summary")
	assert.Contains(t, result.ChangesMade, "Reorganized and optimized skills section")

	assert.Equal(t, []string{constants.StatusProcessing, constants.StatusCompleted}, env.store.Statuses(res.ResumeID))

	copyRecord, err := env.store.GetResume(context.Background(), result.ResumeID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe - Customized for Backend Engineer", copyRecord.Title)
	assert.Equal(t, "customized_jane.txt", copyRecord.FileName)
	assert.Equal(t, res.ResumeID+".txt", copyRecord.ObjectKey)
	assert.Equal(t, constants.StatusCompleted, copyRecord.Status)

	logs := env.store.LogsOf(constants.ActivityResumeCustomization)
	require.Len(t, logs, 1)
	assert.Equal(t, "light", logs[0].CustomizationLevel)
	var changes []string
	require.NoError(t, json.Unmarshal(logs[0].ChangesMade, &changes))
	assert.Equal(t, result.ChangesMade, changes)

	var eventTypes []string
	for _, e := range env.store.Events() {
		eventTypes = append(eventTypes, e.EventType)
	}
	assert.Contains(t, eventTypes, constants.EventResumeCustomized)

	// 删除定制简历不会删除共享的原始文件
	require.NoError(t, env.svc.DeleteResume(context.Background(), result.ResumeID))
	assert.Equal(t, 1, env.objects.Len())
}

func TestCustomizeStoredResumeFailure(t *testing.T) {
	env := newTestEnv(t, Components{Rewriter: &stubRewriter{out: func() *types.ParsedResume { r := testResume(); return &r }()}})
	res := env.upload(t, "jane.txt", textResume)

	env.store.FailNextCreate(errors.New("disk full"))
	_, err := env.svc.CustomizeStoredResume(context.Background(), res.ResumeID, testJob(), "moderate")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.Equal(t, []string{constants.StatusProcessing, constants.StatusFailed}, env.store.Statuses(res.ResumeID))

	logs := env.store.LogsOf(constants.ActivityCustomizationFailed)
	require.Len(t, logs, 1)
	assert.Equal(t, constants.StatusFailed, logs[0].Status)
	assert.Contains(t, logs[0].ErrorMessage, "disk full")

	_, err = env.svc.CustomizeStoredResume(context.Background(), res.ResumeID, testJob(), "extreme")
	assert.ErrorIs(t, err, ErrInvalidCustomizationLevel)
	_, err = env.svc.CustomizeStoredResume(context.Background(), "missing", testJob(), "light")
	assert.True(t, IsNotFound(err))
}

func TestBatchAnalyze(t *testing.T) {
	svc := NewResumeService(&Components{Suggester: panicSuggester{name: "Broken"}}, nil, WithBatchLimits(10, 2))

	strong := testResume()
	strong.Skills = []string{"Go", "Kubernetes", "SQL"}
	strong.RawText = "Go Kubernetes SQL services backend engineer"
	weak := types.NewParsedResume("Painter with watercolor experience")
	weak.PersonalInfo.Name = "Weak"
	weak.Skills = []string{"Watercolor"}
	broken := testResume()
	broken.PersonalInfo.Name = "Broken"

	items := []BatchItem{
		{ResumeID: "weak", Title: "Weak", Resume: weak},
		{ResumeID: "missing", Err: ErrResumeNotFound},
		{ResumeID: "broken", Resume: broken},
		{ResumeID: "strong", Title: "Strong", Resume: strong},
	}
	result, err := svc.BatchAnalyze(context.Background(), items, testJob())
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalResumes)
	assert.Equal(t, 2, result.SuccessfulAnalyses)
	assert.Equal(t, 2, result.FailedAnalyses)
	assert.Equal(t, BatchJobInfo{Title: "Backend Engineer", Company: "Acme"}, result.JobDescription)

	require.Len(t, result.Results, 4)
	assert.Equal(t, "strong", result.Results[0].ResumeID)
	assert.Equal(t, "weak", result.Results[1].ResumeID)
	assert.GreaterOrEqual(t, result.Results[0].Analysis.JobMatchScore, result.Results[1].Analysis.JobMatchScore)

	assert.Equal(t, "missing", result.Results[2].ResumeID)
	require.NotNil(t, result.Results[2].Error)
	assert.Equal(t, MsgResumeNotFound, *result.Results[2].Error)
	assert.Nil(t, result.Results[2].Analysis)

	assert.Equal(t, "broken", result.Results[3].ResumeID)
	require.NotNil(t, result.Results[3].Error)
	assert.Contains(t, *result.Results[3].Error, "boom")
}

func itemSpanErrorTypes(recorder *tracetest.SpanRecorder) map[string]string {
	out := make(map[string]string)
	for _, s := range recorder.Ended() {
		if s.Name() != "ResumeService.BatchAnalyzeItem" {
			continue
		}
		var id, errorType string
		for _, kv := range s.Attributes() {
			switch kv.Key {
			case "resume.id":
				id = kv.Value.AsString()
			case "error.type":
				errorType = kv.Value.AsString()
			}
		}
		out[id] = errorType
	}
	return out
}

func TestBatchAnalyzeItemSpans(t *testing.T) {
	recorder := withSpanRecorder(t)
	svc := NewResumeService(&Components{Suggester: panicSuggester{name: "Broken"}}, nil, WithBatchLimits(10, 2))

	broken := testResume()
	broken.PersonalInfo.Name = "Broken"
	_, err := svc.BatchAnalyze(context.Background(), []BatchItem{
		{ResumeID: "ok", Resume: testResume()},
		{ResumeID: "broken", Resume: broken},
	}, testJob())
	require.NoError(t, err)

	errTypes := itemSpanErrorTypes(recorder)
	assert.Equal(t, "", errTypes["ok"])
	assert.Equal(t, "internal", errTypes["broken"])

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	result, err := svc.BatchAnalyze(ctx, []BatchItem{{ResumeID: "late", Resume: testResume()}}, testJob())
	require.NoError(t, err)
	assert.Equal(t, 1, result.FailedAnalyses)
	assert.Equal(t, "timeout", itemSpanErrorTypes(recorder)["late"])
}

func TestBatchAnalyzeLimits(t *testing.T) {
	svc := NewResumeService(nil, nil)

	_, err := svc.BatchAnalyze(context.Background(), nil, testJob())
	assert.ErrorIs(t, err, ErrEmptyBatch)

	ids := make([]string, DefaultMaxBatchSize+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("r%d", i)
	}
	_, err = svc.BatchAnalyzeStored(context.Background(), ids, testJob())
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestBatchAnalyzeStored(t *testing.T) {
	env := newTestEnv(t, Components{Suggester: fixedSuggester{"s"}})
	a := env.upload(t, "jane.txt", textResume)
	b := env.upload(t, "john.txt", "John Smith\nSkills\nJava")

	result, err := env.svc.BatchAnalyzeStored(context.Background(), []string{b.ResumeID, "missing", a.ResumeID}, testJob())
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessfulAnalyses)
	assert.Equal(t, a.ResumeID, result.Results[0].ResumeID)
	assert.Equal(t, "Jane Doe", result.Results[0].ResumeTitle)
	assert.Equal(t, "missing", result.Results[2].ResumeID)

	logs := env.store.LogsOf(constants.ActivityBatchJobMatchAnalysis)
	require.Len(t, logs, 2)
	var details map[string]interface{}
	require.NoError(t, json.Unmarshal(logs[0].Details, &details))
	assert.EqualValues(t, 3, details["batch_size"])
}

func TestGetSuggestions(t *testing.T) {
	env := newTestEnv(t, Components{Suggester: fixedSuggester{"Quantify achievements"}})
	res := env.upload(t, "jane.txt", textResume)

	general, err := env.svc.GetSuggestions(context.Background(), res.ResumeID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Quantify achievements"}, general.Suggestions)
	assert.Equal(t, "general", general.Context["type"])
	_, hasTitle := general.Context["job_title"]
	assert.False(t, hasTitle)
	_, err = time.Parse("2006-01-02T15:04:05.000000", general.GeneratedAt)
	assert.NoError(t, err)

	job := testJob()
	specific, err := env.svc.GetSuggestions(context.Background(), res.ResumeID, &job)
	require.NoError(t, err)
	assert.Equal(t, "job_specific", specific.Context["type"])
	assert.Equal(t, "Backend Engineer", specific.Context["job_title"])
	assert.Equal(t, "Acme", specific.Context["company"])
}

func TestGetSuggestionsWithoutGenerator(t *testing.T) {
	env := newTestEnv(t, Components{})
	res := env.upload(t, "jane.txt", textResume)

	out, err := env.svc.GetSuggestions(context.Background(), res.ResumeID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{FallbackSuggestion}, out.Suggestions)
}

func TestGetProcessingLogs(t *testing.T) {
	env := newTestEnv(t, Components{})
	res := env.upload(t, "jane.txt", textResume)

	for i := 0; i < 3; i++ {
		_, err := env.svc.AnalyzeResume(context.Background(), res.ResumeID, testJob())
		require.NoError(t, err)
	}
	logs, err := env.svc.GetProcessingLogs(context.Background(), res.ResumeID)
	require.NoError(t, err)
	assert.Equal(t, 3, logs.TotalLogs)
	assert.Len(t, logs.DatabaseLogs, 3)

	_, err = env.svc.GetProcessingLogs(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
}

func TestGenericJobDescription(t *testing.T) {
	job := GenericJobDescription()
	assert.Equal(t, "General Position", job.Title)
	assert.Equal(t, "Various Companies", job.Company)
	assert.Equal(t, []string{"Communication", "Leadership", "Problem Solving", "Teamwork"}, job.SkillsRequired)
}

func TestBatchLimitsCappedAtMaxBatchResumes(t *testing.T) {
	svc := NewResumeService(&Components{}, nil, WithBatchLimits(50, 2))
	assert.Equal(t, constants.MaxBatchResumes, svc.Settings().MaxBatchSize)
	assert.Equal(t, 2, svc.Settings().BatchWorkers)

	svc = NewResumeService(&Components{}, nil, WithBatchLimits(3, 0))
	assert.Equal(t, 3, svc.Settings().MaxBatchSize)
}
