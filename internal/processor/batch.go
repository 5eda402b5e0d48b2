package processor

import (
	"context"
	"fmt"
	"sort"

	"ai-resume-go/internal/constants"
	"ai-resume-go/internal/tracing"
	"ai-resume-go/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// MsgResumeNotFound 批量结果中简历不存在时的错误信息
const MsgResumeNotFound = "Resume not found"

// BatchItem 批量分析的一份输入。Err 非空表示加载阶段已经失败。
type BatchItem struct {
	ResumeID string
	Title    string
	Resume   types.ParsedResume
	Err      error
}

// BatchItemResult 单份简历的分析结果，失败时 Analysis 为 nil
type BatchItemResult struct {
	ResumeID    string          `json:"resume_id"`
	ResumeTitle string          `json:"resume_title,omitempty"`
	Analysis    *ResumeAnalysis `json:"analysis"`
	Error       *string         `json:"error"`
}

// BatchJobInfo 批量结果中回显的职位信息
type BatchJobInfo struct {
	Title   string `json:"title"`
	Company string `json:"company"`
}

// BatchResult 批量分析的汇总
type BatchResult struct {
	JobDescription     BatchJobInfo      `json:"job_description"`
	TotalResumes       int               `json:"total_resumes"`
	SuccessfulAnalyses int               `json:"successful_analyses"`
	FailedAnalyses     int               `json:"failed_analyses"`
	Results            []BatchItemResult `json:"results"`
}

func (s *ResumeService) checkBatchSize(n int) error {
	if n == 0 {
		return ErrEmptyBatch
	}
	if n > s.settings.MaxBatchSize {
		return NewBatchTooLargeError(n, s.settings.MaxBatchSize)
	}
	return nil
}

// BatchAnalyze 并发分析多份简历。单份失败（包括 panic）只影响该份结果，
// 成功的按分数从高到低排列，失败的按输入顺序排在后面。
func (s *ResumeService) BatchAnalyze(ctx context.Context, items []BatchItem, job types.JobDescription) (*BatchResult, error) {
	if err := s.checkBatchSize(len(items)); err != nil {
		return nil, err
	}
	ctx, span := tracing.StartSpan(ctx, "ResumeService.BatchAnalyze",
		attribute.Int("batch.size", len(items)),
		attribute.String("job.title", job.Title),
	)
	defer span.End()

	results := make([]BatchItemResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.BatchWorkers)
	for i, item := range items {
		g.Go(func() error {
			results[i] = s.analyzeBatchItem(gctx, item, job)
			return nil
		})
	}
	_ = g.Wait()

	result := assembleBatch(job, results)
	span.SetAttributes(
		attribute.Int("batch.successful", result.SuccessfulAnalyses),
		attribute.Int("batch.failed", result.FailedAnalyses),
	)
	return result, nil
}

func (s *ResumeService) analyzeBatchItem(ctx context.Context, item BatchItem, job types.JobDescription) (res BatchItemResult) {
	ctx, span := tracing.StartSpan(ctx, "ResumeService.BatchAnalyzeItem",
		attribute.String("resume.id", item.ResumeID),
	)
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("resume_id", item.ResumeID).Interface("panic", r).Msg("批量分析单份简历时发生panic")
			tracing.RecordError(span, fmt.Errorf("panic: %v", r), tracing.ErrorTypeInternal)
			res = failedItem(item.ResumeID, fmt.Sprintf("analysis failed: %v", r))
		}
	}()

	if item.Err != nil {
		return failedItem(item.ResumeID, batchErrorMessage(item.Err))
	}
	if err := ctx.Err(); err != nil {
		tracing.RecordError(span, err, tracing.ClassifyError(err, tracing.ErrorTypeInternal))
		return failedItem(item.ResumeID, err.Error())
	}

	analysis := s.analyzeWithSuggestions(ctx, item.ResumeID, item.Resume, job)
	return BatchItemResult{
		ResumeID:    item.ResumeID,
		ResumeTitle: item.Title,
		Analysis:    &analysis,
	}
}

func failedItem(resumeID, message string) BatchItemResult {
	return BatchItemResult{ResumeID: resumeID, Error: &message}
}

func batchErrorMessage(err error) string {
	if IsNotFound(err) {
		return MsgResumeNotFound
	}
	return err.Error()
}

func assembleBatch(job types.JobDescription, results []BatchItemResult) *BatchResult {
	successes := make([]BatchItemResult, 0, len(results))
	failures := make([]BatchItemResult, 0)
	for _, r := range results {
		if r.Analysis != nil {
			successes = append(successes, r)
		} else {
			failures = append(failures, r)
		}
	}
	sort.SliceStable(successes, func(i, j int) bool {
		return successes[i].Analysis.JobMatchScore > successes[j].Analysis.JobMatchScore
	})

	return &BatchResult{
		JobDescription:     BatchJobInfo{Title: job.Title, Company: job.Company},
		TotalResumes:       len(results),
		SuccessfulAnalyses: len(successes),
		FailedAnalyses:     len(failures),
		Results:            append(successes, failures...),
	}
}

// BatchAnalyzeStored 加载已保存的简历后批量分析，每份成功的结果记录一条处理日志
func (s *ResumeService) BatchAnalyzeStored(ctx context.Context, resumeIDs []string, job types.JobDescription) (*BatchResult, error) {
	if err := s.checkBatchSize(len(resumeIDs)); err != nil {
		return nil, err
	}

	items := make([]BatchItem, len(resumeIDs))
	for i, id := range resumeIDs {
		items[i] = BatchItem{ResumeID: id}
		record, parsed, err := s.loadParsed(ctx, id)
		if err != nil {
			items[i].Err = err
			continue
		}
		items[i].Title = record.Title
		items[i].Resume = parsed
	}

	result, err := s.BatchAnalyze(ctx, items, job)
	if err != nil {
		return nil, err
	}

	for _, r := range result.Results {
		if r.Analysis == nil {
			continue
		}
		score := r.Analysis.JobMatchScore
		s.logActivity(ctx, activity{
			resumeID:     r.ResumeID,
			activityType: constants.ActivityBatchJobMatchAnalysis,
			job:          &job,
			matchScore:   &score,
			suggestions:  r.Analysis.SuggestedImprovements,
			details: map[string]interface{}{
				"job_title":   job.Title,
				"company":     job.Company,
				"match_score": score,
				"batch_size":  len(resumeIDs),
			},
		})
	}
	return result, nil
}
