// Package processortest 提供 processor 存储接口的内存实现，供测试使用
package processortest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"ai-resume-go/internal/storage"
	"ai-resume-go/internal/storage/models"

	"gorm.io/datatypes"
)

// Store 内存实现的 ResumeStore 和 ProcessingLogStore
type Store struct {
	mu       sync.Mutex
	resumes  map[string]*models.Resume
	logs     []*models.AIProcessingLog
	events   []*models.OutboxMessage
	statuses map[string][]string
	failNext error
}

// NewStore 创建空的内存存储
func NewStore() *Store {
	return &Store{
		resumes:  make(map[string]*models.Resume),
		statuses: make(map[string][]string),
	}
}

// FailNextCreate 下一次 CreateResume 返回 err
func (m *Store) FailNextCreate(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

func (m *Store) CreateResume(_ context.Context, r *models.Resume, event *models.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	cp := *r
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.resumes[r.ID] = &cp
	if event != nil {
		m.events = append(m.events, event)
	}
	return nil
}

func (m *Store) GetResume(_ context.Context, id string) (*models.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resumes[id]
	if !ok {
		return nil, storage.ErrResumeNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *Store) ListResumes(_ context.Context, offset, limit int) ([]models.Resume, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]models.Resume, 0, len(m.resumes))
	for _, r := range m.resumes {
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], int64(len(all)), nil
}

func (m *Store) UpdateResume(_ context.Context, id string, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resumes[id]
	if !ok {
		return storage.ErrResumeNotFound
	}
	for k, v := range updates {
		switch k {
		case "title":
			r.Title = v.(string)
		case "content":
			r.Content = v.(datatypes.JSON)
		case "skills":
			r.Skills = v.(datatypes.JSON)
		case "experience":
			r.Experience = v.(datatypes.JSON)
		case "education":
			r.Education = v.(datatypes.JSON)
		default:
			return fmt.Errorf("unknown column %q", k)
		}
	}
	r.UpdatedAt = time.Now()
	return nil
}

func (m *Store) UpdateResumeStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resumes[id]
	if !ok {
		return storage.ErrResumeNotFound
	}
	r.Status = status
	m.statuses[id] = append(m.statuses[id], status)
	return nil
}

func (m *Store) DeleteResume(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resumes[id]; !ok {
		return storage.ErrResumeNotFound
	}
	delete(m.resumes, id)
	return nil
}

func (m *Store) CreateProcessingLog(_ context.Context, entry *models.AIProcessingLog, event *models.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, entry)
	if event != nil {
		m.events = append(m.events, event)
	}
	return nil
}

func (m *Store) ListProcessingLogs(_ context.Context, resumeID string, limit int) ([]models.AIProcessingLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.AIProcessingLog{}
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.logs[i].ResumeID == resumeID {
			out = append(out, *m.logs[i])
		}
	}
	return out, nil
}

// Count 当前保存的简历数
func (m *Store) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resumes)
}

// Events 已写入的 outbox 事件
func (m *Store) Events() []*models.OutboxMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.OutboxMessage(nil), m.events...)
}

// Statuses 某份简历经历过的状态变更
func (m *Store) Statuses(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.statuses[id]...)
}

// LogsOf 指定 activity 类型的处理日志，按写入顺序
func (m *Store) LogsOf(activityType string) []*models.AIProcessingLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AIProcessingLog
	for _, l := range m.logs {
		if l.ActivityType == activityType {
			out = append(out, l)
		}
	}
	return out
}

// Objects 内存实现的 ObjectStore
type Objects struct {
	mu      sync.Mutex
	objects map[string][]byte
	// UploadErr 非空时 UploadFile 直接返回该错误
	UploadErr error
}

// NewObjects 创建空的对象存储
func NewObjects() *Objects {
	return &Objects{objects: make(map[string][]byte)}
}

func (o *Objects) UploadFile(_ context.Context, name string, reader io.Reader, _ int64, _ string) error {
	if o.UploadErr != nil {
		return o.UploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[name] = data
	return nil
}

func (o *Objects) DownloadFile(_ context.Context, name string) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	data, ok := o.objects[name]
	if !ok {
		return nil, fmt.Errorf("object %s not found", name)
	}
	return data, nil
}

func (o *Objects) DeleteFile(_ context.Context, name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, name)
	return nil
}

// Has 对象是否存在
func (o *Objects) Has(name string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.objects[name]
	return ok
}

// Len 对象数量
func (o *Objects) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.objects)
}

// Dedup 内存实现的 DedupCache
type Dedup struct {
	mu       sync.Mutex
	md5s     map[string]string
	counters map[string]int64
}

// NewDedup 创建空的去重缓存
func NewDedup() *Dedup {
	return &Dedup{md5s: make(map[string]string), counters: make(map[string]int64)}
}

func (d *Dedup) ClaimResumeMD5(_ context.Context, md5Hex, resumeID string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.md5s[md5Hex]; ok {
		return existing, false, nil
	}
	d.md5s[md5Hex] = resumeID
	return resumeID, true, nil
}

func (d *Dedup) ReleaseResumeMD5(_ context.Context, md5Hex string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.md5s, md5Hex)
	return nil
}

func (d *Dedup) IncrJobAnalysisCounter(_ context.Context, jobMD5 string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.counters[jobMD5]++
	return d.counters[jobMD5], nil
}

// Claimed 当前占用的 MD5 数量
func (d *Dedup) Claimed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.md5s)
}
