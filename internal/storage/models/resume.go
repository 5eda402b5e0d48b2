package models

import (
	"encoding/json"
	"fmt"
	"time"

	"ai-resume-go/internal/types"
	"ai-resume-go/pkg/utils"

	"gorm.io/datatypes"
)

// Resume 已上传并解析的简历
type Resume struct {
	ID          string         `gorm:"primaryKey;type:char(36)" json:"id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	FileName    string         `gorm:"type:varchar(255);not null" json:"file_name"`
	ObjectKey   string         `gorm:"type:varchar(512);not null" json:"file_path"`
	FileSize    int64          `json:"file_size"`
	FileMD5     string         `gorm:"type:char(32);index" json:"file_md5,omitempty"`
	ContentType string         `gorm:"type:varchar(128)" json:"content_type,omitempty"`
	Content     datatypes.JSON `gorm:"type:json" json:"content"`
	Skills      datatypes.JSON `gorm:"type:json" json:"skills"`
	Experience  datatypes.JSON `gorm:"type:json" json:"experience"`
	Education   datatypes.JSON `gorm:"type:json" json:"education"`
	Status      string         `gorm:"type:varchar(20);default:'uploaded';not null;index" json:"status"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Resume) TableName() string {
	return "resumes"
}

// SetParsed 写入结构化内容，同时把技能、经历、教育冗余到独立列
func (r *Resume) SetParsed(parsed types.ParsedResume) {
	parsed.Normalize()
	r.Content = utils.ToJSON(parsed, "{}")
	r.Skills = utils.ConvertArrayToJSON(parsed.Skills)
	r.Experience = utils.ToJSON(parsed.Experience, "[]")
	r.Education = utils.ToJSON(parsed.Education, "[]")
}

// Parsed 取出结构化内容，空内容返回空简历
func (r *Resume) Parsed() (types.ParsedResume, error) {
	parsed := types.NewParsedResume("")
	if len(r.Content) == 0 {
		return parsed, nil
	}
	if err := json.Unmarshal(r.Content, &parsed); err != nil {
		return types.NewParsedResume(""), fmt.Errorf("解析简历 %s 内容失败: %w", r.ID, err)
	}
	parsed.Normalize()
	return parsed, nil
}

// AIProcessingLog 一次 AI 处理（匹配分析、定制、建议）的记录
type AIProcessingLog struct {
	ID                 string         `gorm:"primaryKey;type:char(36)" json:"id"`
	ResumeID           string         `gorm:"type:char(36);not null;index:idx_log_resume_created" json:"resume_id"`
	ActivityType       string         `gorm:"type:varchar(64);not null" json:"activity_type"`
	JobDescription     datatypes.JSON `gorm:"type:json" json:"job_description"`
	CustomizationLevel string         `gorm:"type:varchar(20)" json:"customization_level,omitempty"`
	MatchScore         *float64       `json:"match_score"`
	ProcessingTime     *float64       `json:"processing_time"`
	ChangesMade        datatypes.JSON `gorm:"type:json" json:"changes_made"`
	Suggestions        datatypes.JSON `gorm:"type:json" json:"suggestions"`
	Details            datatypes.JSON `gorm:"type:json" json:"details"`
	Status             string         `gorm:"type:varchar(20);not null" json:"status"`
	ErrorMessage       string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt          time.Time      `gorm:"autoCreateTime;index:idx_log_resume_created,sort:desc" json:"created_at"`
}

// TableName 指定表名
func (AIProcessingLog) TableName() string {
	return "ai_processing_logs"
}
