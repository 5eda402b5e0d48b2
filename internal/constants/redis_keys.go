package constants

import "time"

// Redis Key 统一格式: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 所有 Redis Key 的应用前缀
	AppPrefix = "app"

	// ResumeModulePrefix 简历模块
	ResumeModulePrefix = "resume"
	// AnalysisModulePrefix 匹配分析模块
	AnalysisModulePrefix = "analysis"

	// EntityMD5ToID 文件 MD5 到简历 ID 的映射实体
	EntityMD5ToID = "md5_to_id"
	// EntityJobCounter 岗位文本分析计数实体
	EntityJobCounter = "job_counter"

	// KeyResumeMD5ToID 文件 MD5 -> 简历ID (STRING)
	// 格式: app:resume:md5_to_id:{md5}
	KeyResumeMD5ToID = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityMD5ToID + ":%s"

	// KeyJobAnalysisCounter 同一份岗位描述被分析的次数 (STRING, INCR)
	// 格式: app:analysis:job_counter:{job_text_md5}
	KeyJobAnalysisCounter = AppPrefix + ":" + AnalysisModulePrefix + ":" + EntityJobCounter + ":%s"

	// JobCounterTTL 计数器过期时间
	JobCounterTTL = 7 * 24 * time.Hour
)
