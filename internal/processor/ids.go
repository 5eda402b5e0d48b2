package processor

import (
	"github.com/google/uuid"
)

// newLogID 处理日志使用随机 UUID，简历使用可排序的 UUIDv7
func newLogID() string {
	return uuid.NewString()
}
