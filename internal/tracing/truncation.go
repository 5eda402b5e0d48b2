package tracing

import (
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultMaxLength 默认最大属性长度
	DefaultMaxLength = 200
	// MaxSQLLength SQL语句最大长度
	MaxSQLLength = 500
	// MaxRedisLength Redis键最大长度
	MaxRedisLength = 100
	// MaxResumeLength 简历文本最大长度
	MaxResumeLength = 150
)

// piiKeywords 属性名包含这些词时对值做掩码
var piiKeywords = []string{
	"email", "phone", "password", "address", "name", "linkedin",
	"location", "secret", "token", "api_key", "姓名", "地址", "电话",
}

// SafeAttributeValue 敏感属性返回掩码值，其余按 maxLength 截断
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, keyword := range piiKeywords {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 保留首尾字符，中间用 * 替换。
// 长度 ≤4 时保留首尾各 1 个，更长时保留首尾各 2 个。
func MaskPII(value string) string {
	runes := []rune(value)
	n := len(runes)
	switch {
	case n == 0:
		return ""
	case n == 1:
		return "*"
	case n == 2:
		return string(runes[0]) + "*"
	case n <= 4:
		return string(runes[0]) + strings.Repeat("*", n-2) + string(runes[n-1])
	default:
		return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
	}
}

// TruncateString 超长时保留首尾，中间用 ... 连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeSQL 截断 SQL
func SafeSQL(sql string) string {
	return TruncateString(sql, MaxSQLLength)
}

// SafeRedisKey 截断 Redis key
func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisLength)
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
)

// SafeResumeContent 掩码文本中的邮箱和电话后截断，用于简历文本片段
func SafeResumeContent(content string) string {
	content = emailPattern.ReplaceAllStringFunc(content, MaskPII)
	content = phonePattern.ReplaceAllStringFunc(content, MaskPII)
	return TruncateString(content, MaxResumeLength)
}

// SafeString 构造经过 SafeAttributeValue 处理的字符串属性
func SafeString(key, value string) attribute.KeyValue {
	return attribute.String(key, SafeAttributeValue(key, value, DefaultMaxLength))
}
