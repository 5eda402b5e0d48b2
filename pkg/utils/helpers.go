package utils

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/datatypes"
)

// TitleCase 每个单词首字母大写，其余小写，如 "node.js" -> "Node.js"、"sql" -> "Sql"。
// cases.Caser 不是并发安全的，每次调用都新建一个。
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// NormalizeSkill 技能比较前统一为去空白的小写形式
func NormalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CalculateMD5 computes the MD5 hash of a byte slice.
func CalculateMD5(data []byte) string {
	hasher := md5.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// ToJSON 把任意值序列化为 datatypes.JSON，失败时返回 fallback
func ToJSON(v interface{}, fallback string) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON(fallback)
	}
	return datatypes.JSON(data)
}

// ConvertArrayToJSON 辅助函数: 将字符串数组转换为JSON，nil 也输出 []
func ConvertArrayToJSON(arr []string) datatypes.JSON {
	if len(arr) == 0 {
		return datatypes.JSON("[]")
	}
	return ToJSON(arr, "[]")
}
