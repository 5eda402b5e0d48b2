package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// KeywordScore 关键词及其在简历中的密度（百分比）
type KeywordScore struct {
	Keyword string
	Density float64
}

// KeywordDensity 有序的关键词密度表，顺序为岗位描述中的词频降序。
// JSON 中以对象形式输出并保持插入顺序。
type KeywordDensity []KeywordScore

// Get 返回关键词的密度，不存在时 ok 为 false
func (kd KeywordDensity) Get(keyword string) (float64, bool) {
	for _, ks := range kd {
		if ks.Keyword == keyword {
			return ks.Density, true
		}
	}
	return 0, false
}

// Keywords 按顺序返回所有关键词
func (kd KeywordDensity) Keywords() []string {
	out := make([]string, 0, len(kd))
	for _, ks := range kd {
		out = append(out, ks.Keyword)
	}
	return out
}

// MarshalJSON 按插入顺序输出 JSON 对象
func (kd KeywordDensity) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ks := range kd {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ks.Keyword)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(ks.Density)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 从 JSON 对象读取并保留键的原始顺序
func (kd *KeywordDensity) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*kd = KeywordDensity{}
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("keyword_density 必须是 JSON 对象")
	}
	out := KeywordDensity{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("keyword_density 键类型错误: %v", keyTok)
		}
		var density float64
		if err := dec.Decode(&density); err != nil {
			return fmt.Errorf("解析关键词 %q 的密度失败: %w", key, err)
		}
		out = append(out, KeywordScore{Keyword: key, Density: density})
	}
	*kd = out
	return nil
}
