package parser

import (
	"regexp"
	"strings"

	"ai-resume-go/internal/types"
)

// 联系方式只在简历开头若干行中查找
const (
	contactScanLines = 10
	socialScanLines  = 15
)

var (
	emailPattern    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	phonePattern    = regexp.MustCompile(`(\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`)
	linkedInPattern = regexp.MustCompile(`linkedin\.com/in/[\w-]+`)
	locationPattern = regexp.MustCompile(`\b[A-Za-z\s]+,\s*[A-Z]{2}\b`)
)

func head(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

func firstMatch(lines []string, re *regexp.Regexp, lower bool) string {
	for _, line := range lines {
		if lower {
			line = strings.ToLower(line)
		}
		if m := re.FindString(line); m != "" {
			return m
		}
	}
	return ""
}

// FindEmail 前 10 行中第一个邮箱
func FindEmail(lines []string) string {
	return firstMatch(head(lines, contactScanLines), emailPattern, false)
}

// FindPhone 前 10 行中第一个北美格式电话号码
func FindPhone(lines []string) string {
	return firstMatch(head(lines, contactScanLines), phonePattern, false)
}

// FindSocialHandle 前 15 行中第一个 linkedin.com/in/<handle>，结果为小写
func FindSocialHandle(lines []string) string {
	return firstMatch(head(lines, socialScanLines), linkedInPattern, true)
}

// FindLocation 前 10 行中第一个 "City, ST" 形式的地点
func FindLocation(lines []string) string {
	return firstMatch(head(lines, contactScanLines), locationPattern, false)
}

// ExtractPersonalInfo 第一行作为姓名，其余字段各自独立匹配，缺失不算错误
func ExtractPersonalInfo(lines []string) types.PersonalInfo {
	var info types.PersonalInfo
	if len(lines) > 0 {
		info.Name = lines[0]
	}
	info.Email = FindEmail(lines)
	info.Phone = FindPhone(lines)
	info.SocialHandle = FindSocialHandle(lines)
	info.Location = FindLocation(lines)
	return info
}
