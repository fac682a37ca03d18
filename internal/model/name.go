package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// FullName 按 前缀 名 中间名 姓 后缀 的顺序拼接姓名
func (n Name) FullName() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{n.NamePrefix, n.GivenName, n.MiddleName, n.FamilyName, n.NameSuffix} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func (n Name) IsEmpty() bool {
	return n == Name{}
}

// DigitsOnly 只保留数字，用于号码归一化
func DigitsOnly(number string) string {
	var b strings.Builder
	b.Grow(len(number))
	for _, r := range number {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchDisplayName 显示名是否包含查询串，按 Unicode case folding 比较
// 空查询匹配所有记录
func MatchDisplayName(displayName, query string) bool {
	if query == "" {
		return true
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(displayName), fold.String(query))
}
