package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseEventDate 解析事件日期，支持 "2006-01-02" 和不含年份的 "--01-02"
func ParseEventDate(s string) (year *int, month, day int, err error) {
	s = strings.TrimSpace(s)
	var ys, ms, ds string
	switch {
	case strings.HasPrefix(s, "--"):
		parts := strings.Split(s[2:], "-")
		if len(parts) != 2 {
			return nil, 0, 0, fmt.Errorf("invalid event date: %q", s)
		}
		ms, ds = parts[0], parts[1]
	default:
		parts := strings.Split(s, "-")
		if len(parts) != 3 {
			return nil, 0, 0, fmt.Errorf("invalid event date: %q", s)
		}
		ys, ms, ds = parts[0], parts[1], parts[2]
	}

	if ys != "" {
		y, err := strconv.Atoi(ys)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("invalid event year: %q", s)
		}
		year = &y
	}
	if month, err = strconv.Atoi(ms); err != nil || month < 1 || month > 12 {
		return nil, 0, 0, fmt.Errorf("invalid event month: %q", s)
	}
	if day, err = strconv.Atoi(ds); err != nil || day < 1 || day > 31 {
		return nil, 0, 0, fmt.Errorf("invalid event day: %q", s)
	}
	return year, month, day, nil
}

// FormatEventDate 格式化事件日期，year 为空时输出 "--MM-DD"
func FormatEventDate(year *int, month, day int) string {
	if year == nil {
		return fmt.Sprintf("--%02d-%02d", month, day)
	}
	return fmt.Sprintf("%04d-%02d-%02d", *year, month, day)
}

// Validate 检查月日是否有效
func (e Event) Validate() error {
	if e.Month < 1 || e.Month > 12 {
		return fmt.Errorf("event month out of range: %d", e.Month)
	}
	if e.Day < 1 || e.Day > 31 {
		return fmt.Errorf("event day out of range: %d", e.Day)
	}
	return nil
}
