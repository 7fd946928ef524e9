// Package model 定义排班分配引擎的核心数据模型
package model

import (
	"strings"
	"time"
)

// RoleWildcard 通配角色
// 当数据源无法确定精确角色时使用，与任何角色均视为兼容
const RoleWildcard = "WORKER"

// DateLayout 日期格式 YYYY-MM-DD
const DateLayout = "2006-01-02"

// TimeLayout 时刻格式 HH:MM
const TimeLayout = "15:04"

// NormalizeRole 归一化角色名（去空白并转大写）
func NormalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}

// RolesCompatible 判断两个角色是否兼容
// 规则：归一化后相等、互为子串、或任意一方为通配角色
func RolesCompatible(a, b string) bool {
	na := NormalizeRole(a)
	nb := NormalizeRole(b)
	if na == RoleWildcard || nb == RoleWildcard {
		return true
	}
	if na == nb {
		return true
	}
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// ParseDate 解析日期字符串
// 支持 YYYY-MM-DD、带时间的ISO格式、DD/MM/YYYY、DD-MM-YYYY
// 数据源的日期格式不统一，入口处统一归一化
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(s, "Z"))
	if s == "" {
		return time.Time{}, false
	}

	// ISO 格式优先
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, true
	}
	if idx := strings.IndexByte(s, 'T'); idx == 10 {
		if t, err := time.Parse(DateLayout, s[:10]); err == nil {
			return t, true
		}
	}

	// DD/MM/YYYY 或 DD-MM-YYYY
	for _, layout := range []string{"02/01/2006", "02-01-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// NormalizeDate 将任意受支持格式的日期归一化为 YYYY-MM-DD
func NormalizeDate(s string) (string, bool) {
	t, ok := ParseDate(s)
	if !ok {
		return "", false
	}
	return t.Format(DateLayout), true
}

// MinutesOfDay 将 HH:MM 转换为当日分钟数
func MinutesOfDay(s string) (int, bool) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// ISOWeek 返回日期所属的 ISO (年, 周) 桶键
func ISOWeek(date string) (string, bool) {
	t, ok := ParseDate(date)
	if !ok {
		return "", false
	}
	year, week := t.ISOWeek()
	return formatWeekKey(year, week), true
}

func formatWeekKey(year, week int) string {
	// 固定宽度便于排序
	b := make([]byte, 0, 8)
	b = appendInt4(b, year)
	b = append(b, '-', 'W')
	if week < 10 {
		b = append(b, '0')
	}
	b = appendInt(b, week)
	return string(b)
}

func appendInt4(b []byte, v int) []byte {
	if v < 1000 {
		b = append(b, '0')
	}
	return appendInt(b, v)
}

func appendInt(b []byte, v int) []byte {
	if v == 0 {
		return append(b, '0')
	}
	var tmp [8]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(b, tmp[i:]...)
}
