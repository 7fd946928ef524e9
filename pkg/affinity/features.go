// Package affinity 提供员工与班次的适配度评分模型
package affinity

import (
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/zhipai/zhipai/pkg/model"
)

// FeatureCount 特征向量维度
const FeatureCount = 11

// 特征索引
const (
	FeatRoleMatch   = 0  // 角色匹配（模糊匹配）
	FeatTimeOfDay   = 1  // 班次开始时刻
	FeatDayOfWeek   = 2  // 星期几
	FeatAge         = 3  // 归一化年龄
	FeatDistance    = 4  // 距离代理值
	FeatPunctuality = 5  // 守时先验
	FeatKeyword     = 6  // 任务关键词适配（占位）
	FeatSeniority   = 7  // 司龄代理值
	FeatRoleIndex   = 8  // 角色稳定哈希索引
	FeatVehicle     = 9  // 车辆要求满足
	FeatProject     = 10 // 项目/客户历史适配
)

// 特征缺省值：提取异常时的安全回退
const (
	defaultAge         = 0.5
	defaultPunctuality = 0.95
	defaultKeyword     = 0.5
	defaultSeniority   = 0.5

	// 距离代理值：地址一致为0；任一方缺失按低值处理，缺数据不等于远距离
	distanceSame    = 0.0
	distanceMissing = 0.1
	distanceOther   = 0.5
)

// FeatureVector 单个（员工, 班次）对的特征向量
type FeatureVector [FeatureCount]float64

// ExtractFeatures 提取特征向量，所有分量归一化到 [0,1]
func ExtractFeatures(w *model.Worker, s *model.ShiftRequirement, refDate time.Time) FeatureVector {
	var fv FeatureVector

	// 角色匹配：与可行性过滤使用同一条模糊匹配规则
	if model.RolesCompatible(w.Role, s.Role) {
		fv[FeatRoleMatch] = 1.0
	}

	// 班次开始时刻
	fv[FeatTimeOfDay] = float64(s.StartMinutes()) / (24.0 * 60.0)

	// 星期几：周一为0，周日为6
	if d, ok := model.ParseDate(s.Date); ok {
		fv[FeatDayOfWeek] = float64((int(d.Weekday())+6)%7) / 6.0
	}

	fv[FeatAge] = ageFeature(w.BornDate, refDate)
	fv[FeatDistance] = distanceFeature(w.Address, s.Project)
	fv[FeatPunctuality] = defaultPunctuality
	fv[FeatKeyword] = keywordFeature(w, s)
	fv[FeatSeniority] = seniorityFeature(w.HiredDate, refDate)
	fv[FeatRoleIndex] = RoleIndex(w.Role)

	// 车辆要求：班次不要求车辆时视为满足
	if !s.RequiresVehicle || w.HasVehicle {
		fv[FeatVehicle] = 1.0
	}

	if s.Project != "" && w.HasProject(s.Project) {
		fv[FeatProject] = 1.0
	}

	return Sanitize(fv)
}

// RoleIndex 角色的稳定哈希索引特征
// 基于固定字符串哈希而非候选列表下标，保证对同一角色跨调用恒定
func RoleIndex(role string) float64 {
	h := fnv.New32a()
	h.Write([]byte(model.NormalizeRole(role)))
	return float64(h.Sum32()%1000) / 1000.0
}

// ageFeature 归一化年龄，区间 [18,70]
func ageFeature(bornDate string, refDate time.Time) float64 {
	if bornDate == "" {
		return defaultAge
	}
	born, ok := model.ParseDate(bornDate)
	if !ok {
		return defaultAge
	}
	years := refDate.Sub(born).Hours() / (24.0 * 365.25)
	if years < 18 {
		years = 18
	}
	if years > 70 {
		years = 70
	}
	return (years - 18.0) / 52.0
}

// distanceFeature 员工地址与班次地点的距离代理值
func distanceFeature(address, project string) float64 {
	if address == "" || project == "" {
		return distanceMissing
	}
	a := strings.ToUpper(strings.TrimSpace(address))
	p := strings.ToUpper(strings.TrimSpace(project))
	if a == p || strings.Contains(a, p) || strings.Contains(p, a) {
		return distanceSame
	}
	return distanceOther
}

// keywordFeature 任务关键词适配：命中客户关键词记满分，否则占位中值
func keywordFeature(w *model.Worker, s *model.ShiftRequirement) float64 {
	if s.ActivityID == "" || len(w.CustomerKeywords) == 0 {
		return defaultKeyword
	}
	act := strings.ToUpper(s.ActivityID)
	for _, kw := range w.CustomerKeywords {
		k := strings.ToUpper(strings.TrimSpace(kw))
		if k != "" && strings.Contains(act, k) {
			return 1.0
		}
	}
	return defaultKeyword
}

// seniorityFeature 司龄代理值：20年封顶
func seniorityFeature(hiredDate string, refDate time.Time) float64 {
	if hiredDate == "" {
		return defaultSeniority
	}
	hired, ok := model.ParseDate(hiredDate)
	if !ok {
		return defaultSeniority
	}
	years := refDate.Sub(hired).Hours() / (24.0 * 365.25)
	if years < 0 {
		years = 0
	}
	if years > 20 {
		years = 20
	}
	return years / 20.0
}

// Sanitize 清洗特征向量：NaN/Inf 替换为安全缺省值，越界值截断到 [0,1]
func Sanitize(fv FeatureVector) FeatureVector {
	defaults := [FeatureCount]float64{
		FeatRoleMatch:   0,
		FeatTimeOfDay:   0.5,
		FeatDayOfWeek:   0.5,
		FeatAge:         defaultAge,
		FeatDistance:    distanceMissing,
		FeatPunctuality: defaultPunctuality,
		FeatKeyword:     defaultKeyword,
		FeatSeniority:   defaultSeniority,
		FeatRoleIndex:   0.5,
		FeatVehicle:     1,
		FeatProject:     0,
	}
	for i, v := range fv {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			fv[i] = defaults[i]
			continue
		}
		if v < 0 {
			fv[i] = 0
		} else if v > 1 {
			fv[i] = 1
		}
	}
	return fv
}
