package engine

import (
	"sort"

	"github.com/zhipai/zhipai/pkg/model"
)

// 连片与碎片化阈值
const (
	ContiguityGapMinutes = 30  // 间隔不超过此值的同员工同日班次视为连片
	ShortShiftMinutes    = 120 // 短于此时长的班次受碎片化惩罚约束
	MinDailyMinutes      = 60  // 当日有指派时的最低出勤分钟数
)

// Problem 约束模型
// 在稀疏候选对之上预计算全部冲突关系与分组结构，求解阶段只做查表
type Problem struct {
	Workers []*model.Worker
	Shifts  []*model.ShiftRequirement
	Arena   *Arena
	Options model.SolveOptions

	// 班次几何（预解析，求解热路径不再做字符串解析）
	Duration []int // 班次下标 → 时长分钟
	DayIdx   []int // 班次下标 → 稠密日下标
	WeekIdx  []int // 班次下标 → 稠密ISO周下标
	DayCount int
	WeekCount int

	AbsStart []int // 班次下标 → 绝对开始分钟（纪元日×1440+当日分钟）
	AbsEnd   []int

	// 员工约束参数（劳动规则档案已解析）
	WeeklyCapMin []int // 员工下标 → 每周分钟上限
	MinRestMin   []int // 员工下标 → 最小休息分钟

	// 冲突与连片关系，均以候选对下标表示
	Conflicts   [][]int // 对下标 → 不能与之共同指派的对下标（同员工：同日重叠或休息不足）
	Adjacent    [][]int // 对下标 → 同员工同日 gap≤30 的连片伙伴
	ShortShift  []bool  // 班次下标 → 时长<120
	HasNeighbor []bool  // 对下标 → 是否存在任何可能连片伙伴
}

// BuildProblem 构建约束模型
// 不可用记录在此阶段屏蔽候选对；匹配按员工ID或归一化姓名，数据源的标识符并不一致
func BuildProblem(
	arena *Arena,
	workers []*model.Worker,
	shifts []*model.ShiftRequirement,
	unavails []*model.Unavailability,
	profiles []*model.LaborProfile,
	opts model.SolveOptions,
) *Problem {
	p := &Problem{
		Workers: workers,
		Shifts:  shifts,
		Arena:   arena,
		Options: opts.Clamped(),
	}

	p.buildGeometry()
	p.resolveProfiles(profiles)
	p.applyUnavailabilities(unavails)
	p.buildConflicts()
	p.buildAdjacency()

	return p
}

// buildGeometry 预解析班次日期与时间
func (p *Problem) buildGeometry() {
	n := len(p.Shifts)
	p.Duration = make([]int, n)
	p.DayIdx = make([]int, n)
	p.WeekIdx = make([]int, n)
	p.AbsStart = make([]int, n)
	p.AbsEnd = make([]int, n)

	dayIndex := make(map[string]int)
	weekIndex := make(map[string]int)

	for i, s := range p.Shifts {
		p.Duration[i] = s.DurationMinutes()

		epochDay := 0
		if d, ok := model.ParseDate(s.Date); ok {
			epochDay = int(d.Unix() / 86400)
		}
		p.AbsStart[i] = epochDay*1440 + s.StartMinutes()
		p.AbsEnd[i] = epochDay*1440 + s.EndMinutes()

		if idx, ok := dayIndex[s.Date]; ok {
			p.DayIdx[i] = idx
		} else {
			p.DayIdx[i] = len(dayIndex)
			dayIndex[s.Date] = p.DayIdx[i]
		}

		wk, _ := model.ISOWeek(s.Date)
		if idx, ok := weekIndex[wk]; ok {
			p.WeekIdx[i] = idx
		} else {
			p.WeekIdx[i] = len(weekIndex)
			weekIndex[wk] = p.WeekIdx[i]
		}
	}

	p.DayCount = len(dayIndex)
	p.WeekCount = len(weekIndex)
}

// resolveProfiles 解析每员工的劳动规则档案
// 无档案时回退到租户级周上限与默认休息规则
func (p *Problem) resolveProfiles(profiles []*model.LaborProfile) {
	p.WeeklyCapMin = make([]int, len(p.Workers))
	p.MinRestMin = make([]int, len(p.Workers))

	tenantCapMin := int(p.Options.MaxWeeklyHours * 60)
	def := model.DefaultLaborProfile()

	for i := range p.Workers {
		var prof *model.LaborProfile
		if i < len(profiles) {
			prof = profiles[i]
		}
		if prof == nil {
			p.WeeklyCapMin[i] = tenantCapMin
			p.MinRestMin[i] = def.MinRestMinutes()
			continue
		}
		p.WeeklyCapMin[i] = prof.MaxWeeklyMinutes()
		p.MinRestMin[i] = prof.MinRestMinutes()
	}
}

// applyUnavailabilities 屏蔽与不可用记录冲突的候选对
func (p *Problem) applyUnavailabilities(unavails []*model.Unavailability) {
	if len(unavails) == 0 {
		return
	}

	for wi, w := range p.Workers {
		var matched []*model.Unavailability
		for _, u := range unavails {
			if u.Matches(w) {
				matched = append(matched, u)
			}
		}
		if len(matched) == 0 {
			continue
		}

		for _, pi := range p.Arena.ByWorker[wi] {
			s := p.Shifts[p.Arena.Pairs[pi].Shift]
			for _, u := range matched {
				if !sameDate(u.Date, s.Date) {
					continue
				}
				if u.AllDay() || windowsOverlap(u, s) {
					p.Arena.Pairs[pi].Blocked = true
					break
				}
			}
		}
	}
}

// sameDate 归一化后比较日期
func sameDate(a, b string) bool {
	na, okA := model.NormalizeDate(a)
	nb, okB := model.NormalizeDate(b)
	if okA && okB {
		return na == nb
	}
	return a == b
}

// windowsOverlap 判断不可用时间窗与班次区间是否重叠
func windowsOverlap(u *model.Unavailability, s *model.ShiftRequirement) bool {
	us, okS := model.MinutesOfDay(u.StartTime)
	ue, okE := model.MinutesOfDay(u.EndTime)
	if !okS || !okE {
		return true // 时间窗无法解析时按全天处理
	}
	if ue <= us {
		ue += 24 * 60
	}
	return us < s.EndMinutes() && s.StartMinutes() < ue
}

// buildConflicts 构建同员工冲突关系
// 同日重叠为硬冲突；跨日班次仅与后续1-2个有班活动日比较休息间隔，
// 不做全对比较（隔着无班日的违规可能漏检，属已知行为）
func (p *Problem) buildConflicts() {
	p.Conflicts = make([][]int, len(p.Arena.Pairs))
	p.ShortShift = make([]bool, len(p.Shifts))
	for i, d := range p.Duration {
		p.ShortShift[i] = d < ShortShiftMinutes
	}

	for wi := range p.Workers {
		pairs := p.Arena.ByWorker[wi]
		if len(pairs) < 2 {
			continue
		}

		// 按活动日分组
		byDay := make(map[int][]int)
		for _, pi := range pairs {
			day := p.DayIdx[p.Arena.Pairs[pi].Shift]
			byDay[day] = append(byDay[day], pi)
		}

		// 同日：区间重叠即冲突
		for _, group := range byDay {
			for i := 0; i < len(group); i++ {
				for j := i + 1; j < len(group); j++ {
					si := p.Arena.Pairs[group[i]].Shift
					sj := p.Arena.Pairs[group[j]].Shift
					if p.AbsStart[si] < p.AbsEnd[sj] && p.AbsStart[sj] < p.AbsEnd[si] {
						p.addConflict(group[i], group[j])
					}
				}
			}
		}

		// 跨日：按纪元日排序后只看后续1-2个活动日
		days := make([]int, 0, len(byDay))
		dayEpoch := make(map[int]int)
		for day, group := range byDay {
			days = append(days, day)
			dayEpoch[day] = p.AbsStart[p.Arena.Pairs[group[0]].Shift] / 1440
		}
		sort.Slice(days, func(i, j int) bool { return dayEpoch[days[i]] < dayEpoch[days[j]] })

		minRest := p.MinRestMin[wi]
		for di := 0; di < len(days); di++ {
			for dj := di + 1; dj < len(days) && dj <= di+2; dj++ {
				for _, pi := range byDay[days[di]] {
					for _, pj := range byDay[days[dj]] {
						si := p.Arena.Pairs[pi].Shift
						sj := p.Arena.Pairs[pj].Shift
						gap := p.AbsStart[sj] - p.AbsEnd[si]
						if gap < 0 {
							gap = p.AbsStart[si] - p.AbsEnd[sj]
						}
						if gap < minRest {
							p.addConflict(pi, pj)
						}
					}
				}
			}
		}
	}
}

func (p *Problem) addConflict(a, b int) {
	p.Conflicts[a] = append(p.Conflicts[a], b)
	p.Conflicts[b] = append(p.Conflicts[b], a)
}

// buildAdjacency 构建连片关系：同员工同日、间隔不超过30分钟的候选对互为伙伴
func (p *Problem) buildAdjacency() {
	p.Adjacent = make([][]int, len(p.Arena.Pairs))
	p.HasNeighbor = make([]bool, len(p.Arena.Pairs))

	for wi := range p.Workers {
		pairs := p.Arena.ByWorker[wi]
		for i := 0; i < len(pairs); i++ {
			for j := i + 1; j < len(pairs); j++ {
				pi, pj := pairs[i], pairs[j]
				si := p.Arena.Pairs[pi].Shift
				sj := p.Arena.Pairs[pj].Shift
				if p.DayIdx[si] != p.DayIdx[sj] {
					continue
				}
				gap := p.AbsStart[sj] - p.AbsEnd[si]
				if gap < 0 {
					gap = p.AbsStart[si] - p.AbsEnd[sj]
				}
				if gap >= 0 && gap <= ContiguityGapMinutes {
					p.Adjacent[pi] = append(p.Adjacent[pi], pj)
					p.Adjacent[pj] = append(p.Adjacent[pj], pi)
				}
			}
		}
	}

	for pi := range p.Arena.Pairs {
		p.HasNeighbor[pi] = len(p.Adjacent[pi]) > 0
	}
}
