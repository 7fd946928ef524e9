package engine

import (
	"github.com/zhipai/zhipai/pkg/model"
)

// Materialize 将求解结果物化为输出记录
// 按班次的原始输入顺序遍历，保证并行搜索下的确定性输出顺序；
// 每个输入班次恰好产生一条记录
func Materialize(p *Problem, sol *Solution) []*model.ResultRecord {
	records := make([]*model.ResultRecord, 0, len(p.Shifts))

	for si, s := range p.Shifts {
		rec := &model.ResultRecord{
			ShiftID:    s.ID,
			Date:       s.Date,
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
			Role:       s.Role,
			ActivityID: s.ActivityID,
			Project:    s.Project,
		}

		pi := sol.Choice[si]
		if pi < 0 {
			rec.EmployeeID = model.UnassignedEmployeeID
			rec.IsUnassigned = true
		} else {
			pair := &p.Arena.Pairs[pi]
			w := p.Workers[pair.Worker]
			rec.EmployeeID = w.ID
			rec.EmployeeName = w.DisplayName()
			rec.Affinity = float64(pair.Affinity) / 100.0
			rec.AbsenceRisk = pair.Risk
		}

		records = append(records, rec)
	}

	return records
}
