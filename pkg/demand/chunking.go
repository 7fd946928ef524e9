package demand

import (
	"fmt"

	"github.com/zhipai/zhipai/pkg/model"
)

// 需求分块参数（小时）
const (
	MinChunkHours = 2.0  // 最小班块时长
	MaxChunkHours = 12.0 // 单班块上限
)

// BlocksToShifts 将预测需求块切分为班次需求
// 按典型时长切块，不足最小时长的尾量并入前一块（不超过上限），
// 无法并入时按最小时长补足；这是核心逻辑，不属于预测方
func BlocksToShifts(blocks []model.DemandBlock, activities []*model.Activity) []*model.ShiftRequirement {
	actIndex := make(map[string]*model.Activity, len(activities))
	for _, a := range activities {
		actIndex[a.ID] = a
	}

	var shifts []*model.ShiftRequirement
	for _, b := range blocks {
		chunks := chunkHours(b.PredictedHours, b.TypicalDuration)
		startHour := b.TypicalStartHour
		if startHour < 0 || startHour >= 24 {
			startHour = 8
		}

		role := ""
		project := ""
		if act, ok := actIndex[b.ActivityID]; ok {
			role = act.RoleRequired
			project = act.Project
		}

		cursor := startHour
		for i, hours := range chunks {
			start := hoursToClock(cursor)
			end := hoursToClock(cursor + hours)
			shifts = append(shifts, &model.ShiftRequirement{
				ID:         fmt.Sprintf("%s-%s-%d", b.Date, b.ActivityID, i),
				Date:       b.Date,
				StartTime:  start,
				EndTime:    end,
				Role:       role,
				ActivityID: b.ActivityID,
				Project:    project,
			})
			cursor += hours
		}
	}

	return shifts
}

// chunkHours 将总需求小时数切分为班块时长序列
func chunkHours(total, typical float64) []float64 {
	if total <= 0 {
		return nil
	}

	size := typical
	if size < MinChunkHours {
		size = MinChunkHours
	}
	if size > MaxChunkHours {
		size = MaxChunkHours
	}

	var chunks []float64
	remaining := total
	for remaining > 0 {
		if remaining >= size {
			chunks = append(chunks, size)
			remaining -= size
			continue
		}
		// 尾量处理
		if remaining < MinChunkHours {
			if n := len(chunks); n > 0 && chunks[n-1]+remaining <= MaxChunkHours {
				chunks[n-1] += remaining
			} else {
				chunks = append(chunks, MinChunkHours)
			}
		} else {
			chunks = append(chunks, remaining)
		}
		break
	}

	return chunks
}

// hoursToClock 小数小时转 HH:MM，超过24小时的部分回绕到次日时刻
func hoursToClock(h float64) string {
	minutes := int(h*60 + 0.5)
	minutes %= 24 * 60
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
