package checkout

import (
	"sort"

	"github.com/RoyceAzure/lab/freshmarket/internal/model"
)

// label 依字串排序即為時間順序
const (
	slotDayLayout  = "2006-01-02 Mon 15:04"
	slotHourLayout = "15:04"
)

// FormatSlotLabel 2026-10-15 Thu 09:00-11:00
func FormatSlotLabel(slot model.DeliverySlot) string {
	return slot.StartsAt.Format(slotDayLayout) + "-" + slot.EndsAt.In(slot.StartsAt.Location()).Format(slotHourLayout)
}

// BuildSlotOptions 以 label 去重 (保留第一筆) 後依 label 遞增排序
func BuildSlotOptions(slots []model.DeliverySlot) []model.SlotOption {
	seen := make(map[string]struct{}, len(slots))
	out := make([]model.SlotOption, 0, len(slots))
	for _, s := range slots {
		label := FormatSlotLabel(s)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, model.SlotOption{ID: s.ID, Label: label})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Label < out[j].Label
	})
	return out
}
