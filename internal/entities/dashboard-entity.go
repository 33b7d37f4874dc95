package entities

import "time"

type DashboardStats struct {
	EquipmentInside  uint64    `json:"equipment_inside"`
	EquipmentOutside uint64    `json:"equipment_outside"`
	TotalEquipment   uint64    `json:"total_equipment"`
	MovementsToday   uint64    `json:"movements_today"`
	EntriesToday     uint64    `json:"entries_today"`
	ExitsToday       uint64    `json:"exits_today"`
	GeneratedAt      time.Time `json:"generated_at"`
}
