package dto

import "hospital-equipment/internal/entities"

const (
	ReportFormatJSON = "json"
	ReportFormatText = "txt"
	ReportFormatXLSX = "xlsx"
)

type ReportQueryDTO struct {
	DateFrom string `query:"date_from" json:"date_from" validate:"omitempty,date_ymd"`
	DateTo   string `query:"date_to"   json:"date_to"   validate:"omitempty,date_ymd"`
	Kind     string `query:"kind"      json:"kind"      validate:"omitempty,oneof=registration entry exit"`
	Format   string `query:"format"    json:"format"    validate:"omitempty,oneof=json txt xlsx"`
}

type ReportPeriodDTO struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type ReportSummaryDTO struct {
	Registrations   uint64 `json:"registrations"`
	Entries         uint64 `json:"entries"`
	Exits           uint64 `json:"exits"`
	EquipmentInside uint64 `json:"equipment_inside"`
}

type ReportDTO struct {
	Period  ReportPeriodDTO         `json:"period"`
	Total   uint64                  `json:"total"`
	Summary ReportSummaryDTO        `json:"summary"`
	Items   []entities.MovementView `json:"items"`
}
