package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"hospital-equipment/internal/dto"
	"hospital-equipment/internal/entities"
	"hospital-equipment/internal/repositories"
	apperrors "hospital-equipment/pkg/errors"
	"hospital-equipment/pkg/types"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ReportFile - отчёт, готовый к выгрузке.
type ReportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type ReportServiceInterface interface {
	GetReport(ctx context.Context, query dto.ReportQueryDTO) (*dto.ReportDTO, error)
	GetMovements(ctx context.Context, filter types.Filter) ([]entities.MovementView, uint64, error)
	Render(report *dto.ReportDTO, format string) (*ReportFile, error)
}

type ReportService struct {
	movementRepo  repositories.MovementRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	validator     Validator
	loc           *time.Location
	logger        *zap.Logger
}

func NewReportService(
	movementRepo repositories.MovementRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	validator Validator,
	loc *time.Location,
	logger *zap.Logger,
) ReportServiceInterface {
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{
		movementRepo:  movementRepo,
		equipmentRepo: equipmentRepo,
		validator:     validator,
		loc:           loc,
		logger:        logger,
	}
}

// GetReport собирает все записи журнала за период, от новых к старым.
// Обе границы необязательны и включают свой календарный день целиком.
func (s *ReportService) GetReport(ctx context.Context, query dto.ReportQueryDTO) (*dto.ReportDTO, error) {
	if err := s.validator.Validate(&query); err != nil {
		return nil, err
	}

	filter, err := s.periodFilter(query.DateFrom, query.DateTo)
	if err != nil {
		return nil, err
	}
	filter.Kind = entities.MovementKind(query.Kind)

	items, total, err := s.movementRepo.GetMovements(ctx, filter)
	if err != nil {
		return nil, persistenceOr("report", err)
	}

	counts, err := s.movementRepo.CountByKind(ctx, filter)
	if err != nil {
		return nil, persistenceOr("report", err)
	}

	_, inside, err := s.equipmentRepo.GetEquipments(ctx, entities.EquipmentFilter{
		LocationState: entities.LocationInside,
		Limit:         1,
	})
	if err != nil {
		return nil, persistenceOr("report", err)
	}

	s.logger.Debug("Отчёт сформирован",
		zap.String("date_from", query.DateFrom),
		zap.String("date_to", query.DateTo),
		zap.Uint64("total", total),
	)

	return &dto.ReportDTO{
		Period: dto.ReportPeriodDTO{From: query.DateFrom, To: query.DateTo},
		Total:  total,
		Summary: dto.ReportSummaryDTO{
			Registrations:   counts[entities.MovementRegistration],
			Entries:         counts[entities.MovementEntry],
			Exits:           counts[entities.MovementExit],
			EquipmentInside: inside,
		},
		Items: items,
	}, nil
}

// GetMovements - постраничный просмотр журнала с фильтрами filter[kind],
// filter[equipment_id], filter[date_from], filter[date_to].
func (s *ReportService) GetMovements(ctx context.Context, filter types.Filter) ([]entities.MovementView, uint64, error) {
	movementFilter, err := s.periodFilter(filter.FilterString("date_from"), filter.FilterString("date_to"))
	if err != nil {
		return nil, 0, err
	}

	if kind := entities.MovementKind(filter.FilterString("kind")); kind != "" {
		if !kind.Valid() {
			return nil, 0, apperrors.NewValidationError("Ошибка валидации", map[string]string{"kind": "неизвестный тип записи"})
		}
		movementFilter.Kind = kind
	}
	if raw := filter.FilterString("equipment_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return nil, 0, apperrors.NewValidationError("Ошибка валидации", map[string]string{"equipment_id": "должно быть положительным числом"})
		}
		movementFilter.EquipmentID = id
	}
	movementFilter.Limit = filter.Limit
	movementFilter.Offset = filter.Offset

	items, total, err := s.movementRepo.GetMovements(ctx, movementFilter)
	if err != nil {
		return nil, 0, persistenceOr("list_movements", err)
	}
	return items, total, nil
}

func (s *ReportService) periodFilter(from, to string) (entities.MovementFilter, error) {
	var filter entities.MovementFilter
	fields := make(map[string]string)

	if from != "" {
		t, err := time.ParseInLocation(dateLayout, from, s.loc)
		if err != nil {
			fields["date_from"] = "ожидается дата в формате ГГГГ-ММ-ДД"
		} else {
			filter.DateFrom = &t
		}
	}
	if to != "" {
		t, err := time.ParseInLocation(dateLayout, to, s.loc)
		if err != nil {
			fields["date_to"] = "ожидается дата в формате ГГГГ-ММ-ДД"
		} else {
			next := t.AddDate(0, 0, 1)
			filter.DateTo = &next
		}
	}
	if len(fields) > 0 {
		return filter, apperrors.NewValidationError("Ошибка валидации", fields)
	}
	if filter.DateFrom != nil && filter.DateTo != nil && !filter.DateFrom.Before(*filter.DateTo) {
		return filter, apperrors.NewValidationError("Ошибка валидации", map[string]string{"date_from": "начало периода позже его конца"})
	}
	return filter, nil
}

// Render выгружает отчёт в текстовом виде или в xlsx.
func (s *ReportService) Render(report *dto.ReportDTO, format string) (*ReportFile, error) {
	stamp := time.Now().In(s.loc).Format(dateLayout)
	switch format {
	case dto.ReportFormatText:
		return &ReportFile{
			Name:        fmt.Sprintf("movements_%s.txt", stamp),
			ContentType: "text/plain; charset=utf-8",
			Data:        s.renderText(report),
		}, nil
	case dto.ReportFormatXLSX:
		data, err := s.renderXLSX(report)
		if err != nil {
			return nil, err
		}
		return &ReportFile{
			Name:        fmt.Sprintf("movements_%s.xlsx", stamp),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		return nil, apperrors.NewValidationError("Ошибка валидации", map[string]string{"format": "поддерживаются txt и xlsx"})
	}
}

var kindTitles = map[entities.MovementKind]string{
	entities.MovementRegistration: "РЕГИСТРАЦИЯ",
	entities.MovementEntry:        "ВЪЕЗД",
	entities.MovementExit:         "ВЫЕЗД",
}

func periodTitle(p dto.ReportPeriodDTO) string {
	from, to := p.From, p.To
	if from == "" {
		from = "начала учёта"
	}
	if to == "" {
		to = "сегодня"
	}
	return fmt.Sprintf("с %s по %s", from, to)
}

func (s *ReportService) renderText(report *dto.ReportDTO) []byte {
	var b bytes.Buffer
	fmt.Fprintln(&b, "ОТЧЁТ ПО ПЕРЕМЕЩЕНИЯМ ОБОРУДОВАНИЯ")
	fmt.Fprintf(&b, "Период: %s\n", periodTitle(report.Period))
	fmt.Fprintf(&b, "Сформирован: %s\n\n", time.Now().In(s.loc).Format("02.01.2006 15:04"))

	fmt.Fprintln(&b, "СВОДКА")
	fmt.Fprintf(&b, "  Всего записей: %d\n", report.Total)
	fmt.Fprintf(&b, "  Регистраций:   %d\n", report.Summary.Registrations)
	fmt.Fprintf(&b, "  Въездов:       %d\n", report.Summary.Entries)
	fmt.Fprintf(&b, "  Выездов:       %d\n", report.Summary.Exits)
	fmt.Fprintf(&b, "  Сейчас внутри: %d\n\n", report.Summary.EquipmentInside)

	fmt.Fprintln(&b, "ЗАПИСИ")
	if len(report.Items) == 0 {
		fmt.Fprintln(&b, "  Записей за период нет")
	}
	for _, item := range report.Items {
		fmt.Fprintf(&b, "  %s | %s | %s | %s %s (серийный № %s) | владелец: %s | ответственный: %s\n",
			item.CreatedAt.In(s.loc).Format("02.01.2006 15:04"),
			item.LogCode,
			kindTitles[item.Kind],
			item.EquipmentCode,
			item.EquipmentName,
			item.EquipmentSerial,
			item.OwnerName,
			responsibleTitle(item),
		)
		if item.Notes != "" {
			fmt.Fprintf(&b, "      примечание: %s\n", item.Notes)
		}
	}
	return b.Bytes()
}

func responsibleTitle(item entities.MovementView) string {
	if item.ResponsibleName.Valid {
		return item.ResponsibleName.String
	}
	return "-"
}

var reportHeaders = []string{
	"№", "Дата", "Время", "Код записи", "Тип", "Код оборудования", "Наименование",
	"Серийный номер", "Владелец", "Текущее состояние", "Ответственный", "Примечание",
}

func (s *ReportService) rowToSlice(i int, item entities.MovementView) []interface{} {
	created := item.CreatedAt.In(s.loc)
	return []interface{}{
		i + 1, created.Format("02.01.2006"), created.Format("15:04"), item.LogCode, kindTitles[item.Kind],
		item.EquipmentCode, item.EquipmentName, item.EquipmentSerial, item.OwnerName,
		string(item.CurrentState), responsibleTitle(item), item.Notes,
	}
}

func (s *ReportService) renderXLSX(report *dto.ReportDTO) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Журнал перемещений"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("ошибка подготовки листа: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &reportHeaders); err != nil {
		return nil, fmt.Errorf("ошибка записи заголовка: %w", err)
	}
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	lastHeader, _ := excelize.CoordinatesToCellName(len(reportHeaders), 1)
	f.SetCellStyle(sheet, "A1", lastHeader, style)

	for i, item := range report.Items {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := s.rowToSlice(i, item)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("ошибка записи строки %d: %w", i+1, err)
		}
	}
	f.SetColWidth(sheet, "D", "D", 24)
	f.SetColWidth(sheet, "G", "I", 25)
	f.SetColWidth(sheet, "K", "K", 25)
	f.SetColWidth(sheet, "L", "L", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
