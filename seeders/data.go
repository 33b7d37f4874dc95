package seeders

import (
	"hospital-equipment/internal/dto"
	"hospital-equipment/internal/entities"
)

// demoEquipmentData - оборудование для стенда. Коды фиксированы, чтобы повторный запуск ничего не дублировал.
var demoEquipmentData = []dto.RegisterEquipmentDTO{
	// --- Технологическое ---
	{Code: "DEMO001", Name: "Ноутбук Dell Latitude 5420", Serial: "DL5420-0017", Category: string(entities.CategoryTechnological), OwnerName: "Иванов И.И.", OwnerCategory: string(entities.OwnerStaff), Frequency: string(entities.FrequencyFrequent)},
	{Code: "DEMO002", Name: "Проектор Epson EB-X49", Serial: "EPX49-2231", Category: string(entities.CategoryTechnological), OwnerName: "ООО «МедСнаб»", OwnerCategory: string(entities.OwnerSupplier), Frequency: string(entities.FrequencyOccasional)},
	{Code: "DEMO003", Name: "Планшет Samsung Galaxy Tab", Serial: "SGT-88410", Category: string(entities.CategoryTechnological), OwnerName: "Петрова А.С.", OwnerCategory: string(entities.OwnerStaff), Frequency: string(entities.FrequencyFrequent)},

	// --- Биомедицинское ---
	{Code: "DEMO004", Name: "Портативный УЗИ-аппарат", Serial: "US-PRT-5521", Category: string(entities.CategoryBiomedical), OwnerName: "ООО «Сервис-Мед»", OwnerCategory: string(entities.OwnerContractor), Frequency: string(entities.FrequencyOccasional)},
	{Code: "DEMO005", Name: "Пульсоксиметр Nonin 9590", Serial: "NN9590-104", Category: string(entities.CategoryBiomedical), OwnerName: "Каримов Д.Р.", OwnerCategory: string(entities.OwnerStaff), Frequency: string(entities.FrequencyFrequent)},
	{Code: "DEMO006", Name: "Дефибриллятор Zoll AED Plus", Serial: "ZAED-77120", Category: string(entities.CategoryBiomedical), OwnerName: "ООО «МедСнаб»", OwnerCategory: string(entities.OwnerSupplier), Frequency: string(entities.FrequencyOccasional)},
}
