package main

import (
	"context"
	"flag"
	"log"

	"hospital-equipment/migrations"
	"hospital-equipment/pkg/config"
	"hospital-equipment/pkg/database/postgresql"
	applogger "hospital-equipment/pkg/logger"
	"hospital-equipment/seeders"

	"go.uber.org/zap"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	// --- Определяем флаги ---
	runMigrate := flag.Bool("migrate", false, "Перед наполнением применить миграции")
	runAdmin := flag.Bool("admin", false, "Создать администратора из ADMIN_* переменных")
	runDemo := flag.Bool("demo", false, "Зарегистрировать демонстрационное оборудование")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -admin -demo)")

	flag.Parse()

	if !*runAdmin && !*runDemo && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -admin")
		log.Println("  go run ./seeders/cmd/seed -migrate -all")
		log.Println("======================================================")
		return
	}

	cfg := config.New()
	logger := applogger.MustNewLogger(cfg.Logger.Level, cfg.Logger.OutputPaths).Named("Seeder")
	defer func() { _ = logger.Sync() }()
	ctx := context.Background()

	if *runMigrate {
		if err := postgresql.Migrate(cfg.Postgres.DSN, migrations.FS, logger); err != nil {
			logger.Fatal("❌ Ошибка применения миграций", zap.Error(err))
		}
	}

	dbPool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("❌ Не удалось подключиться к БД", zap.Error(err))
	}
	defer dbPool.Close()

	log.Println("======================================================")

	if *runAll || *runAdmin {
		if err := seeders.SeedAdmin(ctx, dbPool, cfg, logger); err != nil {
			logger.Fatal("❌ Ошибка создания администратора", zap.Error(err))
		}
		log.Println("======================================================")
	}

	if *runAll || *runDemo {
		if err := seeders.SeedDemoEquipment(ctx, dbPool, cfg, logger); err != nil {
			logger.Fatal("❌ Ошибка регистрации демонстрационного оборудования", zap.Error(err))
		}
		log.Println("======================================================")
	}

	log.Println("✅ Все указанные операции сидирования успешно завершены.")
	log.Println("======================================================")
}
