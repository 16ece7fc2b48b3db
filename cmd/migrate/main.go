package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"homedash/internal/config"
	"homedash/internal/models"
)

func main() {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	cfg := config.Load()
	if cfg.Database.Host == "" {
		cfg = config.GetDefaultConfig()
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Database.Host, cfg.Database.User, cfg.Database.Password, cfg.Database.Name, cfg.Database.Port)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Starting database migration...")

	err = db.AutoMigrate(
		&models.Automation{},
		&models.Trigger{},
		&models.Condition{},
		&models.Action{},
		&models.Camera{},
		&models.EnergyReading{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Println("Database migration completed successfully!")

	log.Println("Creating additional indexes...")

	db.Exec("CREATE INDEX IF NOT EXISTS idx_triggers_automation ON triggers(automation_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_conditions_automation ON conditions(automation_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_actions_automation ON actions(automation_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_automations_enabled_updated ON automations(enabled, updated_at)")

	log.Println("Additional indexes created successfully!")

	if len(os.Args) > 1 && os.Args[1] == "--seed" {
		log.Println("Seeding sample data...")
		seedSampleData(db)
		log.Println("Sample data seeded successfully!")
	}

	log.Println("Migration process completed!")
}

func seedSampleData(db *gorm.DB) {
	var existing models.Automation
	if err := db.Where("name = ?", "Morning Routine").First(&existing).Error; err == nil {
		return
	}

	automation := models.Automation{
		Name:    "Morning Routine",
		Enabled: true,
		Source:  "local",
	}
	if err := db.Create(&automation).Error; err != nil {
		log.Printf("seed automation: %v", err)
		return
	}

	db.Create(&models.Trigger{
		AutomationID: automation.ID,
		Type:         "time",
		Time:         "07:00",
	})
	db.Create(&models.Condition{
		AutomationID:    automation.ID,
		Type:            "entity_state",
		EntityID:        "binary_sensor.workday",
		Operator:        "equals",
		Value:           "on",
		LogicalOperator: "and",
	})
	db.Create(&models.Action{
		AutomationID: automation.ID,
		Type:         "local_device",
		Service:      "light.turn_on",
		EntityID:     "light.kitchen",
	})
	log.Println("Created sample automation: Morning Routine")
}
