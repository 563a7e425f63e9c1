package database

import "dailybright/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Prompt{},
		&models.DailyPrompt{},
		&models.DailyState{},
		&models.Entry{},
		&models.Friendship{},
		&models.Photo{},
	}
}
