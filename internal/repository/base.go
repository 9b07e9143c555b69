package repository

import (
	"murmur/internal/database"

	"gorm.io/gorm"
)

// readDB routes read-only queries to the replica when one is connected.
func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}
