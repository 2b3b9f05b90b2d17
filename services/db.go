package services

import (
	"os"

	"gorm.io/gorm"
)

// SqlService is the store surface the protection services depend on.
// Implemented by both PostgresService (deployment) and SqliteService
// (local/dev); the driver is picked once per process via DB_DRIVER.
type SqlService interface {
	Db() *gorm.DB
	HandleError(err error) error
}

// SqlServiceID resolves which database service this deployment registers.
func SqlServiceID() string {
	if os.Getenv("DB_DRIVER") == "sqlite" {
		return SQLITE_SVC
	}
	return POSTGRES_SVC
}
