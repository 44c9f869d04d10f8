package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewTest opens a uniquely named in-memory sqlite database so parallel
// tests in the same process never share state.
func NewTest() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
}
