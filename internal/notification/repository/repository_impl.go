package repository

import (
	"github.com/smallbiznis/canvass/internal/notification/domain"
	"github.com/smallbiznis/canvass/pkg/repository"
	"gorm.io/gorm"
)

// Provide returns the generic store bound to the notifications table.
func Provide(db *gorm.DB) repository.Repository[domain.Notification] {
	return repository.ProvideStore[domain.Notification](db)
}
