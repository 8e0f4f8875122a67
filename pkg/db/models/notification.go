package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/feastlyapp/feastly-backend/pkg/enums"
)

type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index:idx_notifications_user_created"`
	Type      enums.NotificationKind `gorm:"column:type;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Body      string                 `gorm:"column:body"`
	OrderID   *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Read      bool                   `gorm:"column:read;not null;default:false"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime;index:idx_notifications_user_created"`
}
