package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is the only persisted entity. ID stays empty until the first insert.
type Contact struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Email       string `gorm:"size:255;not null" json:"email"`
	PhoneNumber string `gorm:"size:50" json:"phone_number"`
}

// BeforeCreate assigns the id on first insert. Postgres gen_random_uuid is not
// used so the same schema also runs on engines without it.
func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
