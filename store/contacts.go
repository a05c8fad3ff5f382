package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"contact-list/db"
	"contact-list/model"
)

// ErrNotFound is returned when no contact has the requested id.
var ErrNotFound = errors.New("contact not found")

// Store is the entity store contract the contact handlers consume.
type Store interface {
	Insert(ctx context.Context, c *model.Contact) (string, error)
	Find(ctx context.Context, id string) (*model.Contact, error)
	Update(ctx context.Context, c *model.Contact) error
	Remove(ctx context.Context, c *model.Contact) error
	List(ctx context.Context) ([]model.Contact, error)
	Count(ctx context.Context) (int64, error)
}

// Contacts is the gorm-backed Store. Every call runs on the session's open
// transaction, if any.
type Contacts struct {
	session *db.Session
}

var _ Store = (*Contacts)(nil)

func NewContacts(session *db.Session) *Contacts {
	return &Contacts{session: session}
}

// Insert stores c and returns the id assigned to it.
func (s *Contacts) Insert(ctx context.Context, c *model.Contact) (string, error) {
	if err := s.session.Conn(ctx).Create(c).Error; err != nil {
		return "", fmt.Errorf("insert contact: %w", err)
	}
	return c.ID, nil
}

// Find loads the contact with id. Ids that are not UUIDs cannot exist and
// resolve to ErrNotFound.
func (s *Contacts) Find(ctx context.Context, id string) (*model.Contact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("find contact %q: %w", id, ErrNotFound)
	}
	var found []model.Contact
	if err := s.session.Conn(ctx).Where("id = ?", id).Limit(1).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("find contact %s: %w", id, err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("find contact %s: %w", id, ErrNotFound)
	}
	return &found[0], nil
}

// Update overwrites every field of the stored contact with c's values.
func (s *Contacts) Update(ctx context.Context, c *model.Contact) error {
	if c.ID == "" {
		return errors.New("update contact: contact has no id")
	}
	res := s.session.Conn(ctx).Model(&model.Contact{}).Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"name":         c.Name,
			"email":        c.Email,
			"phone_number": c.PhoneNumber,
		})
	if res.Error != nil {
		return fmt.Errorf("update contact %s: %w", c.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update contact %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

// Remove deletes c. Removing a contact that is already gone is ErrNotFound.
func (s *Contacts) Remove(ctx context.Context, c *model.Contact) error {
	res := s.session.Conn(ctx).Delete(&model.Contact{}, "id = ?", c.ID)
	if res.Error != nil {
		return fmt.Errorf("remove contact %s: %w", c.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("remove contact %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

// List returns every contact in store order.
func (s *Contacts) List(ctx context.Context) ([]model.Contact, error) {
	var contacts []model.Contact
	if err := s.session.Conn(ctx).Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

func (s *Contacts) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.session.Conn(ctx).Model(&model.Contact{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}
