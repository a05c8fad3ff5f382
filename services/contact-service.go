package services

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"contact-list/db"
	"contact-list/mediator"
	"contact-list/store"
	"contact-list/validation"
)

// AddContact creates a contact.
type AddContact struct {
	Email       string `validate:"notempty,email,max=255"`
	Name        string `validate:"notempty,max=100"`
	PhoneNumber string `validate:"max=50" display:"Phone Number"`
}

type AddContactResponse struct {
	ContactID string
}

// EditContactQuery loads a contact as a pre-filled EditContactCommand.
type EditContactQuery struct {
	ID string
}

// EditContactCommand overwrites the fields of an existing contact. ID is not
// validated; a missing contact is store.ErrNotFound.
type EditContactCommand struct {
	ID          string
	Email       string `validate:"notempty,email,max=255"`
	Name        string `validate:"notempty,max=100"`
	PhoneNumber string `validate:"max=50" display:"Phone Number"`
}

// DeleteContact removes a contact. Name is only used for display.
type DeleteContact struct {
	ID   string
	Name string
}

// ContactIndex lists every contact sorted by name.
type ContactIndex struct{}

type ContactView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

// RequestTypes lists every request the contact features handle.
var RequestTypes = []reflect.Type{
	reflect.TypeFor[AddContact](),
	reflect.TypeFor[EditContactQuery](),
	reflect.TypeFor[EditContactCommand](),
	reflect.TypeFor[DeleteContact](),
	reflect.TypeFor[ContactIndex](),
}

type ContactService struct {
	Log *slog.Logger
}

// Register binds the contact handlers and validators to r.
func Register(r *mediator.Registry, v *validation.Validator, svc *ContactService) error {
	regs := []error{
		mediator.Register(r, svc.AddContact),
		mediator.RegisterValidator(r, validation.For[AddContact](v)),
		mediator.Register(r, svc.EditContact),
		mediator.Register(r, svc.UpdateContact),
		mediator.RegisterValidator(r, validation.For[EditContactCommand](v)),
		mediator.Register(r, svc.DeleteContact),
		mediator.Register(r, svc.ListContacts),
	}
	for _, err := range regs {
		if err != nil {
			return err
		}
	}
	return r.Require(RequestTypes...)
}

func (s *ContactService) AddContact(ctx context.Context, session *db.Session, cmd AddContact) (AddContactResponse, error) {
	contact := contactFromAdd(cmd)
	id, err := store.NewContacts(session).Insert(ctx, &contact)
	if err != nil {
		return AddContactResponse{}, err
	}
	s.Log.Info("contact added", "contact_id", id)
	return AddContactResponse{ContactID: id}, nil
}

func (s *ContactService) EditContact(ctx context.Context, session *db.Session, q EditContactQuery) (EditContactCommand, error) {
	contact, err := store.NewContacts(session).Find(ctx, q.ID)
	if err != nil {
		return EditContactCommand{}, err
	}
	return editCommandFromContact(*contact), nil
}

func (s *ContactService) UpdateContact(ctx context.Context, session *db.Session, cmd EditContactCommand) (mediator.Unit, error) {
	contacts := store.NewContacts(session)
	contact, err := contacts.Find(ctx, cmd.ID)
	if err != nil {
		return mediator.Unit{}, err
	}
	applyEdit(cmd, contact)
	if err := contacts.Update(ctx, contact); err != nil {
		return mediator.Unit{}, err
	}
	s.Log.Info("contact updated", "contact_id", contact.ID)
	return mediator.Unit{}, nil
}

func (s *ContactService) DeleteContact(ctx context.Context, session *db.Session, cmd DeleteContact) (mediator.Unit, error) {
	contacts := store.NewContacts(session)
	contact, err := contacts.Find(ctx, cmd.ID)
	if err != nil {
		return mediator.Unit{}, err
	}
	if err := contacts.Remove(ctx, contact); err != nil {
		return mediator.Unit{}, fmt.Errorf("delete contact: %w", err)
	}
	s.Log.Info("contact deleted", "contact_id", contact.ID)
	return mediator.Unit{}, nil
}

// ListContacts orders by name using byte-wise comparison; contacts with equal
// names keep the order the store returned them in.
func (s *ContactService) ListContacts(ctx context.Context, session *db.Session, _ ContactIndex) ([]ContactView, error) {
	contacts, err := store.NewContacts(session).List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]ContactView, 0, len(contacts))
	for _, c := range contacts {
		views = append(views, viewFromContact(c))
	}
	// Byte-wise: uppercase names sort before lowercase ones.
	slices.SortStableFunc(views, func(a, b ContactView) int {
		return strings.Compare(a.Name, b.Name)
	})
	return views, nil
}
