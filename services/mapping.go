package services

import "contact-list/model"

func contactFromAdd(cmd AddContact) model.Contact {
	return model.Contact{
		Name:        cmd.Name,
		Email:       cmd.Email,
		PhoneNumber: cmd.PhoneNumber,
	}
}

func editCommandFromContact(c model.Contact) EditContactCommand {
	return EditContactCommand{
		ID:          c.ID,
		Email:       c.Email,
		Name:        c.Name,
		PhoneNumber: c.PhoneNumber,
	}
}

// applyEdit copies the editable fields; the id is never overwritten.
func applyEdit(cmd EditContactCommand, c *model.Contact) {
	c.Name = cmd.Name
	c.Email = cmd.Email
	c.PhoneNumber = cmd.PhoneNumber
}

func viewFromContact(c model.Contact) ContactView {
	return ContactView{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
	}
}
