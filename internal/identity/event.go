// Package identity consumes the auth provider's user-lifecycle webhooks and
// reconciles the local users table against them.
package identity

import (
	"encoding/json"
	"fmt"
)

// Lifecycle event types the provider emits. Anything else is acknowledged
// and ignored so the provider does not retry it forever.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Event is the verified webhook envelope.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UserData is the payload of user.* events. Deleted events carry only the id.
type UserData struct {
	ID                    string         `json:"id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	ImageURL              string         `json:"image_url"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

func ParseEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("event has no type")
	}
	return ev, nil
}

func (e Event) User() (UserData, error) {
	var u UserData
	if err := json.Unmarshal(e.Data, &u); err != nil {
		return UserData{}, fmt.Errorf("decode %s data: %w", e.Type, err)
	}
	if u.ID == "" {
		return UserData{}, fmt.Errorf("%s event has no user id", e.Type)
	}
	return u, nil
}

// PrimaryEmail picks the address the provider marks primary, falling back
// to the first one listed. Empty when the event carries no addresses.
func (u UserData) PrimaryEmail() string {
	for _, addr := range u.EmailAddresses {
		if addr.ID == u.PrimaryEmailAddressID && addr.EmailAddress != "" {
			return addr.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}
