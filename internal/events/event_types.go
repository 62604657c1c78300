package events

import (
	"time"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPublicationCreated    EventType = "publication_created"
	EventPublicationUpdated    EventType = "publication_updated"
	EventPublicationReserved   EventType = "publication_reserved"
	EventPublicationUnreserved EventType = "publication_unreserved"
	EventPublicationRetired    EventType = "publication_retired"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID *int64          `json:"user_id,omitempty"`
	Role   domain.UserRole `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	PublicationID int64       `json:"publication_id"`
	Actor         Actor       `json:"actor"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// PublicationCreatedPayload payload.
type PublicationCreatedPayload struct {
	OwnerID int64  `json:"owner_id"`
	Title   string `json:"title"`
	Price   int64  `json:"price"`
}

// PublicationReservedPayload payload.
type PublicationReservedPayload struct {
	ReserverID int64 `json:"reserver_id"`
}

// PublicationUnreservedPayload payload.
type PublicationUnreservedPayload struct{}

// PublicationRetiredPayload payload.
type PublicationRetiredPayload struct{}
