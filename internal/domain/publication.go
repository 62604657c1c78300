package domain

import "time"

// PublicationStatus enumerates lifecycle states for publications.
type PublicationStatus string

const (
	PublicationStatusAvailable PublicationStatus = "AVAILABLE"
	PublicationStatusReserved  PublicationStatus = "RESERVED"
)

// Publication is the aggregate for listed marketplace items.
//
// ReserverID is non-nil exactly when Status is RESERVED; both fields are
// mutated only through the reserve/unreserve transitions, never by patches.
type Publication struct {
	ID          int64
	Title       string
	Description string
	Price       int64
	Status      PublicationStatus
	OwnerID     int64
	ReserverID  *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// Active reports whether the publication has not been soft-deleted.
func (p *Publication) Active() bool {
	return p != nil && p.DeletedAt == nil
}

// Reserved reports whether the publication is currently reserved.
func (p *Publication) Reserved() bool {
	return p != nil && p.Status == PublicationStatusReserved
}

// PublicationPatch carries a partial publication update. Nil fields are left
// unchanged. Status and reserver are deliberately absent: the state machine
// owns them.
type PublicationPatch struct {
	Title       *string
	Description *string
	Price       *int64
	OwnerID     *int64
}

// Empty reports whether the patch carries no changes.
func (p PublicationPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil && p.OwnerID == nil
}

// PublicationFilter narrows listings by case-insensitive substring match.
// Both filters are ANDed when present.
type PublicationFilter struct {
	TitleContains       *string
	DescriptionContains *string
}
