package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/marketplace-service/internal/cache"
	"github.com/spec-kit/marketplace-service/internal/config"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/events"
	"github.com/spec-kit/marketplace-service/internal/repository"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util/errorutil"
)

// PublicationService enforces the publication state machine: creation,
// partial update, reservation, un-reservation and retirement. State
// transitions are delegated to the repository as single conditional writes;
// the service itself holds no mutable state.
//
// Expected business outcomes (absent row, already reserved, not reserved)
// surface as booleans. Errors are reserved for malformed input, the
// retire-while-reserved conflict and storage failures.
type PublicationService struct {
	publications repository.PublicationRepository
	users        repository.UserRepository
	readCache    *cache.PublicationCache
	dispatcher   events.Dispatcher
	policy       config.ReservationConfig
}

// PublicationDependencies bundles collaborators for the publication service.
type PublicationDependencies struct {
	PublicationRepo repository.PublicationRepository
	UserRepo        repository.UserRepository
	Cache           *cache.PublicationCache
	Dispatcher      events.Dispatcher
	Policy          config.ReservationConfig
}

// PublicationCreateInput describes the publication creation payload.
type PublicationCreateInput struct {
	Title       string
	Description string
	Price       int64
}

// NewPublicationService constructs the service.
func NewPublicationService(deps PublicationDependencies) *PublicationService {
	return &PublicationService{
		publications: deps.PublicationRepo,
		users:        deps.UserRepo,
		readCache:    deps.Cache,
		dispatcher:   deps.Dispatcher,
		policy:       deps.Policy,
	}
}

// Create validates input, checks the owner is active and persists a new
// AVAILABLE publication with no reserver. The store assigns the identifier.
func (s *PublicationService) Create(ctx context.Context, ownerID int64, input PublicationCreateInput) (*domain.Publication, error) {
	details := map[string]any{}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		details["title"] = "title is required"
	}
	if description == "" {
		details["description"] = "description is required"
	}
	if input.Price < 0 {
		details["price"] = "price must not be negative"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid publication", details)
	}

	if _, err := s.users.GetActiveByID(ctx, ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("owner", map[string]any{"owner_id": ownerID})
		}
		return nil, apperrors.NewStorageError("load owner", err)
	}

	publication := &domain.Publication{
		Title:       title,
		Description: description,
		Price:       input.Price,
		Status:      domain.PublicationStatusAvailable,
		OwnerID:     ownerID,
	}
	if err := s.publications.Create(ctx, publication); err != nil {
		return nil, apperrors.NewStorageError("create publication", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:          events.EventPublicationCreated,
		PublicationID: publication.ID,
		Actor:         userActor(ownerID),
		Payload: events.PublicationCreatedPayload{
			OwnerID: ownerID,
			Title:   publication.Title,
			Price:   publication.Price,
		},
	})
	return publication, nil
}

// Update merges only the supplied patch fields into the existing record.
// Status and reserver are never touched here. Returns false when no active
// record exists for id.
func (s *PublicationService) Update(ctx context.Context, id int64, patch domain.PublicationPatch) (bool, error) {
	details := map[string]any{}
	if patch.Empty() {
		return false, apperrors.NewValidationError("no fields to update", nil)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		details["title"] = "title must not be empty"
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		details["description"] = "description must not be empty"
	}
	if patch.Price != nil && *patch.Price < 0 {
		details["price"] = "price must not be negative"
	}
	if len(details) > 0 {
		return false, apperrors.NewValidationError("invalid publication patch", details)
	}

	if patch.OwnerID != nil {
		if _, err := s.users.GetActiveByID(ctx, *patch.OwnerID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, apperrors.NewValidationError("new owner not found",
					map[string]any{"owner_id": *patch.OwnerID})
			}
			return false, apperrors.NewStorageError("load owner", err)
		}
	}

	ok, err := s.publications.ApplyPatch(ctx, id, patch)
	if err != nil {
		return false, apperrors.NewStorageError("update publication", err)
	}
	if !ok {
		return false, nil
	}

	s.invalidate(ctx, id)
	s.publishEvent(ctx, events.Event{
		Type:          events.EventPublicationUpdated,
		PublicationID: id,
	})
	return true, nil
}

// Retire soft-deletes an AVAILABLE publication. The conditional write runs
// first; the follow-up read only classifies a refusal as conflict versus
// absence and never gates the transition itself.
func (s *PublicationService) Retire(ctx context.Context, id int64) (bool, error) {
	ok, err := s.publications.MarkRetired(ctx, id)
	if err != nil {
		return false, apperrors.NewStorageError("retire publication", err)
	}
	if ok {
		s.invalidate(ctx, id)
		s.publishEvent(ctx, events.Event{
			Type:          events.EventPublicationRetired,
			PublicationID: id,
			Payload:       events.PublicationRetiredPayload{},
		})
		return true, nil
	}

	publication, err := s.publications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, apperrors.NewStorageError("load publication", err)
	}
	if publication.Active() && publication.Reserved() {
		return false, apperrors.NewConflict("cannot retire a reserved item",
			map[string]any{"publication_id": id})
	}
	return false, nil
}

// GetByID returns the active publication whose owner is also active, or nil.
// Absence is a valid no-result signal, not an error. A cache hit re-verifies
// the owner is still active: owner deletion does not invalidate publication
// entries, so the hit path must not outlive the owner.
func (s *PublicationService) GetByID(ctx context.Context, id int64) (*domain.Publication, error) {
	if publication, hit := s.readCache.Get(ctx, id); hit {
		active, err := s.ownerActive(ctx, publication.OwnerID)
		if err != nil {
			return nil, err
		}
		if active {
			return publication, nil
		}
		s.invalidate(ctx, id)
		return nil, nil
	}

	publication, err := s.publications.GetActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewStorageError("load publication", err)
	}

	s.readCache.Set(ctx, publication)
	return publication, nil
}

// ListByOwner returns all active publications owned by an active user.
func (s *PublicationService) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Publication, error) {
	publications, err := s.publications.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.NewStorageError("list publications by owner", err)
	}
	return publications, nil
}

// ListAll returns active publications of active owners, optionally narrowed
// by case-insensitive substring filters on title and/or description.
func (s *PublicationService) ListAll(ctx context.Context, filter domain.PublicationFilter) ([]domain.Publication, error) {
	publications, err := s.publications.ListActiveFiltered(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStorageError("list publications", err)
	}
	return publications, nil
}

// Reserve transitions AVAILABLE -> RESERVED and sets the reserver. Returns
// false when the publication is absent, soft-deleted or already reserved;
// a losing concurrent caller observes false, never a reassigned reserver.
func (s *PublicationService) Reserve(ctx context.Context, id, reserverID int64) (bool, error) {
	if _, err := s.users.GetActiveByID(ctx, reserverID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, apperrors.NewStorageError("load reserver", err)
	}

	ok, err := s.publications.MarkReserved(ctx, id, reserverID, s.policy.AllowOwnerReserve)
	if err != nil {
		return false, apperrors.NewStorageError("reserve publication", err)
	}
	if !ok {
		return false, nil
	}

	s.invalidate(ctx, id)
	s.publishEvent(ctx, events.Event{
		Type:          events.EventPublicationReserved,
		PublicationID: id,
		Actor:         userActor(reserverID),
		Payload:       events.PublicationReservedPayload{ReserverID: reserverID},
	})
	return true, nil
}

// Unreserve transitions RESERVED -> AVAILABLE and clears the reserver.
// Returns false when the publication is absent or not currently reserved.
// Who may release a reservation is a role-policy concern outside the engine.
func (s *PublicationService) Unreserve(ctx context.Context, id int64) (bool, error) {
	ok, err := s.publications.MarkUnreserved(ctx, id)
	if err != nil {
		return false, apperrors.NewStorageError("unreserve publication", err)
	}
	if !ok {
		return false, nil
	}

	s.invalidate(ctx, id)
	s.publishEvent(ctx, events.Event{
		Type:          events.EventPublicationUnreserved,
		PublicationID: id,
		Payload:       events.PublicationUnreservedPayload{},
	})
	return true, nil
}

func (s *PublicationService) ownerActive(ctx context.Context, ownerID int64) (bool, error) {
	if _, err := s.users.GetActiveByID(ctx, ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, apperrors.NewStorageError("load owner", err)
	}
	return true, nil
}

func (s *PublicationService) invalidate(ctx context.Context, id int64) {
	s.readCache.Invalidate(ctx, id)
}

func (s *PublicationService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func userActor(userID int64) events.Actor {
	return events.Actor{UserID: &userID}
}
