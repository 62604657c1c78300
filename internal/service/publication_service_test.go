package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/marketplace-service/internal/cache"
	"github.com/spec-kit/marketplace-service/internal/config"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/events"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util/errorutil"
)

// -------- test fakes --------

// fakeUserRepo holds users in memory.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*domain.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) ApplyPatch(ctx context.Context, id int64, patch domain.UserPatch) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok || user.DeletedAt != nil {
		return false, nil
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		user.PasswordHash = *patch.PasswordHash
	}
	return true, nil
}

func (f *fakeUserRepo) MarkDeleted(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok || user.DeletedAt != nil {
		return false, nil
	}
	now := time.Now()
	user.DeletedAt = &now
	return true, nil
}

func (f *fakeUserRepo) GetActiveByID(ctx context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email && user.DeletedAt == nil {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) ListActive(ctx context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.User
	for id := int64(1); id <= f.nextID; id++ {
		if user, ok := f.users[id]; ok && user.DeletedAt == nil {
			result = append(result, *user)
		}
	}
	return result, nil
}

// fakePublicationRepo mirrors the conditional-write semantics of the SQL
// implementation: each transition checks current state under one lock.
type fakePublicationRepo struct {
	mu           sync.Mutex
	nextID       int64
	publications map[int64]*domain.Publication
	users        *fakeUserRepo
}

func newFakePublicationRepo(users *fakeUserRepo) *fakePublicationRepo {
	return &fakePublicationRepo{publications: map[int64]*domain.Publication{}, users: users}
}

func (f *fakePublicationRepo) ownerActive(ownerID int64) bool {
	user, ok := f.users.users[ownerID]
	return ok && user.DeletedAt == nil
}

func (f *fakePublicationRepo) Create(ctx context.Context, publication *domain.Publication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	publication.ID = f.nextID
	publication.CreatedAt = time.Now()
	publication.UpdatedAt = publication.CreatedAt
	clone := *publication
	f.publications[publication.ID] = &clone
	return nil
}

func (f *fakePublicationRepo) GetActiveByID(ctx context.Context, id int64) (*domain.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	publication, ok := f.publications[id]
	if !ok || publication.DeletedAt != nil || !f.ownerActive(publication.OwnerID) {
		return nil, pgx.ErrNoRows
	}
	clone := *publication
	return &clone, nil
}

func (f *fakePublicationRepo) GetByID(ctx context.Context, id int64) (*domain.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	publication, ok := f.publications[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *publication
	return &clone, nil
}

func (f *fakePublicationRepo) ListActiveByOwner(ctx context.Context, ownerID int64) ([]domain.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Publication
	for id := int64(1); id <= f.nextID; id++ {
		publication, ok := f.publications[id]
		if !ok || publication.OwnerID != ownerID || publication.DeletedAt != nil || !f.ownerActive(ownerID) {
			continue
		}
		result = append(result, *publication)
	}
	return result, nil
}

func (f *fakePublicationRepo) ListActiveFiltered(ctx context.Context, filter domain.PublicationFilter) ([]domain.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Publication
	for id := int64(1); id <= f.nextID; id++ {
		publication, ok := f.publications[id]
		if !ok || publication.DeletedAt != nil || !f.ownerActive(publication.OwnerID) {
			continue
		}
		if filter.TitleContains != nil &&
			!strings.Contains(strings.ToLower(publication.Title), strings.ToLower(*filter.TitleContains)) {
			continue
		}
		if filter.DescriptionContains != nil &&
			!strings.Contains(strings.ToLower(publication.Description), strings.ToLower(*filter.DescriptionContains)) {
			continue
		}
		result = append(result, *publication)
	}
	return result, nil
}

func (f *fakePublicationRepo) ApplyPatch(ctx context.Context, id int64, patch domain.PublicationPatch) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	publication, ok := f.publications[id]
	if !ok || publication.DeletedAt != nil {
		return false, nil
	}
	if patch.Title != nil {
		publication.Title = *patch.Title
	}
	if patch.Description != nil {
		publication.Description = *patch.Description
	}
	if patch.Price != nil {
		publication.Price = *patch.Price
	}
	if patch.OwnerID != nil {
		publication.OwnerID = *patch.OwnerID
	}
	publication.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakePublicationRepo) MarkReserved(ctx context.Context, id, reserverID int64, allowOwner bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	publication, ok := f.publications[id]
	if !ok || publication.DeletedAt != nil || publication.Status != domain.PublicationStatusAvailable {
		return false, nil
	}
	if !f.ownerActive(publication.OwnerID) {
		return false, nil
	}
	if !allowOwner && publication.OwnerID == reserverID {
		return false, nil
	}
	publication.Status = domain.PublicationStatusReserved
	publication.ReserverID = &reserverID
	publication.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakePublicationRepo) MarkUnreserved(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	publication, ok := f.publications[id]
	if !ok || publication.DeletedAt != nil || publication.Status != domain.PublicationStatusReserved {
		return false, nil
	}
	publication.Status = domain.PublicationStatusAvailable
	publication.ReserverID = nil
	publication.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakePublicationRepo) MarkRetired(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	publication, ok := f.publications[id]
	if !ok || publication.DeletedAt != nil || publication.Status != domain.PublicationStatusAvailable {
		return false, nil
	}
	now := time.Now()
	publication.DeletedAt = &now
	publication.UpdatedAt = now
	return true, nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := make([]events.EventType, 0, len(d.events))
	for _, event := range d.events {
		result = append(result, event.Type)
	}
	return result
}

// -------- helpers --------

type fixture struct {
	users        *fakeUserRepo
	publications *fakePublicationRepo
	dispatcher   *recordingDispatcher
	service      *PublicationService
}

func newFixture(t *testing.T, policy config.ReservationConfig) *fixture {
	t.Helper()
	users := newFakeUserRepo()
	publications := newFakePublicationRepo(users)
	dispatcher := &recordingDispatcher{}
	svc := NewPublicationService(PublicationDependencies{
		PublicationRepo: publications,
		UserRepo:        users,
		Dispatcher:      dispatcher,
		Policy:          policy,
	})
	return &fixture{users: users, publications: publications, dispatcher: dispatcher, service: svc}
}

// newCachedFixture wires a real Redis-backed read cache so the hit path is
// exercised, not just the repository path.
func newCachedFixture(t *testing.T, policy config.ReservationConfig) *fixture {
	t.Helper()
	f := newFixture(t, policy)
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	f.service = NewPublicationService(PublicationDependencies{
		PublicationRepo: f.publications,
		UserRepo:        f.users,
		Cache:           cache.NewPublicationCache(client, time.Minute),
		Dispatcher:      f.dispatcher,
		Policy:          policy,
	})
	return f
}

func (f *fixture) addUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user := &domain.User{
		FirstName: "Test", SecondName: "User", LastName: "Last", SecondLastName: "Name",
		Email: email, PasswordHash: "hash", Role: domain.UserRoleRegular,
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func permissive() config.ReservationConfig {
	return config.ReservationConfig{AllowOwnerReserve: true}
}

func checkInvariant(t *testing.T, publication *domain.Publication) {
	t.Helper()
	reserved := publication.Status == domain.PublicationStatusReserved
	hasReserver := publication.ReserverID != nil
	if reserved != hasReserver {
		t.Fatalf("invariant broken: status=%s reserver=%v", publication.Status, publication.ReserverID)
	}
}

// -------- tests --------

func TestCreateRoundTrip(t *testing.T) {
	f := newFixture(t, permissive())
	owner := f.addUser(t, "owner@example.com")
	ctx := context.Background()

	created, err := f.service.Create(ctx, owner.ID, PublicationCreateInput{Title: "T", Description: "D", Price: 100})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected store-assigned id")
	}

	got, err := f.service.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got == nil {
		t.Fatalf("expected publication, got nil")
	}
	if got.Title != "T" || got.Description != "D" || got.Price != 100 {
		t.Fatalf("unexpected fields: %+v", got)
	}
	if got.Status != domain.PublicationStatusAvailable || got.ReserverID != nil {
		t.Fatalf("expected AVAILABLE with no reserver, got %s %v", got.Status, got.ReserverID)
	}
	checkInvariant(t, got)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, permissive())
	owner := f.addUser(t, "owner@example.com")
	ctx := context.Background()

	cases := []struct {
		name  string
		input PublicationCreateInput
		field string
	}{
		{"empty title", PublicationCreateInput{Title: " ", Description: "D", Price: 1}, "title"},
		{"empty description", PublicationCreateInput{Title: "T", Description: "", Price: 1}, "description"},
		{"negative price", PublicationCreateInput{Title: "T", Description: "D", Price: -1}, "price"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Create(ctx, owner.ID, tc.input)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			domainErr := apperrors.ToDomainError(err)
			if domainErr.Code != "VALIDATION_FAILED" {
				t.Fatalf("expected VALIDATION_FAILED, got %s", domainErr.Code)
			}
			if _, ok := domainErr.Details[tc.field]; !ok {
				t.Fatalf("expected detail for %q, got %v", tc.field, domainErr.Details)
			}
		})
	}
}

func TestCreateUnknownOwner(t *testing.T) {
	f := newFixture(t, permissive())
	ctx := context.Background()

	_, err := f.service.Create(ctx, 42, PublicationCreateInput{Title: "T", Description: "D", Price: 1})
	if err == nil {
		t.Fatalf("expected error for unknown owner")
	}
	if apperrors.ToDomainError(err).Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %s", apperrors.ToDomainError(err).Code)
	}
}

func TestUpdateMergesOnlySuppliedFields(t *testing.T) {
	f := newFixture(t, permissive())
	owner := f.addUser(t, "owner@example.com")
	ctx := context.Background()

	created, err := f.service.Create(ctx, owner.ID, PublicationCreateInput{Title: "T", Description: "D", Price: 100})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	price := int64(50)
	ok, err := f.service.Update(ctx, created.ID, domain.PublicationPatch{Price: &price})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if !ok {
		t.Fatalf("expected update to succeed")
	}

	got, err := f.service.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Price != 50 || got.Title != "T" || got.Description != "D" {
		t.Fatalf("partial update touched other fields: %+v", got)
	}
}

func TestUpdateAbsent(t *testing.T) {
	f := newFixture(t, permissive())
	title := "X"
	ok, err := f.service.Update(context.Background(), 99, domain.PublicationPatch{Title: &title})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if ok {
		t.Fatalf("expected false for absent publication")
	}
}

func TestUpdateEmptyPatch(t *testing.T) {
	f := newFixture(t, permissive())
	_, err := f.service.Update(context.Background(), 1, domain.PublicationPatch{})
	if err == nil {
		t.Fatalf("expected validation error for empty patch")
	}
}

func TestReserveLifecycle(t *testing.T) {
	f := newFixture(t, permissive())
	owner := f.addUser(t, "owner@example.com")
	reserver := f.addUser(t, "reserver@example.com")
	ctx := context.Background()

	created, err := f.service.Create(ctx, owner.ID, PublicationCreateInput{Title: "Bike", Description: "Red", Price: 10})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	ok, err := f.service.Reserve(ctx, created.ID, reserver.ID)
	if err != nil {
		t.Fatalf("Reserve error: %v", err)
	}
	if !ok {
		t.Fatalf("expected reserve to succeed")
	}

	got, _ := f.service.GetByID(ctx, created.ID)
	if got.Status != domain.PublicationStatusReserved || got.ReserverID == nil || *got.ReserverID != reserver.ID {
		t.Fatalf("unexpected state after reserve: %+v", got)
	}
	checkInvariant(t, got)

	// second reserve is a no-op failure and must not reassign the reserver
	other := f.addUser(t, "other@example.com")
	ok, err = f.service.Reserve(ctx, created.ID, other.ID)
	if err != nil {
		t.Fatalf("Reserve error: %v", err)
	}
	if ok {
		t.Fatalf("expected second reserve to fail")
	}
	got, _ = f.service.GetByID(ctx, created.ID)
	if *got.ReserverID != reserver.ID {
		t.Fatalf("reserver reassigned: %v", *got.ReserverID)
	}

	ok, err = f.service.Unreserve(ctx, created.ID)
	if err != nil {
		t.Fatalf("Unreserve error: %v", err)
	}
	if !ok {
		t.Fatalf("expected unreserve to succeed")
	}
	got, _ = f.service.GetByID(ctx, created.ID)
	if got.Status != domain.PublicationStatusAvailable || got.ReserverID != nil {
		t.Fatalf("unexpected state after unreserve: %+v", got)
	}
	checkInvariant(t, got)

	// unreserve on an available publication is a no-op failure
	ok, err = f.service.Unreserve(ctx, created.ID)
	if err != nil {
		t.Fatalf("Unreserve error: %v", err)
	}
	if ok {
		t.Fatalf("expected unreserve on AVAILABLE to fail")
	}
}

func TestReserveConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t, permissive())
	owner := f.addUser(t, "owner@example.com")
	ctx := context.Background()

	created, err := f.service.Create(ctx, owner.ID, PublicationCreateInput{Title: "Bike", Description: "Red", Price: 10})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	const workers = 8
	reservers := make([]*domain.User, workers)
	for i := range reservers {
		reservers[i] = f.addUser(t, "r"+string(rune('a'+i))+"@example.com")
	}

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	wins := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		go func(reserverID int64) {
			defer wg.Done()
			<-start
			ok, reserveErr := f.service.Reserve(ctx, created.ID, reserverID)
			if reserveErr != nil {
				t.Errorf("Reserve error: %v", reserveErr)
				return
			}
			if ok {
				wins <- reserverID
			}
		}(reservers[i].ID)
	}
	close(start)
	wg.Wait()
	close(wins)

	var winners []int64
	for id := range wins {
		winners = append(winners, id)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly one winner, got %d", len(winners))
	}

	got, _ := f.service.GetByID(ctx, created.ID)
	checkInvariant(t, got)
	if *got.ReserverID != winners[0] {
		t.Fatalf("reserver %d does not match winner %d", *got.ReserverID, winners[0])
	}
}

func TestReserveOwnPublicationPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("permissive default", func(t *testing.T) {
		f := newFixture(t, permissive())
		owner := f.addUser(t, "owner@example.com")
		created, _ := f.service.Create(ctx, owner.ID, PublicationCreateInput{Title: "T", Description: "D", Price: 1})
		ok, err := f.service.Reserve(ctx, created.ID, owner.ID)
		if err != nil {
			t.Fatalf("Reserve error: %v", err)
		}
		if !ok {
			t.Fatalf("expected own-reserve to succeed under permissive policy")
		}
	})

	t.Run("owner excluded", func(t *testing.T) {
		f := newFixture(t, config.ReservationConfig{AllowOwnerReserve: false})
		owner := f.addUser(t, "owner@example.com")
		created, _ := f.service.Create(ctx, owner.ID, PublicationCreateInput{Title: "T", Description: "D", Price: 1})
		ok, err := f.service.Reserve(ctx, created.ID, owner.ID)
		if err != nil {
			t.Fatalf("Reserve error: %v", err)
		}
		if ok {
			t.Fatalf("expected own-reserve to fail when policy disallows it")
		}
	})
}

func TestReserveUnknownReserver(t *testing.T) {
	f := newFixture(t, permissive())
	owner := f.addUser(t, "owner@example.com")
	ctx := context.Background()
	created, _ := f.service.Create(ctx, owner.ID, PublicationCreateInput{Title: "T", Description: "D", Price: 1})

	ok, err := f.service.Reserve(ctx, created.ID, 42)
	if err != nil {
		t.Fatalf("Reserve error: %v", err)
	}
	if ok {
		t.Fatalf("expected reserve with unknown reserver to fail")
	}
}

func TestRetire(t *testing.T) {
	f := newFixture(t, permissive())
	owner := f.addUser(t, "owner@example.com")
	reserver := f.addUser(t, "reserver@example.com")
	ctx := context.Background()

	created, _ := f.service.Create(ctx, owner.ID, PublicationCreateInput{Title: "T", Description: "D", Price: 1})

	if _, err := f.service.Reserve(ctx, created.ID, reserver.ID); err != nil {
		t.Fatalf("Reserve error: %v", err)
	}

	// reserved publications cannot be retired
	ok, err := f.service.Retire(ctx, created.ID)
	if err == nil || !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict, got ok=%v err=%v", ok, err)
	}

	if _, err := f.service.Unreserve(ctx, created.ID); err != nil {
		t.Fatalf("Unreserve error: %v", err)
	}

	ok, err = f.service.Retire(ctx, created.ID)
	if err != nil {
		t.Fatalf("Retire error: %v", err)
	}
	if !ok {
		t.Fatalf("expected retire to succeed")
	}

	// retired publications disappear from every read path
	got, err := f.service.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil after retire, got %+v", got)
	}
	byOwner, _ := f.service.ListByOwner(ctx, owner.ID)
	if len(byOwner) != 0 {
		t.Fatalf("retired publication still listed by owner")
	}
	all, _ := f.service.ListAll(ctx, domain.PublicationFilter{})
	if len(all) != 0 {
		t.Fatalf("retired publication still listed")
	}

	// retiring again reports absence, not an error
	ok, err = f.service.Retire(ctx, created.ID)
	if err != nil {
		t.Fatalf("Retire error: %v", err)
	}
	if ok {
		t.Fatalf("expected false for already-retired publication")
	}
}

func TestRetireAbsent(t *testing.T) {
	f := newFixture(t, permissive())
	ok, err := f.service.Retire(context.Background(), 123)
	if err != nil {
		t.Fatalf("Retire error: %v", err)
	}
	if ok {
		t.Fatalf("expected false for absent publication")
	}
}

func TestListAllFilters(t *testing.T) {
	f := newFixture(t, permissive())
	owner := f.addUser(t, "owner@example.com")
	ctx := context.Background()

	if _, err := f.service.Create(ctx, owner.ID, PublicationCreateInput{Title: "Red Bike", Description: "Fast", Price: 1}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := f.service.Create(ctx, owner.ID, PublicationCreateInput{Title: "Blue Car", Description: "Slow", Price: 2}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	title := "bike"
	result, err := f.service.ListAll(ctx, domain.PublicationFilter{TitleContains: &title})
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if len(result) != 1 || result[0].Title != "Red Bike" {
		t.Fatalf("case-insensitive title filter failed: %+v", result)
	}

	description := "slow"
	result, err = f.service.ListAll(ctx, domain.PublicationFilter{TitleContains: &title, DescriptionContains: &description})
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if len(result) != 0 {
		t.Fatalf("expected ANDed filters to exclude everything, got %+v", result)
	}
}

func TestSoftDeletedOwnerHidesPublication(t *testing.T) {
	f := newFixture(t, permissive())
	owner := f.addUser(t, "owner@example.com")
	ctx := context.Background()

	created, _ := f.service.Create(ctx, owner.ID, PublicationCreateInput{Title: "T", Description: "D", Price: 1})

	if _, err := f.users.MarkDeleted(ctx, owner.ID); err != nil {
		t.Fatalf("MarkDeleted error: %v", err)
	}

	got, err := f.service.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for publication of soft-deleted owner")
	}
	all, _ := f.service.ListAll(ctx, domain.PublicationFilter{})
	if len(all) != 0 {
		t.Fatalf("publication of soft-deleted owner still listed")
	}
}

func TestSoftDeletedOwnerHidesCachedPublication(t *testing.T) {
	f := newCachedFixture(t, permissive())
	owner := f.addUser(t, "owner@example.com")
	ctx := context.Background()

	created, _ := f.service.Create(ctx, owner.ID, PublicationCreateInput{Title: "T", Description: "D", Price: 1})

	// warm the cache
	got, err := f.service.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got == nil {
		t.Fatalf("expected publication before owner deletion")
	}

	if _, err := f.users.MarkDeleted(ctx, owner.ID); err != nil {
		t.Fatalf("MarkDeleted error: %v", err)
	}

	got, err = f.service.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got != nil {
		t.Fatalf("cached publication of soft-deleted owner still served: %+v", got)
	}
}

func TestCachedReadSurvivesForActiveOwner(t *testing.T) {
	f := newCachedFixture(t, permissive())
	owner := f.addUser(t, "owner@example.com")
	ctx := context.Background()

	created, _ := f.service.Create(ctx, owner.ID, PublicationCreateInput{Title: "T", Description: "D", Price: 1})

	if _, err := f.service.GetByID(ctx, created.ID); err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	got, err := f.service.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got == nil || got.ID != created.ID || got.Title != "T" {
		t.Fatalf("unexpected cached read: %+v", got)
	}
}

func TestLifecycleEvents(t *testing.T) {
	f := newFixture(t, permissive())
	owner := f.addUser(t, "owner@example.com")
	reserver := f.addUser(t, "reserver@example.com")
	ctx := context.Background()

	created, _ := f.service.Create(ctx, owner.ID, PublicationCreateInput{Title: "T", Description: "D", Price: 1})
	_, _ = f.service.Reserve(ctx, created.ID, reserver.ID)
	_, _ = f.service.Unreserve(ctx, created.ID)
	_, _ = f.service.Retire(ctx, created.ID)

	want := []events.EventType{
		events.EventPublicationCreated,
		events.EventPublicationReserved,
		events.EventPublicationUnreserved,
		events.EventPublicationRetired,
	}
	got := f.dispatcher.types()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
