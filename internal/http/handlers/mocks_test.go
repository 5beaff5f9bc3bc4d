package handlers_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/itcons/afisha/internal/catalog"
	"github.com/itcons/afisha/internal/domain"
	"github.com/itcons/afisha/internal/repo/postgres"
)

// ---------- Mocks ----------

type mockAccountRepo struct {
	mu         sync.Mutex
	nextID     int64
	admins     map[int64]*domain.AdminAccount
	organizers map[int64]*domain.OrganizerAccount
	users      map[int64]*domain.UserAccount
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{
		nextID:     1,
		admins:     make(map[int64]*domain.AdminAccount),
		organizers: make(map[int64]*domain.OrganizerAccount),
		users:      make(map[int64]*domain.UserAccount),
	}
}

func (m *mockAccountRepo) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *mockAccountRepo) FindAdminByID(_ context.Context, id int64) (*domain.AdminAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.admins[id], nil
}

func (m *mockAccountRepo) FindAdminByEmail(_ context.Context, email string) (*domain.AdminAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockAccountRepo) CreateAdmin(_ context.Context, email, hash string) (*domain.AdminAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &domain.AdminAccount{ID: m.id(), Email: email, PasswordHash: hash, Status: domain.AccountActive, CreatedAt: time.Now()}
	m.admins[a.ID] = a
	return a, nil
}

func (m *mockAccountRepo) UpdateAdmin(_ context.Context, id int64, hash, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.admins[id]; ok {
		a.PasswordHash = hash
		a.Status = status
	}
	return nil
}

func (m *mockAccountRepo) FindOrganizerByID(_ context.Context, id int64) (*domain.OrganizerAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.organizers[id], nil
}

func (m *mockAccountRepo) CreateOrganizer(_ context.Context, email string, phone *string, hash string) (*domain.OrganizerAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &domain.OrganizerAccount{ID: m.id(), Email: email, Phone: phone, PasswordHash: hash, Status: domain.AccountActive, CreatedAt: time.Now()}
	m.organizers[a.ID] = a
	return a, nil
}

func (m *mockAccountRepo) OrganizerEmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.organizers {
		if strings.EqualFold(a.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAccountRepo) OrganizerPhoneExists(_ context.Context, phone string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.organizers {
		if a.Phone != nil && *a.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAccountRepo) FindUserByID(_ context.Context, id int64) (*domain.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *mockAccountRepo) CreateUser(_ context.Context, email, phone *string, hash, firstName, lastName string) (*domain.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &domain.UserAccount{
		ID: m.id(), Email: email, Phone: phone, PasswordHash: hash,
		FirstName: firstName, LastName: lastName, Status: domain.AccountActive, CreatedAt: time.Now(),
	}
	m.users[a.ID] = a
	return a, nil
}

func (m *mockAccountRepo) UserEmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.users {
		if a.Email != nil && strings.EqualFold(*a.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAccountRepo) UserPhoneExists(_ context.Context, phone string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.users {
		if a.Phone != nil && *a.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAccountRepo) ResolveByLogin(ctx context.Context, login string) (*domain.ResolvedAccount, error) {
	if admin, _ := m.FindAdminByEmail(ctx, login); admin != nil {
		return &domain.ResolvedAccount{Role: domain.RoleAdmin, ID: admin.ID, Login: admin.Email, PasswordHash: admin.PasswordHash, Status: admin.Status}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.organizers {
		if strings.EqualFold(a.Email, login) || (a.Phone != nil && *a.Phone == login) {
			return &domain.ResolvedAccount{Role: domain.RoleOrganizer, ID: a.ID, Login: a.Login(), PasswordHash: a.PasswordHash, Status: a.Status}, nil
		}
	}
	for _, a := range m.users {
		if (a.Email != nil && strings.EqualFold(*a.Email, login)) || (a.Phone != nil && *a.Phone == login) {
			return &domain.ResolvedAccount{Role: domain.RoleUser, ID: a.ID, Login: a.Login(), PasswordHash: a.PasswordHash, Status: a.Status}, nil
		}
	}
	return nil, nil
}

type mockOrganizerRepo struct {
	mu            sync.Mutex
	nextProfileID int64
	nextDetailsID int64
	profiles      map[int64]*domain.OrganizerProfile // keyed by profile id
	details       map[int64]*domain.OrganizerDetails // keyed by profile id
}

func newMockOrganizerRepo() *mockOrganizerRepo {
	return &mockOrganizerRepo{
		nextProfileID: 1,
		nextDetailsID: 1,
		profiles:      make(map[int64]*domain.OrganizerProfile),
		details:       make(map[int64]*domain.OrganizerDetails),
	}
}

func (m *mockOrganizerRepo) GetOrCreateProfile(_ context.Context, accountID int64, defaultDisplayName string) (*domain.OrganizerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.AccountID == accountID {
			return p, nil
		}
	}
	p := &domain.OrganizerProfile{
		ID: m.nextProfileID, AccountID: accountID,
		DisplayName: defaultDisplayName, CreatedAt: time.Now(),
	}
	m.nextProfileID++
	m.profiles[p.ID] = p
	return p, nil
}

func (m *mockOrganizerRepo) GetProfileByID(_ context.Context, profileID int64) (*domain.OrganizerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[profileID], nil
}

func (m *mockOrganizerRepo) UpdateProfile(_ context.Context, p *domain.OrganizerProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
	return nil
}

func (m *mockOrganizerRepo) GetDetails(_ context.Context, profileID int64) (*domain.OrganizerDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.details[profileID], nil
}

func (m *mockOrganizerRepo) CreateDetails(_ context.Context, d *domain.OrganizerDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = m.nextDetailsID
	m.nextDetailsID++
	m.details[d.ProfileID] = d
	return nil
}

func (m *mockOrganizerRepo) UpdateDetails(_ context.Context, d *domain.OrganizerDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details[d.ProfileID] = d
	return nil
}

type mockCatalogRepo struct {
	mu         sync.Mutex
	nextID     int64
	categories map[string]*domain.Category
	venues     map[string]*domain.Venue
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{
		nextID:     1,
		categories: make(map[string]*domain.Category),
		venues:     make(map[string]*domain.Venue),
	}
}

func (m *mockCatalogRepo) GetOrCreateCategory(_ context.Context, name string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.categories[name]; ok {
		return c, nil
	}
	c := &domain.Category{ID: m.nextID, Name: name}
	m.nextID++
	m.categories[name] = c
	return c, nil
}

func (m *mockCatalogRepo) GetOrCreateVenue(_ context.Context, name, city, address string) (*domain.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := name + "|" + city + "|" + address
	if v, ok := m.venues[key]; ok {
		return v, nil
	}
	v := &domain.Venue{ID: m.nextID, Name: name, City: city, Address: address}
	m.nextID++
	m.venues[key] = v
	return v, nil
}

func (m *mockCatalogRepo) categoryName(id int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

func (m *mockCatalogRepo) venueByID(id int64) *domain.Venue {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.venues {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// eventState backs both the event and image mocks so GetOwned can see
// images written through the image repo.
type eventState struct {
	mu            sync.Mutex
	catalog       *mockCatalogRepo
	nextEventID   int64
	nextSessionID int64
	nextTicketID  int64
	nextImageID   int64
	events        map[int64]*domain.Event
	images        map[int64][]domain.EventImage
}

func newEventState(cat *mockCatalogRepo) *eventState {
	return &eventState{
		catalog:       cat,
		nextEventID:   1,
		nextSessionID: 1,
		nextTicketID:  1,
		nextImageID:   1,
		events:        make(map[int64]*domain.Event),
		images:        make(map[int64][]domain.EventImage),
	}
}

type mockEventRepo struct{ *eventState }
type mockImageRepo struct{ *eventState }

var _ postgres.EventRepo = mockEventRepo{}
var _ postgres.ImageRepo = mockImageRepo{}

func (m *eventState) hydrate(e *domain.Event) *domain.Event {
	cp := *e
	cp.CategoryName = m.catalog.categoryName(e.CategoryID)
	if v := m.catalog.venueByID(e.VenueID); v != nil {
		cp.VenueName, cp.VenueCity, cp.VenueAddress = v.Name, v.City, v.Address
	}
	cp.Sessions = append([]domain.EventSession(nil), e.Sessions...)
	sort.Slice(cp.Sessions, func(i, j int) bool { return cp.Sessions[i].StartsAt.Before(cp.Sessions[j].StartsAt) })
	return &cp
}

func (m mockEventRepo) ListPublic(_ context.Context) ([]*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.events))
	for id := range m.events {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []*domain.Event
	for _, id := range ids {
		out = append(out, m.hydrate(m.events[id]))
	}
	return out, nil
}

func (m mockEventRepo) ListByOrganizer(_ context.Context, profileID int64) ([]*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.events))
	for id, e := range m.events {
		if e.OrganizerID == profileID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	var out []*domain.Event
	for _, id := range ids {
		out = append(out, m.hydrate(m.events[id]))
	}
	return out, nil
}

func (m mockEventRepo) GetOwned(_ context.Context, eventID, profileID int64) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok || e.OrganizerID != profileID {
		return nil, nil
	}
	cp := m.hydrate(e)
	for _, img := range m.images[eventID] {
		if img.SortOrder > 0 {
			cp.Images = append(cp.Images, img)
		}
	}
	sort.Slice(cp.Images, func(i, j int) bool { return cp.Images[i].SortOrder < cp.Images[j].SortOrder })
	return cp, nil
}

func (m mockEventRepo) Insert(_ context.Context, e *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextEventID
	m.nextEventID++
	cp := *e
	m.events[e.ID] = &cp
	return nil
}

func (m mockEventRepo) Update(_ context.Context, e *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.events[e.ID]
	if !ok {
		return nil
	}
	sessions := stored.Sessions
	cp := *e
	cp.Sessions = sessions
	m.events[e.ID] = &cp
	return nil
}

func (m mockEventRepo) ReplaceSessions(_ context.Context, eventID int64, sessions []catalog.SessionInput, tickets []catalog.TicketInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return nil
	}
	e.Sessions = nil
	for _, in := range sessions {
		s := domain.EventSession{
			ID: m.nextSessionID, EventID: eventID,
			StartsAt: in.StartsAt, EndsAt: in.EndsAt, Capacity: in.Capacity,
		}
		m.nextSessionID++
		for _, t := range tickets {
			s.TicketTypes = append(s.TicketTypes, domain.TicketType{
				ID: m.nextTicketID, SessionID: s.ID,
				Name: t.Name, Price: t.Price, Currency: t.Currency, QtyTotal: t.QtyTotal,
			})
			m.nextTicketID++
		}
		e.Sessions = append(e.Sessions, s)
	}
	return nil
}

func (m mockEventRepo) SetCoverURL(_ context.Context, eventID int64, url *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.events[eventID]; ok {
		e.CoverImageURL = url
	}
	return nil
}

func (m mockImageRepo) Insert(_ context.Context, img *domain.EventImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	img.ID = m.nextImageID
	m.nextImageID++
	m.images[img.EventID] = append(m.images[img.EventID], *img)
	return nil
}

func (m mockImageRepo) GalleryCount(_ context.Context, eventID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, img := range m.images[eventID] {
		if img.SortOrder > 0 {
			n++
		}
	}
	return n, nil
}

func (m mockImageRepo) MaxGallerySort(_ context.Context, eventID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, img := range m.images[eventID] {
		if img.SortOrder > max {
			max = img.SortOrder
		}
	}
	return max, nil
}

func (m mockImageRepo) DeleteGallery(_ context.Context, eventID int64, ids []int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var kept []domain.EventImage
	var paths []string
	for _, img := range m.images[eventID] {
		if img.SortOrder > 0 && wanted[img.ID] {
			paths = append(paths, img.Path)
			continue
		}
		kept = append(kept, img)
	}
	m.images[eventID] = kept
	return paths, nil
}

func (m mockImageRepo) DeleteCover(_ context.Context, eventID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []domain.EventImage
	var paths []string
	for _, img := range m.images[eventID] {
		if img.SortOrder == 0 {
			paths = append(paths, img.Path)
			continue
		}
		kept = append(kept, img)
	}
	m.images[eventID] = kept
	return paths, nil
}

type mockVerificationRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.OrganizerVerification
}

func newMockVerificationRepo() *mockVerificationRepo {
	return &mockVerificationRepo{nextID: 1, byID: make(map[int64]*domain.OrganizerVerification)}
}

func (m *mockVerificationRepo) GetOrCreate(_ context.Context, profileID int64) (*domain.OrganizerVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.byID {
		if v.ProfileID == profileID {
			return v, nil
		}
	}
	v := &domain.OrganizerVerification{ID: m.nextID, ProfileID: profileID, Status: domain.VerificationNotSubmitted}
	m.nextID++
	m.byID[v.ID] = v
	return v, nil
}

func (m *mockVerificationRepo) GetByID(_ context.Context, id int64) (*domain.OrganizerVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *mockVerificationRepo) Update(_ context.Context, v *domain.OrganizerVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[v.ID] = v
	return nil
}

func (m *mockVerificationRepo) ListPending(_ context.Context) ([]postgres.PendingVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []postgres.PendingVerification
	for _, v := range m.byID {
		if v.Pending() {
			out = append(out, postgres.PendingVerification{OrganizerVerification: *v})
		}
	}
	return out, nil
}

type mockPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (m *mockPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.subjects) == 0 {
		return ""
	}
	return m.subjects[len(m.subjects)-1]
}

type mockMailer struct {
	mu        sync.Mutex
	lastTo    string
	lastLogin string
}

func (m *mockMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = toEmail
	return "mock-id", nil
}

func (m *mockMailer) SendCredentials(email, name, login, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = email
	m.lastLogin = login
	return nil
}

func (m *mockMailer) SendVerificationResult(email, name, status, comment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = email
	return nil
}
