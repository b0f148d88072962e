package process_message

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	catalogRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/catalog"
	convRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/conversation"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/holds"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/tenants"
	"github.com/m04kA/SMC-ReservationEngine/internal/usecase/create_booking"
	"github.com/m04kA/SMC-ReservationEngine/pkg/keymutex"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
)

// ===== Fakes =====

type fakeTenants struct{ tenant *domain.Tenant }

func (f *fakeTenants) Resolve(_ context.Context, ref string) (*domain.Tenant, error) {
	if ref == f.tenant.Slug || ref == strconv.FormatInt(f.tenant.ID, 10) {
		return f.tenant, nil
	}
	return nil, tenants.ErrTenantNotFound
}

type fakeMessageLog struct {
	mu        sync.Mutex
	seen      map[string]bool
	err       error
	forgotten []string
}

func (f *fakeMessageLog) Register(_ context.Context, tenantID int64, messageID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	k := fmt.Sprintf("%d:%s", tenantID, messageID)
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}

func (f *fakeMessageLog) Forget(_ context.Context, tenantID int64, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, fmt.Sprintf("%d:%s", tenantID, messageID))
	f.forgotten = append(f.forgotten, messageID)
	return nil
}

type fakeConversations struct {
	mu      sync.Mutex
	states  map[string]domain.ConversationState
	saves   int
	getErr  error
	saveErr error
}

func (f *fakeConversations) Get(_ context.Context, tenantID int64, contactID string) (*domain.ConversationState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	st, ok := f.states[domain.ConversationKey(tenantID, contactID)]
	if !ok {
		return nil, convRepo.ErrStateNotFound
	}
	return &st, nil
}

func (f *fakeConversations) Save(_ context.Context, state *domain.ConversationState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.states[state.Key()] = *state
	return nil
}

type fakeCatalog struct {
	services []domain.Service
	staff    []domain.StaffMember
	listErr  error
}

func (f *fakeCatalog) ListActiveServices(context.Context, int64) ([]domain.Service, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.services, nil
}

func (f *fakeCatalog) GetService(_ context.Context, _ int64, serviceID int64) (*domain.Service, error) {
	for i := range f.services {
		if f.services[i].ID == serviceID {
			return &f.services[i], nil
		}
	}
	return nil, catalogRepo.ErrServiceNotFound
}

func (f *fakeCatalog) GetStaff(_ context.Context, _ int64, staffID int64) (*domain.StaffMember, error) {
	for i := range f.staff {
		if f.staff[i].ID == staffID {
			return &f.staff[i], nil
		}
	}
	return nil, catalogRepo.ErrStaffNotFound
}

type fakeAvailability struct {
	mu      sync.Mutex
	staff   []domain.StaffMember
	slots   []domain.AvailableSlot
	queries []availability.Query
}

func (f *fakeAvailability) EligibleStaff(context.Context, int64, int64, *int64) ([]domain.StaffMember, error) {
	return f.staff, nil
}

func (f *fakeAvailability) GetSlots(_ context.Context, q availability.Query) (*availability.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)

	slots := make([]domain.AvailableSlot, 0)
	for _, s := range f.slots {
		if q.StaffID == nil || *q.StaffID == s.StaffID {
			slots = append(slots, s)
		}
	}
	return &availability.Result{Staff: f.staff, Location: time.UTC, Slots: slots}, nil
}

type fakeHolds struct {
	mu            sync.Mutex
	createErr     error
	created       []holds.CreateRequest
	converted     map[uuid.UUID]int64
	released      []uuid.UUID
	conversations []string
}

func (f *fakeHolds) Create(_ context.Context, req holds.CreateRequest) (*domain.ReservationHold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &domain.ReservationHold{ID: uuid.New(), StaffID: req.StaffID, StartsAt: req.StartsAt, EndsAt: req.EndsAt, Status: domain.HoldActive}, nil
}

func (f *fakeHolds) Convert(_ context.Context, holdID uuid.UUID, bookingID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.converted[holdID] = bookingID
	return nil
}

func (f *fakeHolds) Release(_ context.Context, holdID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, holdID)
	return nil
}

func (f *fakeHolds) ReleaseConversation(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversations = append(f.conversations, key)
	return nil
}

type fakeBookings struct {
	catalog  *fakeCatalog
	err      error
	benefit  domain.BenefitSource
	requests []*create_booking.Request
}

func (f *fakeBookings) Execute(ctx context.Context, req *create_booking.Request) (*create_booking.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	service, _ := f.catalog.GetService(ctx, 1, req.ServiceID)
	status := domain.StatusConfirmed
	if req.PaymentMethod == domain.PaymentOnline && f.benefit.IsNone() {
		status = domain.StatusPendingPayment
	}
	return &create_booking.Response{
		Booking: &domain.Booking{
			ID:        77,
			ServiceID: req.ServiceID,
			StaffID:   *req.StaffID,
			StartsAt:  req.StartsAt,
			EndsAt:    req.StartsAt.Add(time.Duration(service.DurationMinutes) * time.Minute),
			Status:    status,
		},
		Benefit: f.benefit,
		Service: service,
	}, nil
}

type recordingMetrics struct {
	mu      sync.Mutex
	results []string
}

func (m *recordingMetrics) ConversationMessage(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
}

func (m *recordingMetrics) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.results) == 0 {
		return ""
	}
	return m.results[len(m.results)-1]
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

// ===== Fixture =====

const (
	contactRaw = "+55 (11) 98765-4321"
	contact    = "11987654321"
)

var (
	// понедельник 2026-03-09 12:00 UTC
	now      = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	bookDay  = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	convKey  = domain.ConversationKey(1, contact)
	ana      = domain.StaffMember{ID: 3, TenantID: 1, Name: "Ana", Active: true}
	bruno    = domain.StaffMember{ID: 4, TenantID: 1, Name: "Bruno", Active: true}
	haircut  = domain.Service{ID: 10, TenantID: 1, Name: "Corte", DurationMinutes: 30, Price: decimal.RequireFromString("50"), Active: true}
	coloring = domain.Service{ID: 11, TenantID: 1, Name: "Coloração", DurationMinutes: 90, Price: decimal.RequireFromString("180.5"), Active: true}
)

func at(hhmm string) time.Time {
	t, _ := time.Parse(domain.TimeFormat, hhmm)
	return bookDay.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}

type fixture struct {
	tenant        *domain.Tenant
	log           *fakeMessageLog
	conversations *fakeConversations
	catalog       *fakeCatalog
	availability  *fakeAvailability
	holds         *fakeHolds
	bookings      *fakeBookings
	metrics       *recordingMetrics
	clock         *clock
	uc            *UseCase
}

func newFixture() *fixture {
	f := &fixture{
		tenant: &domain.Tenant{
			ID:       1,
			Slug:     "studio-bella",
			Name:     "Studio Bella",
			Timezone: "UTC",
			Active:   true,
			Config:   domain.TenantConfig{SlotDurationMinutes: 30, BufferMinutes: 10, ExtraSlotMinutes: 15},
		},
		log:           &fakeMessageLog{seen: make(map[string]bool)},
		conversations: &fakeConversations{states: make(map[string]domain.ConversationState)},
		catalog: &fakeCatalog{
			services: []domain.Service{haircut, coloring},
			staff:    []domain.StaffMember{ana, bruno},
		},
		availability: &fakeAvailability{
			staff: []domain.StaffMember{ana, bruno},
			slots: []domain.AvailableSlot{
				{StartsAt: at("09:00"), StaffID: 3},
				{StartsAt: at("09:00"), StaffID: 4},
				{StartsAt: at("09:30"), StaffID: 3},
				{StartsAt: at("10:00"), StaffID: 4},
			},
		},
		holds:   &fakeHolds{converted: make(map[uuid.UUID]int64)},
		metrics: &recordingMetrics{},
		clock:   &clock{now: now},
	}
	f.bookings = &fakeBookings{catalog: f.catalog, benefit: domain.NoBenefit()}
	f.uc = NewUseCase(
		&fakeTenants{tenant: f.tenant},
		f.log,
		f.conversations,
		f.catalog,
		f.availability,
		f.holds,
		f.bookings,
		keymutex.New(),
		f.metrics,
		f.clock,
		Config{IdleTimeout: 30 * time.Minute, MaxOfferedSlots: 20, DefaultLocation: time.UTC},
		logger.NewNop(),
	)
	return f
}

func (f *fixture) send(t *testing.T, messageID, text string) *Response {
	t.Helper()
	resp, err := f.uc.Execute(context.Background(), &Request{
		TenantRef:    "studio-bella",
		ContactPhone: contactRaw,
		MessageID:    messageID,
		Text:         text,
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) seed(step domain.StepPayload, updatedAt time.Time) {
	f.conversations.states[convKey] = domain.ConversationState{
		TenantID:      1,
		ContactID:     contact,
		Step:          step.Step(),
		Payload:       step,
		LastMessageID: "seed",
		UpdatedAt:     updatedAt,
	}
}

func (f *fixture) state() domain.ConversationState {
	return f.conversations.states[convKey]
}

func askNamePayload(holdID uuid.UUID) domain.AskNamePayload {
	return domain.AskNamePayload{
		ServiceID:     10,
		StaffID:       4,
		StartsAt:      at("10:00"),
		HoldID:        holdID,
		PaymentMethod: domain.PaymentOnSite,
	}
}

// ===== Tests =====

func TestExecute_FullFlowWithAnyStaff(t *testing.T) {
	f := newFixture()

	resp := f.send(t, "m1", "oi")
	assert.True(t, resp.ShouldReply)
	assert.Equal(t, domain.StepMenu, resp.NextStep)
	assert.Contains(t, resp.ReplyText, "Studio Bella")

	resp = f.send(t, "m2", "1")
	assert.Equal(t, domain.StepChooseService, resp.NextStep)
	assert.Contains(t, resp.ReplyText, "1) Corte - 30 min - R$ 50,00")
	assert.Contains(t, resp.ReplyText, "2) Coloração - 90 min - R$ 180,50")

	resp = f.send(t, "m3", "1")
	assert.Equal(t, domain.StepChooseStaff, resp.NextStep)
	assert.Contains(t, resp.ReplyText, "3) Qualquer profissional")

	resp = f.send(t, "m4", "3")
	assert.Equal(t, domain.StepChooseDate, resp.NextStep)
	assert.Nil(t, f.state().Payload.(domain.ChooseDatePayload).StaffID)

	resp = f.send(t, "m5", "10/03/2026")
	assert.Equal(t, domain.StepChooseTime, resp.NextStep)
	assert.Contains(t, resp.ReplyText, "1) 09:00 - Ana")
	assert.Contains(t, resp.ReplyText, "2) 09:30 - Ana")
	assert.Contains(t, resp.ReplyText, "3) 10:00 - Bruno")
	assert.NotContains(t, resp.ReplyText, "09:00 - Bruno")

	require.Len(t, f.availability.queries, 1)
	q := f.availability.queries[0]
	assert.Equal(t, convKey, q.IgnoreHoldsOf)
	assert.Nil(t, q.StaffID)
	assert.True(t, q.Date.Equal(bookDay))

	resp = f.send(t, "m6", "3")
	assert.Equal(t, domain.StepAskName, resp.NextStep)
	require.Len(t, f.holds.created, 1)
	hold := f.holds.created[0]
	assert.Equal(t, int64(4), hold.StaffID)
	assert.Equal(t, convKey, hold.ConversationKey)
	assert.True(t, hold.StartsAt.Equal(at("10:00")))
	assert.True(t, hold.EndsAt.Equal(at("10:30")))
	assert.Equal(t, 10*time.Minute, hold.Buffer)

	resp = f.send(t, "m7", "  Maria   Silva ")
	assert.Equal(t, domain.StepDone, resp.NextStep)
	assert.Contains(t, resp.ReplyText, "Agendamento confirmado! Corte com Bruno em 10/03/2026 às 10:00.")

	require.Len(t, f.bookings.requests, 1)
	req := f.bookings.requests[0]
	assert.Equal(t, "1", req.TenantRef)
	assert.Equal(t, int64(10), req.ServiceID)
	assert.Equal(t, int64(4), *req.StaffID)
	assert.Equal(t, "Maria Silva", req.Customer.Name)
	assert.Equal(t, contact, req.Customer.Phone)
	assert.Equal(t, domain.PaymentOnSite, req.PaymentMethod)
	assert.Equal(t, domain.CreatedViaMessaging, req.CreatedVia)

	assert.Equal(t, domain.DonePayload{BookingID: 77}, f.state().Payload)
	require.Len(t, f.holds.converted, 1)
	for _, bookingID := range f.holds.converted {
		assert.Equal(t, int64(77), bookingID)
	}
	assert.Equal(t, ResultBooked, f.metrics.last())
}

func TestExecute_SingleStaffSkipsChoiceAndOnlinePayment(t *testing.T) {
	f := newFixture()
	f.tenant.Config.OnlinePaymentEnabled = true
	f.availability.staff = []domain.StaffMember{ana}

	f.send(t, "m1", "1")
	resp := f.send(t, "m2", "1")
	assert.Equal(t, domain.StepChooseDate, resp.NextStep)
	assert.Equal(t, textAskDate, resp.ReplyText)
	p := f.state().Payload.(domain.ChooseDatePayload)
	require.NotNil(t, p.StaffID)
	assert.Equal(t, int64(3), *p.StaffID)

	resp = f.send(t, "m3", "10/03/2026")
	assert.Equal(t, domain.StepChooseTime, resp.NextStep)
	assert.Equal(t, int64(3), *f.availability.queries[0].StaffID)

	resp = f.send(t, "m4", "2")
	assert.Equal(t, domain.StepChoosePayment, resp.NextStep)
	assert.Equal(t, textAskPayment, resp.ReplyText)

	resp = f.send(t, "m5", "5")
	assert.Equal(t, domain.StepChoosePayment, resp.NextStep)
	assert.Contains(t, resp.ReplyText, textInvalidOption)

	resp = f.send(t, "m6", "2")
	assert.Equal(t, domain.StepAskName, resp.NextStep)

	resp = f.send(t, "m7", "Maria")
	assert.Equal(t, domain.StepDone, resp.NextStep)
	assert.Contains(t, resp.ReplyText, "link de pagamento")
	assert.Equal(t, domain.PaymentOnline, f.bookings.requests[0].PaymentMethod)
	assert.True(t, f.bookings.requests[0].StartsAt.Equal(at("09:30")))
}

func TestExecute_BenefitIsMentioned(t *testing.T) {
	f := newFixture()
	f.bookings.benefit = domain.PackageBenefit(5)
	f.seed(askNamePayload(uuid.New()), now.Add(-time.Minute))

	resp := f.send(t, "m1", "Maria Silva")
	assert.Contains(t, resp.ReplyText, "sessão do seu pacote")
}

func TestExecute_DuplicateMessageIsIgnored(t *testing.T) {
	f := newFixture()
	f.send(t, "m1", "oi")
	f.send(t, "m2", "1")
	saves := f.conversations.saves
	before := f.state()

	resp := f.send(t, "m2", "1")
	assert.False(t, resp.ShouldReply)
	assert.Empty(t, resp.ReplyText)
	assert.Equal(t, domain.StepChooseService, resp.NextStep)
	assert.Equal(t, saves, f.conversations.saves)
	assert.Equal(t, before, f.state())
	assert.Equal(t, ResultDuplicate, f.metrics.last())
}

func TestExecute_DuplicateDetectedByMessageLog(t *testing.T) {
	f := newFixture()
	f.seed(domain.ChooseServicePayload{ServiceIDs: []int64{10, 11}}, now.Add(-time.Minute))
	f.log.seen["1:m-old"] = true

	resp := f.send(t, "m-old", "1")
	assert.False(t, resp.ShouldReply)
	assert.Equal(t, domain.StepChooseService, f.state().Step)
	assert.Equal(t, 0, f.conversations.saves)
}

func TestExecute_MessageLogOutageFallsBackToState(t *testing.T) {
	f := newFixture()
	f.log.err = errors.New("redis down")

	resp := f.send(t, "m1", "1")
	assert.True(t, resp.ShouldReply)
	assert.Equal(t, domain.StepChooseService, resp.NextStep)

	resp = f.send(t, "m1", "1")
	assert.False(t, resp.ShouldReply)
}

func TestExecute_IdleConversationStartsFresh(t *testing.T) {
	f := newFixture()
	f.seed(domain.ChooseServicePayload{ServiceIDs: []int64{10, 11}}, now.Add(-31*time.Minute))

	resp := f.send(t, "m1", "2")
	assert.Equal(t, domain.StepMenu, resp.NextStep)
	assert.Equal(t, textAttendant, resp.ReplyText)
	assert.Equal(t, domain.MenuPayload{}, f.state().Payload)
	assert.Equal(t, ResultReset, f.metrics.last())
}

func TestExecute_RecentConversationContinues(t *testing.T) {
	f := newFixture()
	f.seed(domain.ChooseServicePayload{ServiceIDs: []int64{10, 11}}, now.Add(-29*time.Minute))

	resp := f.send(t, "m1", "2")
	assert.Equal(t, domain.StepChooseStaff, resp.NextStep)
	assert.Equal(t, int64(11), f.state().Payload.(domain.ChooseStaffPayload).ServiceID)
}

func TestExecute_IdleConversationReleasesHold(t *testing.T) {
	f := newFixture()
	f.seed(askNamePayload(uuid.New()), now.Add(-45*time.Minute))

	resp := f.send(t, "m1", "Maria")
	assert.Equal(t, domain.StepMenu, resp.NextStep)
	assert.Equal(t, []string{convKey}, f.holds.conversations)
	assert.Empty(t, f.bookings.requests)
}

func TestExecute_ResetKeywords(t *testing.T) {
	for _, kw := range []string{"menu", " MENU ", "*menu*", "_Menu_!", "cancel", "back", "0", "voltar", "Cancelar"} {
		t.Run(kw, func(t *testing.T) {
			f := newFixture()
			f.seed(askNamePayload(uuid.New()), now.Add(-time.Minute))

			resp := f.send(t, "m1", kw)
			assert.True(t, resp.ShouldReply)
			assert.Equal(t, domain.StepMenu, resp.NextStep)
			assert.Contains(t, resp.ReplyText, "1) Agendar um horário")
			assert.Equal(t, domain.MenuPayload{}, f.state().Payload)
			assert.Equal(t, []string{convKey}, f.holds.conversations)
			assert.Equal(t, ResultReset, f.metrics.last())
		})
	}
}

func TestExecute_DoneRestartsAtMenu(t *testing.T) {
	f := newFixture()
	f.seed(domain.DonePayload{BookingID: 77}, now.Add(-time.Minute))

	resp := f.send(t, "m1", "obrigada")
	assert.Equal(t, domain.StepMenu, resp.NextStep)
	assert.Contains(t, resp.ReplyText, "Studio Bella")

	f.seed(domain.DonePayload{BookingID: 77}, now.Add(-time.Minute))
	resp = f.send(t, "m2", "1")
	assert.Equal(t, domain.StepChooseService, resp.NextStep)
}

func TestExecute_InvalidInputDoesNotAdvance(t *testing.T) {
	f := newFixture()

	f.seed(domain.ChooseServicePayload{ServiceIDs: []int64{10, 11}}, now.Add(-time.Minute))
	resp := f.send(t, "m1", "9")
	assert.Equal(t, domain.StepChooseService, resp.NextStep)
	assert.Contains(t, resp.ReplyText, textInvalidOption)
	assert.Equal(t, ResultInvalid, f.metrics.last())

	f.seed(domain.ChooseDatePayload{ServiceID: 10}, now.Add(-time.Minute))
	for i, text := range []string{"amanha de tarde", "31/02/2026", "01/01/2020", "2026-03-10"} {
		resp = f.send(t, fmt.Sprintf("d%d", i), text)
		assert.Equal(t, domain.StepChooseDate, resp.NextStep, text)
		assert.Equal(t, textInvalidDate, resp.ReplyText, text)
	}
	assert.Empty(t, f.availability.queries)

	f.seed(askNamePayload(uuid.New()), now.Add(-time.Minute))
	resp = f.send(t, "n1", "123")
	assert.Equal(t, domain.StepAskName, resp.NextStep)
	assert.Equal(t, textInvalidName, resp.ReplyText)
	assert.Empty(t, f.bookings.requests)
}

func TestExecute_NoSlotsStaysOnDate(t *testing.T) {
	f := newFixture()
	f.availability.slots = nil
	f.seed(domain.ChooseDatePayload{ServiceID: 10}, now.Add(-time.Minute))

	resp := f.send(t, "m1", "10/03/2026")
	assert.Equal(t, domain.StepChooseDate, resp.NextStep)
	assert.Contains(t, resp.ReplyText, "Não há horários livres em 10/03/2026")
}

func TestExecute_HoldConflictReoffersTimes(t *testing.T) {
	f := newFixture()
	f.holds.createErr = fmt.Errorf("%w: window overlaps", holds.ErrHoldConflict)
	f.seed(domain.ChooseTimePayload{
		ServiceID: 10,
		Date:      "2026-03-10",
		Options:   []domain.SlotOption{{StartsAt: at("09:00"), StaffID: 3}},
	}, now.Add(-time.Minute))
	f.availability.slots = []domain.AvailableSlot{{StartsAt: at("10:00"), StaffID: 4}}

	resp := f.send(t, "m1", "1")
	assert.Equal(t, domain.StepChooseTime, resp.NextStep)
	assert.Contains(t, resp.ReplyText, textSlotTaken)
	assert.Contains(t, resp.ReplyText, "1) 10:00 - Bruno")
	assert.Equal(t, ResultConflict, f.metrics.last())

	p := f.state().Payload.(domain.ChooseTimePayload)
	require.Len(t, p.Options, 1)
	assert.Equal(t, int64(4), p.Options[0].StaffID)
}

func TestExecute_TimeConflictOnCommitReleasesHold(t *testing.T) {
	f := newFixture()
	holdID := uuid.New()
	f.bookings.err = fmt.Errorf("%w: staff busy", create_booking.ErrTimeConflict)
	f.seed(askNamePayload(holdID), now.Add(-time.Minute))

	resp := f.send(t, "m1", "Maria Silva")
	assert.Equal(t, domain.StepChooseTime, resp.NextStep)
	assert.Contains(t, resp.ReplyText, textSlotTaken)
	assert.Equal(t, []uuid.UUID{holdID}, f.holds.released)
	assert.Empty(t, f.holds.converted)
	assert.Equal(t, ResultConflict, f.metrics.last())
}

func TestExecute_UnexpectedFailureGoesToErrorThenRestarts(t *testing.T) {
	f := newFixture()
	f.catalog.listErr = errors.New("connection reset")

	resp := f.send(t, "m1", "1")
	assert.True(t, resp.ShouldReply)
	assert.Equal(t, domain.StepError, resp.NextStep)
	assert.Equal(t, textFailure, resp.ReplyText)
	assert.Equal(t, ResultError, f.metrics.last())

	f.catalog.listErr = nil
	resp = f.send(t, "m2", "oi")
	assert.Equal(t, domain.StepMenu, resp.NextStep)
}

func TestExecute_BookingFailureReleasesHold(t *testing.T) {
	f := newFixture()
	f.bookings.err = create_booking.ErrBookingCreateFailed
	f.seed(askNamePayload(uuid.New()), now.Add(-time.Minute))

	resp := f.send(t, "m1", "Maria Silva")
	assert.Equal(t, domain.StepError, resp.NextStep)
	assert.Equal(t, []string{convKey}, f.holds.conversations)
}

func TestExecute_SaveFailureForgetsMessage(t *testing.T) {
	f := newFixture()
	f.conversations.saveErr = errors.New("db down")

	_, err := f.uc.Execute(context.Background(), &Request{TenantRef: "studio-bella", ContactPhone: contactRaw, MessageID: "m1", Text: "oi"})
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, []string{"m1"}, f.log.forgotten)
	assert.False(t, f.log.seen["1:m1"])

	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, int64(1), turnErr.TenantID)
	assert.Equal(t, textFailure, turnErr.Reply)
}

func TestExecute_LoadFailureCarriesApology(t *testing.T) {
	f := newFixture()
	f.conversations.getErr = errors.New("db down")

	_, err := f.uc.Execute(context.Background(), &Request{TenantRef: "studio-bella", ContactPhone: contactRaw, MessageID: "m1", Text: "oi"})
	assert.ErrorIs(t, err, ErrInternal)

	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, int64(1), turnErr.TenantID)
	assert.Equal(t, textFailure, turnErr.Reply)
}

func TestExecute_InputErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, &Request{TenantRef: "other", ContactPhone: contactRaw, MessageID: "m1", Text: "oi"})
	assert.ErrorIs(t, err, ErrTenantNotFound)
	var turnErr *TurnError
	assert.False(t, errors.As(err, &turnErr))

	_, err = f.uc.Execute(ctx, &Request{TenantRef: "studio-bella", ContactPhone: "abc", MessageID: "m1", Text: "oi"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.uc.Execute(ctx, &Request{TenantRef: "studio-bella", ContactPhone: contactRaw, MessageID: " ", Text: "oi"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExecute_SameConversationIsSerialized(t *testing.T) {
	f := newFixture()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.uc.Execute(context.Background(), &Request{
				TenantRef:    "studio-bella",
				ContactPhone: contactRaw,
				MessageID:    fmt.Sprintf("m%d", i),
				Text:         "oi",
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, f.conversations.saves)
	assert.Equal(t, domain.StepMenu, f.state().Step)
}

func TestOfferedOptions_DedupesAndCaps(t *testing.T) {
	slots := make([]domain.AvailableSlot, 0)
	for i := 0; i < 30; i++ {
		start := bookDay.Add(time.Duration(i) * 15 * time.Minute)
		slots = append(slots, domain.AvailableSlot{StartsAt: start, StaffID: 3}, domain.AvailableSlot{StartsAt: start, StaffID: 4})
	}

	options := offeredOptions(slots, 20)
	require.Len(t, options, 20)
	for i, o := range options {
		assert.Equal(t, int64(3), o.StaffID)
		assert.True(t, o.StartsAt.Equal(bookDay.Add(time.Duration(i)*15*time.Minute)))
	}
}

func TestIsResetKeyword(t *testing.T) {
	for _, text := range []string{"menu", "*menu*", " *MENU* ", "menu.", "\"voltar\"", "0", "0)"} {
		assert.True(t, isResetKeyword(text), text)
	}
	for _, text := range []string{"", "**", "menus", "menu principal", "10", "*1*"} {
		assert.False(t, isResetKeyword(text), text)
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"1", 1, true},
		{" 2) ", 2, true},
		{"3.", 3, true},
		{"4", 0, false},
		{"-1", 0, false},
		{"um", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseChoice(tt.text, 3)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestParseDate(t *testing.T) {
	d, ok := parseDate("10/03/2026", now, time.UTC)
	require.True(t, ok)
	assert.True(t, d.Equal(bookDay))

	d, ok = parseDate("hoje", now, time.UTC)
	require.True(t, ok)
	assert.True(t, d.Equal(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)))

	d, ok = parseDate("Amanhã", now, time.UTC)
	require.True(t, ok)
	assert.True(t, d.Equal(bookDay))

	_, ok = parseDate("08/03/2026", now, time.UTC)
	assert.False(t, ok)
}
