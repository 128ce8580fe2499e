package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/config"
	"github.com/smallbiznis/frontdesk/internal/contact/domain"
	"github.com/smallbiznis/frontdesk/internal/contact/repository"
	eventdomain "github.com/smallbiznis/frontdesk/internal/event/domain"
	eventrepo "github.com/smallbiznis/frontdesk/internal/event/repository"
	eventservice "github.com/smallbiznis/frontdesk/internal/event/service"
	"github.com/smallbiznis/frontdesk/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   domain.Service
	conn  *gorm.DB
	clock *clock.FakeClock
}

type options struct {
	strict bool
	repo   domain.Repository
	events eventdomain.Service
}

func setup(t *testing.T, opts options) *fixture {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.ContactRequest{}, &domain.FormInteractionMetric{}, &eventdomain.Event{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC))

	repo := opts.repo
	if repo == nil {
		repo = repository.Provide()
	}
	events := opts.events
	if events == nil {
		events = eventservice.New(eventservice.Params{
			DB:    conn,
			Log:   zap.NewNop(),
			GenID: node,
			Clock: fake,
			Repo:  eventrepo.Provide(),
		})
	}

	cfg := config.Config{Contact: config.ContactConfig{StrictValidation: opts.strict}}
	svc := New(Params{
		DB:     conn,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  fake,
		Config: cfg,
		Repo:   repo,
		Events: events,
	})
	return &fixture{svc: svc, conn: conn, clock: fake}
}

func validSubmission() domain.SubmitRequest {
	return domain.SubmitRequest{
		FirstName: "  Jane ",
		LastName:  "Smith",
		Email:     " Jane@Example.COM ",
		Subject:   "legal",
		Message:   "I would like to discuss a contract review.",
		IPAddress: "203.0.113.10",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148",
	}
}

func TestCreateNormalizesAndDefaults(t *testing.T) {
	f := setup(t, options{})

	created, err := f.svc.Create(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.Len(t, created.ID, 36)
	assert.Equal(t, "Jane", created.FirstName)
	assert.Equal(t, "jane@example.com", created.Email)
	assert.Equal(t, domain.StatusNew, created.Status)
	assert.Equal(t, domain.PriorityMedium, created.Priority)
	assert.Equal(t, domain.DefaultSource, created.Source)
	assert.Nil(t, created.RespondedAt)
	assert.Equal(t, f.clock.Now(), created.CreatedAt)
}

func TestCreateUrgentEscalatesToHigh(t *testing.T) {
	f := setup(t, options{})
	req := validSubmission()
	req.Urgent = true

	created, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, created.Priority)
}

func TestCreateRequiredFields(t *testing.T) {
	f := setup(t, options{})

	cases := []struct {
		name   string
		mutate func(*domain.SubmitRequest)
		want   error
	}{
		{"first name", func(r *domain.SubmitRequest) { r.FirstName = "  " }, domain.ErrFirstNameRequired},
		{"last name", func(r *domain.SubmitRequest) { r.LastName = "" }, domain.ErrLastNameRequired},
		{"email", func(r *domain.SubmitRequest) { r.Email = "" }, domain.ErrEmailRequired},
		{"subject", func(r *domain.SubmitRequest) { r.Subject = "" }, domain.ErrSubjectRequired},
		{"message", func(r *domain.SubmitRequest) { r.Message = "" }, domain.ErrMessageRequired},
		{"bad email", func(r *domain.SubmitRequest) { r.Email = "jane@example" }, domain.ErrInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validSubmission()
			tc.mutate(&req)
			_, err := f.svc.Create(context.Background(), req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	var count int64
	require.NoError(t, f.conn.Model(&domain.ContactRequest{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateStrictValidation(t *testing.T) {
	lenient := setup(t, options{})
	strict := setup(t, options{strict: true})

	req := validSubmission()
	req.FirstName = "J"
	_, err := lenient.svc.Create(context.Background(), req)
	require.NoError(t, err)
	_, err = strict.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidFirstName)

	req = validSubmission()
	req.Phone = "123"
	_, err = strict.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidPhone)

	req = validSubmission()
	req.Message = "short"
	_, err = strict.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)

	req = validSubmission()
	req.Subject = `<b>"Pricing" & terms</b>`
	req.Company = "Acme <Corp>"
	created, err := strict.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "bPricing  terms/b", created.Subject)
	assert.Equal(t, "Acme Corp", created.Company)
}

func TestCreateRejectsOverlongFields(t *testing.T) {
	lenient := setup(t, options{})
	strict := setup(t, options{strict: true})
	long := strings.Repeat("a", 101)

	cases := []struct {
		name   string
		mutate func(*domain.SubmitRequest)
		want   error
	}{
		{"first name", func(r *domain.SubmitRequest) { r.FirstName = long }, domain.ErrInvalidFirstName},
		{"last name", func(r *domain.SubmitRequest) { r.LastName = long }, domain.ErrInvalidLastName},
		{"email", func(r *domain.SubmitRequest) { r.Email = strings.Repeat("a", 120) + "@example.com" }, domain.ErrInvalidEmail},
		{"phone", func(r *domain.SubmitRequest) { r.Phone = strings.Repeat("1", 51) }, domain.ErrInvalidPhone},
		{"abandonment point", func(r *domain.SubmitRequest) { r.AbandonmentPoint = long }, domain.ErrInvalidAbandonmentPoint},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validSubmission()
			tc.mutate(&req)
			_, err := lenient.svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, tc.want)
			_, err = strict.svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	req := validSubmission()
	req.Subject = long
	_, err := lenient.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidSubject)
	created, err := strict.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, created.Subject, domain.MaxSubjectLength)

	req = validSubmission()
	req.Company = strings.Repeat("c", 201)
	_, err = lenient.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidCompany)

	req = validSubmission()
	req.FirstName = "Ünïcödé " + strings.Repeat("é", 90)
	_, err = lenient.svc.Create(context.Background(), req)
	assert.NoError(t, err, "limits count runes, not bytes")

	var count int64
	require.NoError(t, lenient.conn.Model(&domain.ContactRequest{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateEmitsDerivedEvent(t *testing.T) {
	f := setup(t, options{})
	req := validSubmission()
	req.CurrentPage = "/contact"
	req.SessionID = "sess-9"

	created, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	var ev eventdomain.Event
	require.NoError(t, f.conn.Where("event_type = ?", eventdomain.TypeContactFormSubmit).First(&ev).Error)
	assert.Equal(t, created.ID, ev.AdditionalData["form_id"])
	assert.Equal(t, "legal", ev.AdditionalData["subject"])
	assert.Equal(t, "medium", ev.AdditionalData["priority"])
	assert.Equal(t, "/contact", ev.PageURL)
	assert.Equal(t, "sess-9", ev.SessionID)
	assert.Equal(t, "203.0.113.10", ev.IPAddress)
	assert.Equal(t, "mobile", ev.DeviceType)
}

type failingEvents struct {
	mock.Mock
}

func (m *failingEvents) Track(ctx context.Context, req eventdomain.TrackRequest) (eventdomain.Event, error) {
	args := m.Called(ctx, req)
	return eventdomain.Event{}, args.Error(0)
}

func TestCreateSurvivesDerivedEventFailure(t *testing.T) {
	events := &failingEvents{}
	events.On("Track", mock.Anything, mock.MatchedBy(func(req eventdomain.TrackRequest) bool {
		return req.EventType == eventdomain.TypeContactFormSubmit
	})).Return(errors.New("events table unavailable")).Once()

	f := setup(t, options{events: events})
	created, err := f.svc.Create(context.Background(), validSubmission())
	require.NoError(t, err)

	detail, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, detail.ID)
	events.AssertExpectations(t)
}

func TestCreatePersistsFormMetricAtomically(t *testing.T) {
	f := setup(t, options{})
	seconds := 42
	req := validSubmission()
	req.CompletionTimeSeconds = &seconds
	req.FieldInteractions = map[string]any{"email": true}

	created, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	detail, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.FormMetric)
	assert.Equal(t, created.ID, detail.FormMetric.FormID)
	require.NotNil(t, detail.FormMetric.CompletionTimeSeconds)
	assert.Equal(t, 42, *detail.FormMetric.CompletionTimeSeconds)
	assert.Equal(t, true, detail.FormMetric.FieldInteractions["email"])

	plain, err := f.svc.Create(context.Background(), validSubmission())
	require.NoError(t, err)
	detail, err = f.svc.Get(context.Background(), plain.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.FormMetric)
}

type metricFailingRepo struct {
	domain.Repository
}

func (r metricFailingRepo) InsertFormMetric(context.Context, *gorm.DB, *domain.FormInteractionMetric) error {
	return errors.New("metric write failed")
}

func TestCreateRollsBackWhenFormMetricFails(t *testing.T) {
	f := setup(t, options{repo: metricFailingRepo{Repository: repository.Provide()}})
	req := validSubmission()
	req.AbandonmentPoint = "phone"

	_, err := f.svc.Create(context.Background(), req)
	require.Error(t, err)

	var count int64
	require.NoError(t, f.conn.Model(&domain.ContactRequest{}).Count(&count).Error)
	assert.Zero(t, count, "contact request must not survive a failed metric write")
	require.NoError(t, f.conn.Model(&eventdomain.Event{}).Count(&count).Error)
	assert.Zero(t, count, "derived event must not be written for a failed submission")
}

type narrowColumnRepo struct {
	domain.Repository
}

func (r narrowColumnRepo) Insert(context.Context, *gorm.DB, *domain.ContactRequest) error {
	return errors.New("ERROR: value too long for type character varying(100) (SQLSTATE 22001)")
}

func TestCreateMapsColumnOverflowToValidationError(t *testing.T) {
	f := setup(t, options{repo: narrowColumnRepo{Repository: repository.Provide()}})

	_, err := f.svc.Create(context.Background(), validSubmission())
	assert.ErrorIs(t, err, domain.ErrFieldTooLong)
}

func TestSetStatusRespondedAtFollowsResolveTransitions(t *testing.T) {
	f := setup(t, options{})
	ctx := context.Background()
	created, err := f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	first, err := f.svc.SetStatus(ctx, domain.SetStatusRequest{ID: created.ID, Status: "resolved", Notes: "called back"})
	require.NoError(t, err)
	require.NotNil(t, first.RespondedAt)
	respondedAt := *first.RespondedAt
	assert.Equal(t, "called back", first.Notes)
	assert.True(t, first.UpdatedAt.After(created.UpdatedAt))

	f.clock.Advance(time.Hour)
	second, err := f.svc.SetStatus(ctx, domain.SetStatusRequest{ID: created.ID, Status: "resolved"})
	require.NoError(t, err)
	require.NotNil(t, second.RespondedAt)
	assert.True(t, respondedAt.Equal(*second.RespondedAt))
	assert.Equal(t, "called back", second.Notes)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	f.clock.Advance(time.Hour)
	closed, err := f.svc.SetStatus(ctx, domain.SetStatusRequest{ID: created.ID, Status: "closed"})
	require.NoError(t, err)
	require.NotNil(t, closed.RespondedAt)

	f.clock.Advance(time.Hour)
	reopened, err := f.svc.SetStatus(ctx, domain.SetStatusRequest{ID: created.ID, Status: "new"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, reopened.Status)
	require.NotNil(t, reopened.RespondedAt)
	assert.True(t, respondedAt.Equal(*reopened.RespondedAt))

	stored, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, stored.Status)
	require.NotNil(t, stored.RespondedAt)

	f.clock.Advance(time.Hour)
	resolvedAgain, err := f.svc.SetStatus(ctx, domain.SetStatusRequest{ID: created.ID, Status: "resolved"})
	require.NoError(t, err)
	require.NotNil(t, resolvedAgain.RespondedAt)
	assert.True(t, f.clock.Now().Equal(*resolvedAgain.RespondedAt), "re-resolving a reopened request records the new response time")
}

func TestSetStatusErrors(t *testing.T) {
	f := setup(t, options{})
	ctx := context.Background()
	created, err := f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)

	for _, status := range []string{"pending", "completed", "RESOLVED", "done"} {
		_, err := f.svc.SetStatus(ctx, domain.SetStatusRequest{ID: created.ID, Status: status})
		assert.ErrorIs(t, err, domain.ErrInvalidStatus, status)
	}

	_, err = f.svc.SetStatus(ctx, domain.SetStatusRequest{ID: created.ID})
	assert.ErrorIs(t, err, domain.ErrStatusRequired)

	_, err = f.svc.SetStatus(ctx, domain.SetStatusRequest{ID: "00000000-0000-0000-0000-000000000000", Status: "closed"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnnotate(t *testing.T) {
	f := setup(t, options{})
	ctx := context.Background()
	created, err := f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)

	assignee, priority, notes := " ops@example.com ", "urgent", "VIP"
	f.clock.Advance(time.Minute)
	updated, err := f.svc.Annotate(ctx, domain.AnnotateRequest{
		ID:         created.ID,
		AssignedTo: &assignee,
		Priority:   &priority,
		Notes:      &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", updated.AssignedTo)
	assert.Equal(t, domain.PriorityUrgent, updated.Priority)
	assert.Equal(t, "VIP", updated.Notes)
	assert.Equal(t, domain.StatusNew, updated.Status)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	bad := "critical"
	_, err = f.svc.Annotate(ctx, domain.AnnotateRequest{ID: created.ID, Priority: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)

	tooLong := strings.Repeat("x", domain.MaxAssigneeLength+1)
	_, err = f.svc.Annotate(ctx, domain.AnnotateRequest{ID: created.ID, AssignedTo: &tooLong})
	assert.ErrorIs(t, err, domain.ErrInvalidAssignedTo)

	_, err = f.svc.Annotate(ctx, domain.AnnotateRequest{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListFiltersAndOrder(t *testing.T) {
	f := setup(t, options{})
	ctx := context.Background()

	first, err := f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	urgent := validSubmission()
	urgent.Urgent = true
	second, err := f.svc.Create(ctx, urgent)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	third, err := f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)
	_, err = f.svc.SetStatus(ctx, domain.SetStatusRequest{ID: third.ID, Status: "in_progress"})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Equal(t, 3, all.Total)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(all.Requests))

	byStatus, err := f.svc.List(ctx, domain.ListRequest{Status: "new"})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, ids(byStatus.Requests))

	byPriority, err := f.svc.List(ctx, domain.ListRequest{Priority: "high"})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, ids(byPriority.Requests))

	start := second.CreatedAt
	windowed, err := f.svc.List(ctx, domain.ListRequest{StartDate: &start})
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, second.ID}, ids(windowed.Requests))

	_, err = f.svc.List(ctx, domain.ListRequest{Status: "pending"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	_, err = f.svc.List(ctx, domain.ListRequest{Priority: "p1"})
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)

	empty, err := f.svc.List(ctx, domain.ListRequest{Status: "closed"})
	require.NoError(t, err)
	assert.NotNil(t, empty.Requests)
	assert.Zero(t, empty.Total)
}

func TestGetUnknown(t *testing.T) {
	f := setup(t, options{})
	_, err := f.svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Get(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestParseStatusAndPriority(t *testing.T) {
	for _, s := range []string{"new", "in_progress", "resolved", "closed"} {
		status, err := domain.ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, domain.Status(s), status)
	}
	_, err := domain.ParseStatus("pending")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	for _, p := range []string{"low", "medium", "high", "urgent"} {
		_, err := domain.ParsePriority(p)
		require.NoError(t, err)
	}
	_, err = domain.ParsePriority("")
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)
}

func ids(items []domain.ContactRequest) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
