package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/consultancy-crm-api/internal/dto"
	"github.com/noah-isme/consultancy-crm-api/internal/models"
	"github.com/noah-isme/consultancy-crm-api/internal/repository"
	appErrors "github.com/noah-isme/consultancy-crm-api/pkg/errors"
)

type followUpRepoStub struct {
	items       map[string]*models.FollowUp
	comments    *commentRepoStub
	completeErr error
	listFilter  models.FollowUpFilter
	missedCut   time.Time
}

func (r *followUpRepoStub) List(ctx context.Context, filter models.FollowUpFilter) ([]models.FollowUp, error) {
	r.listFilter = filter
	out := make([]models.FollowUp, 0, len(r.items))
	for _, item := range r.items {
		if filter.CompanyID == "" || item.CompanyID == filter.CompanyID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *followUpRepoStub) GetByID(ctx context.Context, id string) (*models.FollowUp, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *item
	return &copy, nil
}

func (r *followUpRepoStub) Create(ctx context.Context, item *models.FollowUp) error {
	item.ID = "fu-new"
	copy := *item
	r.items[item.ID] = &copy
	return nil
}

func (r *followUpRepoStub) Reschedule(ctx context.Context, id string, scheduledFor time.Time) error {
	item, ok := r.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	item.ScheduledFor = scheduledFor
	item.Status = models.FollowUpStatusPending
	return nil
}

func (r *followUpRepoStub) Complete(ctx context.Context, params repository.CompleteFollowUpParams) error {
	if r.completeErr != nil {
		return r.completeErr
	}
	item, ok := r.items[params.ID]
	if !ok || item.Status == models.FollowUpStatusCompleted {
		return sql.ErrNoRows
	}
	item.Status = models.FollowUpStatusCompleted
	item.OutcomeStatus = params.OutcomeStatus
	item.AdmissionPossibility = params.AdmissionPossibility
	params.Comment.IsCompletionComment = true
	return r.comments.Create(ctx, params.Comment)
}

func (r *followUpRepoStub) MarkMissed(ctx context.Context, before time.Time) (int64, error) {
	r.missedCut = before
	var n int64
	for _, item := range r.items {
		if item.Status == models.FollowUpStatusPending && item.ScheduledFor.Before(before) {
			item.Status = models.FollowUpStatusMissed
			n++
		}
	}
	return n, nil
}

type commentRepoStub struct {
	items []models.FollowUpComment
	calls int
	seq   int
}

func (c *commentRepoStub) ListByFollowUp(ctx context.Context, followUpID string) ([]models.FollowUpComment, error) {
	c.calls++
	out := make([]models.FollowUpComment, 0)
	for _, item := range c.items {
		if item.FollowUpID == followUpID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (c *commentRepoStub) GetByID(ctx context.Context, id string) (*models.FollowUpComment, error) {
	c.calls++
	for _, item := range c.items {
		if item.ID == id {
			copy := item
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (c *commentRepoStub) Create(ctx context.Context, comment *models.FollowUpComment) error {
	c.calls++
	c.seq++
	comment.ID = "c-new-" + string(rune('0'+c.seq))
	c.items = append(c.items, *comment)
	return nil
}

func (c *commentRepoStub) Delete(ctx context.Context, id string) error {
	c.calls++
	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type enquiryRepoStub struct {
	items map[string]*models.Enquiry
}

func (e *enquiryRepoStub) FindByID(ctx context.Context, id string) (*models.Enquiry, error) {
	if item, ok := e.items[id]; ok {
		copy := *item
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type auditStub struct {
	actions []string
	err     error
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	return a.err
}

type notifierStub struct {
	direct []models.Notification
	admins []models.Notification
}

func (n *notifierStub) Notify(ctx context.Context, notification *models.Notification) {
	n.direct = append(n.direct, *notification)
}

func (n *notifierStub) NotifyAdmins(ctx context.Context, companyID, excludeUserID string, template models.Notification) {
	n.admins = append(n.admins, template)
}

type followUpFixture struct {
	svc      *FollowUpService
	repo     *followUpRepoStub
	comments *commentRepoStub
	audit    *auditStub
	notifier *notifierStub
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

func newFollowUpFixture(t *testing.T) *followUpFixture {
	t.Helper()
	comments := &commentRepoStub{}
	repo := &followUpRepoStub{
		comments: comments,
		items: map[string]*models.FollowUp{
			"fu-1":      {ID: "fu-1", EnquiryID: "enq-1", StudentName: "Asha Rao", Type: models.FollowUpTypeCall, Status: models.FollowUpStatusPending, AssignedTo: strPtr("counselor-1"), CreatedBy: strPtr("manager-1"), CompanyID: "co-1", ScheduledFor: time.Now().Add(time.Hour)},
			"fu-done":   {ID: "fu-done", EnquiryID: "enq-1", Status: models.FollowUpStatusCompleted, AssignedTo: strPtr("counselor-1"), CompanyID: "co-1"},
			"fu-missed": {ID: "fu-missed", EnquiryID: "enq-1", Status: models.FollowUpStatusMissed, AssignedTo: strPtr("counselor-1"), CompanyID: "co-1"},
			"fu-other":  {ID: "fu-other", EnquiryID: "enq-9", Status: models.FollowUpStatusPending, CompanyID: "co-2", ScheduledFor: time.Now().Add(time.Hour)},
		},
	}
	enquiries := &enquiryRepoStub{items: map[string]*models.Enquiry{
		"enq-1": {ID: "enq-1", CandidateName: "Asha Rao", CompanyID: "co-1"},
		"enq-9": {ID: "enq-9", CandidateName: "Other", CompanyID: "co-2"},
	}}
	users := &userDirectoryStub{users: map[string]*models.User{
		"counselor-2": {ID: "counselor-2", CompanyID: "co-1", Active: true},
		"outsider":    {ID: "outsider", CompanyID: "co-2", Active: true},
	}}
	audit := &auditStub{}
	notifier := &notifierStub{}
	svc := NewFollowUpService(repo, comments, enquiries, users, audit, nil, zap.NewNop(), WithFollowUpNotifier(notifier), WithFollowUpMetrics(NewMetricsService()))
	return &followUpFixture{svc: svc, repo: repo, comments: comments, audit: audit, notifier: notifier}
}

func counselor() *models.JWTClaims {
	return &models.JWTClaims{UserID: "counselor-1", Role: models.RoleCounselor, CompanyID: "co-1", FullName: "Ravi Counselor"}
}

func employee() *models.JWTClaims {
	return &models.JWTClaims{UserID: "employee-1", Role: models.RoleEmployee, CompanyID: "co-1", FullName: "Emp"}
}

func companyAdmin() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleCompanyAdmin, CompanyID: "co-1", FullName: "Admin"}
}

func TestFollowUpCompleteEndToEnd(t *testing.T) {
	f := newFollowUpFixture(t)

	result, err := f.svc.Complete(context.Background(), "fu-1", dto.CompleteFollowUpRequest{
		Comment:              "Student confirmed interest",
		OutcomeStatus:        "Positive",
		AdmissionPossibility: intPtr(80),
	}, counselor())
	require.NoError(t, err)

	fu := result.FollowUp
	assert.Equal(t, models.FollowUpStatusCompleted, fu.Status)
	require.NotNil(t, fu.OutcomeStatus)
	assert.Equal(t, "Positive", *fu.OutcomeStatus)
	require.NotNil(t, fu.AdmissionPossibility)
	assert.Equal(t, 80, *fu.AdmissionPossibility)
	require.Len(t, fu.Comments, 1)
	assert.Equal(t, "Student confirmed interest", fu.Comments[0].Comment)
	assert.True(t, fu.Comments[0].IsCompletionComment)
	assert.Equal(t, []models.Collection{models.CollectionFollowUps}, result.Invalidates)
	assert.Equal(t, []string{models.AuditActionFollowUpComplete}, f.audit.actions)
	require.Len(t, f.notifier.direct, 1)
	assert.Equal(t, "manager-1", f.notifier.direct[0].UserID)
}

func TestFollowUpCompleteRejectsAlreadyCompleted(t *testing.T) {
	f := newFollowUpFixture(t)

	_, err := f.svc.Complete(context.Background(), "fu-done", dto.CompleteFollowUpRequest{Comment: "again"}, counselor())
	require.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, f.comments.items)
}

func TestFollowUpCompleteConcurrentCompletionIsConflict(t *testing.T) {
	f := newFollowUpFixture(t)
	f.repo.completeErr = sql.ErrNoRows

	_, err := f.svc.Complete(context.Background(), "fu-1", dto.CompleteFollowUpRequest{Comment: "done"}, counselor())
	require.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, f.comments.items)
}

func TestFollowUpCompleteValidation(t *testing.T) {
	f := newFollowUpFixture(t)

	_, err := f.svc.Complete(context.Background(), "fu-1", dto.CompleteFollowUpRequest{Comment: "   "}, counselor())
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.Complete(context.Background(), "fu-1", dto.CompleteFollowUpRequest{Comment: "ok", AdmissionPossibility: intPtr(101)}, counselor())
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.Complete(context.Background(), "fu-1", dto.CompleteFollowUpRequest{Comment: "ok", AdmissionPossibility: intPtr(-1)}, counselor())
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.Complete(context.Background(), "fu-1", dto.CompleteFollowUpRequest{Comment: "ok", AdmissionPossibility: intPtr(0)}, counselor())
	require.NoError(t, err)
}

func TestFollowUpCompleteRequiresAssigneeOrAdmin(t *testing.T) {
	f := newFollowUpFixture(t)

	_, err := f.svc.Complete(context.Background(), "fu-1", dto.CompleteFollowUpRequest{Comment: "mine now"}, employee())
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.svc.Complete(context.Background(), "fu-1", dto.CompleteFollowUpRequest{Comment: "closing"}, companyAdmin())
	require.NoError(t, err)
}

func TestFollowUpCompleteUnassignedIsAdminOnly(t *testing.T) {
	f := newFollowUpFixture(t)
	f.repo.items["fu-open"] = &models.FollowUp{ID: "fu-open", EnquiryID: "enq-1", Status: models.FollowUpStatusPending, CreatedBy: strPtr("counselor-1"), CompanyID: "co-1", ScheduledFor: time.Now().Add(time.Hour)}

	_, err := f.svc.Complete(context.Background(), "fu-open", dto.CompleteFollowUpRequest{Comment: "called back"}, counselor())
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Equal(t, models.FollowUpStatusPending, f.repo.items["fu-open"].Status)

	_, err = f.svc.Complete(context.Background(), "fu-open", dto.CompleteFollowUpRequest{Comment: "called back"}, companyAdmin())
	require.NoError(t, err)
}

func TestFollowUpRescheduleFromAnyState(t *testing.T) {
	f := newFollowUpFixture(t)
	first := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)
	second := first.Add(72 * time.Hour)

	for _, id := range []string{"fu-done", "fu-missed"} {
		_, err := f.svc.Reschedule(context.Background(), id, dto.RescheduleFollowUpRequest{ScheduledFor: first}, counselor())
		require.NoError(t, err)
		result, err := f.svc.Reschedule(context.Background(), id, dto.RescheduleFollowUpRequest{ScheduledFor: second}, counselor())
		require.NoError(t, err)
		assert.Equal(t, models.FollowUpStatusPending, result.FollowUp.Status)
		assert.True(t, second.Equal(result.FollowUp.ScheduledFor))
	}

	_, err := f.svc.Reschedule(context.Background(), "fu-1", dto.RescheduleFollowUpRequest{}, counselor())
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.Reschedule(context.Background(), "fu-other", dto.RescheduleFollowUpRequest{ScheduledFor: first}, counselor())
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestFollowUpAddCommentRejectsEmptyBeforeStore(t *testing.T) {
	f := newFollowUpFixture(t)

	_, err := f.svc.AddComment(context.Background(), "fu-1", dto.AddCommentRequest{Comment: " \n\t"}, counselor())
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Zero(t, f.comments.calls)
}

func TestFollowUpAddCommentAnyStatusWithReplies(t *testing.T) {
	f := newFollowUpFixture(t)

	root, err := f.svc.AddComment(context.Background(), "fu-done", dto.AddCommentRequest{Comment: "post-completion note"}, counselor())
	require.NoError(t, err)
	require.NotNil(t, root.Comment)

	reply, err := f.svc.AddComment(context.Background(), "fu-done", dto.AddCommentRequest{Comment: "ack", ParentID: &root.Comment.ID}, employee())
	require.NoError(t, err)
	require.Len(t, reply.FollowUp.Thread, 1)
	require.Len(t, reply.FollowUp.Thread[0].Replies, 1)
	assert.Equal(t, "ack", reply.FollowUp.Thread[0].Replies[0].Comment)
	assert.Equal(t, "Emp", reply.FollowUp.Thread[0].Replies[0].Author)

	_, err = f.svc.AddComment(context.Background(), "fu-1", dto.AddCommentRequest{Comment: "cross", ParentID: &root.Comment.ID}, counselor())
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.AddComment(context.Background(), "fu-1", dto.AddCommentRequest{Comment: "ghost", ParentID: strPtr("missing")}, counselor())
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestFollowUpDeleteCommentAuthorization(t *testing.T) {
	f := newFollowUpFixture(t)
	f.comments.items = []models.FollowUpComment{
		{ID: "c-1", FollowUpID: "fu-1", UserID: strPtr("counselor-1"), Comment: "root", CompanyID: "co-1"},
		{ID: "c-2", FollowUpID: "fu-1", UserID: strPtr("employee-1"), Comment: "reply", ParentCommentID: strPtr("c-1"), CompanyID: "co-1"},
	}

	_, err := f.svc.DeleteComment(context.Background(), "c-1", employee())
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	result, err := f.svc.DeleteComment(context.Background(), "c-1", companyAdmin())
	require.NoError(t, err)
	require.Len(t, result.FollowUp.Thread, 1)
	assert.Equal(t, "c-2", result.FollowUp.Thread[0].ID)

	_, err = f.svc.DeleteComment(context.Background(), "c-2", employee())
	require.NoError(t, err)

	_, err = f.svc.DeleteComment(context.Background(), "c-2", employee())
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestFollowUpCreateNotifiesAssignee(t *testing.T) {
	f := newFollowUpFixture(t)
	when := time.Now().Add(24 * time.Hour)

	result, err := f.svc.Create(context.Background(), dto.CreateFollowUpRequest{
		EnquiryID: "enq-1", Type: models.FollowUpTypeWhatsApp, ScheduledFor: when, Priority: models.FollowUpPriorityHigh, AssignedTo: "counselor-2",
	}, counselor())
	require.NoError(t, err)
	assert.Equal(t, models.FollowUpStatusPending, result.FollowUp.Status)
	assert.True(t, result.FollowUp.IsAssignedTo("counselor-2"))
	require.Len(t, f.notifier.direct, 1)
	assert.Equal(t, "counselor-2", f.notifier.direct[0].UserID)

	_, err = f.svc.Create(context.Background(), dto.CreateFollowUpRequest{EnquiryID: "enq-1", Type: models.FollowUpTypeCall, ScheduledFor: when, AssignedTo: "outsider"}, counselor())
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.Create(context.Background(), dto.CreateFollowUpRequest{EnquiryID: "enq-9", Type: models.FollowUpTypeCall, ScheduledFor: when}, counselor())
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.Create(context.Background(), dto.CreateFollowUpRequest{EnquiryID: "enq-1", Type: "Fax", ScheduledFor: when}, counselor())
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestFollowUpListScopesToCompany(t *testing.T) {
	f := newFollowUpFixture(t)

	items, err := f.svc.List(context.Background(), dto.FollowUpQuery{}, counselor())
	require.NoError(t, err)
	assert.Equal(t, "co-1", f.repo.listFilter.CompanyID)
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"fu-1", "fu-done", "fu-missed"}, ids)

	_, err = f.svc.List(context.Background(), dto.FollowUpQuery{}, &models.JWTClaims{UserID: "dev", Role: models.RoleDevAdmin, CompanyID: "co-1"})
	require.NoError(t, err)
	assert.Empty(t, f.repo.listFilter.CompanyID)
}

func TestFollowUpGetDetailsHidesOtherTenants(t *testing.T) {
	f := newFollowUpFixture(t)

	_, err := f.svc.GetDetails(context.Background(), "fu-other", counselor())
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	detail, err := f.svc.GetDetails(context.Background(), "fu-1", counselor())
	require.NoError(t, err)
	assert.NotNil(t, detail.Thread)
}

func TestFollowUpSweepMissed(t *testing.T) {
	f := newFollowUpFixture(t)
	f.repo.items["fu-1"].ScheduledFor = time.Now().Add(-48 * time.Hour)
	cutoff := time.Now().Add(-24 * time.Hour)

	count, err := f.svc.SweepMissed(context.Background(), cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, models.FollowUpStatusMissed, f.repo.items["fu-1"].Status)
	assert.Equal(t, models.FollowUpStatusCompleted, f.repo.items["fu-done"].Status)
}

func TestFollowUpAuditFailureDoesNotFailCompletion(t *testing.T) {
	f := newFollowUpFixture(t)
	f.audit.err = errors.New("audit down")

	_, err := f.svc.Complete(context.Background(), "fu-1", dto.CompleteFollowUpRequest{Comment: "done"}, counselor())
	require.NoError(t, err)
}
