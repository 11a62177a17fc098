package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/curbsideops/curbside-backend/internal/activity"
	"github.com/curbsideops/curbside-backend/internal/assignments"
	"github.com/curbsideops/curbside-backend/internal/clock"
	"github.com/curbsideops/curbside-backend/internal/notifications"
	"github.com/curbsideops/curbside-backend/pkg/config"
	"github.com/curbsideops/curbside-backend/pkg/db/models"
	dbtypes "github.com/curbsideops/curbside-backend/pkg/db/types"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/logger"
	"github.com/curbsideops/curbside-backend/pkg/pagination"
)

type fakeRepo struct {
	tasks         map[uuid.UUID]*models.Task
	issues        []*models.IssueReport
	slotCount     int64
	slotHourStart time.Time
	failVersioned bool
	counts        map[enums.TaskStatus]int64
	completed     []models.Task
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Get(_ context.Context, id uuid.UUID) (*models.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	stored := *task
	return &stored, nil
}

func (f *fakeRepo) Create(_ context.Context, task *models.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	stored := *task
	f.tasks[task.ID] = &stored
	return nil
}

func (f *fakeRepo) UpdateVersioned(_ context.Context, task *models.Task) (bool, error) {
	if f.failVersioned {
		return false, nil
	}
	current, ok := f.tasks[task.ID]
	if !ok || current.Version != task.Version {
		return false, nil
	}
	task.Version++
	stored := *task
	f.tasks[task.ID] = &stored
	return true, nil
}

func (f *fakeRepo) CountInHour(_ context.Context, _ uuid.UUID, hourStart, _ time.Time, _ *uuid.UUID) (int64, error) {
	f.slotHourStart = hourStart
	return f.slotCount, nil
}

func (f *fakeRepo) ListExpired(_ context.Context, statuses []enums.TaskStatus, before time.Time, _ int) ([]models.Task, error) {
	rows := []models.Task{}
	for _, task := range f.tasks {
		live := false
		for _, status := range statuses {
			if task.Status == status {
				live = true
			}
		}
		if live && task.ScheduledEnd.Before(before) {
			rows = append(rows, *task)
		}
	}
	return rows, nil
}

func (f *fakeRepo) List(_ context.Context, _ listTasksParams) ([]models.Task, *pagination.Cursor, error) {
	rows := []models.Task{}
	for _, task := range f.tasks {
		rows = append(rows, *task)
	}
	return rows, nil, nil
}

func (f *fakeRepo) CountByStatus(context.Context, uuid.UUID, time.Time, time.Time) (map[enums.TaskStatus]int64, error) {
	return f.counts, nil
}

func (f *fakeRepo) NextPending(context.Context, uuid.UUID, time.Time, int) ([]models.Task, error) {
	return nil, nil
}

func (f *fakeRepo) CompletedBetween(context.Context, uuid.UUID, time.Time, time.Time) ([]models.Task, error) {
	return f.completed, nil
}

func (f *fakeRepo) CreateIssue(_ context.Context, issue *models.IssueReport) error {
	issue.ID = uuid.New()
	stored := *issue
	f.issues = append(f.issues, &stored)
	return nil
}

func (f *fakeRepo) FindIssue(_ context.Context, taskID, employeeID uuid.UUID) (*models.IssueReport, error) {
	for _, issue := range f.issues {
		if issue.TaskID == taskID && issue.EmployeeID == employeeID {
			stored := *issue
			return &stored, nil
		}
	}
	return nil, nil
}

type fakeRequests struct {
	requests map[uuid.UUID]*models.PickupRequest
}

func (f *fakeRequests) Get(_ context.Context, id uuid.UUID) (*models.PickupRequest, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	stored := *request
	return &stored, nil
}

func (f *fakeRequests) Create(_ context.Context, _ *gorm.DB, request *models.PickupRequest) error {
	request.ID = uuid.New()
	stored := *request
	f.requests[request.ID] = &stored
	return nil
}

func (f *fakeRequests) LinkTask(_ context.Context, _ *gorm.DB, requestID, taskID uuid.UUID) error {
	if request, ok := f.requests[requestID]; ok {
		request.TaskID = &taskID
	}
	return nil
}

func (f *fakeRequests) UpdateStatus(_ context.Context, _ *gorm.DB, requestID uuid.UUID, status enums.PickupStatus) error {
	if request, ok := f.requests[requestID]; ok {
		request.Status = status
	}
	return nil
}

func (f *fakeRequests) UpdateDetails(_ context.Context, _ *gorm.DB, updated *models.PickupRequest) error {
	if _, ok := f.requests[updated.ID]; ok {
		stored := *updated
		f.requests[updated.ID] = &stored
	}
	return nil
}

type fakeDirectory struct {
	employees map[uuid.UUID]*models.Employee
	property  *models.Property
}

func (f *fakeDirectory) GetEmployee(_ context.Context, id uuid.UUID) (*models.Employee, error) {
	return f.employees[id], nil
}

func (f *fakeDirectory) GetProperty(_ context.Context, id uuid.UUID) (*models.Property, error) {
	if f.property == nil || f.property.ID != id {
		return nil, nil
	}
	return f.property, nil
}

type fakeAssigner struct {
	authorized bool
	temps      []assignments.CreateTemporaryParams
}

func (f *fakeAssigner) Authorized(context.Context, uuid.UUID, uuid.UUID, time.Time) (bool, error) {
	return f.authorized, nil
}

func (f *fakeAssigner) CreateTemporary(_ context.Context, params assignments.CreateTemporaryParams) (*models.TemporaryAssignment, error) {
	f.temps = append(f.temps, params)
	return &models.TemporaryAssignment{EmployeeID: params.EmployeeID, PropertyID: params.PropertyID}, nil
}

type fakeRecorder struct {
	entries []activity.Entry
}

func (f *fakeRecorder) Record(_ context.Context, entry activity.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeNotifier struct {
	msgs []notifications.Message
}

func (f *fakeNotifier) Send(_ context.Context, msg notifications.Message) {
	f.msgs = append(f.msgs, msg)
}

type fakeTx struct{}

func (fakeTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type fixture struct {
	svc      Service
	repo     *fakeRepo
	requests *fakeRequests
	dir      *fakeDirectory
	assigner *fakeAssigner
	recorder *fakeRecorder
	notifier *fakeNotifier

	employeeID uuid.UUID
	userID     uuid.UUID
	propertyID uuid.UUID
	taskID     uuid.UUID
	requestID  uuid.UUID
}

// mtn returns an instant at the given local Denver wall time on a fixed day.
func mtn(t *testing.T, hour, min int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return time.Date(2026, 6, 15, hour, min, 0, 0, loc)
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	employeeID := uuid.New()
	userID := uuid.New()
	propertyID := uuid.New()
	requestID := uuid.New()
	taskID := uuid.New()

	task := &models.Task{
		ID:                taskID,
		RequestID:         requestID,
		PropertyID:        propertyID,
		AssignedEmployees: dbtypes.UUIDArray{employeeID},
		UnitNumber:        "204",
		ScheduledStart:    mtn(t, 10, 0),
		ScheduledEnd:      mtn(t, 11, 0),
		Status:            enums.TaskStatusPending,
	}
	request := &models.PickupRequest{
		ID:                  requestID,
		UserID:              &userID,
		PropertyID:          propertyID,
		UnitNumber:          "204",
		Type:                enums.PickupTypeOnDemand,
		Date:                mtn(t, 0, 0),
		TimeSlot:            "10:00 AM - 11:00 AM",
		SlotStartMinutes:    10 * 60,
		SlotDurationMinutes: 60,
		Status:              enums.PickupStatusScheduled,
		TaskID:              &taskID,
	}

	repo := &fakeRepo{tasks: map[uuid.UUID]*models.Task{taskID: task}}
	requests := &fakeRequests{requests: map[uuid.UUID]*models.PickupRequest{requestID: request}}
	dir := &fakeDirectory{
		employees: map[uuid.UUID]*models.Employee{
			employeeID: {ID: employeeID, IsActive: true},
		},
		property: &models.Property{ID: propertyID, IsActive: true},
	}
	assigner := &fakeAssigner{authorized: true}
	recorder := &fakeRecorder{}
	notifier := &fakeNotifier{}

	clk := clock.New(context.Background(), clock.Params{
		Config: config.ClockConfig{Timezone: "America/Denver"},
		Now:    func() time.Time { return now },
	})

	svc, err := NewService(Params{
		Repo:      repo,
		Requests:  requests,
		Directory: dir,
		Assigner:  assigner,
		Activity:  recorder,
		Notifier:  notifier,
		Tx:        fakeTx{},
		Clock:     clk,
		Config:    config.TasksConfig{SlotCapacity: 35},
		Logger:    logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &fixture{
		svc:        svc,
		repo:       repo,
		requests:   requests,
		dir:        dir,
		assigner:   assigner,
		recorder:   recorder,
		notifier:   notifier,
		employeeID: employeeID,
		userID:     userID,
		propertyID: propertyID,
		taskID:     taskID,
		requestID:  requestID,
	}
}

func TestStartBindsEmployee(t *testing.T) {
	fx := newFixture(t, mtn(t, 10, 15))

	task, err := fx.svc.Start(context.Background(), fx.taskID, fx.employeeID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if task.Status != enums.TaskStatusInProgress {
		t.Fatalf("expected in_progress, got %s", task.Status)
	}
	if task.EmployeeID == nil || *task.EmployeeID != fx.employeeID {
		t.Fatalf("expected employee bound, got %v", task.EmployeeID)
	}
	if task.ActualStart == nil {
		t.Fatal("expected actual start set")
	}
	if len(fx.recorder.entries) != 1 || fx.recorder.entries[0].Kind != enums.ActivityTaskStarted {
		t.Fatalf("expected TASK_STARTED entry, got %+v", fx.recorder.entries)
	}
}

func TestStartByUnassignedEmployeeForbidden(t *testing.T) {
	fx := newFixture(t, mtn(t, 10, 15))

	_, err := fx.svc.Start(context.Background(), fx.taskID, uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestStartOutsideWindowForbidden(t *testing.T) {
	fx := newFixture(t, mtn(t, 11, 30))

	_, err := fx.svc.Start(context.Background(), fx.taskID, fx.employeeID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestStartTwiceStateConflict(t *testing.T) {
	fx := newFixture(t, mtn(t, 10, 15))

	if _, err := fx.svc.Start(context.Background(), fx.taskID, fx.employeeID); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	_, err := fx.svc.Start(context.Background(), fx.taskID, fx.employeeID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestStartUnknownTaskNotFound(t *testing.T) {
	fx := newFixture(t, mtn(t, 10, 15))

	_, err := fx.svc.Start(context.Background(), uuid.New(), fx.employeeID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCompleteCascadesRequest(t *testing.T) {
	fx := newFixture(t, mtn(t, 10, 15))

	if _, err := fx.svc.Start(context.Background(), fx.taskID, fx.employeeID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	task, err := fx.svc.Complete(context.Background(), fx.taskID, fx.employeeID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if task.Status != enums.TaskStatusCompleted || task.ActualEnd == nil {
		t.Fatalf("unexpected task state %+v", task)
	}
	if fx.requests.requests[fx.requestID].Status != enums.PickupStatusCompleted {
		t.Fatalf("expected request completed, got %s", fx.requests.requests[fx.requestID].Status)
	}
	if len(fx.notifier.msgs) != 1 || fx.notifier.msgs[0].RecipientID != fx.userID ||
		fx.notifier.msgs[0].Type != enums.NotificationTaskStatus {
		t.Fatalf("expected completion notification to user, got %+v", fx.notifier.msgs)
	}
}

func TestCompleteFromPendingStateConflict(t *testing.T) {
	fx := newFixture(t, mtn(t, 10, 15))

	_, err := fx.svc.Complete(context.Background(), fx.taskID, fx.employeeID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestDelayRequiresReason(t *testing.T) {
	fx := newFixture(t, mtn(t, 10, 15))

	_, err := fx.svc.Delay(context.Background(), fx.taskID, fx.employeeID, "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDelayCascadesRequest(t *testing.T) {
	fx := newFixture(t, mtn(t, 10, 15))

	task, err := fx.svc.Delay(context.Background(), fx.taskID, fx.employeeID, "truck blocked")
	if err != nil {
		t.Fatalf("delay failed: %v", err)
	}
	if task.Status != enums.TaskStatusDelayed {
		t.Fatalf("expected delayed, got %s", task.Status)
	}
	if task.DelayReason == nil || *task.DelayReason != "truck blocked" {
		t.Fatalf("expected delay reason, got %v", task.DelayReason)
	}
	if fx.requests.requests[fx.requestID].Status != enums.PickupStatusDelayed {
		t.Fatalf("expected request delayed, got %s", fx.requests.requests[fx.requestID].Status)
	}
	if len(fx.recorder.entries) != 1 || fx.recorder.entries[0].Kind != enums.ActivityTaskDelayed {
		t.Fatalf("expected TASK_DELAYED entry, got %+v", fx.recorder.entries)
	}
}

func TestReportIssueLinksTask(t *testing.T) {
	fx := newFixture(t, mtn(t, 10, 15))

	issue, err := fx.svc.ReportIssue(context.Background(), ReportIssueParams{
		TaskID:      fx.taskID,
		EmployeeID:  fx.employeeID,
		IssueType:   "blocked_access",
		Description: "gate locked",
	})
	if err != nil {
		t.Fatalf("report issue failed: %v", err)
	}
	stored := fx.repo.tasks[fx.taskID]
	if stored.IssueID == nil || *stored.IssueID != issue.ID {
		t.Fatalf("expected issue linked, got %v", stored.IssueID)
	}
	if len(fx.recorder.entries) != 1 || fx.recorder.entries[0].Kind != enums.ActivityIssueReported {
		t.Fatalf("expected ISSUE_REPORTED entry, got %+v", fx.recorder.entries)
	}
}

func TestReportIssueDuplicateConflict(t *testing.T) {
	fx := newFixture(t, mtn(t, 10, 15))

	params := ReportIssueParams{
		TaskID:      fx.taskID,
		EmployeeID:  fx.employeeID,
		IssueType:   "blocked_access",
		Description: "gate locked",
	}
	if _, err := fx.svc.ReportIssue(context.Background(), params); err != nil {
		t.Fatalf("first report failed: %v", err)
	}
	_, err := fx.svc.ReportIssue(context.Background(), params)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestReassignReplacesAssignees(t *testing.T) {
	fx := newFixture(t, mtn(t, 9, 0))
	next := uuid.New()
	fx.dir.employees[next] = &models.Employee{ID: next, IsActive: true}

	task, err := fx.svc.Reassign(context.Background(), ReassignParams{
		TaskID:     fx.taskID,
		EmployeeID: &next,
		AdminID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
	if !task.AssignedTo(next) || task.AssignedTo(fx.employeeID) {
		t.Fatalf("unexpected assignment set %+v", task.AssignedEmployees)
	}
	if len(fx.notifier.msgs) != 1 || fx.notifier.msgs[0].Type != enums.NotificationNewTaskAssigned {
		t.Fatalf("expected assignment notification, got %+v", fx.notifier.msgs)
	}
}

func TestReassignCapacityBoundary(t *testing.T) {
	for _, tc := range []struct {
		name      string
		slotCount int64
		wantErr   bool
	}{
		{"under capacity", 34, false},
		{"at capacity", 35, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture(t, mtn(t, 9, 0))
			fx.repo.slotCount = tc.slotCount
			next := uuid.New()
			fx.dir.employees[next] = &models.Employee{ID: next, IsActive: true}

			_, err := fx.svc.Reassign(context.Background(), ReassignParams{
				TaskID:     fx.taskID,
				EmployeeID: &next,
				AdminID:    uuid.New(),
			})
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeConflict {
				t.Fatalf("expected conflict, got %v", err)
			}
		})
	}
}

func TestReassignWithoutAssignmentCreatesTemporary(t *testing.T) {
	fx := newFixture(t, mtn(t, 9, 0))
	fx.assigner.authorized = false
	next := uuid.New()
	fx.dir.employees[next] = &models.Employee{ID: next, IsActive: true}
	admin := uuid.New()

	if _, err := fx.svc.Reassign(context.Background(), ReassignParams{
		TaskID:     fx.taskID,
		EmployeeID: &next,
		AdminID:    admin,
		Reason:     "coverage swap",
	}); err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
	if len(fx.assigner.temps) != 1 {
		t.Fatalf("expected one temporary assignment, got %d", len(fx.assigner.temps))
	}
	temp := fx.assigner.temps[0]
	if temp.EmployeeID != next || temp.AssignedBy != admin || temp.Reason != "coverage swap" {
		t.Fatalf("unexpected temporary assignment %+v", temp)
	}
}

func TestReassignTerminalStateConflict(t *testing.T) {
	for _, status := range []enums.TaskStatus{
		enums.TaskStatusCompleted,
		enums.TaskStatusDelayed,
		enums.TaskStatusMissed,
	} {
		t.Run(string(status), func(t *testing.T) {
			fx := newFixture(t, mtn(t, 9, 0))
			fx.repo.tasks[fx.taskID].Status = status

			_, err := fx.svc.Reassign(context.Background(), ReassignParams{
				TaskID:     fx.taskID,
				EmployeeID: &fx.employeeID,
				AdminID:    uuid.New(),
			})
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
				t.Fatalf("expected state conflict, got %v", err)
			}
		})
	}
}

func TestReportIssueOnDelayedTaskStateConflict(t *testing.T) {
	fx := newFixture(t, mtn(t, 10, 15))
	fx.repo.tasks[fx.taskID].Status = enums.TaskStatusDelayed

	_, err := fx.svc.ReportIssue(context.Background(), ReportIssueParams{
		TaskID:      fx.taskID,
		EmployeeID:  fx.employeeID,
		IssueType:   "blocked_access",
		Description: "gate locked",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestReassignReschedulesTaskAndRequest(t *testing.T) {
	fx := newFixture(t, mtn(t, 9, 0))
	newDate := mtn(t, 0, 0).AddDate(0, 0, 1)
	newSlot := "2:00 PM - 3:00 PM"
	instructions := "leave bins by the gate"

	task, err := fx.svc.Reassign(context.Background(), ReassignParams{
		TaskID:       fx.taskID,
		AdminID:      uuid.New(),
		Date:         &newDate,
		TimeSlot:     &newSlot,
		Instructions: &instructions,
	})
	if err != nil {
		t.Fatalf("reassign failed: %v", err)
	}

	wantStart := time.Date(2026, 6, 16, 14, 0, 0, 0, mtn(t, 0, 0).Location())
	if !task.ScheduledStart.Equal(wantStart) {
		t.Fatalf("expected start %v, got %v", wantStart, task.ScheduledStart)
	}
	if !task.ScheduledEnd.Equal(wantStart.Add(time.Hour)) {
		t.Fatalf("expected one-hour window, got end %v", task.ScheduledEnd)
	}
	if !fx.repo.slotHourStart.Equal(wantStart) {
		t.Fatalf("expected capacity checked against new slot, got %v", fx.repo.slotHourStart)
	}

	request := fx.requests.requests[fx.requestID]
	if request.SlotStartMinutes != 14*60 {
		t.Fatalf("expected request slot moved to 2 PM, got %d", request.SlotStartMinutes)
	}
	if !request.Date.Equal(newDate) {
		t.Fatalf("expected request date %v, got %v", newDate, request.Date)
	}
	if request.SpecialInstructions == nil || *request.SpecialInstructions != instructions {
		t.Fatalf("expected instructions updated, got %v", request.SpecialInstructions)
	}
	if !task.AssignedTo(fx.employeeID) {
		t.Fatalf("expected assignment unchanged, got %+v", task.AssignedEmployees)
	}
	if len(fx.notifier.msgs) != 0 {
		t.Fatalf("expected no assignment notification, got %+v", fx.notifier.msgs)
	}
}

func TestReassignMovesProperty(t *testing.T) {
	fx := newFixture(t, mtn(t, 9, 0))
	newProperty := uuid.New()
	fx.dir.property = &models.Property{ID: newProperty, IsActive: true}

	task, err := fx.svc.Reassign(context.Background(), ReassignParams{
		TaskID:     fx.taskID,
		AdminID:    uuid.New(),
		PropertyID: &newProperty,
	})
	if err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
	if task.PropertyID != newProperty {
		t.Fatalf("expected property moved, got %s", task.PropertyID)
	}
	if fx.requests.requests[fx.requestID].PropertyID != newProperty {
		t.Fatalf("expected request property moved, got %s", fx.requests.requests[fx.requestID].PropertyID)
	}
}

func TestReassignWithoutChangesValidation(t *testing.T) {
	fx := newFixture(t, mtn(t, 9, 0))

	_, err := fx.svc.Reassign(context.Background(), ReassignParams{
		TaskID:  fx.taskID,
		AdminID: uuid.New(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVersionRaceSurfacesConflict(t *testing.T) {
	fx := newFixture(t, mtn(t, 10, 15))
	fx.repo.failVersioned = true

	_, err := fx.svc.Start(context.Background(), fx.taskID, fx.employeeID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateLinksRequestAndTask(t *testing.T) {
	fx := newFixture(t, mtn(t, 8, 0))
	second := uuid.New()
	fx.dir.employees[second] = &models.Employee{ID: second, IsActive: true}

	task, err := fx.svc.Create(context.Background(), CreateParams{
		PropertyID:  fx.propertyID,
		UserID:      &fx.userID,
		EmployeeIDs: []uuid.UUID{fx.employeeID, second},
		AdminID:     uuid.New(),
		UnitNumber:  "310",
		Type:        enums.PickupTypeOnDemand,
		Date:        mtn(t, 0, 0),
		TimeSlot:    "2:00 PM - 3:00 PM",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if task.Status != enums.TaskStatusPending {
		t.Fatalf("expected pending, got %s", task.Status)
	}
	if !task.AssignedTo(fx.employeeID) || !task.AssignedTo(second) {
		t.Fatalf("expected both employees assigned, got %+v", task.AssignedEmployees)
	}

	request := fx.requests.requests[task.RequestID]
	if request == nil || request.TaskID == nil || *request.TaskID != task.ID {
		t.Fatalf("expected request linked to task, got %+v", request)
	}
	if request.SlotStartMinutes != 14*60 {
		t.Fatalf("expected 2 PM slot start, got %d", request.SlotStartMinutes)
	}
	if len(fx.notifier.msgs) != 2 {
		t.Fatalf("expected two assignment notifications, got %d", len(fx.notifier.msgs))
	}
}

func TestSweepMissedMarksOverdueTasks(t *testing.T) {
	fx := newFixture(t, mtn(t, 12, 0))

	swept, err := fx.svc.SweepMissed(context.Background(), mtn(t, 12, 0))
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected one swept task, got %d", swept)
	}
	if fx.repo.tasks[fx.taskID].Status != enums.TaskStatusMissed {
		t.Fatalf("expected missed, got %s", fx.repo.tasks[fx.taskID].Status)
	}
	if fx.requests.requests[fx.requestID].Status != enums.PickupStatusMissed {
		t.Fatalf("expected request missed, got %s", fx.requests.requests[fx.requestID].Status)
	}
	if len(fx.recorder.entries) != 1 || fx.recorder.entries[0].Kind != enums.ActivityTaskMissed {
		t.Fatalf("expected TASK_MISSED entry, got %+v", fx.recorder.entries)
	}
	if len(fx.notifier.msgs) != 1 || fx.notifier.msgs[0].Type != enums.NotificationPickupMissed {
		t.Fatalf("expected missed-pickup notification, got %+v", fx.notifier.msgs)
	}
}

func TestSweepMissedIsIdempotent(t *testing.T) {
	fx := newFixture(t, mtn(t, 12, 0))

	if _, err := fx.svc.SweepMissed(context.Background(), mtn(t, 12, 0)); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	swept, err := fx.svc.SweepMissed(context.Background(), mtn(t, 12, 0))
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if swept != 0 {
		t.Fatalf("expected no tasks on second sweep, got %d", swept)
	}
	if len(fx.recorder.entries) != 1 {
		t.Fatalf("expected a single TASK_MISSED entry, got %d", len(fx.recorder.entries))
	}
}

func TestSweepMissedSkipsTasksStillInWindow(t *testing.T) {
	fx := newFixture(t, mtn(t, 10, 30))

	swept, err := fx.svc.SweepMissed(context.Background(), mtn(t, 10, 30))
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if swept != 0 {
		t.Fatalf("expected no swept tasks, got %d", swept)
	}
	if fx.repo.tasks[fx.taskID].Status != enums.TaskStatusPending {
		t.Fatalf("expected pending, got %s", fx.repo.tasks[fx.taskID].Status)
	}
}

func TestDashboardSumsOpenStatuses(t *testing.T) {
	fx := newFixture(t, mtn(t, 10, 0))
	fx.repo.counts = map[enums.TaskStatus]int64{
		enums.TaskStatusCompleted:  4,
		enums.TaskStatusPending:    2,
		enums.TaskStatusScheduled:  1,
		enums.TaskStatusInProgress: 1,
		enums.TaskStatusMissed:     3,
	}

	dashboard, err := fx.svc.Dashboard(context.Background(), fx.employeeID)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if dashboard.Completed != 4 || dashboard.Pending != 4 || dashboard.Missed != 3 {
		t.Fatalf("unexpected dashboard %+v", dashboard)
	}
}

func TestWorkHistoryGroupsByDay(t *testing.T) {
	fx := newFixture(t, mtn(t, 10, 0))
	day1a, day1b, day2 := mtn(t, 10, 0), mtn(t, 15, 0), mtn(t, 10, 0).Add(24*time.Hour)
	fx.repo.completed = []models.Task{
		{ID: uuid.New(), ActualEnd: &day1a, Status: enums.TaskStatusCompleted},
		{ID: uuid.New(), ActualEnd: &day1b, Status: enums.TaskStatusCompleted},
		{ID: uuid.New(), ActualEnd: &day2, Status: enums.TaskStatusCompleted},
	}

	days, err := fx.svc.WorkHistory(context.Background(), fx.employeeID, mtn(t, 0, 0), mtn(t, 0, 0).Add(72*time.Hour))
	if err != nil {
		t.Fatalf("work history failed: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected two days, got %d", len(days))
	}
	if days[0].Date != "2026-06-15" || days[0].Count != 2 {
		t.Fatalf("unexpected first day %+v", days[0])
	}
	if days[1].Date != "2026-06-16" || days[1].Count != 1 {
		t.Fatalf("unexpected second day %+v", days[1])
	}
}
