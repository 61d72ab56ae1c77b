package service

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"campaign_call_backend/internal/model"
	"campaign_call_backend/internal/repository"
	"campaign_call_backend/internal/util"
	"campaign_call_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Integration tests run against a real MySQL instance because the claim
// paths depend on InnoDB locking (FOR UPDATE SKIP LOCKED) that sqlite
// cannot emulate. Set TEST_MYSQL_DSN to enable them, e.g.
//
//	TEST_MYSQL_DSN="root:root@tcp(127.0.0.1:3306)/campaign_calls_test?charset=utf8mb4&parseTime=true" go test ./...
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set, skipping integration test")
	}

	if logger.Log == nil {
		logger.Log = zap.NewNop()
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Campaign{},
		&model.Voter{},
		&model.CallAssignment{},
		&model.VerificationCall{},
		&model.Survey{},
		&model.SurveyQuestion{},
		&model.SurveyResponse{},
	); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	for _, table := range []string{
		"survey_responses", "survey_questions", "surveys",
		"verification_calls", "call_assignments", "voters", "campaigns", "users",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("clean table %s: %v", table, err)
		}
	}

	return db
}

type testFixture struct {
	db         *gorm.DB
	assignment *CallAssignmentService
	call       *VerificationCallService

	campaign   *model.Campaign
	supervisor *model.User
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	db := setupTestDB(t)

	assignmentRepo := repository.NewCallAssignmentRepository(db)
	voterRepo := repository.NewVoterRepository(db)
	userRepo := repository.NewUserRepository(db)
	callRepo := repository.NewVerificationCallRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)
	responseRepo := repository.NewSurveyResponseRepository(db)

	f := &testFixture{
		db:         db,
		assignment: NewCallAssignmentService(assignmentRepo, voterRepo, userRepo, db, nil),
		call:       NewVerificationCallService(callRepo, assignmentRepo, voterRepo, surveyRepo, responseRepo, db),
	}

	f.supervisor = f.createUser(t, "supervisor@test.local", model.Supervisor)
	f.campaign = &model.Campaign{Name: "Test Campaign", Municipality: "Testville", OwnerID: f.supervisor.ID, Active: true}
	if err := db.Create(f.campaign).Error; err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	return f
}

func (f *testFixture) createUser(t *testing.T, email string, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{Name: email, Email: email, Password: "x", Role: role}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func (f *testFixture) createVoters(t *testing.T, n int) []uint {
	t.Helper()
	ids := make([]uint, 0, n)
	for i := 0; i < n; i++ {
		voter := &model.Voter{
			CampaignID: f.campaign.ID,
			DocumentID: fmt.Sprintf("DOC-%d-%d", f.campaign.ID, i),
			FullName:   fmt.Sprintf("Voter %d", i),
			Phone:      fmt.Sprintf("300555%04d", i),
			Status:     model.VoterPendingReview,
		}
		if err := f.db.Create(voter).Error; err != nil {
			t.Fatalf("create voter %d: %v", i, err)
		}
		ids = append(ids, voter.ID)
	}
	return ids
}

func TestLoadBatchTopsUpToTarget(t *testing.T) {
	f := newTestFixture(t)
	reviewer := f.createUser(t, "reviewer@test.local", model.Reviewer)
	f.createVoters(t, 10)

	created, err := f.assignment.LoadBatch(f.campaign.ID, reviewer.ID, f.supervisor.ID, 5)
	if err != nil {
		t.Fatalf("load batch: %v", err)
	}
	if created != 5 {
		t.Errorf("first batch created %d, want 5", created)
	}

	// Queue already at target: no-op, not an error.
	created, err = f.assignment.LoadBatch(f.campaign.ID, reviewer.ID, f.supervisor.ID, 5)
	if err != nil {
		t.Fatalf("second load batch: %v", err)
	}
	if created != 0 {
		t.Errorf("second batch created %d, want 0", created)
	}

	// Raising the target claims only the deficit.
	created, err = f.assignment.LoadBatch(f.campaign.ID, reviewer.ID, f.supervisor.ID, 8)
	if err != nil {
		t.Fatalf("third load batch: %v", err)
	}
	if created != 3 {
		t.Errorf("third batch created %d, want 3", created)
	}
}

func TestLoadBatchUnderSupply(t *testing.T) {
	f := newTestFixture(t)
	reviewer := f.createUser(t, "reviewer@test.local", model.Reviewer)
	f.createVoters(t, 2)

	created, err := f.assignment.LoadBatch(f.campaign.ID, reviewer.ID, f.supervisor.ID, 5)
	if err != nil {
		t.Fatalf("load batch: %v", err)
	}
	if created != 2 {
		t.Errorf("created %d, want 2 (all that was available)", created)
	}
}

func TestLoadBatchConcurrentClaimsAreDisjoint(t *testing.T) {
	f := newTestFixture(t)
	f.createVoters(t, 20)

	const reviewers = 4
	reviewerIDs := make([]uint, reviewers)
	for i := 0; i < reviewers; i++ {
		reviewerIDs[i] = f.createUser(t, fmt.Sprintf("reviewer%d@test.local", i), model.Reviewer).ID
	}

	var wg sync.WaitGroup
	var totalCreated int64
	errs := make(chan error, reviewers)
	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func(reviewerID uint) {
			defer wg.Done()
			created, err := f.assignment.LoadBatch(f.campaign.ID, reviewerID, f.supervisor.ID, 5)
			if err != nil {
				errs <- err
				return
			}
			atomic.AddInt64(&totalCreated, int64(created))
		}(reviewerIDs[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent load batch: %v", err)
	}

	if totalCreated != 20 {
		t.Errorf("total created %d, want 20", totalCreated)
	}

	// No voter may appear in two active assignments.
	var doubleClaimed int64
	err := f.db.Raw(`SELECT COUNT(*) FROM (
		SELECT voter_id FROM call_assignments
		WHERE status IN ('pending','in_progress') AND deleted_at IS NULL
		GROUP BY voter_id HAVING COUNT(*) > 1
	) dup`).Scan(&doubleClaimed).Error
	if err != nil {
		t.Fatalf("count duplicates: %v", err)
	}
	if doubleClaimed != 0 {
		t.Errorf("%d voters claimed by more than one reviewer", doubleClaimed)
	}
}

func TestAssignVoterRejectsDuplicateActive(t *testing.T) {
	f := newTestFixture(t)
	reviewerA := f.createUser(t, "a@test.local", model.Reviewer)
	reviewerB := f.createUser(t, "b@test.local", model.Reviewer)
	voterIDs := f.createVoters(t, 1)

	if _, err := f.assignment.AssignVoter(voterIDs[0], reviewerA.ID, f.campaign.ID, f.supervisor.ID, model.PriorityHigh); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	_, err := f.assignment.AssignVoter(voterIDs[0], reviewerB.ID, f.campaign.ID, f.supervisor.ID, model.PriorityHigh)
	if err != util.ErrDuplicateActiveAssignment {
		t.Errorf("second assign err = %v, want ErrDuplicateActiveAssignment", err)
	}
}

func TestQueueOrderingUrgentFirstThenFIFO(t *testing.T) {
	f := newTestFixture(t)
	reviewer := f.createUser(t, "reviewer@test.local", model.Reviewer)
	voterIDs := f.createVoters(t, 3)

	first, err := f.assignment.AssignVoter(voterIDs[0], reviewer.ID, f.campaign.ID, f.supervisor.ID, model.PriorityMedium)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	second, err := f.assignment.AssignVoter(voterIDs[1], reviewer.ID, f.campaign.ID, f.supervisor.ID, model.PriorityMedium)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	urgent, err := f.assignment.AssignVoter(voterIDs[2], reviewer.ID, f.campaign.ID, f.supervisor.ID, model.PriorityUrgent)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	queue, err := f.assignment.GetCallerQueue(reviewer.ID, f.campaign.ID)
	if err != nil {
		t.Fatalf("get queue: %v", err)
	}
	if len(queue) != 3 {
		t.Fatalf("queue length %d, want 3", len(queue))
	}
	if queue[0].ID != urgent.ID {
		t.Errorf("queue head is %d, want urgent assignment %d", queue[0].ID, urgent.ID)
	}
	if queue[1].ID != first.ID || queue[2].ID != second.ID {
		t.Errorf("same-priority items not in FIFO order: got [%d %d], want [%d %d]",
			queue[1].ID, queue[2].ID, first.ID, second.ID)
	}

	next, err := f.assignment.GetNextAssignment(reviewer.ID, f.campaign.ID)
	if err != nil {
		t.Fatalf("get next: %v", err)
	}
	if next == nil || next.ID != urgent.ID {
		t.Errorf("next assignment should be the urgent one")
	}
}

func TestReassignMovesOnlyPending(t *testing.T) {
	f := newTestFixture(t)
	from := f.createUser(t, "from@test.local", model.Reviewer)
	to := f.createUser(t, "to@test.local", model.Reviewer)
	voterIDs := f.createVoters(t, 3)

	var assignments []*model.CallAssignment
	for _, voterID := range voterIDs {
		a, err := f.assignment.AssignVoter(voterID, from.ID, f.campaign.ID, f.supervisor.ID, model.PriorityMedium)
		if err != nil {
			t.Fatalf("assign: %v", err)
		}
		assignments = append(assignments, a)
	}

	// One assignment is already being worked: it must not move.
	if _, err := f.assignment.StartAssignment(assignments[0].ID, from.ID); err != nil {
		t.Fatalf("start assignment: %v", err)
	}

	moved, err := f.assignment.ReassignPending(from.ID, to.ID, f.campaign.ID, f.supervisor.ID)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if moved != 2 {
		t.Errorf("moved %d assignments, want 2", moved)
	}

	var inProgress model.CallAssignment
	if err := f.db.First(&inProgress, assignments[0].ID).Error; err != nil {
		t.Fatalf("reload in-progress assignment: %v", err)
	}
	if inProgress.ReviewerID != from.ID {
		t.Errorf("in-progress assignment moved to %d, should stay with %d", inProgress.ReviewerID, from.ID)
	}

	// The superseded claims stay queryable under the old reviewer.
	for _, old := range assignments[1:] {
		var superseded model.CallAssignment
		if err := f.db.First(&superseded, old.ID).Error; err != nil {
			t.Fatalf("reload superseded assignment %d: %v", old.ID, err)
		}
		if superseded.Status != model.AssignmentReassigned {
			t.Errorf("superseded assignment %d status %q, want reassigned", old.ID, superseded.Status)
		}
		if superseded.ReviewerID != from.ID {
			t.Errorf("superseded assignment %d reviewer %d, history should keep %d", old.ID, superseded.ReviewerID, from.ID)
		}
	}

	queue, err := f.assignment.GetCallerQueue(to.ID, f.campaign.ID)
	if err != nil {
		t.Fatalf("new owner queue: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("new owner queue length %d, want 2", len(queue))
	}
	for _, a := range queue {
		if a.Status != model.AssignmentPending {
			t.Errorf("replacement assignment %d status %q, want pending", a.ID, a.Status)
		}
		if a.AssignedByID != f.supervisor.ID {
			t.Errorf("replacement assignment %d assigned_by %d, want supervisor %d", a.ID, a.AssignedByID, f.supervisor.ID)
		}
	}

	// Tombstones must not inflate campaign totals.
	stats, err := f.assignment.GetCampaignStatistics(f.campaign.ID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("statistics total %d, want 3 (1 in_progress + 2 pending)", stats.Total)
	}
}

func TestStartAssignmentLosesRaceToReassignment(t *testing.T) {
	f := newTestFixture(t)
	from := f.createUser(t, "from@test.local", model.Reviewer)
	to := f.createUser(t, "to@test.local", model.Reviewer)
	voterIDs := f.createVoters(t, 1)

	old, err := f.assignment.AssignVoter(voterIDs[0], from.ID, f.campaign.ID, f.supervisor.ID, model.PriorityMedium)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	if _, err := f.assignment.ReassignPending(from.ID, to.ID, f.campaign.ID, f.supervisor.ID); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	// Old owner starting the superseded claim must not resurrect it.
	if _, err := f.assignment.StartAssignment(old.ID, from.ID); !errors.Is(err, util.ErrAssignmentNotFound) {
		t.Errorf("start superseded err = %v, want ErrAssignmentNotFound", err)
	}
	var superseded model.CallAssignment
	if err := f.db.First(&superseded, old.ID).Error; err != nil {
		t.Fatalf("reload superseded: %v", err)
	}
	if superseded.Status != model.AssignmentReassigned {
		t.Errorf("superseded status %q after start attempt, want reassigned", superseded.Status)
	}

	// The replacement belongs to the new owner and only the new owner can
	// start it.
	replacement, err := f.assignment.GetNextAssignment(to.ID, f.campaign.ID)
	if err != nil {
		t.Fatalf("next for new owner: %v", err)
	}
	if replacement == nil {
		t.Fatal("new owner should hold a replacement assignment")
	}
	if _, err := f.assignment.StartAssignment(replacement.ID, from.ID); !errors.Is(err, util.ErrAssignmentNotOwned) {
		t.Errorf("start by old owner err = %v, want ErrAssignmentNotOwned", err)
	}
	started, err := f.assignment.StartAssignment(replacement.ID, to.ID)
	if err != nil {
		t.Fatalf("start by new owner: %v", err)
	}
	if started.Status != model.AssignmentInProgress {
		t.Errorf("started status %q, want in_progress", started.Status)
	}
}

func TestAssignVoterRejectsIneligibleVoters(t *testing.T) {
	f := newTestFixture(t)
	reviewer := f.createUser(t, "reviewer@test.local", model.Reviewer)
	voterIDs := f.createVoters(t, 3)

	if err := f.db.Model(&model.Voter{}).Where("id = ?", voterIDs[0]).Update("phone", "").Error; err != nil {
		t.Fatalf("clear phone: %v", err)
	}
	if err := f.db.Model(&model.Voter{}).Where("id = ?", voterIDs[1]).Update("status", model.VoterVerified).Error; err != nil {
		t.Fatalf("mark verified: %v", err)
	}

	for _, voterID := range voterIDs[:2] {
		_, err := f.assignment.AssignVoter(voterID, reviewer.ID, f.campaign.ID, f.supervisor.ID, model.PriorityMedium)
		if !errors.Is(err, util.ErrVoterNotEligible) {
			t.Errorf("assign voter %d err = %v, want ErrVoterNotEligible", voterID, err)
		}
	}

	// Batch assignment skips the ineligible voters instead of failing.
	created, skipped, err := f.assignment.AssignVoters(f.campaign.ID, reviewer.ID, voterIDs, f.supervisor.ID)
	if err != nil {
		t.Fatalf("batch assign: %v", err)
	}
	if len(created) != 1 || created[0].VoterID != voterIDs[2] {
		t.Errorf("created %v, want exactly the eligible voter %d", created, voterIDs[2])
	}
	if len(skipped) != 2 {
		t.Errorf("skipped %v, want the two ineligible voters", skipped)
	}
}

func TestLogCallAttemptNumbering(t *testing.T) {
	f := newTestFixture(t)
	reviewer := f.createUser(t, "reviewer@test.local", model.Reviewer)
	voterIDs := f.createVoters(t, 1)

	for want := 1; want <= 3; want++ {
		call, err := f.call.LogCall(LogCallInput{
			VoterID:    voterIDs[0],
			ReviewerID: reviewer.ID,
			Result:     model.CallNoAnswer,
		})
		if err != nil {
			t.Fatalf("log call %d: %v", want, err)
		}
		if call.AttemptNumber != want {
			t.Errorf("attempt number %d, want %d", call.AttemptNumber, want)
		}
	}

	history, err := f.call.GetVoterCallHistory(voterIDs[0])
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length %d, want 3", len(history))
	}
	for i, call := range history {
		if call.AttemptNumber != i+1 {
			t.Errorf("history[%d].AttemptNumber = %d, want %d", i, call.AttemptNumber, i+1)
		}
	}
}

func TestLogCallConcurrentAttemptsStayUnique(t *testing.T) {
	f := newTestFixture(t)
	reviewer := f.createUser(t, "reviewer@test.local", model.Reviewer)
	voterIDs := f.createVoters(t, 1)

	const attempts = 5
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.call.LogCall(LogCallInput{
				VoterID:    voterIDs[0],
				ReviewerID: reviewer.ID,
				Result:     model.CallBusy,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent log call: %v", err)
		}
	}

	history, err := f.call.GetVoterCallHistory(voterIDs[0])
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != attempts {
		t.Fatalf("history length %d, want %d", len(history), attempts)
	}
	seen := make(map[int]bool)
	for _, call := range history {
		if seen[call.AttemptNumber] {
			t.Errorf("attempt number %d assigned twice", call.AttemptNumber)
		}
		seen[call.AttemptNumber] = true
	}
}

func TestLogCallTerminalSuccessCompletesAssignment(t *testing.T) {
	f := newTestFixture(t)
	reviewer := f.createUser(t, "reviewer@test.local", model.Reviewer)
	voterIDs := f.createVoters(t, 1)

	assignment, err := f.assignment.AssignVoter(voterIDs[0], reviewer.ID, f.campaign.ID, f.supervisor.ID, model.PriorityMedium)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	assignmentID := assignment.ID
	if _, err := f.call.LogCall(LogCallInput{
		VoterID:      voterIDs[0],
		ReviewerID:   reviewer.ID,
		AssignmentID: &assignmentID,
		Result:       model.CallConfirmed,
	}); err != nil {
		t.Fatalf("log call: %v", err)
	}

	var reloaded model.CallAssignment
	if err := f.db.First(&reloaded, assignmentID).Error; err != nil {
		t.Fatalf("reload assignment: %v", err)
	}
	if reloaded.Status != model.AssignmentCompleted {
		t.Errorf("assignment status %q, want completed", reloaded.Status)
	}
	if reloaded.CompletedAt == nil {
		t.Error("completed assignment should carry CompletedAt")
	}

	var voter model.Voter
	if err := f.db.First(&voter, voterIDs[0]).Error; err != nil {
		t.Fatalf("reload voter: %v", err)
	}
	if voter.Status != model.VoterVerified {
		t.Errorf("voter status %q, want verified", voter.Status)
	}
}

func TestLogCallInvalidNumberFlagsVoterUnreachable(t *testing.T) {
	f := newTestFixture(t)
	reviewer := f.createUser(t, "reviewer@test.local", model.Reviewer)
	voterIDs := f.createVoters(t, 1)

	if _, err := f.call.LogCall(LogCallInput{
		VoterID:    voterIDs[0],
		ReviewerID: reviewer.ID,
		Result:     model.CallWrongNumber,
	}); err != nil {
		t.Fatalf("log call: %v", err)
	}

	var voter model.Voter
	if err := f.db.First(&voter, voterIDs[0]).Error; err != nil {
		t.Fatalf("reload voter: %v", err)
	}
	if voter.Status != model.VoterUnreachable {
		t.Errorf("voter status %q, want unreachable", voter.Status)
	}
}

func (f *testFixture) createSurvey(t *testing.T, questions int) *model.Survey {
	t.Helper()
	survey := &model.Survey{CampaignID: f.campaign.ID, Title: "Verification", Active: true}
	for i := 0; i < questions; i++ {
		survey.Questions = append(survey.Questions, model.SurveyQuestion{
			Text:     fmt.Sprintf("Question %d", i+1),
			Type:     model.QuestionYesNo,
			Required: true,
			Order:    i + 1,
		})
	}
	if err := f.db.Create(survey).Error; err != nil {
		t.Fatalf("create survey: %v", err)
	}
	return survey
}

func TestRecordResponseUpsertsWithinAttempt(t *testing.T) {
	f := newTestFixture(t)
	reviewer := f.createUser(t, "reviewer@test.local", model.Reviewer)
	voterIDs := f.createVoters(t, 1)
	survey := f.createSurvey(t, 2)

	call, err := f.call.LogCall(LogCallInput{
		VoterID:    voterIDs[0],
		ReviewerID: reviewer.ID,
		Result:     model.CallAnswered,
	})
	if err != nil {
		t.Fatalf("log call: %v", err)
	}

	question := survey.Questions[0]
	if _, err := f.call.RecordResponse(RecordResponseInput{
		CallID:     call.ID,
		QuestionID: question.ID,
		AnsweredBy: reviewer.ID,
		Value:      "yes",
	}); err != nil {
		t.Fatalf("first response: %v", err)
	}

	// Correcting the answer within the same attempt updates in place.
	updated, err := f.call.RecordResponse(RecordResponseInput{
		CallID:     call.ID,
		QuestionID: question.ID,
		AnsweredBy: reviewer.ID,
		Value:      "no",
	})
	if err != nil {
		t.Fatalf("second response: %v", err)
	}
	if updated.Value != "no" {
		t.Errorf("updated value %q, want %q", updated.Value, "no")
	}

	responses, err := f.call.GetCallResponses(call.ID)
	if err != nil {
		t.Fatalf("get responses: %v", err)
	}
	if len(responses) != 1 {
		t.Errorf("response count %d, want 1 (upsert, not insert)", len(responses))
	}
}

func TestRecordResponseIsIndependentAcrossAttempts(t *testing.T) {
	f := newTestFixture(t)
	reviewer := f.createUser(t, "reviewer@test.local", model.Reviewer)
	voterIDs := f.createVoters(t, 1)
	survey := f.createSurvey(t, 1)
	question := survey.Questions[0]

	firstCall, err := f.call.LogCall(LogCallInput{
		VoterID: voterIDs[0], ReviewerID: reviewer.ID, Result: model.CallCallbackRequested,
	})
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := f.call.RecordResponse(RecordResponseInput{
		CallID: firstCall.ID, QuestionID: question.ID, AnsweredBy: reviewer.ID, Value: "maybe",
	}); err != nil {
		t.Fatalf("first response: %v", err)
	}

	secondCall, err := f.call.LogCall(LogCallInput{
		VoterID: voterIDs[0], ReviewerID: reviewer.ID, Result: model.CallAnswered,
	})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if _, err := f.call.RecordResponse(RecordResponseInput{
		CallID: secondCall.ID, QuestionID: question.ID, AnsweredBy: reviewer.ID, Value: "yes",
	}); err != nil {
		t.Fatalf("second response: %v", err)
	}

	history, err := f.call.GetResponseHistory(voterIDs[0], question.ID)
	if err != nil {
		t.Fatalf("response history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length %d, want 2 (one per attempt)", len(history))
	}
	if history[0].Value != "maybe" || history[1].Value != "yes" {
		t.Errorf("history values [%q %q], want [maybe yes]", history[0].Value, history[1].Value)
	}
}

func TestRecordResponseMarksSurveyCompleted(t *testing.T) {
	f := newTestFixture(t)
	reviewer := f.createUser(t, "reviewer@test.local", model.Reviewer)
	voterIDs := f.createVoters(t, 1)
	survey := f.createSurvey(t, 2)

	call, err := f.call.LogCall(LogCallInput{
		VoterID: voterIDs[0], ReviewerID: reviewer.ID, Result: model.CallAnswered,
	})
	if err != nil {
		t.Fatalf("log call: %v", err)
	}

	if _, err := f.call.RecordResponse(RecordResponseInput{
		CallID: call.ID, QuestionID: survey.Questions[0].ID, AnsweredBy: reviewer.ID, Value: "yes",
	}); err != nil {
		t.Fatalf("response 1: %v", err)
	}

	reloaded, err := f.call.CallRepo.FindByID(call.ID)
	if err != nil {
		t.Fatalf("reload call: %v", err)
	}
	if reloaded.SurveyCompleted {
		t.Error("survey should not be completed after one of two answers")
	}

	if _, err := f.call.RecordResponse(RecordResponseInput{
		CallID: call.ID, QuestionID: survey.Questions[1].ID, AnsweredBy: reviewer.ID, Value: "no",
	}); err != nil {
		t.Fatalf("response 2: %v", err)
	}

	reloaded, err = f.call.CallRepo.FindByID(call.ID)
	if err != nil {
		t.Fatalf("reload call: %v", err)
	}
	if !reloaded.SurveyCompleted {
		t.Error("survey should be completed after the last answer")
	}
}

func TestEligibilitySkipsVerifiedAndPhonelessVoters(t *testing.T) {
	f := newTestFixture(t)
	reviewer := f.createUser(t, "reviewer@test.local", model.Reviewer)
	voterIDs := f.createVoters(t, 3)

	// One voter has no phone, one is already verified.
	if err := f.db.Model(&model.Voter{}).Where("id = ?", voterIDs[0]).Update("phone", "").Error; err != nil {
		t.Fatalf("clear phone: %v", err)
	}
	if err := f.db.Model(&model.Voter{}).Where("id = ?", voterIDs[1]).Update("status", model.VoterVerified).Error; err != nil {
		t.Fatalf("mark verified: %v", err)
	}

	created, err := f.assignment.LoadBatch(f.campaign.ID, reviewer.ID, f.supervisor.ID, 5)
	if err != nil {
		t.Fatalf("load batch: %v", err)
	}
	if created != 1 {
		t.Errorf("created %d, want 1 (only the reachable pending voter)", created)
	}

	queue, err := f.assignment.GetCallerQueue(reviewer.ID, f.campaign.ID)
	if err != nil {
		t.Fatalf("get queue: %v", err)
	}
	if len(queue) != 1 || queue[0].VoterID != voterIDs[2] {
		t.Errorf("queue should hold exactly the eligible voter %d", voterIDs[2])
	}
}
