package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"campaign_call_backend/internal/model"
	"campaign_call_backend/internal/repository"
	"campaign_call_backend/internal/util"
	"campaign_call_backend/pkg/logger"
	"campaign_call_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	gomysql "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// claimRetries bounds how often a claim transaction is replayed after a
// deadlock or lock-wait timeout before the caller sees ErrAssignmentFailed.
const claimRetries = 3

const statsCacheTTL = 30 * time.Second

// CallAssignmentService owns every write to the assignment ledger. All
// claim paths use the same strategy: pessimistic row locks on the voters
// being claimed, held for the duration of one short transaction. Mixing in
// optimistic claims elsewhere would reintroduce the double-assignment race
// this service exists to prevent.
type CallAssignmentService struct {
	AssignmentRepo *repository.CallAssignmentRepository
	VoterRepo      *repository.VoterRepository
	UserRepo       *repository.UserRepository
	DB             *gorm.DB
	Redis          *redis.Client
}

func NewCallAssignmentService(
	assignmentRepo *repository.CallAssignmentRepository,
	voterRepo *repository.VoterRepository,
	userRepo *repository.UserRepository,
	db *gorm.DB,
	rdb *redis.Client,
) *CallAssignmentService {
	return &CallAssignmentService{
		AssignmentRepo: assignmentRepo,
		VoterRepo:      voterRepo,
		UserRepo:       userRepo,
		DB:             db,
		Redis:          rdb,
	}
}

// LoadBatch tops a reviewer's pending queue up to targetQueueSize ("cargar
// 5"). It claims at most the deficit between the target and the reviewer's
// current active assignments in this campaign; a queue already at or above
// the target is a no-op returning 0. Under-supply is not an error: the
// batch claims whatever is available. Concurrent invocations claim
// disjoint voter sets.
func (s *CallAssignmentService) LoadBatch(campaignID, reviewerID, assignedByID uint, targetQueueSize int) (int, error) {
	if targetQueueSize <= 0 {
		return 0, nil
	}
	if targetQueueSize > util.MaxQueueSize {
		targetQueueSize = util.MaxQueueSize
	}

	var created int
	err := claimWithRetry("batch claim", func() error {
		var err error
		created, err = s.loadBatchOnce(campaignID, reviewerID, assignedByID, targetQueueSize)
		return err
	}, zap.Uint("campaignId", campaignID), zap.Uint("reviewerId", reviewerID))
	if err != nil {
		return 0, err
	}
	return created, nil
}

// claimWithRetry replays fn on retryable storage conflicts, a bounded
// number of times, then surfaces the generic ErrAssignmentFailed. Every
// write path that touches the assignment ledger goes through it so
// deadlocks between concurrent claim transactions never reach a client.
func claimWithRetry(op string, fn func() error, fields ...zap.Field) error {
	var err error
	for attempt := 0; attempt < claimRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !isRetryableTxError(err) {
			return err
		}
		logger.Log.Warn(op+" conflict, retrying",
			append(append([]zap.Field{}, fields...), zap.Int("attempt", attempt+1), zap.Error(err))...)
	}

	logger.Log.Error(op+" failed after retries",
		append(append([]zap.Field{}, fields...), zap.Error(err))...)
	return util.ErrAssignmentFailed
}

func (s *CallAssignmentService) loadBatchOnce(campaignID, reviewerID, assignedByID uint, targetQueueSize int) (int, error) {
	created := 0
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		active, err := s.AssignmentRepo.CountActiveForReviewer(tx, campaignID, reviewerID)
		if err != nil {
			return err
		}

		deficit := targetQueueSize - int(active)
		if deficit <= 0 {
			return nil
		}

		voters, err := s.VoterRepo.EligibleForAssignment(tx, campaignID, deficit)
		if err != nil {
			return err
		}

		for _, voter := range voters {
			assignment := &model.CallAssignment{
				VoterID:      voter.ID,
				ReviewerID:   reviewerID,
				AssignedByID: assignedByID,
				CampaignID:   campaignID,
				Status:       model.AssignmentPending,
				Priority:     model.PriorityMedium,
			}
			if err := s.AssignmentRepo.Create(tx, assignment); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		monitoring.AssignmentsClaimed.WithLabelValues(fmt.Sprintf("%d", campaignID)).Add(float64(created))
	}
	return created, nil
}

// AssignVoter creates one manual assignment with an explicit priority. The
// voter row is locked before the active-assignment check so two
// simultaneous manual assignments for the same voter serialize.
func (s *CallAssignmentService) AssignVoter(voterID, reviewerID, campaignID, assignedByID uint, priority model.AssignmentPriority) (*model.CallAssignment, error) {
	if !priority.Valid() {
		return nil, util.ErrInvalidPriority
	}

	var created *model.CallAssignment
	err := claimWithRetry("manual claim", func() error {
		var err error
		created, err = s.assignVoterOnce(voterID, reviewerID, campaignID, assignedByID, priority)
		return err
	}, zap.Uint("voterId", voterID), zap.Uint("reviewerId", reviewerID))
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *CallAssignmentService) assignVoterOnce(voterID, reviewerID, campaignID, assignedByID uint, priority model.AssignmentPriority) (*model.CallAssignment, error) {
	var created *model.CallAssignment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var voter model.Voter
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&voter, voterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrVoterNotFound
			}
			return err
		}
		if voter.CampaignID != campaignID {
			return util.ErrVoterNotInCampaign
		}
		if voter.Status != model.VoterPendingReview || !voter.HasPhone() {
			return util.ErrVoterNotEligible
		}

		if _, err := s.AssignmentRepo.FindActiveByVoter(tx, voter.ID); err == nil {
			return util.ErrDuplicateActiveAssignment
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		created = &model.CallAssignment{
			VoterID:      voter.ID,
			ReviewerID:   reviewerID,
			AssignedByID: assignedByID,
			CampaignID:   campaignID,
			Status:       model.AssignmentPending,
			Priority:     priority,
		}
		return s.AssignmentRepo.Create(tx, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AssignVoters is the bulk variant of AssignVoter with medium priority and
// skip-and-continue semantics: voters that are missing, in another
// campaign or already actively assigned are collected in skipped instead
// of failing the whole batch.
func (s *CallAssignmentService) AssignVoters(campaignID, reviewerID uint, voterIDs []uint, assignedByID uint) (created []model.CallAssignment, skipped []uint, err error) {
	for _, voterID := range voterIDs {
		assignment, assignErr := s.AssignVoter(voterID, reviewerID, campaignID, assignedByID, model.PriorityMedium)
		if assignErr != nil {
			if errors.Is(assignErr, util.ErrDuplicateActiveAssignment) ||
				errors.Is(assignErr, util.ErrVoterNotFound) ||
				errors.Is(assignErr, util.ErrVoterNotInCampaign) ||
				errors.Is(assignErr, util.ErrVoterNotEligible) {
				skipped = append(skipped, voterID)
				continue
			}
			return nil, nil, assignErr
		}
		created = append(created, *assignment)
	}
	return created, skipped, nil
}

// AutoAssignVoters distributes voters over reviewers round-robin in the
// order both lists were given: one voter per round, so for N voters and K
// reviewers every reviewer ends up with floor(N/K) or ceil(N/K) items.
func (s *CallAssignmentService) AutoAssignVoters(campaignID uint, voterIDs, reviewerIDs []uint, assignedByID uint) ([]model.CallAssignment, []uint, error) {
	if len(reviewerIDs) == 0 {
		return nil, nil, util.ErrNoCallersAvailable
	}

	var created []model.CallAssignment
	var skipped []uint
	for _, pair := range distributeRoundRobin(voterIDs, reviewerIDs) {
		assignment, err := s.AssignVoter(pair.VoterID, pair.ReviewerID, campaignID, assignedByID, model.PriorityMedium)
		if err != nil {
			if errors.Is(err, util.ErrDuplicateActiveAssignment) ||
				errors.Is(err, util.ErrVoterNotFound) ||
				errors.Is(err, util.ErrVoterNotInCampaign) ||
				errors.Is(err, util.ErrVoterNotEligible) {
				skipped = append(skipped, pair.VoterID)
				continue
			}
			return nil, nil, err
		}
		created = append(created, *assignment)
	}
	return created, skipped, nil
}

type claimPair struct {
	VoterID    uint
	ReviewerID uint
}

// distributeRoundRobin pairs each voter with a reviewer, one voter per
// round in the given order. Deterministic: the same inputs always produce
// the same pairing, and reviewer counts never differ by more than one.
func distributeRoundRobin(voterIDs, reviewerIDs []uint) []claimPair {
	if len(reviewerIDs) == 0 {
		return nil
	}
	pairs := make([]claimPair, 0, len(voterIDs))
	for i, voterID := range voterIDs {
		pairs = append(pairs, claimPair{
			VoterID:    voterID,
			ReviewerID: reviewerIDs[i%len(reviewerIDs)],
		})
	}
	return pairs
}

// ReassignPending moves a reviewer's pending queue to another reviewer.
// This is the only way assignments leave a lapsed reviewer: there is no
// automatic reclaim on session timeout. Each superseded claim is closed
// as reassigned and replaced by a fresh pending assignment for the new
// owner, so the record of who held it before survives.
func (s *CallAssignmentService) ReassignPending(fromReviewerID, toReviewerID, campaignID, assignedByID uint) (int64, error) {
	if fromReviewerID == toReviewerID {
		return 0, nil
	}
	if _, err := s.UserRepo.FindByID(toReviewerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, util.ErrUserNotFound
		}
		return 0, err
	}

	var moved int64
	err := claimWithRetry("reassignment", func() error {
		moved = 0
		return s.DB.Transaction(func(tx *gorm.DB) error {
			pending, err := s.AssignmentRepo.LockPendingForReviewer(tx, campaignID, fromReviewerID)
			if err != nil {
				return err
			}
			for _, old := range pending {
				if err := s.AssignmentRepo.MarkReassigned(tx, old.ID); err != nil {
					return err
				}
				replacement := &model.CallAssignment{
					VoterID:      old.VoterID,
					ReviewerID:   toReviewerID,
					AssignedByID: assignedByID,
					CampaignID:   campaignID,
					Status:       model.AssignmentPending,
					Priority:     old.Priority,
				}
				if err := s.AssignmentRepo.Create(tx, replacement); err != nil {
					return err
				}
				moved++
			}
			return nil
		})
	}, zap.Uint("campaignId", campaignID), zap.Uint("from", fromReviewerID), zap.Uint("to", toReviewerID))
	if err != nil {
		return 0, err
	}
	if moved > 0 {
		logger.Log.Info("pending assignments reassigned",
			zap.Uint("campaignId", campaignID),
			zap.Uint("from", fromReviewerID),
			zap.Uint("to", toReviewerID),
			zap.Int64("moved", moved))
	}
	return moved, nil
}

// UpdatePriority bulk-changes priorities; assignment status and audit
// fields are untouched.
func (s *CallAssignmentService) UpdatePriority(assignmentIDs []uint, priority model.AssignmentPriority) (int64, error) {
	if !priority.Valid() {
		return 0, util.ErrInvalidPriority
	}
	if len(assignmentIDs) == 0 {
		return 0, nil
	}
	return s.AssignmentRepo.UpdatePriority(assignmentIDs, priority)
}

// GetCallerQueue returns the reviewer's pending assignments, urgent first,
// oldest first within the same priority.
func (s *CallAssignmentService) GetCallerQueue(reviewerID, campaignID uint) ([]model.CallAssignment, error) {
	return s.AssignmentRepo.PendingQueue(reviewerID, campaignID)
}

// GetNextAssignment returns the head of the reviewer's queue, or nil when
// the queue is empty.
func (s *CallAssignmentService) GetNextAssignment(reviewerID, campaignID uint) (*model.CallAssignment, error) {
	queue, err := s.AssignmentRepo.PendingQueue(reviewerID, campaignID)
	if err != nil {
		return nil, err
	}
	if len(queue) == 0 {
		return nil, nil
	}
	return &queue[0], nil
}

// StartAssignment moves a pending assignment to in_progress when the
// reviewer picks up the phone. The transition is a single conditional
// update so a reassignment racing in between cannot be overwritten; the
// read afterwards only classifies the failure.
func (s *CallAssignmentService) StartAssignment(assignmentID, reviewerID uint) (*model.CallAssignment, error) {
	rows, err := s.AssignmentRepo.StartPending(assignmentID, reviewerID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		assignment, err := s.AssignmentRepo.FindByID(assignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrAssignmentNotFound
			}
			return nil, err
		}
		if assignment.ReviewerID != reviewerID {
			return nil, util.ErrAssignmentNotOwned
		}
		return nil, util.ErrAssignmentNotFound
	}

	return s.AssignmentRepo.FindByID(assignmentID)
}

// ReviewerWorkload is the per-reviewer slice of the workload report.
type ReviewerWorkload struct {
	ReviewerID   uint   `json:"reviewerId"`
	ReviewerName string `json:"reviewerName"`
	Pending      int64  `json:"pending"`
	InProgress   int64  `json:"inProgress"`
	Completed    int64  `json:"completed"`
	Total        int64  `json:"total"`
}

// GetCallerWorkload reports assignment counts per reviewer. With an empty
// reviewer list it covers every enabled reviewer account.
func (s *CallAssignmentService) GetCallerWorkload(campaignID uint, reviewerIDs []uint) ([]ReviewerWorkload, error) {
	var reviewers []model.User
	var err error
	if len(reviewerIDs) == 0 {
		reviewers, err = s.UserRepo.FindByRole(model.Reviewer)
	} else {
		reviewers, err = s.UserRepo.FindByIDs(reviewerIDs)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(reviewers))
	for _, reviewer := range reviewers {
		ids = append(ids, reviewer.ID)
	}

	counts, err := s.AssignmentRepo.WorkloadCounts(campaignID, ids)
	if err != nil {
		return nil, err
	}

	workloads := make([]ReviewerWorkload, 0, len(reviewers))
	for _, reviewer := range reviewers {
		byStatus := counts[reviewer.ID]
		w := ReviewerWorkload{
			ReviewerID:   reviewer.ID,
			ReviewerName: reviewer.Name,
			Pending:      byStatus[model.AssignmentPending],
			InProgress:   byStatus[model.AssignmentInProgress],
			Completed:    byStatus[model.AssignmentCompleted],
		}
		w.Total = w.Pending + w.InProgress + w.Completed
		workloads = append(workloads, w)
	}
	return workloads, nil
}

// CampaignStatistics is the campaign-wide assignment progress report.
type CampaignStatistics struct {
	Total          int64   `json:"total"`
	Pending        int64   `json:"pending"`
	InProgress     int64   `json:"inProgress"`
	Completed      int64   `json:"completed"`
	CompletionRate float64 `json:"completionRate"`
}

// GetCampaignStatistics aggregates assignment counts for a campaign. The
// result is cached in Redis for a short TTL because supervisors poll it.
func (s *CallAssignmentService) GetCampaignStatistics(campaignID uint) (*CampaignStatistics, error) {
	cacheKey := fmt.Sprintf("campaign:%d:assignment_stats", campaignID)

	if s.Redis != nil {
		if cached, err := s.Redis.Get(context.Background(), cacheKey).Result(); err == nil {
			var stats CampaignStatistics
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	counts, err := s.AssignmentRepo.CampaignCounts(campaignID)
	if err != nil {
		return nil, err
	}

	stats := &CampaignStatistics{
		Pending:    counts[model.AssignmentPending],
		InProgress: counts[model.AssignmentInProgress],
		Completed:  counts[model.AssignmentCompleted],
	}
	// Reassigned tombstones are excluded: every one of them has a live
	// replacement row already counted in pending/in_progress/completed.
	stats.Total = stats.Pending + stats.InProgress + stats.Completed
	stats.CompletionRate = completionRate(stats.Completed, stats.Total)

	if s.Redis != nil {
		if payload, err := json.Marshal(stats); err == nil {
			s.Redis.Set(context.Background(), cacheKey, payload, statsCacheTTL)
		}
	}
	return stats, nil
}

// completionRate is completed/total as a percentage rounded to one
// decimal, 0 when total is 0.
func completionRate(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}

// isRetryableTxError recognizes MySQL deadlocks (1213), lock wait
// timeouts (1205) and duplicate-key losses (1062) on claim backstop
// indexes; these are expected under contention and worth a replay.
func isRetryableTxError(err error) bool {
	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1213, 1205, 1062:
			return true
		}
	}
	return false
}
