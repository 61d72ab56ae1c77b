package service

import (
	"errors"
	"fmt"
	"testing"

	"campaign_call_backend/internal/util"
	"campaign_call_backend/pkg/logger"

	gomysql "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

func TestDistributeRoundRobinBalance(t *testing.T) {
	voters := make([]uint, 10)
	for i := range voters {
		voters[i] = uint(i + 1)
	}
	reviewers := []uint{100, 200, 300}

	pairs := distributeRoundRobin(voters, reviewers)
	if len(pairs) != len(voters) {
		t.Fatalf("expected %d pairs, got %d", len(voters), len(pairs))
	}

	counts := make(map[uint]int)
	for _, pair := range pairs {
		counts[pair.ReviewerID]++
	}

	min, max := len(voters), 0
	for _, reviewer := range reviewers {
		n := counts[reviewer]
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	if max-min > 1 {
		t.Errorf("uneven distribution: counts %v", counts)
	}
	// 10 voters over 3 reviewers: 4, 3, 3 in list order.
	if counts[100] != 4 || counts[200] != 3 || counts[300] != 3 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestDistributeRoundRobinDeterministic(t *testing.T) {
	voters := []uint{5, 6, 7, 8}
	reviewers := []uint{1, 2}

	first := distributeRoundRobin(voters, reviewers)
	second := distributeRoundRobin(voters, reviewers)
	if len(first) != len(second) {
		t.Fatalf("pair counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("pair %d differs: %v vs %v", i, first[i], second[i])
		}
	}
	if first[0].ReviewerID != 1 || first[1].ReviewerID != 2 || first[2].ReviewerID != 1 {
		t.Errorf("unexpected pairing order: %v", first)
	}
}

func TestDistributeRoundRobinNoReviewers(t *testing.T) {
	if pairs := distributeRoundRobin([]uint{1, 2}, nil); pairs != nil {
		t.Errorf("expected nil pairs without reviewers, got %v", pairs)
	}
}

func TestCompletionRate(t *testing.T) {
	cases := []struct {
		completed, total int64
		want             float64
	}{
		{0, 0, 0},
		{0, 10, 0},
		{2, 10, 20},
		{10, 10, 100},
		{1, 3, 33.3},
		{2, 3, 66.7},
	}
	for _, tc := range cases {
		if got := completionRate(tc.completed, tc.total); got != tc.want {
			t.Errorf("completionRate(%d, %d) = %v, want %v", tc.completed, tc.total, got, tc.want)
		}
	}
}

func TestClaimWithRetryReplaysConflicts(t *testing.T) {
	logger.Log = zap.NewNop()

	calls := 0
	err := claimWithRetry("claim", func() error {
		calls++
		if calls < claimRetries {
			return &gomysql.MySQLError{Number: 1213, Message: "deadlock"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after replays, got %v", err)
	}
	if calls != claimRetries {
		t.Errorf("fn called %d times, want %d", calls, claimRetries)
	}
}

func TestClaimWithRetryExhaustionSurfacesAssignmentFailed(t *testing.T) {
	logger.Log = zap.NewNop()

	calls := 0
	err := claimWithRetry("claim", func() error {
		calls++
		return &gomysql.MySQLError{Number: 1205, Message: "lock wait timeout"}
	})
	if !errors.Is(err, util.ErrAssignmentFailed) {
		t.Errorf("exhaustion err = %v, want ErrAssignmentFailed", err)
	}
	if calls != claimRetries {
		t.Errorf("fn called %d times, want %d", calls, claimRetries)
	}
}

func TestClaimWithRetryPassesThroughDomainErrors(t *testing.T) {
	logger.Log = zap.NewNop()

	calls := 0
	err := claimWithRetry("claim", func() error {
		calls++
		return util.ErrDuplicateActiveAssignment
	})
	if !errors.Is(err, util.ErrDuplicateActiveAssignment) {
		t.Errorf("err = %v, want the sentinel unchanged", err)
	}
	if calls != 1 {
		t.Errorf("domain error retried %d times, want no retries", calls)
	}
}

func TestIsRetryableTxError(t *testing.T) {
	for _, number := range []uint16{1213, 1205, 1062} {
		err := &gomysql.MySQLError{Number: number, Message: "conflict"}
		if !isRetryableTxError(err) {
			t.Errorf("mysql error %d should be retryable", number)
		}
		wrapped := fmt.Errorf("create assignment: %w", err)
		if !isRetryableTxError(wrapped) {
			t.Errorf("wrapped mysql error %d should be retryable", number)
		}
	}

	if isRetryableTxError(&gomysql.MySQLError{Number: 1045, Message: "access denied"}) {
		t.Error("access denied should not be retryable")
	}
	if isRetryableTxError(errors.New("plain error")) {
		t.Error("non-mysql error should not be retryable")
	}
	if isRetryableTxError(nil) {
		t.Error("nil should not be retryable")
	}
}
