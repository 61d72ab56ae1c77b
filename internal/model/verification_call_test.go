package model

import "testing"

func TestCallResultValid(t *testing.T) {
	for _, r := range []CallResult{
		CallAnswered, CallNoAnswer, CallBusy, CallWrongNumber, CallInvalidNumber,
		CallRejected, CallCallbackRequested, CallNotInterested, CallConfirmed,
	} {
		if !r.Valid() {
			t.Errorf("result %q should be valid", r)
		}
	}
	if CallResult("hung_up").Valid() {
		t.Error("unknown result should not be valid")
	}
	if CallResult("").Valid() {
		t.Error("empty result should not be valid")
	}
}

func TestCallResultIsTerminalSuccess(t *testing.T) {
	cases := map[CallResult]bool{
		CallAnswered:          true,
		CallConfirmed:         true,
		CallCallbackRequested: false,
		CallNoAnswer:          false,
		CallRejected:          false,
		CallNotInterested:     false,
	}
	for result, want := range cases {
		if got := result.IsTerminalSuccess(); got != want {
			t.Errorf("IsTerminalSuccess(%q) = %v, want %v", result, got, want)
		}
	}
}

func TestCallPredicates(t *testing.T) {
	cases := []struct {
		result     CallResult
		successful bool
		followUp   bool
		invalid    bool
	}{
		{CallAnswered, true, false, false},
		{CallConfirmed, true, false, false},
		{CallCallbackRequested, true, true, false},
		{CallNoAnswer, false, true, false},
		{CallBusy, false, true, false},
		{CallWrongNumber, false, false, true},
		{CallInvalidNumber, false, false, true},
		{CallRejected, false, false, false},
		{CallNotInterested, false, false, false},
	}
	for _, tc := range cases {
		call := &VerificationCall{Result: tc.result}
		if got := call.IsSuccessful(); got != tc.successful {
			t.Errorf("IsSuccessful(%q) = %v, want %v", tc.result, got, tc.successful)
		}
		if got := call.RequiresFollowUp(); got != tc.followUp {
			t.Errorf("RequiresFollowUp(%q) = %v, want %v", tc.result, got, tc.followUp)
		}
		if got := call.IsInvalidNumber(); got != tc.invalid {
			t.Errorf("IsInvalidNumber(%q) = %v, want %v", tc.result, got, tc.invalid)
		}
	}
}
