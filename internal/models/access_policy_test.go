package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessPolicy(t *testing.T) {
	cases := []struct {
		status  SubscriptionStatus
		login   bool
		read    bool
		write   bool
		premium bool
		blocked bool
	}{
		{StatusIncomplete, true, false, false, false, false},
		{StatusIncompleteExpired, true, false, false, false, true},
		{StatusTrialing, true, true, true, false, false},
		{StatusTrialExpired, true, true, false, false, false},
		{StatusActive, true, true, true, true, false},
		{StatusPastDue, true, false, false, false, false},
		{StatusCanceled, false, false, false, false, true},
		{StatusUnpaid, true, false, false, false, true},
	}
	assert.Len(t, cases, len(AllStatuses))

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.login, CanLogin(tc.status))
			assert.Equal(t, tc.read, CanRead(tc.status))
			assert.Equal(t, tc.write, CanWrite(tc.status))
			assert.Equal(t, tc.premium, CanAccessPremium(tc.status))
			assert.Equal(t, tc.blocked, IsBlocked(tc.status))
			assert.Equal(t, tc.blocked, BlockReason(tc.status) != "")
		})
	}
}

func TestBlockReasonsAreDistinct(t *testing.T) {
	seen := map[string]SubscriptionStatus{}
	for _, s := range AllStatuses {
		reason := BlockReason(s)
		if reason == "" {
			continue
		}
		prev, dup := seen[reason]
		assert.False(t, dup, "%s and %s share reason %q", prev, s, reason)
		seen[reason] = s
	}
	assert.Len(t, seen, 3)
}

func TestDenialReason(t *testing.T) {
	assert.Empty(t, DenialReason(StatusActive))
	assert.Empty(t, DenialReason(StatusTrialing))
	assert.Equal(t, "Trial expired. Upgrade to continue.", DenialReason(StatusTrialExpired))
	assert.Equal(t, BlockReason(StatusUnpaid), DenialReason(StatusUnpaid))
	assert.NotEmpty(t, DenialReason(StatusPastDue))
}

func TestAccessFor(t *testing.T) {
	a := AccessFor(StatusCanceled)
	assert.False(t, a.CanLogin)
	assert.True(t, a.Blocked)
	assert.Equal(t, "Subscription canceled.", a.BlockedReason)

	a = AccessFor(StatusActive)
	assert.True(t, a.Active)
	assert.True(t, a.Premium)
	assert.Empty(t, a.BlockedReason)
}
