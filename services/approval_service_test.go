package services

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marinelli-collision/bodyshop-api/models"
)

// issueToken issues a link and returns the raw token from the URL
func issueToken(t *testing.T, ro *models.RepairOrder, actor *models.User) string {
	t.Helper()

	url, err := IssueApprovalLink(ro.ID, ro.ShopID, actor)
	require.NoError(t, err)
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

func TestIssueApprovalLinkMirrorsToken(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)

	token := issueToken(t, ro, &advisor)
	assert.NotEmpty(t, token)

	var link models.EstimateApprovalLink
	require.NoError(t, db.First(&link, "token = ?", token).Error)
	assert.Equal(t, ro.ID, link.ROID)
	assert.False(t, link.Responded())

	var current models.RepairOrder
	require.NoError(t, db.First(&current, "id = ?", ro.ID).Error)
	require.NotNil(t, current.ApprovalToken)
	assert.Equal(t, token, *current.ApprovalToken)
}

func TestIssueApprovalLinkReplacesPending(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)

	first := issueToken(t, ro, &advisor)
	second := issueToken(t, ro, &advisor)
	require.NotEqual(t, first, second)

	_, err := ResolveApprovalLink(first)
	assert.ErrorIs(t, err, ErrNotFound)

	summary, err := ResolveApprovalLink(second)
	require.NoError(t, err)
	assert.Equal(t, ro.RONumber, summary.RONumber)
}

func TestResolveApprovalLinkSummary(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)
	token := issueToken(t, ro, &advisor)

	summary, err := ResolveApprovalLink(token)
	require.NoError(t, err)
	assert.Equal(t, customer.Name, summary.CustomerName)
	assert.Equal(t, "2020 Toyota Camry", summary.Vehicle)
	assert.Equal(t, shop.Name, summary.ShopName)
	assert.False(t, summary.Responded)
}

func TestRespondApproveConsumesTokenAndTransitions(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)
	_, err := TransitionStatus(ro.ID, shop.ID, models.StatusEstimate, &advisor, "")
	require.NoError(t, err)
	token := issueToken(t, ro, &advisor)

	updated, err := RespondToApprovalLink(token, DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproval, updated.Status)

	// The audit entry carries no principal: the responder is the customer
	last := updated.StatusLogs[len(updated.StatusLogs)-1]
	assert.Equal(t, models.StatusApproval, last.ToStatus)
	assert.Nil(t, last.ChangedBy)

	var link models.EstimateApprovalLink
	require.NoError(t, db.First(&link, "token = ?", token).Error)
	assert.True(t, link.Responded())
}

func TestRespondDeclineKeepsStatus(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)
	_, err := TransitionStatus(ro.ID, shop.ID, models.StatusEstimate, &advisor, "")
	require.NoError(t, err)
	token := issueToken(t, ro, &advisor)

	updated, err := RespondToApprovalLink(token, DecisionDecline, "too expensive")
	require.NoError(t, err)
	assert.Equal(t, models.StatusEstimate, updated.Status)

	var link models.EstimateApprovalLink
	require.NoError(t, db.First(&link, "token = ?", token).Error)
	assert.True(t, link.Responded())
	require.NotNil(t, link.DeclineReason)
	assert.Equal(t, "too expensive", *link.DeclineReason)

	var comms []models.Communication
	require.NoError(t, db.Where("ro_id = ?", ro.ID).Find(&comms).Error)
	require.Len(t, comms, 1)
	assert.Contains(t, comms[0].Body, "too expensive")
}

func TestRespondDeclineRequiresReason(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)
	token := issueToken(t, ro, &advisor)

	_, err := RespondToApprovalLink(token, DecisionDecline, "")
	assert.ErrorIs(t, err, ErrReasonRequired)

	// The token survives a rejected request
	var link models.EstimateApprovalLink
	require.NoError(t, db.First(&link, "token = ?", token).Error)
	assert.False(t, link.Responded())
}

func TestRespondRejectsUnknownDecision(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)
	token := issueToken(t, ro, &advisor)

	_, err := RespondToApprovalLink(token, "maybe", "")
	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestRespondSecondUseRejected(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)
	token := issueToken(t, ro, &advisor)

	_, err := RespondToApprovalLink(token, DecisionApprove, "")
	require.NoError(t, err)

	_, err = RespondToApprovalLink(token, DecisionApprove, "")
	assert.ErrorIs(t, err, ErrAlreadyResponded)

	var count int64
	db.Model(&models.JobStatusLog{}).
		Where("ro_id = ? AND to_status = ?", ro.ID, models.StatusApproval).
		Count(&count)
	assert.Equal(t, int64(1), count, "replay must not write a second audit entry")
}

func TestRespondConcurrentSingleWinner(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)
	token := issueToken(t, ro, &advisor)

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = RespondToApprovalLink(token, DecisionApprove, "")
		}(i)
	}
	close(start)
	wg.Wait()

	var winners, losers int
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case assert.ErrorIs(t, err, ErrAlreadyResponded):
			losers++
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, losers)

	var count int64
	db.Model(&models.JobStatusLog{}).
		Where("ro_id = ? AND to_status = ?", ro.ID, models.StatusApproval).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestResolveUnknownToken(t *testing.T) {
	setupTestDB(t)

	_, err := ResolveApprovalLink("not-a-token")
	assert.ErrorIs(t, err, ErrNotFound)
}
