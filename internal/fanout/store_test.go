package fanout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/domain"
)

func TestStore_GetReturnsCopy(t *testing.T) {
	store := NewStore()
	store.Create(&domain.FanoutRecord{
		ShiftID:      "s1",
		Status:       domain.FanoutStatusPending,
		CreatedAt:    time.Now(),
		ContactedIDs: []string{"c1"},
	})

	record, ok := store.Get("s1")
	require.True(t, ok)

	// 修改副本不应该影响 store 内的记录
	record.Status = domain.FanoutStatusClaimed
	record.ContactedIDs[0] = "c2"

	fresh, ok := store.Get("s1")
	require.True(t, ok)
	require.Equal(t, domain.FanoutStatusPending, fresh.Status)
	require.Equal(t, []string{"c1"}, fresh.ContactedIDs)
}

func TestStore_MarkClaimed(t *testing.T) {
	store := NewStore()
	store.Create(&domain.FanoutRecord{ShiftID: "s1", Status: domain.FanoutStatusPending})

	store.MarkClaimed("s1", "c1")

	record, ok := store.Get("s1")
	require.True(t, ok)
	require.Equal(t, domain.FanoutStatusClaimed, record.Status)
	require.Equal(t, "c1", record.ClaimedBy)
}

func TestStore_MarkEscalated(t *testing.T) {
	store := NewStore()
	store.Create(&domain.FanoutRecord{ShiftID: "s1", Status: domain.FanoutStatusPending})

	at := time.Now()
	store.MarkEscalated("s1", at)

	record, ok := store.Get("s1")
	require.True(t, ok)
	require.Equal(t, domain.FanoutStatusEscalated, record.Status)
	require.NotNil(t, record.EscalationSentAt)
	require.True(t, record.EscalationSentAt.Equal(at))
}

func TestStore_GetMissing(t *testing.T) {
	store := NewStore()

	_, ok := store.Get("nope")
	require.False(t, ok)

	// 对不存在的记录做状态转移不应该 panic
	store.MarkClaimed("nope", "c1")
	store.MarkEscalated("nope", time.Now())
}

func TestStore_Snapshot(t *testing.T) {
	store := NewStore()
	store.Create(&domain.FanoutRecord{ShiftID: "s1", Status: domain.FanoutStatusPending})
	store.Create(&domain.FanoutRecord{ShiftID: "s2", Status: domain.FanoutStatusPending})

	records := store.Snapshot()
	require.Len(t, records, 2)
}
