package fanout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/intent"
)

type fakeDirectory struct {
	shifts     map[string]*domain.Shift
	caregivers []*domain.Caregiver
}

func (d *fakeDirectory) GetShiftByID(ctx context.Context, id string) (*domain.Shift, error) {
	shift, ok := d.shifts[id]
	if !ok {
		return nil, domain.ErrShiftNotFound
	}
	return shift, nil
}

func (d *fakeDirectory) GetCaregiversByRole(ctx context.Context, role domain.CaregiverRole) ([]*domain.Caregiver, error) {
	matched := make([]*domain.Caregiver, 0)
	for _, caregiver := range d.caregivers {
		if caregiver.Role == role {
			matched = append(matched, caregiver)
		}
	}
	return matched, nil
}

func (d *fakeDirectory) GetCaregiverByPhone(ctx context.Context, phone string) (*domain.Caregiver, error) {
	for _, caregiver := range d.caregivers {
		if caregiver.Phone == phone {
			return caregiver, nil
		}
	}
	return nil, domain.ErrCaregiverNotFound
}

type fakeGateway struct {
	mu        sync.Mutex
	texts     map[string]int
	calls     map[string]int
	failTexts bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		texts: make(map[string]int),
		calls: make(map[string]int),
	}
}

func (g *fakeGateway) SendText(ctx context.Context, to string, message string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failTexts {
		return errors.New("网关故障")
	}
	g.texts[to]++
	return nil
}

func (g *fakeGateway) SendVoiceCall(ctx context.Context, to string, message string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[to]++
	return nil
}

func (g *fakeGateway) textCount(to string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.texts[to]
}

func (g *fakeGateway) callCount(to string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[to]
}

func (g *fakeGateway) totalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0
	for _, n := range g.calls {
		total += n
	}
	return total
}

var testShiftTime = time.Date(2025, 3, 1, 8, 0, 0, 0, time.Local)

func newTestDirectory() *fakeDirectory {
	return &fakeDirectory{
		shifts: map[string]*domain.Shift{
			"s1": {ID: "s1", OrganizationID: "org-1", RoleRequired: domain.RoleNurse, StartTime: testShiftTime, EndTime: testShiftTime.Add(8 * time.Hour)},
			"s2": {ID: "s2", OrganizationID: "org-1", RoleRequired: domain.RoleNurse, StartTime: testShiftTime.Add(24 * time.Hour), EndTime: testShiftTime.Add(32 * time.Hour)},
			"s3": {ID: "s3", OrganizationID: "org-1", RoleRequired: domain.RoleRehabTherapist, StartTime: testShiftTime, EndTime: testShiftTime.Add(8 * time.Hour)},
		},
		caregivers: []*domain.Caregiver{
			{ID: "c1", FullName: "林小芳", Role: domain.RoleNurse, Phone: "+8613800000001"},
			{ID: "c2", FullName: "陈静怡", Role: domain.RoleNurse, Phone: "+8613800000002"},
			{ID: "c3", FullName: "王建军", Role: domain.RoleCareWorker, Phone: "+8613800000003"},
		},
	}
}

func newTestService(directory Directory, gateway Gateway, delay time.Duration) *Service {
	return NewService(directory, gateway, intent.NewResolver(), delay)
}

func TestInitiateFanout(t *testing.T) {
	directory := newTestDirectory()
	gateway := newFakeGateway()
	svc := newTestService(directory, gateway, time.Hour)

	result, err := svc.InitiateFanout(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, InitiateStarted, result.Outcome)
	require.Equal(t, 2, result.Contacted)

	// 两名护士各收到一条短信，护理员不在名单里
	require.Equal(t, 1, gateway.textCount("+8613800000001"))
	require.Equal(t, 1, gateway.textCount("+8613800000002"))
	require.Equal(t, 0, gateway.textCount("+8613800000003"))

	record, ok := svc.Record("s1")
	require.True(t, ok)
	require.Equal(t, domain.FanoutStatusPending, record.Status)
	require.ElementsMatch(t, []string{"c1", "c2"}, record.ContactedIDs)
	require.NotNil(t, record.SMSSentAt)
	require.Nil(t, record.EscalationSentAt)
}

func TestInitiateFanout_UnknownShift(t *testing.T) {
	svc := newTestService(newTestDirectory(), newFakeGateway(), time.Hour)

	_, err := svc.InitiateFanout(context.Background(), "nonexistent")
	require.ErrorIs(t, err, domain.ErrShiftNotFound)
}

func TestInitiateFanout_Idempotent(t *testing.T) {
	gateway := newFakeGateway()
	svc := newTestService(newTestDirectory(), gateway, time.Hour)

	first, err := svc.InitiateFanout(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, InitiateStarted, first.Outcome)

	second, err := svc.InitiateFanout(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, InitiateAlreadyStarted, second.Outcome)

	// 重复触发不应该重复发送短信
	require.Equal(t, 1, gateway.textCount("+8613800000001"))
	require.Equal(t, 1, gateway.textCount("+8613800000002"))
}

func TestInitiateFanout_ConcurrentCallersBroadcastOnce(t *testing.T) {
	gateway := newFakeGateway()
	svc := newTestService(newTestDirectory(), gateway, time.Hour)

	const n = 20
	outcomes := make([]InitiateOutcome, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.InitiateFanout(context.Background(), "s1")
			if err == nil {
				outcomes[i] = result.Outcome
			}
		}(i)
	}
	wg.Wait()

	started := 0
	for _, outcome := range outcomes {
		if outcome == InitiateStarted {
			started++
		}
	}
	require.Equal(t, 1, started, "并发触发下应该恰好有一个调用者真正发起广播")
	require.Equal(t, 1, gateway.textCount("+8613800000001"))
	require.Equal(t, 1, gateway.textCount("+8613800000002"))
}

func TestInitiateFanout_GatewayFailureDoesNotAbort(t *testing.T) {
	gateway := newFakeGateway()
	gateway.failTexts = true
	svc := newTestService(newTestDirectory(), gateway, time.Hour)

	result, err := svc.InitiateFanout(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, InitiateStarted, result.Outcome)

	// 发送失败只记录日志，记录照常创建并进入等待认领状态
	record, ok := svc.Record("s1")
	require.True(t, ok)
	require.Equal(t, domain.FanoutStatusPending, record.Status)
	require.ElementsMatch(t, []string{"c1", "c2"}, record.ContactedIDs)
}

func TestTryClaim_ExactlyOneWinner(t *testing.T) {
	svc := newTestService(newTestDirectory(), newFakeGateway(), time.Hour)

	_, err := svc.InitiateFanout(context.Background(), "s1")
	require.NoError(t, err)

	const k = 10
	outcomes := make([]ClaimOutcome, k)

	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			caregiverID := string(rune('a' + i))
			outcome, err := svc.TryClaim(context.Background(), "s1", caregiverID)
			if err == nil {
				outcomes[i] = outcome
			}
		}(i)
	}
	wg.Wait()

	claimed := 0
	alreadyClaimed := 0
	var winner string
	for i, outcome := range outcomes {
		switch outcome {
		case ClaimAccepted:
			claimed++
			winner = string(rune('a' + i))
		case ClaimAlreadyClaimed:
			alreadyClaimed++
		}
	}

	require.Equal(t, 1, claimed, "应该恰好有一个认领者胜出")
	require.Equal(t, k-1, alreadyClaimed)

	record, ok := svc.Record("s1")
	require.True(t, ok)
	require.Equal(t, domain.FanoutStatusClaimed, record.Status)
	require.Equal(t, winner, record.ClaimedBy)
}

func TestTryClaim_NotFound(t *testing.T) {
	svc := newTestService(newTestDirectory(), newFakeGateway(), time.Hour)

	_, err := svc.TryClaim(context.Background(), "never-fanned-out", "c1")
	require.ErrorIs(t, err, domain.ErrFanoutNotFound)
}

func TestTryClaim_AfterEscalation(t *testing.T) {
	svc := newTestService(newTestDirectory(), newFakeGateway(), time.Hour)

	_, err := svc.InitiateFanout(context.Background(), "s1")
	require.NoError(t, err)

	svc.escalate("s1")

	outcome, err := svc.TryClaim(context.Background(), "s1", "c1")
	require.NoError(t, err)
	require.Equal(t, ClaimAlreadyEscalated, outcome)

	// 升级是终态，认领不会再改写状态
	record, _ := svc.Record("s1")
	require.Equal(t, domain.FanoutStatusEscalated, record.Status)
	require.Empty(t, record.ClaimedBy)
}

func TestEscalation_FiresWhenIdle(t *testing.T) {
	gateway := newFakeGateway()
	svc := newTestService(newTestDirectory(), gateway, 20*time.Millisecond)

	_, err := svc.InitiateFanout(context.Background(), "s1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		record, ok := svc.Record("s1")
		return ok && record.Status == domain.FanoutStatusEscalated
	}, time.Second, 5*time.Millisecond)

	// 首轮联系过的每个人恰好收到一通电话
	require.Equal(t, 1, gateway.callCount("+8613800000001"))
	require.Equal(t, 1, gateway.callCount("+8613800000002"))

	record, _ := svc.Record("s1")
	require.NotNil(t, record.EscalationSentAt)
}

func TestEscalation_SkippedAfterClaim(t *testing.T) {
	gateway := newFakeGateway()
	svc := newTestService(newTestDirectory(), gateway, 30*time.Millisecond)

	_, err := svc.InitiateFanout(context.Background(), "s1")
	require.NoError(t, err)

	outcome, err := svc.TryClaim(context.Background(), "s1", "c1")
	require.NoError(t, err)
	require.Equal(t, ClaimAccepted, outcome)

	// 等到升级定时器早已触发之后，状态必须仍然是已认领
	time.Sleep(150 * time.Millisecond)

	record, _ := svc.Record("s1")
	require.Equal(t, domain.FanoutStatusClaimed, record.Status)
	require.Equal(t, "c1", record.ClaimedBy)
	require.Nil(t, record.EscalationSentAt)
	require.Equal(t, 0, gateway.totalCalls())
}

func TestEscalation_ZeroMatchingCaregivers(t *testing.T) {
	gateway := newFakeGateway()
	svc := newTestService(newTestDirectory(), gateway, 20*time.Millisecond)

	// s3 需要康复师，名单里没有任何人匹配
	result, err := svc.InitiateFanout(context.Background(), "s3")
	require.NoError(t, err)
	require.Equal(t, InitiateStarted, result.Outcome)
	require.Equal(t, 0, result.Contacted)

	require.Eventually(t, func() bool {
		record, ok := svc.Record("s3")
		return ok && record.Status == domain.FanoutStatusEscalated
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, 0, gateway.totalCalls())
}

func TestEscalation_RaceWithClaim(t *testing.T) {
	for i := 0; i < 20; i++ {
		gateway := newFakeGateway()
		svc := newTestService(newTestDirectory(), gateway, time.Hour)

		_, err := svc.InitiateFanout(context.Background(), "s1")
		require.NoError(t, err)

		var outcome ClaimOutcome
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc.escalate("s1")
		}()
		go func() {
			defer wg.Done()
			outcome, _ = svc.TryClaim(context.Background(), "s1", "c1")
		}()
		wg.Wait()

		// 认领和升级的终态转移恰好发生一个，不多不少
		record, ok := svc.Record("s1")
		require.True(t, ok)
		switch record.Status {
		case domain.FanoutStatusClaimed:
			require.Equal(t, ClaimAccepted, outcome)
			require.Equal(t, "c1", record.ClaimedBy)
			require.Equal(t, 0, gateway.totalCalls())
		case domain.FanoutStatusEscalated:
			require.Equal(t, ClaimAlreadyEscalated, outcome)
			require.Empty(t, record.ClaimedBy)
			require.Equal(t, 2, gateway.totalCalls())
		default:
			t.Fatalf("班次处于非终态：%s", record.Status)
		}
	}
}

func TestHandleInbound_AcceptClaims(t *testing.T) {
	svc := newTestService(newTestDirectory(), newFakeGateway(), time.Hour)

	_, err := svc.InitiateFanout(context.Background(), "s1")
	require.NoError(t, err)

	result, err := svc.HandleInbound(context.Background(), "+8613800000001", "接受")
	require.NoError(t, err)
	require.Equal(t, InboundClaimed, result.Outcome)
	require.Equal(t, "s1", result.ShiftID)
	require.Equal(t, "c1", result.CaregiverID)

	record, _ := svc.Record("s1")
	require.Equal(t, domain.FanoutStatusClaimed, record.Status)
	require.Equal(t, "c1", record.ClaimedBy)
}

func TestHandleInbound_DeclineDoesNothing(t *testing.T) {
	svc := newTestService(newTestDirectory(), newFakeGateway(), time.Hour)

	_, err := svc.InitiateFanout(context.Background(), "s1")
	require.NoError(t, err)

	result, err := svc.HandleInbound(context.Background(), "+8613800000001", "不行")
	require.NoError(t, err)
	require.Equal(t, InboundIgnored, result.Outcome)

	record, _ := svc.Record("s1")
	require.Equal(t, domain.FanoutStatusPending, record.Status)
}

func TestHandleInbound_UnknownCaregiver(t *testing.T) {
	svc := newTestService(newTestDirectory(), newFakeGateway(), time.Hour)

	_, err := svc.HandleInbound(context.Background(), "+8619999999999", "yes")
	require.ErrorIs(t, err, domain.ErrCaregiverNotFound)
}

func TestHandleInbound_NoFanoutForCaregiver(t *testing.T) {
	svc := newTestService(newTestDirectory(), newFakeGateway(), time.Hour)

	// 没有任何广播，护工的接受回复无处归属
	result, err := svc.HandleInbound(context.Background(), "+8613800000001", "yes")
	require.NoError(t, err)
	require.Equal(t, InboundIgnored, result.Outcome)
}

func TestHandleInbound_SecondAcceptGetsAlreadyClaimed(t *testing.T) {
	svc := newTestService(newTestDirectory(), newFakeGateway(), time.Hour)

	_, err := svc.InitiateFanout(context.Background(), "s1")
	require.NoError(t, err)

	first, err := svc.HandleInbound(context.Background(), "+8613800000001", "yes")
	require.NoError(t, err)
	require.Equal(t, InboundClaimed, first.Outcome)

	second, err := svc.HandleInbound(context.Background(), "+8613800000002", "yes")
	require.NoError(t, err)
	require.Equal(t, InboundAlreadyClaimed, second.Outcome)
	require.Equal(t, "s1", second.ShiftID)

	record, _ := svc.Record("s1")
	require.Equal(t, "c1", record.ClaimedBy)
}

func TestHandleInbound_PicksMostRecentPendingFanout(t *testing.T) {
	svc := newTestService(newTestDirectory(), newFakeGateway(), time.Hour)

	_, err := svc.InitiateFanout(context.Background(), "s1")
	require.NoError(t, err)
	_, err = svc.InitiateFanout(context.Background(), "s2")
	require.NoError(t, err)

	// c1 同时被 s1 和 s2 联系过，接受回复归属最近创建的 s2
	result, err := svc.HandleInbound(context.Background(), "+8613800000001", "yes")
	require.NoError(t, err)
	require.Equal(t, InboundClaimed, result.Outcome)
	require.Equal(t, "s2", result.ShiftID)

	s1, _ := svc.Record("s1")
	require.Equal(t, domain.FanoutStatusPending, s1.Status)
}

func TestMostRecentTarget(t *testing.T) {
	now := time.Now()
	records := []*domain.FanoutRecord{
		{ShiftID: "old-pending", Status: domain.FanoutStatusPending, CreatedAt: now.Add(-3 * time.Hour), ContactedIDs: []string{"c1"}},
		{ShiftID: "new-pending", Status: domain.FanoutStatusPending, CreatedAt: now.Add(-1 * time.Hour), ContactedIDs: []string{"c1"}},
		{ShiftID: "claimed", Status: domain.FanoutStatusClaimed, CreatedAt: now, ContactedIDs: []string{"c1"}},
		{ShiftID: "other", Status: domain.FanoutStatusPending, CreatedAt: now, ContactedIDs: []string{"c2"}},
	}

	// 待认领的记录优先于终态记录，即使终态记录更新
	target := MostRecentTarget(records, "c1")
	require.NotNil(t, target)
	require.Equal(t, "new-pending", target.ShiftID)

	// 没有待认领记录时退回最近的终态记录，保证重复回复拿到幂等答复
	terminalOnly := records[2:]
	target = MostRecentTarget(terminalOnly, "c1")
	require.NotNil(t, target)
	require.Equal(t, "claimed", target.ShiftID)

	// 完全没联系过的护工没有归属
	require.Nil(t, MostRecentTarget(records, "c9"))
}
