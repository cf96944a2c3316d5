package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/intent"
)

// Directory 提供班次和护工的只读查询
type Directory interface {
	GetShiftByID(ctx context.Context, id string) (*domain.Shift, error)
	GetCaregiversByRole(ctx context.Context, role domain.CaregiverRole) ([]*domain.Caregiver, error)
	GetCaregiverByPhone(ctx context.Context, phone string) (*domain.Caregiver, error)
}

// Gateway 负责通知的实际投递，失败只记录不重试，重试策略是网关自己的事情
type Gateway interface {
	SendText(ctx context.Context, to string, message string) error
	SendVoiceCall(ctx context.Context, to string, message string) error
}

// IntentResolver 把护工回复的自由文本归类为接受/拒绝/未知
type IntentResolver interface {
	Classify(text string) intent.Intent
}

type InitiateOutcome string

const (
	InitiateStarted        InitiateOutcome = "started"
	InitiateAlreadyStarted InitiateOutcome = "already_fanout"
)

type InitiateResult struct {
	Outcome   InitiateOutcome `json:"status"`
	ShiftID   string          `json:"shiftID"`
	Contacted int             `json:"contacted"`
}

type ClaimOutcome string

const (
	ClaimAccepted         ClaimOutcome = "claimed"
	ClaimAlreadyClaimed   ClaimOutcome = "already_claimed"
	ClaimAlreadyEscalated ClaimOutcome = "already_escalated"
)

type InboundOutcome string

const (
	InboundClaimed          InboundOutcome = "claimed"
	InboundAlreadyClaimed   InboundOutcome = "already_claimed"
	InboundAlreadyEscalated InboundOutcome = "already_escalated"
	InboundIgnored          InboundOutcome = "ignored"
)

type InboundResult struct {
	Outcome     InboundOutcome `json:"status"`
	ShiftID     string         `json:"shiftID,omitempty"`
	CaregiverID string         `json:"caregiverID,omitempty"`
}

// TargetSelector 决定一条语义上没有指明班次的接受回复归属于哪条广播记录。
// 返回 nil 表示没有可归属的记录。
type TargetSelector func(records []*domain.FanoutRecord, caregiverID string) *domain.FanoutRecord

// MostRecentTarget 是默认归属策略：优先取最近创建的待认领广播；
// 如果没有待认领的，则取最近的终态记录，以便对重复回复给出幂等的答复。
func MostRecentTarget(records []*domain.FanoutRecord, caregiverID string) *domain.FanoutRecord {
	var pending *domain.FanoutRecord
	var terminal *domain.FanoutRecord

	for _, record := range records {
		if !record.Contacted(caregiverID) {
			continue
		}
		if record.Status == domain.FanoutStatusPending {
			if pending == nil || record.CreatedAt.After(pending.CreatedAt) {
				pending = record
			}
		} else {
			if terminal == nil || record.CreatedAt.After(terminal.CreatedAt) {
				terminal = record
			}
		}
	}

	if pending != nil {
		return pending
	}
	return terminal
}

// Service 是班次广播的核心状态机：发起广播、仲裁认领、定时升级。
// 同一个班次上的所有终态转移都由同一把班次锁串行化，
// 不同班次之间互不阻塞。
type Service struct {
	directory       Directory
	gateway         Gateway
	resolver        IntentResolver
	store           *Store
	locks           *shiftLocks
	selector        TargetSelector
	escalationDelay time.Duration
}

func NewService(directory Directory, gateway Gateway, resolver IntentResolver, escalationDelay time.Duration) *Service {
	return &Service{
		directory:       directory,
		gateway:         gateway,
		resolver:        resolver,
		store:           NewStore(),
		locks:           newShiftLocks(),
		selector:        MostRecentTarget,
		escalationDelay: escalationDelay,
	}
}

// SetTargetSelector 替换回复归属策略
func (s *Service) SetTargetSelector(selector TargetSelector) {
	s.selector = selector
}

// Record 返回某个班次的广播记录快照
func (s *Service) Record(shiftID string) (*domain.FanoutRecord, bool) {
	return s.store.Get(shiftID)
}

// InitiateFanout 发起某个班次的首轮短信广播。
// 幂等：重复调用（包括并发的重复调用）只会广播一次，之后都返回 already_fanout。
func (s *Service) InitiateFanout(ctx context.Context, shiftID string) (*InitiateResult, error) {
	shift, err := s.directory.GetShiftByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	caregivers, err := s.directory.GetCaregiversByRole(ctx, shift.RoleRequired)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(shiftID)
	defer s.locks.Unlock(shiftID)

	// “是否已广播”的判断和记录创建必须在同一把锁内完成，
	// 否则两个并发的触发请求会都认为自己是第一个
	if _, ok := s.store.Get(shiftID); ok {
		return &InitiateResult{Outcome: InitiateAlreadyStarted, ShiftID: shiftID}, nil
	}

	now := time.Now()
	record := &domain.FanoutRecord{
		ShiftID:      shiftID,
		Status:       domain.FanoutStatusPending,
		CreatedAt:    now,
		SMSSentAt:    &now,
		ContactedIDs: make([]string, 0, len(caregivers)),
	}

	message := smsMessage(shift)
	for _, caregiver := range caregivers {
		if err := s.gateway.SendText(ctx, caregiver.Phone, message); err != nil {
			// 单个护工发送失败不阻断其余广播
			slog.Error("短信发送失败", "shiftID", shiftID, "caregiverID", caregiver.ID, "error", err)
		}
		record.ContactedIDs = append(record.ContactedIDs, caregiver.ID)
	}

	s.store.Create(record)
	s.armEscalation(shiftID)

	slog.Info("班次广播已发起", "shiftID", shiftID, "contacted", len(record.ContactedIDs))

	return &InitiateResult{Outcome: InitiateStarted, ShiftID: shiftID, Contacted: len(record.ContactedIDs)}, nil
}

// TryClaim 处理护工对某个班次的认领。
// 任意并发下恰好有一个认领者胜出，其余得到 already_claimed / already_escalated。
func (s *Service) TryClaim(ctx context.Context, shiftID string, caregiverID string) (ClaimOutcome, error) {
	// 班次从未广播过时直接返回，不做任何加锁
	if _, ok := s.store.Get(shiftID); !ok {
		return "", domain.ErrFanoutNotFound
	}

	s.locks.Lock(shiftID)
	defer s.locks.Unlock(shiftID)

	// 拿到锁后必须重新读取状态：首次读取和加锁之间状态可能已经被别人改掉
	record, ok := s.store.Get(shiftID)
	if !ok {
		return "", domain.ErrFanoutNotFound
	}

	switch record.Status {
	case domain.FanoutStatusClaimed:
		return ClaimAlreadyClaimed, nil
	case domain.FanoutStatusEscalated:
		return ClaimAlreadyEscalated, nil
	}

	s.store.MarkClaimed(shiftID, caregiverID)
	slog.Info("班次已被认领", "shiftID", shiftID, "caregiverID", caregiverID)

	return ClaimAccepted, nil
}

// HandleInbound 处理护工回复的入站消息
func (s *Service) HandleInbound(ctx context.Context, from string, text string) (*InboundResult, error) {
	caregiver, err := s.directory.GetCaregiverByPhone(ctx, from)
	if err != nil {
		return nil, err
	}

	if s.resolver.Classify(text) != intent.Accept {
		return &InboundResult{Outcome: InboundIgnored, CaregiverID: caregiver.ID}, nil
	}

	target := s.selector(s.store.Snapshot(), caregiver.ID)
	if target == nil {
		return &InboundResult{Outcome: InboundIgnored, CaregiverID: caregiver.ID}, nil
	}

	outcome, err := s.TryClaim(ctx, target.ShiftID, caregiver.ID)
	if err != nil {
		return nil, err
	}

	return &InboundResult{
		Outcome:     InboundOutcome(outcome),
		ShiftID:     target.ShiftID,
		CaregiverID: caregiver.ID,
	}, nil
}

// armEscalation 安排一次延迟唤醒。唤醒是无条件的，
// 升级动作本身由持锁后的状态复查决定是否执行，认领即是对升级的软取消。
func (s *Service) armEscalation(shiftID string) {
	timer := time.NewTimer(s.escalationDelay)
	go func() {
		defer timer.Stop()
		<-timer.C
		s.escalate(shiftID)
	}()
}

func (s *Service) escalate(shiftID string) {
	ctx := context.Background()

	s.locks.Lock(shiftID)
	defer s.locks.Unlock(shiftID)

	record, ok := s.store.Get(shiftID)
	if !ok {
		return
	}

	// 持锁后复查状态：认领和升级之间只能有一个执行终态转移
	if record.Status != domain.FanoutStatusPending {
		slog.Info("班次已被认领，跳过升级", "shiftID", shiftID, "status", record.Status)
		return
	}

	shift, err := s.directory.GetShiftByID(ctx, shiftID)
	if err != nil {
		slog.Error("升级时查询班次失败", "shiftID", shiftID, "error", err)
		return
	}

	caregivers, err := s.directory.GetCaregiversByRole(ctx, shift.RoleRequired)
	if err != nil {
		slog.Error("升级时查询护工失败", "shiftID", shiftID, "error", err)
		return
	}

	message := escalationMessage(shift)
	called := 0
	for _, caregiver := range caregivers {
		// 只升级首轮联系过的护工，保持和首轮相同的名单
		if !record.Contacted(caregiver.ID) {
			continue
		}
		if err := s.gateway.SendVoiceCall(ctx, caregiver.Phone, message); err != nil {
			slog.Error("语音呼叫失败", "shiftID", shiftID, "caregiverID", caregiver.ID, "error", err)
		}
		called++
	}

	s.store.MarkEscalated(shiftID, time.Now())
	slog.Info("班次超时无人认领，已升级为电话通知", "shiftID", shiftID, "called", called)
}

func smsMessage(shift *domain.Shift) string {
	return fmt.Sprintf("新班次待认领：%s 至 %s，回复「接受」即可认领。",
		shift.StartTime.Format("2006-01-02 15:04"), shift.EndTime.Format("2006-01-02 15:04"))
}

func escalationMessage(shift *domain.Shift) string {
	return fmt.Sprintf("班次仍无人认领：%s 至 %s，回复「接受」即可认领。",
		shift.StartTime.Format("2006-01-02 15:04"), shift.EndTime.Format("2006-01-02 15:04"))
}
