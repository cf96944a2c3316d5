package fanout

import (
	"sync"
	"time"

	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/domain"
)

// Store 持有所有班次的广播记录，进程生命周期内常驻内存，不做持久化。
// 状态转移的先后次序由 Service 持有的班次锁裁决，
// Store 自身的读写锁只保证 map 和记录字段访问的内存安全。
type Store struct {
	mu      sync.RWMutex
	records map[string]*domain.FanoutRecord
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]*domain.FanoutRecord),
	}
}

func (s *Store) Create(record *domain.FanoutRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ShiftID] = record
}

// Get 返回记录的副本，调用者可以在不持有任何锁的情况下读取
func (s *Store) Get(shiftID string) (*domain.FanoutRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[shiftID]
	if !ok {
		return nil, false
	}
	return cloneRecord(record), true
}

func (s *Store) MarkClaimed(shiftID string, caregiverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[shiftID]
	if !ok {
		return
	}
	record.Status = domain.FanoutStatusClaimed
	record.ClaimedBy = caregiverID
}

func (s *Store) MarkEscalated(shiftID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[shiftID]
	if !ok {
		return
	}
	record.Status = domain.FanoutStatusEscalated
	record.EscalationSentAt = &at
}

func (s *Store) Snapshot() []*domain.FanoutRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*domain.FanoutRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, cloneRecord(record))
	}
	return records
}

func cloneRecord(record *domain.FanoutRecord) *domain.FanoutRecord {
	clone := *record
	clone.ContactedIDs = append([]string(nil), record.ContactedIDs...)
	if record.SMSSentAt != nil {
		t := *record.SMSSentAt
		clone.SMSSentAt = &t
	}
	if record.EscalationSentAt != nil {
		t := *record.EscalationSentAt
		clone.EscalationSentAt = &t
	}
	return &clone
}
