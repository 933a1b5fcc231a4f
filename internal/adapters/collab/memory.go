// Package collab provides in-memory implementations of the business
// collaborator ports (groups, payments, verification) so the backend runs
// end-to-end without the real services.
package collab

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/marcovillca/tanda-agent/internal/domain"
)

// GroupService keeps tandas in a mutex-guarded map.
type GroupService struct {
	mu     sync.RWMutex
	groups map[string]*domain.Group
	now    func() time.Time
}

func NewGroupService() *GroupService {
	return &GroupService{
		groups: make(map[string]*domain.Group),
		now:    time.Now,
	}
}

func (s *GroupService) CreateGroup(ctx context.Context, ownerPhone, name string) (*domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group := &domain.Group{
		ID:           ulid.Make().String(),
		Name:         name,
		OwnerPhone:   ownerPhone,
		Participants: []string{ownerPhone},
		CreatedAt:    s.now(),
	}
	s.groups[group.ID] = group

	cp := *group
	return &cp, nil
}

func (s *GroupService) AddParticipant(ctx context.Context, groupID, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[groupID]
	if !ok {
		return fmt.Errorf("group %s not found", groupID)
	}
	for _, p := range group.Participants {
		if p == phone {
			return nil // already in, adding twice is a no-op
		}
	}
	group.Participants = append(group.Participants, phone)
	return nil
}

func (s *GroupService) Configure(ctx context.Context, groupID string, amount float64, frequency string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[groupID]
	if !ok {
		return fmt.Errorf("group %s not found", groupID)
	}
	if amount > 0 {
		group.QuotaAmount = amount
	}
	if frequency != "" {
		group.Frequency = frequency
	}
	return nil
}

func (s *GroupService) Status(ctx context.Context, groupID string) (*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s not found", groupID)
	}
	cp := *group
	cp.Participants = append([]string(nil), group.Participants...)
	return &cp, nil
}

func (s *GroupService) Start(ctx context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[groupID]
	if !ok {
		return fmt.Errorf("group %s not found", groupID)
	}
	group.Started = true
	return nil
}

// PaymentService records payments and hands back receipt ids.
type PaymentService struct {
	mu       sync.Mutex
	receipts map[string][]string // groupID -> receipt ids
}

func NewPaymentService() *PaymentService {
	return &PaymentService{
		receipts: make(map[string][]string),
	}
}

func (s *PaymentService) PayQuota(ctx context.Context, groupID, phone string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	receiptID := "rcpt-" + ulid.Make().String()
	s.receipts[groupID] = append(s.receipts[groupID], receiptID)
	return receiptID, nil
}

// VerificationService issues and checks phone codes, and accepts proofs.
type VerificationService struct {
	mu     sync.Mutex
	codes  map[string]string // phone -> pending code
	proofs map[string][]string
}

func NewVerificationService() *VerificationService {
	return &VerificationService{
		codes:  make(map[string]string),
		proofs: make(map[string][]string),
	}
}

func (s *VerificationService) SendCode(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Derive a stable 6-digit code from the ulid entropy. The real service
	// sends it over SMS; here it just has to be checkable in tests.
	id := ulid.Make().String()
	s.codes[phone] = fmt.Sprintf("%06d", int(id[len(id)-1])*4721%1000000)
	return nil
}

// SetCode pins a known code for a phone. Test seam.
func (s *VerificationService) SetCode(phone, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[phone] = code
}

func (s *VerificationService) VerifyCode(ctx context.Context, phone, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.codes[phone]
	if !ok || pending != code {
		return false, nil
	}
	delete(s.codes, phone)
	return true, nil
}

func (s *VerificationService) SubmitProof(ctx context.Context, phone, reference string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.proofs[phone] = append(s.proofs[phone], reference)
	return false, nil // proofs start pending, a reviewer accepts them later
}
