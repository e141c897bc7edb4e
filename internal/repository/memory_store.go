package repository

import (
	"sort"
	"sync"
	"time"

	"go-receipts-api/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MemoryStore keeps users and receipts in process memory. It implements
// UserRepository and ReceiptRepository with the same semantics as the GORM
// repositories and is meant for development and tests.
type MemoryStore struct {
	mutex      sync.RWMutex
	users      []model.User
	receipts   []model.Receipt
	userSeq    uint
	receiptSeq uint
	productSeq uint
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: func() time.Time { return time.Now().UTC() }}
}

// SetClock overrides the timestamp source used for created_at.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.now = now
}

func (s *MemoryStore) Users() UserRepository {
	return memoryUsers{s}
}

func (s *MemoryStore) Receipts() ReceiptRepository {
	return memoryReceipts{s}
}

type memoryUsers struct {
	s *MemoryStore
}

func (m memoryUsers) FindByUsername(username string) (*model.User, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()
	for _, u := range m.s.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memoryUsers) FindByID(id uint) (*model.User, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()
	if i := m.s.userIndex(id); i >= 0 {
		user := m.s.users[i]
		return &user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memoryUsers) Create(user *model.User) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()
	for _, u := range m.s.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	m.s.userSeq++
	now := m.s.now()
	user.ID = m.s.userSeq
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	stored.Receipts = nil
	m.s.users = append(m.s.users, stored)
	return nil
}

func (m memoryUsers) UpdatePassword(userID uint, hashedPassword string) error {
	return m.update(userID, func(u *model.User) { u.Password = hashedPassword })
}

func (m memoryUsers) UpdateTokenVersion(userID uint, version string) error {
	return m.update(userID, func(u *model.User) { u.TokenVersion = version })
}

func (m memoryUsers) update(userID uint, apply func(u *model.User)) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()
	i := m.s.userIndex(userID)
	if i < 0 {
		return gorm.ErrRecordNotFound
	}
	apply(&m.s.users[i])
	m.s.users[i].UpdatedAt = m.s.now()
	return nil
}

func (s *MemoryStore) userIndex(id uint) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

type memoryReceipts struct {
	s *MemoryStore
}

// Create appends the receipt under the write lock so readers never see it
// without its products.
func (m memoryReceipts) Create(receipt *model.Receipt) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	m.s.receiptSeq++
	receipt.ID = m.s.receiptSeq
	receipt.CreatedAt = m.s.now()
	for i := range receipt.Products {
		m.s.productSeq++
		receipt.Products[i].ID = m.s.productSeq
		receipt.Products[i].ReceiptID = receipt.ID
	}

	m.s.receipts = append(m.s.receipts, cloneReceipt(receipt))
	return nil
}

func (m memoryReceipts) FindByOwner(userID uint, filter model.ReceiptFilter, page model.Page) ([]model.Receipt, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	var matched []model.Receipt
	for i := range m.s.receipts {
		r := &m.s.receipts[i]
		if r.UserID == userID && filter.Matches(r) {
			matched = append(matched, cloneReceipt(r))
		}
	}

	offset := page.Offset()
	if offset >= len(matched) {
		return []model.Receipt{}, nil
	}
	end := offset + page.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (m memoryReceipts) FindByID(id uint) (*model.Receipt, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()
	for i := range m.s.receipts {
		if m.s.receipts[i].ID == id {
			r := cloneReceipt(&m.s.receipts[i])
			return &r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memoryReceipts) FindByIDAndOwner(id, userID uint) (*model.Receipt, error) {
	r, err := m.FindByID(id)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return r, nil
}

func (m memoryReceipts) SummarizeByOwner(userID uint, filter model.ReceiptFilter) ([]model.PaymentSummary, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	byType := map[model.PaymentType]*model.PaymentSummary{}
	for i := range m.s.receipts {
		r := &m.s.receipts[i]
		if r.UserID != userID || !filter.Matches(r) {
			continue
		}
		sum, ok := byType[r.PaymentType]
		if !ok {
			sum = &model.PaymentSummary{PaymentType: r.PaymentType, Total: decimal.Zero}
			byType[r.PaymentType] = sum
		}
		sum.Count++
		sum.Total = sum.Total.Add(r.Total)
	}

	results := make([]model.PaymentSummary, 0, len(byType))
	for _, sum := range byType {
		results = append(results, *sum)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].PaymentType < results[j].PaymentType })
	return results, nil
}

func cloneReceipt(r *model.Receipt) model.Receipt {
	c := *r
	c.User = nil
	c.Products = append([]model.Product(nil), r.Products...)
	return c
}
