package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"go-receipts-api/internal/model"
	"go-receipts-api/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MinLineLength is the narrowest slip the printer renders.
const MinLineLength = 30

// MoneyScale is the number of decimal places amounts are stored with.
const MoneyScale = 2

type ReceiptService interface {
	CreateReceipt(req *CreateReceiptRequest, ownerID uint) (*model.Receipt, error)
	ListReceipts(ownerID uint, filter model.ReceiptFilter, page model.Page) ([]model.Receipt, error)
	GetReceipt(id, ownerID uint) (*model.Receipt, error)
	RenderPublic(id uint, lineLength int) (string, error)
	Summarize(ownerID uint, filter model.ReceiptFilter) (*model.ReceiptSummary, error)
}

// Notifier delivers a payload to the live connections of one user.
type Notifier interface {
	Publish(userID uint, payload []byte)
}

type ProductInput struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type CreateReceiptRequest struct {
	Products      []ProductInput  `json:"products"`
	PaymentType   string          `json:"payment_type"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
}

type receiptService struct {
	receiptRepo repository.ReceiptRepository
	userRepo    repository.UserRepository
	notifier    Notifier
	logger      *zap.Logger
}

func NewReceiptService(receiptRepo repository.ReceiptRepository, userRepo repository.UserRepository, notifier Notifier, logger *zap.Logger) ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &receiptService{
		receiptRepo: receiptRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

func (s *receiptService) CreateReceipt(req *CreateReceiptRequest, ownerID uint) (*model.Receipt, error) {
	req = roundMoney(req)
	total, rest, err := validateReceipt(req)
	if err != nil {
		return nil, err
	}

	receipt := &model.Receipt{
		UserID:        ownerID,
		Total:         total,
		PaymentType:   model.PaymentType(req.PaymentType),
		PaymentAmount: req.PaymentAmount,
		Rest:          rest,
		Products:      make([]model.Product, len(req.Products)),
	}
	for i, p := range req.Products {
		receipt.Products[i] = model.Product{Name: p.Name, Price: p.Price, Quantity: p.Quantity}
	}

	if err := s.receiptRepo.Create(receipt); err != nil {
		s.logger.Warn("create receipt failed", zap.Uint("user_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("store receipt: %w", err)
	}

	s.notifyCreated(receipt)
	return receipt, nil
}

// roundMoney returns a copy of req with every amount rounded half away from
// zero to MoneyScale places, the same rounding numeric(14,2) applies on insert.
// Checks, totals and storage then all see one value.
func roundMoney(req *CreateReceiptRequest) *CreateReceiptRequest {
	rounded := *req
	rounded.PaymentAmount = req.PaymentAmount.Round(MoneyScale)
	rounded.Products = make([]ProductInput, len(req.Products))
	for i, p := range req.Products {
		p.Price = p.Price.Round(MoneyScale)
		rounded.Products[i] = p
	}
	return &rounded
}

// validateReceipt runs the checks in a fixed order; the first failure wins.
func validateReceipt(req *CreateReceiptRequest) (total, rest decimal.Decimal, err error) {
	if len(req.Products) == 0 {
		return total, rest, invalid(CodeEmptyReceipt, "Product list must contain at least one item")
	}
	if !model.PaymentType(req.PaymentType).Valid() {
		return total, rest, invalid(CodeInvalidPaymentType, "Payment type must be 'cash' or 'cashless'")
	}
	if !req.PaymentAmount.IsPositive() {
		return total, rest, invalid(CodeInvalidPaymentAmount, "Payment amount must be greater than 0")
	}

	total = decimal.Zero
	for _, p := range req.Products {
		if p.Name == "" {
			return total, rest, invalid(CodeInvalidProductName, "Product name must not be empty")
		}
		if !p.Price.IsPositive() {
			return total, rest, invalid(CodeInvalidProductPrice, fmt.Sprintf("Price for product '%s' must be greater than 0", p.Name))
		}
		if p.Quantity <= 0 {
			return total, rest, invalid(CodeInvalidProductQuantity, fmt.Sprintf("Quantity for product '%s' must be greater than 0", p.Name))
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}

	rest = req.PaymentAmount.Sub(total)
	if rest.IsNegative() {
		return total, rest, invalid(CodeInsufficientPayment, "Insufficient payment amount")
	}
	return total, rest, nil
}

func (s *receiptService) notifyCreated(receipt *model.Receipt) {
	if s.notifier == nil {
		return
	}
	payload := map[string]interface{}{
		"type":    "receipt_created",
		"receipt": receipt.ToResponse(),
		"message": fmt.Sprintf("Receipt #%d created, total %s", receipt.ID, receipt.Total.StringFixed(2)),
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("encode receipt event failed", zap.Uint("receipt_id", receipt.ID), zap.Error(err))
		return
	}
	s.notifier.Publish(receipt.UserID, msg)
}

func (s *receiptService) ListReceipts(ownerID uint, filter model.ReceiptFilter, page model.Page) ([]model.Receipt, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if page.Number <= 0 || page.Size <= 0 {
		return nil, invalid(CodeInvalidPagination, "'page' and 'page_size' must be greater than 0")
	}

	receipts, err := s.receiptRepo.FindByOwner(ownerID, filter, page)
	if err != nil {
		s.logger.Warn("list receipts failed", zap.Uint("user_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	if receipts == nil {
		receipts = []model.Receipt{}
	}
	return receipts, nil
}

func validateFilter(f model.ReceiptFilter) error {
	if f.CreatedFrom != nil && f.CreatedTo != nil && !f.CreatedTo.After(*f.CreatedFrom) {
		return invalid(CodeInvalidFilter, "'created_to' must be greater than 'created_from'")
	}
	if (f.MinTotal != nil && !f.MinTotal.IsPositive()) || (f.MaxTotal != nil && !f.MaxTotal.IsPositive()) {
		return invalid(CodeInvalidFilter, "'min_total' and 'max_total' must be greater than 0")
	}
	if f.MinTotal != nil && f.MaxTotal != nil && f.MaxTotal.LessThan(*f.MinTotal) {
		return invalid(CodeInvalidFilter, "'max_total' must be greater than or equal to 'min_total'")
	}
	if f.PaymentType != nil && !f.PaymentType.Valid() {
		return invalid(CodeInvalidFilter, "Payment type must be 'cash' or 'cashless'")
	}
	return nil
}

func (s *receiptService) GetReceipt(id, ownerID uint) (*model.Receipt, error) {
	receipt, err := s.receiptRepo.FindByIDAndOwner(id, ownerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	return receipt, nil
}

func (s *receiptService) RenderPublic(id uint, lineLength int) (string, error) {
	if lineLength < MinLineLength {
		return "", invalid(CodeLineTooShort, fmt.Sprintf("Line length should be at least %d characters", MinLineLength))
	}

	receipt, err := s.receiptRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrReceiptNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get receipt: %w", err)
	}

	owner, err := s.userRepo.FindByID(receipt.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("receipt owner missing", zap.Uint("receipt_id", id), zap.Uint("user_id", receipt.UserID))
		return "", ErrOwnerNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get receipt owner: %w", err)
	}

	return RenderReceipt(receipt, owner.Name, lineLength), nil
}

func (s *receiptService) Summarize(ownerID uint, filter model.ReceiptFilter) (*model.ReceiptSummary, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	byPayment, err := s.receiptRepo.SummarizeByOwner(ownerID, filter)
	if err != nil {
		s.logger.Warn("summarize receipts failed", zap.Uint("user_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("summarize receipts: %w", err)
	}

	summary := &model.ReceiptSummary{Total: decimal.Zero, ByPayment: byPayment}
	if summary.ByPayment == nil {
		summary.ByPayment = []model.PaymentSummary{}
	}
	for _, p := range byPayment {
		summary.Count += p.Count
		summary.Total = summary.Total.Add(p.Total)
	}
	return summary, nil
}
