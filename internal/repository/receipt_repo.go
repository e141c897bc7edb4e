package repository

import (
	"go-receipts-api/internal/model"

	"gorm.io/gorm"
)

type ReceiptRepository interface {
	// Create stores the receipt and all of its products as one unit.
	Create(receipt *model.Receipt) error
	FindByOwner(userID uint, filter model.ReceiptFilter, page model.Page) ([]model.Receipt, error)
	FindByID(id uint) (*model.Receipt, error)
	FindByIDAndOwner(id, userID uint) (*model.Receipt, error)
	SummarizeByOwner(userID uint, filter model.ReceiptFilter) ([]model.PaymentSummary, error)
}

type receiptRepo struct {
	db *gorm.DB
}

func NewReceiptRepo(db *gorm.DB) ReceiptRepository {
	return &receiptRepo{db}
}

func (r *receiptRepo) Create(receipt *model.Receipt) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		products := receipt.Products
		if err := tx.Omit("Products").Create(receipt).Error; err != nil {
			return err
		}

		for i := range products {
			products[i].ReceiptID = receipt.ID
		}
		if err := tx.Create(&products).Error; err != nil {
			return err
		}
		receipt.Products = products
		return nil
	})
}

func (r *receiptRepo) FindByOwner(userID uint, filter model.ReceiptFilter, page model.Page) ([]model.Receipt, error) {
	var receipts []model.Receipt
	err := applyFilter(r.db.Where("user_id = ?", userID), filter).
		Preload("Products", orderByID).
		Order("id ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepo) FindByID(id uint) (*model.Receipt, error) {
	var receipt model.Receipt
	if err := r.db.Preload("Products", orderByID).First(&receipt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepo) FindByIDAndOwner(id, userID uint) (*model.Receipt, error) {
	var receipt model.Receipt
	err := r.db.Preload("Products", orderByID).
		Where("id = ? AND user_id = ?", id, userID).
		First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepo) SummarizeByOwner(userID uint, filter model.ReceiptFilter) ([]model.PaymentSummary, error) {
	var results []model.PaymentSummary
	err := applyFilter(r.db.Model(&model.Receipt{}).Where("user_id = ?", userID), filter).
		Select("payment_type, COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Group("payment_type").
		Order("payment_type ASC").
		Find(&results).Error
	return results, err
}

func applyFilter(query *gorm.DB, filter model.ReceiptFilter) *gorm.DB {
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	if filter.MinTotal != nil {
		query = query.Where("total >= ?", *filter.MinTotal)
	}
	if filter.MaxTotal != nil {
		query = query.Where("total <= ?", *filter.MaxTotal)
	}
	if filter.PaymentType != nil {
		query = query.Where("payment_type = ?", *filter.PaymentType)
	}
	return query
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
