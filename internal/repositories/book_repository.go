package repositories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"allinbee/internal/models/db_models"
	"allinbee/pkg/utils"
)

type BookRepository interface {
	List(ctx context.Context, search string, offset, limit int) ([]db_models.Book, int64, error)
	FindByIsbn(ctx context.Context, isbn string) (*db_models.Book, error)
	Create(ctx context.Context, book *db_models.Book) error
	Update(ctx context.Context, isbn string, title, author *string, quantityInStock *int) (*db_models.Book, error)
	Delete(ctx context.Context, isbn string) error
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) List(ctx context.Context, search string, offset, limit int) ([]db_models.Book, int64, error) {
	q := r.db.WithContext(ctx).Model(&db_models.Book{})
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR isbn LIKE ?", like, like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []db_models.Book
	if err := q.Order("title").Order("isbn").Offset(offset).Limit(limit).Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *bookRepository) FindByIsbn(ctx context.Context, isbn string) (*db_models.Book, error) {
	var book db_models.Book
	err := r.db.WithContext(ctx).First(&book, "isbn = ?", isbn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) Create(ctx context.Context, book *db_models.Book) error {
	err := r.db.WithContext(ctx).Create(book).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrBookAlreadyExists
	}
	return err
}

// Update shifts current_quantity by the same delta as quantity_in_stock, so
// borrowed copies stay accounted for. The shift is refused when it would
// leave fewer copies on the shelf than zero.
func (r *bookRepository) Update(ctx context.Context, isbn string, title, author *string, quantityInStock *int) (*db_models.Book, error) {
	var book db_models.Book
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, "isbn = ?", isbn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrBookNotFound
			}
			return err
		}

		fields := map[string]interface{}{}
		if title != nil {
			fields["title"] = *title
		}
		if author != nil {
			fields["author"] = *author
		}
		if len(fields) > 0 {
			if err := tx.Model(&db_models.Book{}).Where("isbn = ?", isbn).Updates(fields).Error; err != nil {
				return err
			}
		}

		if quantityInStock != nil {
			res := tx.Model(&db_models.Book{}).
				Where("isbn = ? AND current_quantity + (? - quantity_in_stock) >= 0", isbn, *quantityInStock).
				Updates(map[string]interface{}{
					"quantity_in_stock": *quantityInStock,
					"current_quantity":  gorm.Expr("current_quantity + (? - quantity_in_stock)", *quantityInStock),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return utils.ErrStockBelowBorrowed
			}
		}

		return tx.First(&book, "isbn = ?", isbn).Error
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Delete refuses while any borrow of the book is still open.
func (r *bookRepository) Delete(ctx context.Context, isbn string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		err := tx.Model(&db_models.BookBorrowRecord{}).
			Where("book_isbn = ? AND return_date IS NULL", isbn).
			Count(&open).Error
		if err != nil {
			return err
		}
		if open > 0 {
			return utils.ErrBookHasOpenBorrows
		}

		res := tx.Delete(&db_models.Book{}, "isbn = ?", isbn)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrBookNotFound
		}
		return nil
	})
}
