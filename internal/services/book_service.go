package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"allinbee/internal/auth"
	"allinbee/internal/models/db_models"
	"allinbee/internal/models/request_models"
	"allinbee/internal/models/response_models"
	"allinbee/internal/repositories"
	"allinbee/pkg/utils"
)

type BookServiceInterface interface {
	ListBooks(ctx context.Context, query request_models.ListBooksQuery) (*response_models.PagedResponse[response_models.BookResponse], error)
	GetBook(ctx context.Context, isbn string) (*response_models.BookResponse, error)
	CreateBook(ctx context.Context, caller auth.Identity, request request_models.CreateBookRequest) (*response_models.BookResponse, error)
	UpdateBook(ctx context.Context, caller auth.Identity, isbn string, request request_models.UpdateBookRequest) (*response_models.BookResponse, error)
	DeleteBook(ctx context.Context, caller auth.Identity, isbn string) error
}

type BookService struct {
	repo repositories.BookRepository
	log  *zap.Logger
}

func NewBookService(repo repositories.BookRepository, log *zap.Logger) *BookService {
	return &BookService{repo: repo, log: log}
}

func (s *BookService) ListBooks(ctx context.Context, query request_models.ListBooksQuery) (*response_models.PagedResponse[response_models.BookResponse], error) {
	if err := normalizePage(&query.PageQuery); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(query); err != nil {
		return nil, err
	}

	books, total, err := s.repo.List(ctx, query.Search, query.Offset(), query.PageSize)
	if err != nil {
		return nil, mapRepoErr(s.log, "list books", err)
	}

	items := make([]response_models.BookResponse, 0, len(books))
	for i := range books {
		items = append(items, response_models.NewBookResponse(&books[i]))
	}
	return &response_models.PagedResponse[response_models.BookResponse]{
		Items:      items,
		TotalCount: total,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}, nil
}

func (s *BookService) GetBook(ctx context.Context, isbn string) (*response_models.BookResponse, error) {
	book, err := s.repo.FindByIsbn(ctx, strings.TrimSpace(isbn))
	if err != nil {
		return nil, mapRepoErr(s.log, "find book", err)
	}
	if book == nil {
		return nil, utils.ErrBookNotFound
	}
	resp := response_models.NewBookResponse(book)
	return &resp, nil
}

// CreateBook puts every copy on the shelf.
func (s *BookService) CreateBook(ctx context.Context, caller auth.Identity, request request_models.CreateBookRequest) (*response_models.BookResponse, error) {
	if err := requireRole(caller, auth.RoleStaff); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}
	isbn := strings.TrimSpace(request.Isbn)
	if isbn == "" {
		return nil, utils.ValidationError("isbn must not be empty")
	}

	book := &db_models.Book{
		Isbn:            isbn,
		Title:           strings.TrimSpace(request.Title),
		Author:          strings.TrimSpace(request.Author),
		QuantityInStock: request.QuantityInStock,
		CurrentQuantity: request.QuantityInStock,
	}
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, mapRepoErr(s.log, "create book", err)
	}
	resp := response_models.NewBookResponse(book)
	return &resp, nil
}

func (s *BookService) UpdateBook(ctx context.Context, caller auth.Identity, isbn string, request request_models.UpdateBookRequest) (*response_models.BookResponse, error) {
	if err := requireRole(caller, auth.RoleStaff); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	var title, author *string
	if request.Title != nil {
		t := strings.TrimSpace(*request.Title)
		title = &t
	}
	if request.Author != nil {
		a := strings.TrimSpace(*request.Author)
		author = &a
	}

	book, err := s.repo.Update(ctx, strings.TrimSpace(isbn), title, author, request.QuantityInStock)
	if err != nil {
		return nil, mapRepoErr(s.log, "update book", err)
	}
	resp := response_models.NewBookResponse(book)
	return &resp, nil
}

func (s *BookService) DeleteBook(ctx context.Context, caller auth.Identity, isbn string) error {
	if err := requireRole(caller, auth.RoleStaff); err != nil {
		return err
	}
	return mapRepoErr(s.log, "delete book", s.repo.Delete(ctx, strings.TrimSpace(isbn)))
}
