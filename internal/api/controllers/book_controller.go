package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"allinbee/internal/models/request_models"
	"allinbee/internal/services"
	"allinbee/pkg/utils"
)

type BookController struct {
	bookService services.BookServiceInterface
}

func NewBookController(bookService services.BookServiceInterface) *BookController {
	return &BookController{bookService: bookService}
}

// ListBooks godoc
// @Summary Library catalog
// @Tags Books
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param search query string false "Title, author or ISBN fragment"
// @Success 200 {object} utils.APIResponse
// @Router /books [get]
func (bc *BookController) ListBooks(c *gin.Context) {
	var query request_models.ListBooksQuery
	if !bindQuery(c, &query) {
		return
	}

	books, err := bc.bookService.ListBooks(c.Request.Context(), query)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, books, "Books fetched successfully")
}

// GetBook godoc
// @Summary Get a book by ISBN
// @Tags Books
// @Produce json
// @Param isbn path string true "ISBN"
// @Success 200 {object} utils.APIResponse{data=response_models.BookResponse}
// @Failure 404 {object} utils.APIResponse
// @Router /books/{isbn} [get]
func (bc *BookController) GetBook(c *gin.Context) {
	book, err := bc.bookService.GetBook(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, book, "Book fetched successfully")
}

// CreateBook godoc
// @Summary Add a book to the catalog
// @Tags Books
// @Accept json
// @Produce json
// @Param request body request_models.CreateBookRequest true "Book"
// @Success 201 {object} utils.APIResponse{data=response_models.BookResponse}
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /books [post]
func (bc *BookController) CreateBook(c *gin.Context) {
	var req request_models.CreateBookRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := bc.bookService.CreateBook(c.Request.Context(), caller(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithStatus(c, http.StatusCreated, book, "Book created successfully")
}

// UpdateBook godoc
// @Summary Update a book
// @Tags Books
// @Accept json
// @Produce json
// @Param isbn path string true "ISBN"
// @Param request body request_models.UpdateBookRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse{data=response_models.BookResponse}
// @Security BearerAuth
// @Router /books/{isbn} [patch]
func (bc *BookController) UpdateBook(c *gin.Context) {
	var req request_models.UpdateBookRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := bc.bookService.UpdateBook(c.Request.Context(), caller(c), c.Param("isbn"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, book, "Book updated successfully")
}

// DeleteBook godoc
// @Summary Remove a book from the catalog
// @Tags Books
// @Param isbn path string true "ISBN"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /books/{isbn} [delete]
func (bc *BookController) DeleteBook(c *gin.Context) {
	if err := bc.bookService.DeleteBook(c.Request.Context(), caller(c), c.Param("isbn")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Book deleted successfully")
}
