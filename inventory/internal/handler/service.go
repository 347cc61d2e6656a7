package handler

import (
	"context"

	"github.com/Astemirdum/book-inventory/inventory/internal/model"
	"github.com/Astemirdum/book-inventory/inventory/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	CreateBooks(ctx context.Context, specs []model.BookSpec) ([]int64, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	UpdateBook(ctx context.Context, id int64, upd model.UpdateBookRequest) error
	DeleteBook(ctx context.Context, id int64) error
	DeleteBooks(ctx context.Context, ids []int64) ([]int64, error)
	Ping(ctx context.Context) error
}

var _ BookService = (*service.Service)(nil)
