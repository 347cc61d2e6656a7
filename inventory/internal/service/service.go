package service

import (
	"context"
	"database/sql"

	"github.com/Astemirdum/book-inventory/inventory/internal/errs"
	"github.com/Astemirdum/book-inventory/inventory/internal/model"
	"github.com/Astemirdum/book-inventory/inventory/internal/repository"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type Publisher interface {
	Publish(ctx context.Context, typ model.EventType, ids []int64)
}

// Service runs every operation in its own transaction and decides
// commit or rollback from the result of the repository calls.
type Service struct {
	log    *zap.Logger
	repo   repository.Repository
	events Publisher
}

func NewService(repo repository.Repository, events Publisher, log *zap.Logger) *Service {
	return &Service{
		log:    log.Named("svc"),
		repo:   repo,
		events: events,
	}
}

func (s *Service) CreateBooks(ctx context.Context, specs []model.BookSpec) ([]int64, error) {
	books := make([]model.Book, 0, len(specs))
	for _, spec := range specs {
		books = append(books, spec.Book())
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, s.persistence("CreateBooks", err)
	}
	ids, err := tx.InsertBooks(ctx, books)
	if err != nil {
		s.rollback(tx, "CreateBooks")
		return nil, s.persistence("CreateBooks", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, s.persistence("CreateBooks", err)
	}

	s.events.Publish(ctx, model.EventCreated, ids)
	return ids, nil
}

// ListBooks reports ErrNotFound for an empty table.
func (s *Service) ListBooks(ctx context.Context) ([]model.Book, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, s.persistence("ListBooks", err)
	}
	books, err := tx.ListBooks(ctx)
	if err != nil {
		s.rollback(tx, "ListBooks")
		return nil, s.persistence("ListBooks", err)
	}
	if len(books) == 0 {
		s.rollback(tx, "ListBooks")
		return nil, errs.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return nil, s.persistence("ListBooks", err)
	}
	return books, nil
}

func (s *Service) GetBook(ctx context.Context, id int64) (model.Book, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return model.Book{}, s.persistence("GetBook", err)
	}
	book, err := tx.GetBook(ctx, id)
	if err != nil {
		s.rollback(tx, "GetBook")
		return model.Book{}, s.classify("GetBook", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Book{}, s.persistence("GetBook", err)
	}
	return book, nil
}

func (s *Service) UpdateBook(ctx context.Context, id int64, upd model.UpdateBookRequest) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return s.persistence("UpdateBook", err)
	}
	if err := tx.UpdateBook(ctx, id, upd); err != nil {
		s.rollback(tx, "UpdateBook")
		return s.classify("UpdateBook", err)
	}
	if err := tx.Commit(); err != nil {
		return s.persistence("UpdateBook", err)
	}

	if !upd.Empty() {
		s.events.Publish(ctx, model.EventUpdated, []int64{id})
	}
	return nil
}

func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return s.persistence("DeleteBook", err)
	}
	if err := tx.DeleteBook(ctx, id); err != nil {
		s.rollback(tx, "DeleteBook")
		return s.classify("DeleteBook", err)
	}
	if err := tx.Commit(); err != nil {
		return s.persistence("DeleteBook", err)
	}

	s.events.Publish(ctx, model.EventDeleted, []int64{id})
	return nil
}

// DeleteBooks removes the matching rows and echoes ids as requested,
// including ids that did not exist. ErrNotFound when nothing matched.
func (s *Service) DeleteBooks(ctx context.Context, ids []int64) ([]int64, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, s.persistence("DeleteBooks", err)
	}
	n, err := tx.DeleteBooks(ctx, ids)
	if err != nil {
		s.rollback(tx, "DeleteBooks")
		return nil, s.persistence("DeleteBooks", err)
	}
	if n == 0 {
		s.rollback(tx, "DeleteBooks")
		return nil, errs.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return nil, s.persistence("DeleteBooks", err)
	}

	s.log.Debug("DeleteBooks", zap.Int("requested", len(ids)), zap.Int64("deleted", n))
	s.events.Publish(ctx, model.EventDeleted, ids)
	return ids, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) rollback(tx repository.Tx, op string) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.log.Error("rollback", zap.String("op", op), zap.Error(err))
	}
}

// classify keeps ErrNotFound and turns anything else into ErrPersistence.
func (s *Service) classify(op string, err error) error {
	if errors.Is(err, errs.ErrNotFound) {
		return errs.ErrNotFound
	}
	return s.persistence(op, err)
}

// persistence logs the cause and hides it from the caller.
func (s *Service) persistence(op string, err error) error {
	s.log.Error(op, zap.Error(err))
	return errors.Wrap(errs.ErrPersistence, op)
}
