package repository

import (
	"context"
	"database/sql"

	"github.com/Astemirdum/book-inventory/inventory/internal/errs"
	"github.com/Astemirdum/book-inventory/inventory/internal/model"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	Begin(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
}

// Tx is a single database transaction. The caller ends it with Commit or Rollback.
type Tx interface {
	InsertBooks(ctx context.Context, books []model.Book) ([]int64, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	UpdateBook(ctx context.Context, id int64, upd model.UpdateBookRequest) error
	DeleteBook(ctx context.Context, id int64) error
	DeleteBooks(ctx context.Context, ids []int64) (int64, error)
	Commit() error
	Rollback() error
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

var _ Repository = (*repository)(nil)

const (
	booksTableName = `books`
)

var (
	qb          = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	bookColumns = []string{"id", "title", "author", "quantity", "availability"}
)

func (r *repository) Begin(ctx context.Context) (Tx, error) {
	t, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin")
	}
	return &tx{tx: t, log: r.log}, nil
}

func (r *repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type tx struct {
	tx  *sqlx.Tx
	log *zap.Logger
}

func (t *tx) Commit() error {
	return t.tx.Commit()
}

func (t *tx) Rollback() error {
	return t.tx.Rollback()
}

func (t *tx) InsertBooks(ctx context.Context, books []model.Book) ([]int64, error) {
	ids := make([]int64, 0, len(books))
	for _, b := range books {
		query, args, err := qb.Insert(booksTableName).
			Columns("title", "author", "quantity", "availability").
			Values(b.Title, b.Author, b.Quantity, b.Availability).
			Suffix("returning id").
			ToSql()
		if err != nil {
			return nil, err
		}
		var id int64
		if err := t.tx.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			t.logPgError("InsertBooks", err, zap.String("q", query), zap.Any("args", args))
			return nil, errors.Wrap(err, "insert book")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (t *tx) ListBooks(ctx context.Context) ([]model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	t.log.Debug("ListBooks", zap.String("query", query))

	books := make([]model.Book, 0)
	if err := t.tx.SelectContext(ctx, &books, query, args...); err != nil {
		t.logPgError("ListBooks", err)
		return nil, errors.Wrap(err, "select books")
	}
	return books, nil
}

func (t *tx) GetBook(ctx context.Context, id int64) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := t.tx.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		t.logPgError("GetBook", err, zap.Int64("id", id))
		return model.Book{}, errors.Wrap(err, "select book")
	}
	return book, nil
}

// UpdateBook writes only the non-nil fields of upd.
// An empty update still reports ErrNotFound for a missing row.
func (t *tx) UpdateBook(ctx context.Context, id int64, upd model.UpdateBookRequest) error {
	if upd.Empty() {
		_, err := t.GetBook(ctx, id)
		return err
	}

	set := make(map[string]interface{}, 4)
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Author != nil {
		set["author"] = *upd.Author
	}
	if upd.Quantity != nil {
		set["quantity"] = *upd.Quantity
	}
	if upd.Availability != nil {
		set["availability"] = *upd.Availability
	}

	query, args, err := qb.Update(booksTableName).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("returning id").
		ToSql()
	if err != nil {
		return err
	}

	var updated int64
	if err := t.tx.QueryRowxContext(ctx, query, args...).Scan(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errs.ErrNotFound
		}
		t.logPgError("UpdateBook", err, zap.String("q", query), zap.Any("args", args))
		return errors.Wrap(err, "update book")
	}
	return nil
}

func (t *tx) DeleteBook(ctx context.Context, id int64) error {
	n, err := t.delete(ctx, sq.Eq{"id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// DeleteBooks removes every row whose id is in ids and reports how many were removed.
func (t *tx) DeleteBooks(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return t.delete(ctx, sq.Eq{"id": ids})
}

func (t *tx) delete(ctx context.Context, where sq.Eq) (int64, error) {
	query, args, err := qb.Delete(booksTableName).
		Where(where).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		t.logPgError("delete", err, zap.String("q", query), zap.Any("args", args))
		return 0, errors.Wrap(err, "delete books")
	}
	return res.RowsAffected()
}

func (t *tx) logPgError(op string, err error, fields ...zap.Field) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		fields = append(fields,
			zap.String("sqlstate", pgErr.Code),
			zap.String("constraint", pgErr.ConstraintName),
			zap.Bool("integrity_violation", pgerrcode.IsIntegrityConstraintViolation(pgErr.Code)),
		)
	}
	t.log.Error(op, append(fields, zap.Error(err))...)
}
