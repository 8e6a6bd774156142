package repository

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Blogs stores blog entries. Every method runs on the caller's unit of work.
type Blogs interface {
	CreateTx(ctx context.Context, tx bun.IDB, title, content string, ownerID int64) (*Blog, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*Blog, error)
	ListTx(ctx context.Context, tx bun.IDB) ([]*Blog, error)
}

type blogs struct{}

var _ Blogs = blogs{}

// NewBlogsRepository creates the blog store
func NewBlogsRepository() Blogs {
	return blogs{}
}

func (blogs) CreateTx(ctx context.Context, tx bun.IDB, title, content string, ownerID int64) (*Blog, error) {
	record := &Blog{
		Title:   title,
		Content: content,
		OwnerID: ownerID,
	}

	if _, err := tx.NewInsert().Model(record).Returning("*").Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create blog")
	}

	return record, nil
}

func (blogs) GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*Blog, error) {
	record := &Blog{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBlogNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to get blog")
	}
	return record, nil
}

func (blogs) ListTx(ctx context.Context, tx bun.IDB) ([]*Blog, error) {
	records := make([]*Blog, 0)
	if err := tx.NewSelect().Model(&records).Order("id ASC").Scan(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list blogs")
	}
	return records, nil
}
