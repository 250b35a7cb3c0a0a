package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Transactor runs a unit of work against a repository set bound to one transaction.
type Transactor interface {
	// Transaction commits only when fn returns nil.
	Transaction(ctx context.Context, fn func(repos *Repositories) error) error
	ReadOnly(ctx context.Context, fn func(repos *Repositories) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) Transaction(ctx context.Context, fn func(repos *Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

func (t *gormTransactor) ReadOnly(ctx context.Context, fn func(repos *Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	}, &sql.TxOptions{ReadOnly: true})
}
