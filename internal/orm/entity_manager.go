// Package orm exposes the entity manager service and its legacy alias.
package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/zeusync/usuarios/internal/service"
)

const (
	// ServiceName is the canonical entity manager service.
	ServiceName = "doctrine.entitymanager.orm_default"
	// AliasServiceName is the legacy name resolved through EntityManagerAliasCompatFactory.
	AliasServiceName = "orm.EntityManager"

	driverName = "postgres"
)

var ErrClosed = errors.New("entity manager is closed")

// EntityManager owns the database handle repositories work through.
type EntityManager struct {
	db *sql.DB
}

func NewEntityManager(db *sql.DB) *EntityManager {
	return &EntityManager{db: db}
}

// Open connects lazily; Ping verifies the DSN.
func Open(dsn string) (*EntityManager, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return NewEntityManager(db), nil
}

func (em *EntityManager) DB() *sql.DB {
	return em.db
}

func (em *EntityManager) Ping(ctx context.Context) error {
	if em.db == nil {
		return ErrClosed
	}
	return em.db.PingContext(ctx)
}

// Transactional runs fn in a transaction, committing when fn returns nil.
func (em *EntityManager) Transactional(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if em.db == nil {
		return ErrClosed
	}
	tx, err := em.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (em *EntityManager) Close() error {
	if em.db == nil {
		return nil
	}
	err := em.db.Close()
	em.db = nil
	return err
}

// EntityManagerAliasCompatFactory provides AliasServiceName for ServiceName.
//
// Deprecated: request ServiceName directly.
func EntityManagerAliasCompatFactory(c service.Container, _ string, _ map[string]any) (any, error) {
	return c.Get(ServiceName)
}

// ServiceConfig registers em under ServiceName and the legacy alias factory.
func ServiceConfig(em *EntityManager) service.Config {
	return service.Config{
		Services: map[string]any{ServiceName: em},
		Factories: map[string]service.Factory{
			AliasServiceName: EntityManagerAliasCompatFactory,
		},
	}
}
