package usuarios

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zeusync/usuarios/internal/orm"
)

var ErrUsuarioNotFound = errors.New("usuario not found")

type Usuario struct {
	ID       int64     `json:"id"`
	Nombre   string    `json:"nombre"`
	Email    string    `json:"email"`
	CreadoEn time.Time `json:"creado_en"`
}

const selectUsuarios = `SELECT id, nombre, email, creado_en FROM usuarios`

// Repository reads usuarios through the entity manager.
type Repository struct {
	em *orm.EntityManager
}

func NewRepository(em *orm.EntityManager) *Repository {
	return &Repository{em: em}
}

func (r *Repository) FindAll(ctx context.Context) ([]Usuario, error) {
	db := r.em.DB()
	if db == nil {
		return nil, orm.ErrClosed
	}
	rows, err := db.QueryContext(ctx, selectUsuarios+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query usuarios: %w", err)
	}
	defer rows.Close()

	out := make([]Usuario, 0)
	for rows.Next() {
		var u Usuario
		if err := rows.Scan(&u.ID, &u.Nombre, &u.Email, &u.CreadoEn); err != nil {
			return nil, fmt.Errorf("scan usuario: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usuarios: %w", err)
	}
	return out, nil
}

func (r *Repository) Find(ctx context.Context, id int64) (Usuario, error) {
	return r.findOne(ctx, selectUsuarios+` WHERE id = $1`, id)
}

// FindByEmail expects an already normalized address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (Usuario, error) {
	return r.findOne(ctx, selectUsuarios+` WHERE email = $1`, email)
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (Usuario, error) {
	db := r.em.DB()
	if db == nil {
		return Usuario{}, orm.ErrClosed
	}
	var u Usuario
	err := db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Nombre, &u.Email, &u.CreadoEn)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Usuario{}, fmt.Errorf("%w: %v", ErrUsuarioNotFound, arg)
	case err != nil:
		return Usuario{}, fmt.Errorf("query usuario: %w", err)
	}
	return u, nil
}
