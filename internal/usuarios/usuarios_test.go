package usuarios

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/usuarios/internal/module"
	"github.com/zeusync/usuarios/internal/mvc"
	"github.com/zeusync/usuarios/internal/orm"
)

var creado = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func columns() []string { return []string{"id", "nombre", "email", "creado_en"} }

func newMock(t *testing.T) (*orm.EntityManager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	em := orm.NewEntityManager(db)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = em.Close()
	})
	return em, mock
}

func newApp(t *testing.T, em *orm.EntityManager) http.Handler {
	t.Helper()
	m, err := module.Load(orm.ServiceConfig(em), Module{})
	require.NoError(t, err)
	app, err := mvc.NewApplication(m.Config().Router.Routes, m.Controllers(), nil)
	require.NoError(t, err)
	return app
}

func TestModuleConfig(t *testing.T) {
	c, err := Module{}.Config()
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	require.Len(t, c.Router.Routes, 1)
	root := c.Router.Routes[0]
	assert.Equal(t, "module-name-here", root.Name)
	assert.Equal(t, module.RouteLiteral, root.Type)
	assert.Equal(t, "/module-specific-root", root.Route)
	assert.Equal(t, module.RouteDefaults{Controller: ControllerName, Action: "index"}, root.Defaults)
	assert.True(t, root.MayTerminate)
	require.Len(t, root.ChildRoutes, 1)
	assert.Equal(t, "/:id", root.ChildRoutes[0].Route)

	assert.Equal(t, ControllerFactoryName, c.Controllers.Factories[ControllerName])
	assert.Contains(t, c.ViewManager.TemplatePathStack, "ZendSkeletonModule")
}

func TestIndexListsUsuarios(t *testing.T) {
	em, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectUsuarios + ` ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(columns()).
			AddRow(1, "Ana", "ana@example.com", creado).
			AddRow(2, "Luis", "luis@example.com", creado))

	rr := httptest.NewRecorder()
	newApp(t, em).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/module-specific-root", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got []Usuario
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Luis", got[1].Nombre)
	assert.True(t, creado.Equal(got[0].CreadoEn))
}

func TestIndexByNormalizedEmail(t *testing.T) {
	em, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectUsuarios + ` WHERE email = $1`)).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(columns()).AddRow(1, "Ana", "ana@example.com", creado))

	rr := httptest.NewRecorder()
	newApp(t, em).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/module-specific-root?email=%20Ana@Example.COM%20", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got []Usuario
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestView(t *testing.T) {
	em, mock := newMock(t)
	q := regexp.QuoteMeta(selectUsuarios + ` WHERE id = $1`)
	mock.ExpectQuery(q).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(columns()).AddRow(7, "Eva", "eva@example.com", creado))
	mock.ExpectQuery(q).WithArgs(int64(8)).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q).WithArgs(int64(9)).WillReturnError(errors.New("connection reset"))

	app := newApp(t, em)

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/module-specific-root/7", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var u Usuario
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &u))
	assert.Equal(t, "Eva", u.Nombre)

	rr = httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/module-specific-root/8", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/module-specific-root/9", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/module-specific-root/abc", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRepositoryClosed(t *testing.T) {
	em, mock := newMock(t)
	repo := NewRepository(em)
	mock.ExpectClose()
	require.NoError(t, em.Close())

	_, err := repo.FindAll(context.Background())
	assert.ErrorIs(t, err, orm.ErrClosed)
	_, err = repo.Find(context.Background(), 1)
	assert.ErrorIs(t, err, orm.ErrClosed)
}

func TestRepositoryScanError(t *testing.T) {
	em, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectUsuarios + ` ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(columns()).AddRow("not-a-number", "x", "y", creado))

	_, err := NewRepository(em).FindAll(context.Background())
	assert.ErrorContains(t, err, "scan usuario")
}

func TestControllerActions(t *testing.T) {
	c := NewController(nil, nil)
	_, ok := c.Action("index")
	assert.True(t, ok)
	_, ok = c.Action("view")
	assert.True(t, ok)
	_, ok = c.Action("delete")
	assert.False(t, ok)
}

func TestFilterConfig(t *testing.T) {
	m, err := module.Load(orm.ServiceConfig(orm.NewEntityManager(nil)), Module{})
	require.NoError(t, err)
	assert.Equal(t, 1, m.FilterSources())
	assert.True(t, m.Filters().Has(EmailFilterName))
}
