package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/atinyakov/GameLauncher/internal/db"
	"github.com/atinyakov/GameLauncher/internal/models"
)

func setupCatalogMock(t *testing.T) (*CatalogRepository, sqlmock.Sqlmock, func()) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewCatalogRepository(sqlx.NewDb(conn, "postgres"), db.Postgres)
	cleanup := func() { conn.Close() }
	return repo, mock, cleanup
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestIsUnique_FixedStatements(t *testing.T) {
	cases := []struct {
		field models.Field
		query string
	}{
		{models.FieldGameName, `SELECT COUNT(*) FROM games WHERE name = $1 AND user_id = $2`},
		{models.FieldGamePath, `SELECT COUNT(*) FROM games WHERE path = $1 AND user_id = $2`},
		{models.FieldCategoryName, `SELECT COUNT(*) FROM categories WHERE name = $1 AND user_id = $2`},
	}

	for _, tc := range cases {
		t.Run(tc.field.String(), func(t *testing.T) {
			repo, mock, cleanup := setupCatalogMock(t)
			defer cleanup()

			mock.ExpectQuery(regexp.QuoteMeta(tc.query)).
				WithArgs("x'; DROP TABLE games; --", int64(1)).
				WillReturnRows(countRows(0))

			unique, err := repo.IsUnique(context.Background(), 1, tc.field, "x'; DROP TABLE games; --")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !unique {
				t.Errorf("expected unique")
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestIsUnique_UnknownField(t *testing.T) {
	repo, mock, cleanup := setupCatalogMock(t)
	defer cleanup()

	if _, err := repo.IsUnique(context.Background(), 1, models.Field(99), "x"); err == nil {
		t.Errorf("expected error for unknown field")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected sql calls: %v", err)
	}
}

func TestInsertGame_Success(t *testing.T) {
	repo, mock, cleanup := setupCatalogMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM games WHERE name = $1`)).
		WithArgs("Chess").WillReturnRows(countRows(0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM games WHERE path = $1`)).
		WithArgs("/games/chess").WillReturnRows(countRows(0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM categories WHERE id = $1 AND user_id = $2`)).
		WithArgs(int64(3), int64(1)).WillReturnRows(countRows(1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO games (name,path,category_id,user_id) VALUES ($1,$2,$3,$4) RETURNING id`)).
		WithArgs("Chess", "/games/chess", int64(3), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectCommit()

	game, err := repo.InsertGame(context.Background(), 1, "Chess", "/games/chess", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if game.ID != 10 || game.CategoryID != 3 || game.UserID != 1 {
		t.Errorf("unexpected game: %+v", game)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestInsertGame_Conflicts(t *testing.T) {
	t.Run("name taken", func(t *testing.T) {
		repo, mock, cleanup := setupCatalogMock(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM games WHERE name = $1`)).
			WithArgs("Chess").WillReturnRows(countRows(1))
		mock.ExpectRollback()

		_, err := repo.InsertGame(context.Background(), 2, "Chess", "/other", 4)
		var conflict *models.ConflictError
		if !errors.As(err, &conflict) || conflict.Field != models.FieldGameName {
			t.Errorf("expected name conflict, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})

	t.Run("foreign category", func(t *testing.T) {
		repo, mock, cleanup := setupCatalogMock(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM games WHERE name = $1`)).
			WithArgs("Go").WillReturnRows(countRows(0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM games WHERE path = $1`)).
			WithArgs("/go").WillReturnRows(countRows(0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM categories WHERE id = $1 AND user_id = $2`)).
			WithArgs(int64(9), int64(2)).WillReturnRows(countRows(0))
		mock.ExpectRollback()

		_, err := repo.InsertGame(context.Background(), 2, "Go", "/go", 9)
		if !errors.Is(err, models.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})
}

func TestListCategories_DefaultFirst(t *testing.T) {
	repo, mock, cleanup := setupCatalogMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, name, user_id FROM categories WHERE user_id = $1 ORDER BY CASE WHEN name = $2 THEN 0 ELSE 1 END, name`)).
		WithArgs(int64(1), models.DefaultCategoryName).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id"}).
			AddRow(1, "All", 1).
			AddRow(5, "Action", 1))

	categories, err := repo.ListCategories(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(categories) != 2 || categories[0].Name != "All" {
		t.Errorf("unexpected categories: %+v", categories)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRepairOrphans_NoCategoriesIsNoop(t *testing.T) {
	repo, mock, cleanup := setupCatalogMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM categories WHERE user_id = $1`)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	n, err := repo.RepairOrphans(context.Background(), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 repaired, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRepairOrphans_UsesDefaultByName(t *testing.T) {
	repo, mock, cleanup := setupCatalogMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM categories WHERE user_id = $1`)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, user_id FROM categories WHERE name = $1 AND user_id = $2`)).
		WithArgs(models.DefaultCategoryName, int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id"}).AddRow(11, "All", 4))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE games SET category_id = $1 WHERE user_id = $2 AND category_id NOT IN ($3,$4)`)).
		WithArgs(int64(11), int64(4), int64(11), int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := repo.RepairOrphans(context.Background(), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 repaired, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDeleteGame_NotFound(t *testing.T) {
	repo, mock, cleanup := setupCatalogMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM games WHERE name = $1 AND user_id = $2`)).
		WithArgs("Nope", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteGame(context.Background(), 1, "Nope"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListGames_StorageFault(t *testing.T) {
	repo, mock, cleanup := setupCatalogMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, path, category_id, user_id FROM games WHERE user_id = $1 ORDER BY name`)).
		WithArgs(int64(1)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.ListGames(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, models.ErrConflict) || errors.Is(err, models.ErrNotFound) {
		t.Errorf("storage fault mapped to domain error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
