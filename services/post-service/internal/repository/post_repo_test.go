package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"seungpyo.lee/MemoryJournal/pkg/apperr"
	"seungpyo.lee/MemoryJournal/services/post-service/internal/domain"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, PreferSimpleProtocol: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return db, mock
}

func TestPostRepository_CreateWritesPostThenImages(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "posts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`INSERT INTO "images"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectCommit()

	post := &domain.Post{
		Title:       "Picnic",
		Description: "By the lake",
		DatePosted:  "15/03/2024",
		CreatedByID: "user-1",
		CouplesID:   "user-1",
		Images:      domain.ImagesFor(0, []string{"https://b.s3.r.amazonaws.com/1-a.png", "https://b.s3.r.amazonaws.com/2-b.png"}),
	}
	if err := repo.Create(context.Background(), post); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if post.ID != 7 {
		t.Fatalf("post id = %d, want 7", post.ID)
	}
	for _, img := range post.Images {
		if img.PostID != 7 {
			t.Fatalf("image post id = %d, want 7", img.PostID)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostRepository_CreateRollsBackWhenImagesFail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "posts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`INSERT INTO "images"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	post := &domain.Post{
		Title:       "Picnic",
		Description: "By the lake",
		DatePosted:  "15/03/2024",
		CreatedByID: "user-1",
		CouplesID:   "user-1",
		Images:      domain.ImagesFor(0, []string{"https://b.s3.r.amazonaws.com/1-a.png"}),
	}
	if err := repo.Create(context.Background(), post); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "posts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	_, err := repo.GetByID(context.Background(), 42)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostRepository_ListPreloadsImagesAndCreator(t *testing.T) {
	db, mock := newMockDB(t)
	mock.MatchExpectationsInOrder(false)
	repo := NewPostRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "posts" ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "date_posted", "created_by_id", "couples_id", "created_at", "updated_at"}).
			AddRow(2, "Newer", "d", "01/03/2024", "user-1", "user-1", now, now).
			AddRow(1, "Older", "d", "01/03/2023", "user-1", "user-1", now.Add(-time.Hour), now))
	mock.ExpectQuery(`SELECT \* FROM "images"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "post_id"}).
			AddRow(10, "https://x/a.png", 2).
			AddRow(11, "https://x/b.png", 1))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("user-1", "Alex"))

	posts, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(posts) != 2 || posts[0].Title != "Newer" {
		t.Fatalf("unexpected posts: %+v", posts)
	}
	if len(posts[0].Images) != 1 || posts[0].Images[0].URL != "https://x/a.png" {
		t.Fatalf("images not attached: %+v", posts[0].Images)
	}
	if posts[1].CreatedBy == nil || posts[1].CreatedBy.Name != "Alex" {
		t.Fatalf("creator not attached: %+v", posts[1].CreatedBy)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostRepository_UpdateMissingPostRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "posts" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), 9, domain.PostFields{Title: "t", Description: "d", DatePosted: "01/01/2024"}, []string{"https://x/a.png"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func postRow(id uint, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "description", "date_posted", "created_by_id", "couples_id", "created_at", "updated_at"}).
		AddRow(id, "Picnic v2", "By the lake", "15/03/2024", "user-1", "user-1", now, now)
}

func TestPostRepository_UpdateReplacesImages(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "posts" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "images" WHERE post_id = \$1`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`INSERT INTO "images"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(`SELECT \* FROM "posts"`).WillReturnRows(postRow(9, now))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("user-1", "Alex"))
	mock.ExpectQuery(`SELECT \* FROM "images"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "post_id"}).AddRow(10, "https://x/a.png", 9))
	mock.ExpectCommit()

	post, err := repo.Update(context.Background(), 9,
		domain.PostFields{Title: "Picnic v2", Description: "By the lake", DatePosted: "15/03/2024"},
		[]string{"https://x/a.png"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(post.Images) != 1 || post.Images[0].URL != "https://x/a.png" || post.Images[0].PostID != 9 {
		t.Fatalf("images = %+v", post.Images)
	}
	if post.CreatedBy == nil || post.CreatedBy.Name != "Alex" {
		t.Fatalf("creator = %+v", post.CreatedBy)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostRepository_UpdateWithoutImagesKeepsSet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)
	now := time.Now()

	// Expectations are ordered, so a DELETE FROM "images" here would fail the test.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "posts" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "posts"`).WillReturnRows(postRow(9, now))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("user-1", "Alex"))
	mock.ExpectQuery(`SELECT \* FROM "images"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "post_id"}).
			AddRow(3, "https://x/old-1.png", 9).
			AddRow(4, "https://x/old-2.png", 9))
	mock.ExpectCommit()

	post, err := repo.Update(context.Background(), 9,
		domain.PostFields{Title: "Picnic v2", Description: "By the lake", DatePosted: "15/03/2024"}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(post.Images) != 2 || post.Images[0].URL != "https://x/old-1.png" {
		t.Fatalf("images = %+v", post.Images)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostRepository_DeleteRemovesImagesThenPost(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "images" WHERE post_id = \$1`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "posts" WHERE "posts"."id" = \$1`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Delete(context.Background(), 3); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostRepository_DeleteMissingPost(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "images"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "posts"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := repo.Delete(context.Background(), 3); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	if _, err := repo.GetByID(context.Background(), "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
