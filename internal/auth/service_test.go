package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/medreport/companion/internal/core/domain"
)

func newServiceWithMock(t *testing.T) (*Service, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewService(db, time.Hour), mock, func() { _ = db.Close() }
}

func TestSignUpRejectsBadInput(t *testing.T) {
	svc, _, done := newServiceWithMock(t)
	defer done()

	cases := []struct {
		email, password string
	}{
		{"", "longenough"},
		{"not-an-email", "longenough"},
		{"a@b.com", "short"},
	}
	for _, tc := range cases {
		_, err := svc.SignUp(context.Background(), tc.email, tc.password)
		if !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Errorf("SignUp(%q, %q) err = %v, want ErrInvalidInput", tc.email, tc.password, err)
		}
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.SignUp(context.Background(), "A@B.com", "longenough")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, email, password_hash").
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
			AddRow("user-1", "a@b.com", hashPassword("correct-password"), now))

	_, _, err := svc.SignIn(context.Background(), "a@b.com", "wrong-password")
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestSignInUnknownEmail(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, email, password_hash").
		WithArgs("ghost@b.com").
		WillReturnError(sql.ErrNoRows)

	_, _, err := svc.SignIn(context.Background(), "ghost@b.com", "whatever1")
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	expired := time.Now().UTC().Add(-time.Minute)
	mock.ExpectQuery("SELECT user_id, expires_at").
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}).AddRow("user-1", expired))
	mock.ExpectExec("DELETE FROM user_tokens").
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := svc.ValidateToken(context.Background(), "tok")
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestValidateTokenSuccess(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT user_id, expires_at").
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}).
			AddRow("user-1", time.Now().UTC().Add(time.Hour)))

	userID, err := svc.ValidateToken(context.Background(), "tok")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("userID = %q", userID)
	}
}
