package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsInvalidInput(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewUserService(db, testConfig())

	valid := RegisterRequest{
		Username:  "joao silva",
		Password:  "Str0ng#Pass",
		FirstName: "Joao",
		LastName:  "Silva",
		CPF:       "529.982.247-25",
		Birthdate: time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name   string
		mutate func(r *RegisterRequest)
	}{
		{"empty username", func(r *RegisterRequest) { r.Username = "" }},
		{"username with symbols", func(r *RegisterRequest) { r.Username = "joao!" }},
		{"numeric first name", func(r *RegisterRequest) { r.FirstName = "Jo4o" }},
		{"single letter last name", func(r *RegisterRequest) { r.LastName = "S" }},
		{"bad CPF check digits", func(r *RegisterRequest) { r.CPF = "529.982.247-26" }},
		{"repeated-sequence CPF", func(r *RegisterRequest) { r.CPF = "111.111.111-11" }},
		{"password without symbol", func(r *RegisterRequest) { r.Password = "Str0ngPass" }},
		{"password too short", func(r *RegisterRequest) { r.Password = "S#0aa" }},
		{"underage user", func(r *RegisterRequest) {
			r.Birthdate = time.Now().UTC().AddDate(-10, 0, 0)
		}},
		{"eighteen only tomorrow", func(r *RegisterRequest) {
			r.Birthdate = time.Now().UTC().AddDate(-18, 0, 1)
		}},
		{"implausibly old user", func(r *RegisterRequest) {
			r.Birthdate = time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			_, err := svc.Register(context.Background(), req)
			assert.True(t, IsKind(err, ErrKindInvalidValue), "got %v", err)
		})
	}

	// every rejection happens before the first database round trip
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestYearsSince(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		birthdate time.Time
		want      int
	}{
		{"birthday today", time.Date(2008, 9, 1, 0, 0, 0, 0, time.UTC), 18},
		{"birthday tomorrow", time.Date(2008, 9, 2, 0, 0, 0, 0, time.UTC), 17},
		{"birthday last month", time.Date(2008, 8, 15, 0, 0, 0, 0, time.UTC), 18},
		{"birthday in december", time.Date(2008, 12, 25, 0, 0, 0, 0, time.UTC), 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, yearsSince(tt.birthdate, now))
		})
	}
}

const selectUserByIDSQL = "SELECT \\* FROM `user` WHERE `user`\\.`id` = \\?"

func userRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "username", "password", "first_name", "last_name", "cpf", "birthdate", "created_at"}).
		AddRow(7, "joao", "stored-hash", "Joao", "Silva", "52998224725", now, now)
}

func emptyRoleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"user_id", "role_id"})
}

func TestUpdateUser(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewUserService(db, testConfig())

	mock.ExpectQuery(selectUserByIDSQL).WithArgs(int64(7), 1).WillReturnRows(userRow())
	mock.ExpectQuery("SELECT \\* FROM `user_role`").WillReturnRows(emptyRoleRows())
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `user` SET").
		WithArgs("Maria", "Silva", "stored-hash", "joao", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := svc.Update(context.Background(), 7, map[string]string{"first_name": "Maria"})
	require.NoError(t, err)
	assert.Equal(t, "Maria", user.FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserRejectsImmutableField(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewUserService(db, testConfig())

	mock.ExpectQuery(selectUserByIDSQL).WithArgs(int64(7), 1).WillReturnRows(userRow())
	mock.ExpectQuery("SELECT \\* FROM `user_role`").WillReturnRows(emptyRoleRows())

	_, err := svc.Update(context.Background(), 7, map[string]string{"cpf": "11144477735"})
	assert.True(t, IsKind(err, ErrKindInvalidValue))
	// nothing written
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserValidatesFieldValue(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewUserService(db, testConfig())

	mock.ExpectQuery(selectUserByIDSQL).WithArgs(int64(7), 1).WillReturnRows(userRow())
	mock.ExpectQuery("SELECT \\* FROM `user_role`").WillReturnRows(emptyRoleRows())

	_, err := svc.Update(context.Background(), 7, map[string]string{"first_name": "Mar1a"})
	assert.True(t, IsKind(err, ErrKindInvalidValue))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserUsernameConflict(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewUserService(db, testConfig())

	mock.ExpectQuery(selectUserByIDSQL).WithArgs(int64(7), 1).WillReturnRows(userRow())
	mock.ExpectQuery("SELECT \\* FROM `user_role`").WillReturnRows(emptyRoleRows())

	now := time.Now()
	mock.ExpectQuery("SELECT \\* FROM `user` WHERE username = \\?").
		WithArgs("maria", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "first_name", "last_name", "cpf", "birthdate", "created_at"}).
			AddRow(8, "maria", "other-hash", "Maria", "Souza", "11144477735", now, now))
	mock.ExpectQuery("SELECT \\* FROM `user_role`").WillReturnRows(emptyRoleRows())

	_, err := svc.Update(context.Background(), 7, map[string]string{"username": "maria"})
	assert.True(t, IsKind(err, ErrKindConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserNoFields(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewUserService(db, testConfig())

	_, err := svc.Update(context.Background(), 7, nil)
	assert.True(t, IsKind(err, ErrKindInvalidValue))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCanonicalCPF(t *testing.T) {
	assert.Equal(t, "52998224725", canonicalCPF("529.982.247-25"))
	assert.Equal(t, "52998224725", canonicalCPF("52998224725"))
	assert.Equal(t, "", canonicalCPF("abc"))
}
