package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/apperr"
	"libraryapi/internal/auth"
)

type fakeRepo struct {
	byEmail   map[string]User
	created   *User
	createErr error
	updated   *User
	deletedID string
}

func (f *fakeRepo) Create(_ context.Context, u *User) error {
	if f.createErr != nil {
		return f.createErr
	}
	u.ID = "generated-id"
	f.created = u
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (User, error) {
	return User{}, apperr.NotFound("user", id)
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return User{}, apperr.NotFound("user", email)
}

func (f *fakeRepo) List(_ context.Context) ([]User, error) { return nil, nil }

func (f *fakeRepo) Update(_ context.Context, u *User) error {
	f.updated = u
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.deletedID = id
	return nil
}

func newTestService(repo *fakeRepo) *Service {
	return NewService(repo, "test-secret", time.Hour)
}

func TestRegisterCreatesStudent(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	u, token, err := svc.Register(context.Background(), " Grace ", " Hopper ", " GRACE@Student.Local ", "Student1")
	require.NoError(t, err)

	assert.Equal(t, "Grace", u.Name)
	assert.Equal(t, "Hopper", u.Surname)
	assert.Equal(t, "grace@student.local", u.Email)
	assert.Equal(t, auth.RoleStudent, u.Role)
	assert.NotEmpty(t, token)

	require.NotNil(t, repo.created)
	assert.NotEqual(t, "Student1", repo.created.PasswordHash)
	assert.True(t, auth.VerifyPassword(repo.created.PasswordHash, "Student1"))
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	_, _, err := svc.Register(context.Background(), "Grace", "Hopper", "grace@student.local", "weak")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Nil(t, repo.created)
}

func TestRegisterPropagatesEmailConflict(t *testing.T) {
	repo := &fakeRepo{createErr: apperr.Conflict("email is already taken")}
	svc := newTestService(repo)

	_, _, err := svc.Register(context.Background(), "Grace", "Hopper", "grace@student.local", "Student1")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestLoginSuccess(t *testing.T) {
	hash, err := auth.HashPassword("Student1")
	require.NoError(t, err)
	repo := &fakeRepo{byEmail: map[string]User{
		"grace@student.local": {ID: "user-1", Email: "grace@student.local", PasswordHash: hash, Role: auth.RoleStudent},
	}}
	svc := newTestService(repo)

	u, token, err := svc.Login(context.Background(), "Grace@Student.Local", "Student1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)
	assert.NotEmpty(t, token)

	claims, err := auth.ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)
	assert.Equal(t, auth.RoleStudent, claims.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	hash, err := auth.HashPassword("Student1")
	require.NoError(t, err)
	repo := &fakeRepo{byEmail: map[string]User{
		"grace@student.local": {ID: "user-1", PasswordHash: hash},
	}}
	svc := newTestService(repo)

	_, _, unknownErr := svc.Login(context.Background(), "nobody@student.local", "Student1")
	_, _, wrongPassErr := svc.Login(context.Background(), "grace@student.local", "Wrong999")

	assert.ErrorIs(t, unknownErr, apperr.ErrUnauthenticated)
	assert.ErrorIs(t, wrongPassErr, apperr.ErrUnauthenticated)
	assert.Equal(t, unknownErr.Error(), wrongPassErr.Error())
}

func TestCreateByAdminValidatesRole(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	_, err := svc.CreateByAdmin(context.Background(), "A", "B", "ab@x.y", "Admin123", "superuser")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	u, err := svc.CreateByAdmin(context.Background(), "A", "B", "ab@x.y", "Admin123", auth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, u.Role)
}

func TestUpdateValidatesRole(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	err := svc.Update(context.Background(), &User{ID: "u1", Role: "root"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Nil(t, repo.updated)
}
