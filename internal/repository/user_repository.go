package repository

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/samber/oops"
	"gorm.io/gorm"

	"authgate/internal/model"
)

// ErrDuplicate is returned when an insert violates a unique index.
var ErrDuplicate = errors.New("record already exists")

const mysqlDuplicateEntry = 1062

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return oops.In("repository").With("table", "users").Wrapf(err, "create user failed")
	}
	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, oops.In("repository").With("user_id", id).Wrapf(err, "query user by id failed")
	}
	return &user, nil
}

// Update applies fields to the user and returns the stored row. A missing user is (nil, nil).
func (r *UserRepository) Update(ctx context.Context, id uint, fields map[string]any) (*model.User, error) {
	result := r.db.WithContext(ctx).
		Model(&model.User{ID: id}).
		Omit("id", "created_at").
		Updates(fields)
	if err := result.Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, oops.In("repository").With("user_id", id).Wrapf(err, "update user failed")
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, oops.In("repository").With("where", query).Wrapf(err, "query user failed")
	}
	return &user, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
