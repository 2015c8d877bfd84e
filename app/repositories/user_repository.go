package repositories

import (
	"context"

	"github.com/shashiranjanraj/storefront/app/models"
)

// Users are looked up by username at login; usernames are unique.

type memUserRepo struct{ memRepo[models.User] }

func (r *memUserRepo) Create(ctx context.Context, u *models.User) error {
	return r.write(func(t *memTable[models.User]) error {
		for _, row := range t.rows {
			if row.Username == u.Username {
				return ErrDuplicate
			}
		}
		t.create(u)
		return nil
	})
}

func (r *memUserRepo) FindByUsername(ctx context.Context, username string) (models.User, error) {
	rows, _ := r.filter(func(u models.User) bool { return u.Username == username })
	if len(rows) == 0 {
		return models.User{}, ErrNotFound
	}
	return rows[0], nil
}

type gormUserRepo struct{ gormRepo[models.User] }

func (r *gormUserRepo) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var out models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&out).Error
	return out, translate(err)
}
