package db

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileUpdate carries optional profile fields; nil leaves a field unchanged
// unless Clear names it.
type ProfileUpdate struct {
	Name   *string
	Age    *int
	Weight *float64
	Height *float64
	Gender *string
	Clear  []string
}

func (s *Store) CreateUser(ctx context.Context, user *User) error {
	user.Email = NormalizeEmail(user.Email)
	return s.tx(ctx, "create user", func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		err := tx.Omit(clause.Associations).Create(user).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return err
	})
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, storageErr("find user", err)
	}
	return &user, nil
}

func (s *Store) FindUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, storageErr("find user", err)
	}
	return &user, nil
}

// UpdateProfile applies the update and refreshes UpdatedAt.
func (s *Store) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error) {
	var user User
	err := s.tx(ctx, "update profile", func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}
		if update.Name != nil {
			user.Name = strings.TrimSpace(*update.Name)
		}
		if update.Age != nil {
			user.Age = update.Age
		}
		if update.Weight != nil {
			user.Weight = update.Weight
		}
		if update.Height != nil {
			user.Height = update.Height
		}
		if update.Gender != nil {
			user.Gender = update.Gender
		}
		for _, field := range update.Clear {
			switch strings.ToLower(field) {
			case "age":
				user.Age = nil
			case "weight":
				user.Weight = nil
			case "height":
				user.Height = nil
			case "gender":
				user.Gender = nil
			}
		}
		user.UpdatedAt = tx.NowFunc()
		return tx.Omit(clause.Associations).Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the user together with every owned entry.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	return s.tx(ctx, "delete user", func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&MoodEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&HealthDataEntry{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", userID).Delete(&User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
