// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the read-mostly user directory used to
// decorate calls and participants with display names.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-voice-backend/internal/domain"
)

// CreateUser inserts a directory entry. Account provisioning belongs to the
// external account subsystem; this exists for seeding and tests.
func CreateUser(ctx context.Context, db *gorm.DB, id, username string) (*domain.User, error) {
	u := &domain.User{ID: id, Username: username}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// ListPeers returns every user except excludeID, ordered by username.
// This backs the "who can I call" directory listing.
func ListPeers(ctx context.Context, db *gorm.DB, excludeID string) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Where("id <> ?", excludeID).
		Order("username ASC").
		Find(&out).Error
	return out, err
}

// UsernamesFor resolves a set of user ids to display names. Unknown ids are
// simply absent from the result map.
func UsernamesFor(ctx context.Context, db *gorm.DB, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	var users []domain.User
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(users))
	for _, u := range users {
		out[u.ID] = u.Username
	}
	return out, nil
}
