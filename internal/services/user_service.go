// Package services – UserService
//
// This file implements UserService, which manages the local application
// profile attached to an external identity. The authenticated principal
// (token subject) and the profile are deliberately separate: handlers resolve
// the principal, then look the profile up by external id here. Display
// preferences are validated against fixed sets before persisting.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/domain"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/repo"
)

// Allowed display-preference values. The zero entry of each set is the
// default applied to new profiles.
var (
	colorModes = []string{"Light", "Dark"}
	fontSizes  = []string{"Medium", "Small", "Large"}
	fontTypes  = []string{"Standard", "Serif", "Monospace", "OpenDyslexic"}
)

// UserService implements profile lookup and preference updates.
type UserService struct {
	DB *gorm.DB
}

// ProfileByExternalID returns the profile for an identity-provider subject
// id, or ErrUserNotFound when none exists.
func (s *UserService) ProfileByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	u, err := repo.GetUserByExternalID(ctx, s.DB, externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// EnsureProfile returns the profile for externalID, creating a default one
// on first sight of the principal.
func (s *UserService) EnsureProfile(ctx context.Context, externalID, firstName, lastName string) (*domain.User, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, ErrUserNotFound
	}

	u, err := repo.GetUserByExternalID(ctx, s.DB, externalID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	nu := &domain.User{
		ExternalID: externalID,
		FirstName:  firstName,
		LastName:   lastName,
		ColorMode:  colorModes[0],
		FontSize:   fontSizes[0],
		FontType:   fontTypes[0],
	}
	if err := repo.CreateUser(ctx, s.DB, nu); err != nil {
		return nil, err
	}
	return nu, nil
}

// UpdatePreferences overwrites the profile's display preferences after
// validating each value against its allowed set.
func (s *UserService) UpdatePreferences(ctx context.Context, userID int, colorMode, fontSize, fontType string) error {
	if !contains(colorModes, colorMode) || !contains(fontSizes, fontSize) || !contains(fontTypes, fontType) {
		return ErrInvalidPreference
	}
	err := repo.UpdateUserPreferences(ctx, s.DB, userID, colorMode, fontSize, fontType)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
