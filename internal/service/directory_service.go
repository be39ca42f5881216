package service

import (
	"context"

	"campusrooms/internal/domain"
	"campusrooms/internal/models"

	"github.com/rs/zerolog"
)

// DirectoryService surfaces the read-only catalog and principal lookups
// the reservation core and its API surface consume. Catalog maintenance
// is out of scope; the directory is seeded at startup.
type DirectoryService struct {
	directory domain.Directory
	logger    *zerolog.Logger
}

func NewDirectoryService(directory domain.Directory, logger *zerolog.Logger) *DirectoryService {
	return &DirectoryService{directory: directory, logger: logger}
}

func (s *DirectoryService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.directory.GetUser(ctx, id)
}

func (s *DirectoryService) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	return s.directory.GetRoom(ctx, id)
}

func (s *DirectoryService) ListRooms(ctx context.Context) ([]*models.Room, error) {
	return s.directory.ListRooms(ctx)
}

// IsAdmin resolves the principal and reports whether it carries the
// ADMIN role. Unknown principals are not admins.
func (s *DirectoryService) IsAdmin(ctx context.Context, id int64) bool {
	user, err := s.directory.GetUser(ctx, id)
	if err != nil {
		return false
	}
	return user.IsAdmin()
}
