package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// UserContextStore reads the background each user has on file, one file per
// user named by the user ID.
type UserContextStore struct {
	dir string // Directory holding context files
}

// NewUserContextStore creates a store over dir. The directory may not exist yet.
func NewUserContextStore(dir string) *UserContextStore {
	return &UserContextStore{dir: dir}
}

// Load returns the stored background of the user, empty if there is none.
func (s *UserContextStore) Load(userID int64) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, strconv.FormatInt(userID, 10)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read context of user %d: %w", userID, err)
	}
	return string(data), nil
}
