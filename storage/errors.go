package storage

import (
	"errors"
)

var ErrURLNotFound = errors.New("URL not found in the storage")
var ErrTokenAlreadyExists = errors.New("token already exists in the storage")
var ErrStorageLocked = errors.New("storage file is used by another process")
