package apps

import "errors"

var (
	ErrAppNameTaken = errors.New("application with the same name already exists")
	ErrAppNotFound  = errors.New("application not found")
)
