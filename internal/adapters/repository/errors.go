package repository

import "errors"

// ErrEmptyCatalog is returned when a catalog without pumps is installed.
var ErrEmptyCatalog = errors.New("empty pump catalog")
