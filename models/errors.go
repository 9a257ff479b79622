package models

const (
	ErrTypeBadBounds          = "bad_bounds"
	ErrTypeIndexAlreadyExists = "index_already_exists"
	ErrTypeBadIndexName       = "bad_index_name"
)
