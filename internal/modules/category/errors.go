package category

import "errors"

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInternal = errors.New("internal error")

	// ErrCategoryNameConflict возвращается при попытке переименовать
	// категорию в уже существующее у пользователя имя.
	ErrCategoryNameConflict = errors.New("category with this name already exists")
)
