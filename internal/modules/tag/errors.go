package tag

import "errors"

var (
	ErrTagInternal = errors.New("internal error")

	// ErrTagEmptyName возвращается при попытке разрешить пустое после
	// обрезки имя: пустые теги пропускаются, не создаются.
	ErrTagEmptyName = errors.New("tag name is empty")
)
