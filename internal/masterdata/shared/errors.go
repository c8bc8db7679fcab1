package shared

import (
	"fmt"

	common "github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

var (
	ErrNotFound      = fmt.Errorf("%w: resource not found", common.ErrNotFound)
	ErrDuplicate     = fmt.Errorf("%w: duplicate entry", common.ErrConflict)
	ErrValidation    = common.ErrValidation
	ErrInvalidID     = fmt.Errorf("%w: invalid ID", common.ErrValidation)
	ErrRequiredField = fmt.Errorf("%w: field is required", common.ErrValidation)
)
