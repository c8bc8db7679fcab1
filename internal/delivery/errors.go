package delivery

import (
	"fmt"

	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

var (
	ErrNotFound       = fmt.Errorf("%w: delivery order", shared.ErrNotFound)
	ErrRenderDisabled = fmt.Errorf("%w: delivery note rendering is not configured", shared.ErrInvalidState)
)
