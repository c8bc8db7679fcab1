package quotations

import (
	"fmt"

	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

var (
	ErrNotFound       = fmt.Errorf("%w: quotation", shared.ErrNotFound)
	ErrExpired        = fmt.Errorf("%w: quotation validity has lapsed", shared.ErrExpired)
	ErrUnknownProduct = fmt.Errorf("%w: quoted product", shared.ErrNotFound)
)
