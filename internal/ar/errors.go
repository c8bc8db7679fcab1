package ar

import (
	"fmt"

	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

var ErrNotFound = fmt.Errorf("%w: invoice", shared.ErrNotFound)
