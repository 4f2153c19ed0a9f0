package service

import (
	"github.com/dukerupert/britishfloors/internal/domain"
)

// Catalog lookups made on behalf of cart and list operations
var (
	ErrProductNotFound    = domain.Errorf(domain.ENOTFOUND, "", "Product not found")
	ErrVariantUnavailable = domain.Errorf(domain.EINVALID, "", "This option is currently unavailable")
)
