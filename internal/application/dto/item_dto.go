package dto

import "time"

// CreateItemRequest entrada para crear un artículo.
type CreateItemRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	SKU         string `json:"sku"`
	Description string `json:"description"`
}

// UpdateItemRequest entrada para actualizar un artículo (campos opcionales).
type UpdateItemRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	SKU         *string `json:"sku"`
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

// ItemResponse salida de un artículo.
type ItemResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SKU         string    `json:"sku"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
