// Package api - API types for the calculator and workspace endpoints
package api

import (
	"structcalc/core/catalog"
	"structcalc/core/types"
)

// SaveProjectRequest is the input to POST /projects
type SaveProjectRequest struct {
	// ID of the project to overwrite; empty saves a new project
	ID string `json:"id,omitempty"`

	// AsNew forces a new project even when ID is set
	AsNew bool `json:"asNew,omitempty"`

	Input types.PricingInput `json:"input"`
}

// ProjectListResponse is the output of GET /projects
type ProjectListResponse struct {
	Name     string               `json:"name"`
	Projects []types.SavedProject `json:"projects"`
	Count    int                  `json:"count"`
}

// ReorderRequest is the input to PUT /projects/order
type ReorderRequest struct {
	IDs []string `json:"ids" validate:"required"`
}

// ImportResponse is the output of POST /workspace/import
type ImportResponse struct {
	Mode   string         `json:"mode"`
	Name   string         `json:"name,omitempty"`
	Shape  string         `json:"shape,omitempty"`
	Count  int            `json:"count"`
	Failed map[int]string `json:"failed,omitempty"`

	// Skipped lists records of the file that were not projects
	Skipped []int `json:"skipped,omitempty"`
}

// CatalogResponse is the output of GET /catalog
type CatalogResponse struct {
	Groups []catalog.Group `json:"groups"`
}
