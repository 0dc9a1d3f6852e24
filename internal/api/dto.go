package api

import (
	"github.com/starford/pdfmcr/internal/model"
	"github.com/starford/pdfmcr/internal/pageservice"
)

// PageDetail is the full page response type (aliased from the domain layer).
type PageDetail = pageservice.PageDetail

// PageSummary is a lightweight item in a list response (aliased from the domain layer).
type PageSummary = pageservice.PageSummary

// PageListResponse wraps the page listing.
type PageListResponse struct {
	Pages []PageSummary `json:"pages" validate:"required"`
	Count int           `json:"count" example:"12" validate:"required"`
}

// PageAnnotations is the annotation payload of one page.
type PageAnnotations = model.PageAnnotations
