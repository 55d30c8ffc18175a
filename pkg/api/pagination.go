package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Page size bounds for list endpoints
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is the page window parsed from the query string
type PageRequest struct {
	Page     int64 `form:"page" json:"page"`
	PageSize int64 `form:"pageSize" json:"pageSize"`
}

// Offset returns the number of items to skip
func (p PageRequest) Offset() int64 {
	return (p.Page - 1) * p.PageSize
}

// PageResponse is the envelope returned by list endpoints
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int64 `json:"page"`
	PageSize   int64 `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int64 `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
}

// NewPageResponse builds the envelope. A nil slice is rendered as [].
func NewPageResponse[T any](data []T, page PageRequest, totalItems int64) PageResponse[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := int64(0)
	if page.PageSize > 0 {
		totalPages = (totalItems + page.PageSize - 1) / page.PageSize
	}

	return PageResponse[T]{
		Data:       data,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
		HasNext:    page.Page < totalPages,
	}
}

// ParsePagination reads page and pageSize, clamping out-of-range values
func ParsePagination(c *gin.Context) PageRequest {
	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.ParseInt(c.DefaultQuery("pageSize", strconv.Itoa(DefaultPageSize)), 10, 64)
	if err != nil || pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return PageRequest{Page: page, PageSize: pageSize}
}
