package domain

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

// Sortable queue properties
const (
	SortByCreatedTime  = "createdTime"
	SortByName         = "name"
	SortByTopic        = "topic"
	SortByPartitions   = "partitions"
	SortByPollInterval = "pollInterval"
)

const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// PageLink describes one zero-based page of a listing
type PageLink struct {
	PageSize     int    `json:"page_size"`
	Page         int    `json:"page"`
	TextSearch   string `json:"text_search,omitempty"`
	SortProperty string `json:"sort_property,omitempty"`
	SortOrder    string `json:"sort_order,omitempty"`
}

// NewPageLink builds a validated page link. Empty sort fields fall back to
// createdTime ascending.
func NewPageLink(pageSize, page int, textSearch, sortProperty, sortOrder string) (*PageLink, error) {
	link := &PageLink{
		PageSize:     pageSize,
		Page:         page,
		TextSearch:   strings.TrimSpace(textSearch),
		SortProperty: sortProperty,
		SortOrder:    strings.ToUpper(sortOrder),
	}
	if link.SortProperty == "" {
		link.SortProperty = SortByCreatedTime
	}
	if link.SortOrder == "" {
		link.SortOrder = SortAsc
	}
	if err := link.Validate(); err != nil {
		return nil, err
	}
	return link, nil
}

// Validate checks page bounds and sort settings
func (l *PageLink) Validate() error {
	if l.PageSize < 1 || l.PageSize > MaxPageSize {
		return fmt.Errorf("%w: pageSize must be between 1 and %d", ErrInvalidArgument, MaxPageSize)
	}
	if l.Page < 0 {
		return fmt.Errorf("%w: page must not be negative", ErrInvalidArgument)
	}
	if l.Page > MaxPage(l.PageSize) {
		return fmt.Errorf("%w: page must not exceed %d for pageSize %d", ErrInvalidArgument, MaxPage(l.PageSize), l.PageSize)
	}
	if !IsValidSortProperty(l.SortProperty) {
		return fmt.Errorf("%w: unsupported sortProperty: %q", ErrInvalidArgument, l.SortProperty)
	}
	if l.SortOrder != SortAsc && l.SortOrder != SortDesc {
		return fmt.Errorf("%w: sortOrder must be ASC or DESC", ErrInvalidArgument)
	}
	return nil
}

// MaxPage returns the largest page index whose offset fits in an int
func MaxPage(pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	return (math.MaxInt - 1) / pageSize
}

// Offset returns the index of the first element on the page
func (l *PageLink) Offset() int {
	return l.Page * l.PageSize
}

// IsValidSortProperty checks if property can be used for ordering
func IsValidSortProperty(property string) bool {
	switch property {
	case SortByCreatedTime, SortByName, SortByTopic, SortByPartitions, SortByPollInterval:
		return true
	}
	return false
}

// QueuePage is one page of queue definitions
type QueuePage struct {
	Data          []*Queue `json:"data"`
	TotalPages    int      `json:"total_pages"`
	TotalElements int64    `json:"total_elements"`
	HasNext       bool     `json:"has_next"`
}

// EmptyQueuePage returns a page with no elements
func EmptyQueuePage() *QueuePage {
	return &QueuePage{Data: []*Queue{}}
}

// NewQueuePage computes page metadata from the total element count
func NewQueuePage(data []*Queue, total int64, link *PageLink) *QueuePage {
	if data == nil {
		data = []*Queue{}
	}
	totalPages := 0
	if link.PageSize > 0 {
		totalPages = int((total + int64(link.PageSize) - 1) / int64(link.PageSize))
	}
	return &QueuePage{
		Data:          data,
		TotalPages:    totalPages,
		TotalElements: total,
		HasNext:       link.Page < totalPages-1,
	}
}
