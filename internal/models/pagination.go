package models

// DefaultPageSize is the fixed directory page size
const DefaultPageSize = 10

// MaxPageSize bounds the limit a listing call may request
const MaxPageSize = 100

// PaginationState holds pagination metadata of a listing response
type PaginationState struct {
	CurrentPage    int   `json:"currentPage"`
	TotalPages     int   `json:"totalPages"`
	TotalCustomers int64 `json:"totalCustomers"`
	Limit          int   `json:"limit"`
	HasNext        bool  `json:"hasNext"`
	HasPrev        bool  `json:"hasPrev"`
}

// NewPaginationState derives the pagination metadata from a page request and a total count
func NewPaginationState(page, pageSize int, totalCount int64) PaginationState {
	totalPages := TotalPages(totalCount, pageSize)

	return PaginationState{
		CurrentPage:    page,
		TotalPages:     totalPages,
		TotalCustomers: totalCount,
		Limit:          pageSize,
		HasNext:        page < totalPages,
		HasPrev:        page > 1,
	}
}

// TotalPages returns the number of pages needed for totalCount records
func TotalPages(totalCount int64, pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		totalPages++
	}
	return totalPages
}

// ClampPage keeps page within [1, max(1, totalPages)]
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// ValidateAndSetDefaults validates pagination parameters and sets defaults
func ValidateAndSetDefaults(page, pageSize *int) {
	if *page < 1 {
		*page = 1
	}
	if *pageSize < 1 {
		*pageSize = DefaultPageSize
	}
	if *pageSize > MaxPageSize {
		*pageSize = MaxPageSize
	}
}

// CalculateOffset calculates the SQL offset for pagination
func CalculateOffset(page, pageSize int) int {
	return (page - 1) * pageSize
}
