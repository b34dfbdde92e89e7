package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
)

const (
	defaultPageSize = 20
)

// StringArray persists a string list as a JSON text column.
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		a = StringArray{}
	}
	raw, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (a *StringArray) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan StringArray: unsupported source %T", value)
	}
	if len(raw) == 0 {
		*a = StringArray{}
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(a))
}

func (a StringArray) Contains(s string) bool {
	return slices.Contains(a, s)
}

// Meta describes one page of a listing.
type Meta struct {
	Page     int64 `json:"page"`
	PageSize int64 `json:"pageSize"`
	Total    int64 `json:"total"`
}

// BaseParams are the paging and sorting query parameters shared by listings.
type BaseParams struct {
	PageSize int64  `json:"pageSize" form:"page_size" query:"page_size"`
	Page     int64  `json:"page" form:"page" query:"page"`
	SortBy   string `json:"sortBy" form:"sort_by" query:"sort_by"`
	SortDesc bool   `json:"sortDesc" form:"sort_desc" query:"sort_desc"`
}

// Window returns the 1-based page and its size with defaults applied.
func (p BaseParams) Window() (page, size int) {
	page, size = int(p.Page), int(p.PageSize)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	return page, size
}

// Offset is the number of rows skipped before the page.
func (p BaseParams) Offset() int {
	page, size := p.Window()
	return (page - 1) * size
}

// MetaFor builds listing metadata for total matches.
func (p BaseParams) MetaFor(total int64) *Meta {
	page, size := p.Window()
	return &Meta{Page: int64(page), PageSize: int64(size), Total: total}
}
