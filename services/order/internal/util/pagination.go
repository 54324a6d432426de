package util

import (
	"strconv"

	"github.com/Skotchmaster/marketplace_admin/services/order/internal/transport"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*size far from int overflow.
	MaxPage = 1_000_000
)

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Normalize clamps page to 1..MaxPage and size to 1..MaxPageSize.
func Normalize(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func Calculate(page, size int) (offset int, limit int) {
	page, size = Normalize(page, size)
	return (page - 1) * size, size
}

func Meta(page, size int, total int64) transport.PageMeta {
	page, size = Normalize(page, size)
	totalPages := int((total + int64(size) - 1) / int64(size))
	return transport.PageMeta{
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}
