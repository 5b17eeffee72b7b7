// Package utils holds small helpers for query parsing, paging and
// human-readable durations.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 int, returning def for empty or
// malformed input. Whitespace is not trimmed.
func AtoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ClampPage parses raw page/page_size query values and bounds them:
// page >= 1, 1 <= size <= maxSize. Empty or malformed values use the defaults.
func ClampPage(rawPage, rawSize string, defSize, maxSize int) (page, size int) {
	page = AtoiDefault(rawPage, 1)
	if page < 1 {
		page = 1
	}
	size = AtoiDefault(rawSize, defSize)
	if size < 1 {
		size = 1
	}
	if size > maxSize {
		size = maxSize
	}
	return page, size
}

// TotalPages returns ceil(total/size); zero when size is not positive.
func TotalPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
