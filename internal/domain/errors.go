package domain

import "errors"

var (
	// ErrExportUnreadable is returned when the export file is missing, empty or not valid WXR
	ErrExportUnreadable = errors.New("export unreadable")

	// ErrPlatformRequestFailed is returned when a PrestaShop webservice call fails
	ErrPlatformRequestFailed = errors.New("PrestaShop request failed")

	// ErrMissingResourceID is returned when a create response carries no usable id
	ErrMissingResourceID = errors.New("created resource id missing from response")

	// ErrMediaFetchFailed is returned when an image cannot be downloaded
	ErrMediaFetchFailed = errors.New("media fetch failed")

	// ErrCacheMiss is returned when media is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
