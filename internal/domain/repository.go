package domain

import (
	"context"
	"time"
)

// CommerceClient defines the write operations used against the target platform
type CommerceClient interface {
	CreateProduct(ctx context.Context, draft ProductDraft) (int64, error)
	CreateOptionGroup(ctx context.Context, name string) (int64, error)
	CreateOptionValue(ctx context.Context, groupID int64, value string) (int64, error)
	CreateCombination(ctx context.Context, draft CombinationDraft) (int64, error)
	UploadImage(ctx context.Context, productID int64, media Media, filename string) error
	FetchMedia(ctx context.Context, url string) (Media, error)
}

// MediaCache stores downloaded media by URL
type MediaCache interface {
	Get(ctx context.Context, url string) (Media, error)
	Set(ctx context.Context, url string, media Media, ttl time.Duration) error
}
