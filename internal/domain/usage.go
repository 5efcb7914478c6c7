package domain

import "time"

// UsageLog records how much work one completed render cost.
type UsageLog struct {
	UserID          string
	RenderID        string
	PixelsProcessed int64
	BytesWritten    int64
	ComputeTimeMS   int64
	CreatedAt       time.Time
}
