package channels

// DefaultBufferSize is used when HubConfig.BufferSize is not positive.
const DefaultBufferSize = 1024

// HubConfig configures buffer sizes for a Hub
type HubConfig struct {
	BufferSize int
}
