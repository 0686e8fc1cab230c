package common

// StreamType represents the type of an audio stream ('hls', 'unsupported')
type StreamType string

const (
	StreamTypeHLS         StreamType = "hls"
	StreamTypeUnsupported StreamType = "unsupported"
)

// AudioContentType is the content type of the raw AAC segments served by the CDN
const AudioContentType = "audio/aac"
