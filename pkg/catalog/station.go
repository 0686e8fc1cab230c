package catalog

import (
	"strings"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/common"
)

// Stream roles
const (
	RoleMaster  = "master"
	RoleVariant = "variant"
)

// StreamVariant is one playable URL of a station
type StreamVariant struct {
	Type string `json:"type" yaml:"type" mapstructure:"type"`
	Role string `json:"role" yaml:"role" mapstructure:"role"`
	URL  string `json:"url" yaml:"url" mapstructure:"url"`
}

// Station describes a radio station and its streams
type Station struct {
	ID          string          `json:"id" yaml:"id" mapstructure:"id"`
	Name        string          `json:"name" yaml:"name" mapstructure:"name"`
	Country     string          `json:"country,omitempty" yaml:"country,omitempty" mapstructure:"country"`
	Language    string          `json:"language,omitempty" yaml:"language,omitempty" mapstructure:"language"`
	Genres      []string        `json:"genres,omitempty" yaml:"genres,omitempty" mapstructure:"genres"`
	SourcePages []string        `json:"sourcePages,omitempty" yaml:"source_pages,omitempty" mapstructure:"source_pages"`
	Streams     []StreamVariant `json:"streams" yaml:"streams" mapstructure:"streams"`
}

// PlaylistURL picks the URL to sample from: the first variant-role stream,
// otherwise the first HLS-type stream.
func (s *Station) PlaylistURL() (string, error) {
	for _, stream := range s.Streams {
		if stream.Role == RoleVariant && stream.URL != "" {
			return stream.URL, nil
		}
	}

	for _, stream := range s.Streams {
		if strings.EqualFold(stream.Type, string(common.StreamTypeHLS)) && stream.URL != "" {
			return stream.URL, nil
		}
	}

	return "", common.NewStreamErrorWithFields(common.StreamTypeUnsupported, "",
		common.ErrCodeNoPlayableStream, "no playable stream for station", nil,
		logging.Fields{"station_id": s.ID, "streams": len(s.Streams)})
}
