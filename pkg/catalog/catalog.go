package catalog

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/common"
	"github.com/RyanBlaney/radio-sampler/pkg/stream/hls"
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// suggestionThreshold is the minimum Jaro-Winkler similarity for a "did you mean" hint
const suggestionThreshold = 0.8

var titleCaser = cases.Title(language.English)

// Catalog is a read-only set of stations keyed by identifier
type Catalog struct {
	stations map[string]*Station
	order    []string
}

// New builds a catalog, normalising genres and rejecting invalid entries
func New(stations []Station) (*Catalog, error) {
	c := &Catalog{
		stations: make(map[string]*Station, len(stations)),
		order:    make([]string, 0, len(stations)),
	}

	for i := range stations {
		station := stations[i]
		if err := validateStation(&station); err != nil {
			return nil, fmt.Errorf("station %d: %w", i, err)
		}
		if _, exists := c.stations[station.ID]; exists {
			return nil, fmt.Errorf("duplicate station id: %s", station.ID)
		}

		station.Genres = normalizeGenres(station.Genres)
		c.stations[station.ID] = &station
		c.order = append(c.order, station.ID)
	}

	return c, nil
}

// Default returns the built-in catalog
func Default() *Catalog {
	c, err := New(DefaultStations())
	if err != nil {
		panic(fmt.Sprintf("invalid built-in catalog: %v", err))
	}
	return c
}

// Lookup returns the station with the given identifier. Unknown identifiers
// fail with STATION_NOT_FOUND, carrying a suggestion when a close match exists.
func (c *Catalog) Lookup(id string) (*Station, error) {
	if station, ok := c.stations[id]; ok {
		return station, nil
	}

	fields := logging.Fields{"station_id": id}
	if suggestion := c.Suggest(id); suggestion != "" {
		fields["suggestion"] = suggestion
	}

	return nil, common.NewStreamErrorWithFields(common.StreamTypeUnsupported, "",
		common.ErrCodeStationNotFound, fmt.Sprintf("station not found: %s", id), nil, fields)
}

// Stations returns the stations in catalog order
func (c *Catalog) Stations() []Station {
	stations := make([]Station, 0, len(c.order))
	for _, id := range c.order {
		stations = append(stations, *c.stations[id])
	}
	return stations
}

// Len returns the number of stations
func (c *Catalog) Len() int {
	return len(c.order)
}

// Suggest returns the closest station identifier, or "" when nothing is close enough
func (c *Catalog) Suggest(id string) string {
	query := strings.ToLower(strings.TrimSpace(id))
	if query == "" {
		return ""
	}

	var best string
	var highestScore float64
	for _, candidate := range c.order {
		score := strutil.Similarity(query, strings.ToLower(candidate), metrics.NewJaroWinkler())
		if score > highestScore && score >= suggestionThreshold {
			highestScore = score
			best = candidate
		}
	}

	return best
}

func validateStation(station *Station) error {
	station.ID = strings.TrimSpace(station.ID)
	if station.ID == "" {
		return fmt.Errorf("station id is required")
	}
	if strings.TrimSpace(station.Name) == "" {
		return fmt.Errorf("station %s: name is required", station.ID)
	}

	for _, stream := range station.Streams {
		if !common.IsValidURL(stream.URL) {
			return fmt.Errorf("station %s: invalid stream url %q", station.ID, stream.URL)
		}
		if strings.EqualFold(stream.Type, string(common.StreamTypeHLS)) &&
			hls.DetectFromURL(stream.URL) != common.StreamTypeHLS {
			logging.WithFields(logging.Fields{
				"station_id": station.ID,
				"url":        stream.URL,
			}).Warn("HLS stream URL does not look like a playlist")
		}
	}

	return nil
}

func normalizeGenres(genres []string) []string {
	if len(genres) == 0 {
		return genres
	}

	normalized := make([]string, 0, len(genres))
	seen := make(map[string]bool, len(genres))
	for _, genre := range genres {
		genre = titleCaser.String(strings.TrimSpace(genre))
		if genre == "" || seen[genre] {
			continue
		}
		seen[genre] = true
		normalized = append(normalized, genre)
	}
	return normalized
}
