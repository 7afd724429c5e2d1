// README: Parcel drop-off locator. Finds pickup/Chronopost points near a
// postal code through the Google Places API, formatted for chat replies.
package dropoff

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

const maxPoints = 3

// Service handles interactions with the Google Places API.
type Service struct {
	client *maps.Client
}

func NewService(apiKey string) (*Service, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &Service{client: client}, nil
}

// Nearby returns up to three drop-off points near the postal code, one
// "name — address" line per point.
func (s *Service) Nearby(ctx context.Context, postalCode string) ([]string, error) {
	r := &maps.TextSearchRequest{
		Query:    fmt.Sprintf("relais pickup Chronopost près de %s", postalCode),
		Language: "fr",
		Region:   "FR",
	}
	resp, err := s.client.TextSearch(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	var lines []string
	for _, res := range resp.Results {
		if res.Name == "" {
			continue
		}
		line := res.Name
		if res.FormattedAddress != "" {
			line = fmt.Sprintf("%s — %s", res.Name, res.FormattedAddress)
		}
		lines = append(lines, line)
		if len(lines) == maxPoints {
			break
		}
	}
	return lines, nil
}
