package tagesschau

import (
	"fmt"
	"net/url"
)

// DefaultBaseURL is the public news endpoint.
const DefaultBaseURL = "https://www.tagesschau.de/api2u/news"

// BuildURL composes the request URL for one date of q.
func BuildURL(base string, date Date, q Query) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: parse base %q: %v", ErrURLConstruction, base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: base %q is not absolute", ErrURLConstruction, base)
	}

	params := u.Query()
	params.Set("date", date.Format())
	if len(q.regions) > 0 {
		params.Set("regions", q.regions.Encode())
	}
	if q.ressort != RessortNone {
		params.Set("ressort", q.ressort.String())
	}
	u.RawQuery = params.Encode()

	return u.String(), nil
}
