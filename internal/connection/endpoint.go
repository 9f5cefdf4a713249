package connection

import (
	"fmt"
	"net/url"
)

// EndpointPath is the relay's socket path.
const EndpointPath = "/ws"

// EndpointURL derives the relay socket URL from the URL of the page hosting
// the overlay: same host, path /ws, wss when the page is served over https
// and ws otherwise.
func EndpointURL(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPageURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrInvalidPageURL, pageURL)
	}

	scheme := "ws"
	if u.Scheme == "https" || u.Scheme == "wss" {
		scheme = "wss"
	}

	return (&url.URL{Scheme: scheme, Host: u.Host, Path: EndpointPath}).String(), nil
}
