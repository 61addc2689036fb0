// Package links validates pasted Spotify and YouTube URLs and carries them between screens.
//
// Validation is a substring check only: no track IDs are extracted here, the
// backend owns that. An accepted URL travels to the song screen as a single
// percent-encoded query parameter, e.g. /download?url=https%3A%2F%2Fyoutu.be%2Fabc.
package links

import (
	"net/url"
	"strings"

	"github.com/desertthunder/musicone/internal/shared"
)

// Platform identifies which URL family a link belongs to.
type Platform int

const (
	PlatformUnknown Platform = iota
	PlatformSpotify
	PlatformYouTube
)

func (p Platform) String() string {
	switch p {
	case PlatformSpotify:
		return "spotify"
	case PlatformYouTube:
		return "youtube"
	default:
		return "unknown"
	}
}

// DownloadRoute is the path of the song screen.
const DownloadRoute = "/download"

// QueryKey is the single navigation parameter holding the original URL.
const QueryKey = "url"

var (
	spotifyHosts = []string{"open.spotify.com", "spotify.com"}
	youtubeHosts = []string{"youtube.com", "youtu.be"}
)

// linkError is a user-facing message that also matches a shared sentinel.
type linkError struct {
	msg  string
	kind error
}

func (e *linkError) Error() string        { return e.msg }
func (e *linkError) Is(target error) bool { return target == e.kind }

var (
	// ErrEmptyURL is returned for empty or whitespace-only input.
	ErrEmptyURL error = &linkError{msg: "please enter a URL", kind: shared.ErrInvalidInput}
	// ErrUnsupportedURL is returned for input outside the Spotify and YouTube families.
	ErrUnsupportedURL error = &linkError{msg: "please enter a valid Spotify or YouTube URL", kind: shared.ErrInvalidInput}
	// ErrMissingURL is returned when the song screen is reached without a URL parameter.
	ErrMissingURL error = &linkError{msg: "URL not found", kind: shared.ErrMissingArgument}
)

// Detect reports the platform of s by substring match, or [PlatformUnknown].
func Detect(s string) Platform {
	for _, h := range spotifyHosts {
		if strings.Contains(s, h) {
			return PlatformSpotify
		}
	}
	for _, h := range youtubeHosts {
		if strings.Contains(s, h) {
			return PlatformYouTube
		}
	}
	return PlatformUnknown
}

// Validate checks pasted input and returns the URL to forward.
//
// Only surrounding whitespace is removed; the URL itself is passed on as pasted.
func Validate(raw string) (Platform, string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return PlatformUnknown, "", ErrEmptyURL
	}

	p := Detect(s)
	if p == PlatformUnknown {
		return PlatformUnknown, "", ErrUnsupportedURL
	}
	return p, s, nil
}

// DownloadPath builds the song screen route carrying raw as one encoded parameter.
func DownloadPath(raw string) string {
	return DownloadRoute + "?" + QueryKey + "=" + url.QueryEscape(raw)
}

// URLFromQuery extracts the original URL from navigation query values.
func URLFromQuery(q url.Values) (string, error) {
	v := q.Get(QueryKey)
	if strings.TrimSpace(v) == "" {
		return "", ErrMissingURL
	}
	return v, nil
}

// URLFromPath extracts the original URL from a route built by [DownloadPath].
func URLFromPath(route string) (string, error) {
	u, err := url.Parse(route)
	if err != nil {
		return "", ErrMissingURL
	}
	return URLFromQuery(u.Query())
}
