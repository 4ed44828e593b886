package page

import (
	"fmt"
	"net/url"
	"strings"
)

// ExtractVideoID pulls the video ID out of a watch page URL.
//
// Accepted URL formats:
//
//	http(s?)://(www|m).youtube.com/(watch|details)?v={VIDEO_ID}
//	http(s?)://(www|m).youtube.com/v/{VIDEO_ID}
//	http(s?)://youtu.be/{VIDEO_ID}
func ExtractVideoID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	var id string
	switch u.Hostname() {
	case "www.youtube.com", "m.youtube.com", "youtube.com":
		if strings.HasPrefix(u.Path, "/v/") {
			id = strings.SplitN(u.Path, "/", 3)[2]
		} else if u.Path == "/watch" || u.Path == "/details" {
			id = u.Query().Get("v")
		}
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	default:
		return "", fmt.Errorf("unrecognised hostname %q", u.Hostname())
	}
	if id == "" {
		return "", fmt.Errorf("could not extract video ID from %q", rawURL)
	}
	return id, nil
}

// IsWatchURL reports whether the URL points at a video watch page.
func IsWatchURL(rawURL string) bool {
	_, err := ExtractVideoID(rawURL)
	return err == nil
}
