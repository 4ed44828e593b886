// Package streams models the stream descriptor sets published by a watch
// page and implements best-format selection over them.
package streams

import (
	"encoding/json"
	"fmt"
	"strings"

	youtube "github.com/kkdai/youtube/v2"
)

// Set is an immutable snapshot of the page's stream descriptors, split into
// muxed (combined audio+video) and adaptive (single-medium) streams. A nil
// *Set means the page has not published stream data yet, which is distinct
// from an empty Set (nothing available for this video).
type Set struct {
	Muxed    youtube.FormatList
	Adaptive youtube.FormatList
}

// Empty returns true if the set contains no streams at all.
func (s *Set) Empty() bool {
	return s == nil || (len(s.Muxed) == 0 && len(s.Adaptive) == 0)
}

// playerResponse is the subset of the page's player response that the agent
// reads. Formats decode directly into kkdai/youtube format descriptors.
type playerResponse struct {
	StreamingData struct {
		Formats         youtube.FormatList `json:"formats"`
		AdaptiveFormats youtube.FormatList `json:"adaptiveFormats"`
	} `json:"streamingData"`
	VideoDetails struct {
		VideoID string `json:"videoId"`
		Title   string `json:"title"`
	} `json:"videoDetails"`
}

// Details is the page-level metadata carried alongside the stream sets.
type Details struct {
	VideoID string
	Title   string
}

// ParsePlayerResponse decodes a raw player response document into a stream
// Set and the video details it describes.
func ParsePlayerResponse(data []byte) (*Set, Details, error) {
	var pr playerResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return nil, Details{}, fmt.Errorf("decode player response: %w", err)
	}
	set := &Set{
		Muxed:    pr.StreamingData.Formats,
		Adaptive: pr.StreamingData.AdaptiveFormats,
	}
	details := Details{
		VideoID: pr.VideoDetails.VideoID,
		Title:   pr.VideoDetails.Title,
	}
	return set, details, nil
}

// IsAudioOnly returns true for adaptive streams carrying only audio.
func IsAudioOnly(f youtube.Format) bool {
	return strings.HasPrefix(f.MimeType, "audio/")
}

// IsVideo returns true for streams carrying a video track.
func IsVideo(f youtube.Format) bool {
	return strings.HasPrefix(f.MimeType, "video/")
}
