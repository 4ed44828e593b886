package streams

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	youtube "github.com/kkdai/youtube/v2"

	"github.com/tubetap/tubetap/generic"
)

// Picks is the outcome of format selection over one stream Set. Selection is
// pure and deterministic; a None pick means no suitable stream exists.
type Picks struct {
	Video generic.Option[youtube.Format]
	Audio generic.Option[youtube.Format]
}

// Select computes the best video and audio picks for a Set. The caller must
// treat a nil Set as "pending" and not call Select on it.
func Select(s *Set) Picks {
	return Picks{
		Video: BestVideo(s),
		Audio: BestAudio(s),
	}
}

// BestVideo prefers muxed streams, since they need no merge step, ranked by
// descending resolution. If no muxed stream exists it falls back to the
// highest-resolution video-only adaptive stream.
func BestVideo(s *Set) generic.Option[youtube.Format] {
	if s == nil {
		return generic.None[youtube.Format]()
	}
	if best, ok := highestBy(s.Muxed, nil, Height); ok {
		return generic.Some(best)
	}
	if best, ok := highestBy(s.Adaptive, IsVideo, Height); ok {
		return generic.Some(best)
	}
	return generic.None[youtube.Format]()
}

// BestAudio picks the highest-bitrate audio-only adaptive stream; missing
// bitrate ranks as 0.
func BestAudio(s *Set) generic.Option[youtube.Format] {
	if s == nil {
		return generic.None[youtube.Format]()
	}
	if best, ok := highestBy(s.Adaptive, IsAudioOnly, func(f youtube.Format) int { return f.Bitrate }); ok {
		return generic.Some(best)
	}
	return generic.None[youtube.Format]()
}

func highestBy(list youtube.FormatList, keep func(youtube.Format) bool, rank func(youtube.Format) int) (youtube.Format, bool) {
	var best youtube.Format
	bestRank := -1
	for _, f := range list {
		if keep != nil && !keep(f) {
			continue
		}
		if r := rank(f); r > bestRank {
			best, bestRank = f, r
		}
	}
	return best, bestRank >= 0
}

var qualityLabelRe = regexp.MustCompile(`(\d+)p`)

// Height resolves a stream's vertical resolution: the explicit pixel height
// when present, otherwise parsed from a "NNNp" quality label, otherwise 0.
func Height(f youtube.Format) int {
	if f.Height > 0 {
		return f.Height
	}
	if m := qualityLabelRe.FindStringSubmatch(f.QualityLabel); m != nil {
		if h, err := strconv.Atoi(m[1]); err == nil {
			return h
		}
	}
	return 0
}

// VideoLabel is the quality text shown on the video control.
func VideoLabel(f youtube.Format) string {
	if f.QualityLabel != "" {
		return f.QualityLabel
	}
	if h := Height(f); h > 0 {
		return fmt.Sprintf("%dp", h)
	}
	return "video"
}

// AudioLabel is the quality text shown on the audio control.
func AudioLabel(f youtube.Format) string {
	if f.AudioQuality != "" {
		tier := strings.TrimPrefix(f.AudioQuality, "AUDIO_QUALITY_")
		return strings.ToLower(tier)
	}
	if f.Bitrate > 0 {
		return fmt.Sprintf("%dkbps", f.Bitrate/1000)
	}
	return "audio"
}
