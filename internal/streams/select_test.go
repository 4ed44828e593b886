package streams

import (
	"testing"

	youtube "github.com/kkdai/youtube/v2"
	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
)

func muxed(itag, height int, label string) youtube.Format {
	return youtube.Format{ItagNo: itag, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, Height: height, QualityLabel: label}
}

func videoOnly(itag, height int) youtube.Format {
	return youtube.Format{ItagNo: itag, MimeType: `video/webm; codecs="vp9"`, Height: height}
}

func audioOnly(itag, bitrate int, quality string) youtube.Format {
	return youtube.Format{ItagNo: itag, MimeType: `audio/webm; codecs="opus"`, Bitrate: bitrate, AudioQuality: quality}
}

func TestBestVideo_PrefersMuxed(t *testing.T) {
	assert := assert_.New(t)
	set := &Set{
		Muxed: youtube.FormatList{
			muxed(18, 360, "360p"),
			muxed(22, 720, "720p"),
		},
		Adaptive: youtube.FormatList{
			videoOnly(137, 1080), // higher resolution, but needs a merge step
			audioOnly(251, 160000, "AUDIO_QUALITY_MEDIUM"),
		},
	}
	pick := BestVideo(set)
	assert.True(pick.IsSome())
	assert.Equal(22, pick.Unwrap().ItagNo)
}

func TestBestVideo_AdaptiveFallback(t *testing.T) {
	assert := assert_.New(t)
	set := &Set{
		Adaptive: youtube.FormatList{
			audioOnly(251, 160000, ""),
			videoOnly(137, 1080),
			videoOnly(136, 720),
		},
	}
	pick := BestVideo(set)
	assert.True(pick.IsSome())
	// Drawn from video-only streams, never audio-only
	assert.Equal(137, pick.Unwrap().ItagNo)
}

func TestBestVideo_QualityLabelFallback(t *testing.T) {
	assert := assert_.New(t)
	set := &Set{
		Muxed: youtube.FormatList{
			muxed(18, 0, "360p"),
			muxed(22, 0, "720p60"),
		},
	}
	pick := BestVideo(set)
	assert.True(pick.IsSome())
	assert.Equal(22, pick.Unwrap().ItagNo)
}

func TestBestVideo_None(t *testing.T) {
	assert := assert_.New(t)
	assert.True(BestVideo(&Set{}).IsNone())
	assert.True(BestVideo(nil).IsNone())
}

func TestBestAudio_HighestBitrate(t *testing.T) {
	assert := assert_.New(t)
	set := &Set{
		Muxed: youtube.FormatList{muxed(22, 720, "720p")},
		Adaptive: youtube.FormatList{
			audioOnly(250, 70000, "AUDIO_QUALITY_LOW"),
			audioOnly(251, 160000, "AUDIO_QUALITY_MEDIUM"),
			videoOnly(137, 1080),
		},
	}
	pick := BestAudio(set)
	assert.True(pick.IsSome())
	assert.Equal(251, pick.Unwrap().ItagNo)
	// Muxed streams never contribute an audio pick
	assert.True(BestAudio(&Set{Muxed: set.Muxed}).IsNone())
}

func TestLabels(t *testing.T) {
	assert := assert_.New(t)
	assert.Equal("720p", VideoLabel(muxed(22, 720, "720p")))
	assert.Equal("1080p", VideoLabel(videoOnly(137, 1080)))
	assert.Equal("medium", AudioLabel(audioOnly(251, 160000, "AUDIO_QUALITY_MEDIUM")))
	assert.Equal("128kbps", AudioLabel(audioOnly(140, 128000, "")))
}

func TestParsePlayerResponse(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	raw := []byte(`{
		"streamingData": {
			"formats": [{"itag": 18, "mimeType": "video/mp4", "qualityLabel": "360p", "height": 360}],
			"adaptiveFormats": [{"itag": 251, "mimeType": "audio/webm", "bitrate": 160000}]
		},
		"videoDetails": {"videoId": "dQw4w9WgXcQ", "title": "Example"}
	}`)
	set, details, err := ParsePlayerResponse(raw)
	require.NoError(err)
	assert.Equal("dQw4w9WgXcQ", details.VideoID)
	assert.Equal("Example", details.Title)
	assert.Len(set.Muxed, 1)
	assert.Len(set.Adaptive, 1)
	assert.False(set.Empty())

	_, _, err = ParsePlayerResponse([]byte("{"))
	assert.Error(err)
}
