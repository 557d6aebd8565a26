package extractor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/vid-fetcher/internal/metadata"
	"github.com/rohmanhakim/vid-fetcher/internal/normalize"
	"github.com/rohmanhakim/vid-fetcher/pkg/failure"
)

/*
Responsibilities
- Locate the embedded player response inside a watch-page HTML body
- Parse it against an explicit schema
- Produce a canonical VideoRecord

Extraction semantics
- Identity fields (video id, title) are mandatory; their absence fails
  the extraction closed rather than producing a partial record.
- Optional fields (category, thumbnail, keywords, description, upload
  date) fall back to empty sentinels when absent.
- Pure: no network, no cache access.
*/

// Extractor parses one raw upstream response body into a VideoRecord.
type Extractor interface {
	Extract(key normalize.VideoKey, body []byte) (VideoRecord, failure.ClassifiedError)
}

// playerResponsePattern matches the inline assignment the watch page
// embeds in one of its script tags.
var playerResponsePattern = regexp.MustCompile(`(?s)var ytInitialPlayerResponse\s*=\s*(\{.+?\});`)

// upload dates appear either with a timezone offset or as a plain date
var uploadDateLayouts = []string{
	"2006-01-02T15:04:05-07:00",
	"2006-01-02",
}

type PlayerResponseExtractor struct {
	metadataSink metadata.MetadataSink
}

func NewPlayerResponseExtractor(
	metadataSink metadata.MetadataSink,
) PlayerResponseExtractor {
	return PlayerResponseExtractor{
		metadataSink: metadataSink,
	}
}

func (p *PlayerResponseExtractor) Extract(
	key normalize.VideoKey,
	body []byte,
) (VideoRecord, failure.ClassifiedError) {
	record, err := p.extract(key, body)
	if err != nil {
		var extractionError *ExtractionError
		errors.As(err, &extractionError)
		p.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"PlayerResponseExtractor.Extract",
			mapExtractionErrorToMetadataCause(extractionError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrKey, key.String()),
			},
		)
		return VideoRecord{}, extractionError
	}
	return record, nil
}

func (p *PlayerResponseExtractor) extract(
	key normalize.VideoKey,
	body []byte,
) (VideoRecord, failure.ClassifiedError) {
	rawResponse, findErr := findPlayerResponse(body)
	if findErr != nil {
		return VideoRecord{}, findErr
	}

	var response playerResponse
	if err := json.Unmarshal(rawResponse, &response); err != nil {
		return VideoRecord{}, &ExtractionError{
			Message: fmt.Sprintf("player response json: %v", err),
			Cause:   ErrCausePlayerResponseInvalid,
		}
	}

	return buildRecord(key, response)
}

// findPlayerResponse scans script tags for the inline player response.
// Falls back to a whole-body scan when the DOM parse misses it, which
// happens when the markup is broken enough that the script content ends
// up outside a well-formed script node.
func findPlayerResponse(body []byte) ([]byte, failure.ClassifiedError) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err == nil {
		var found []byte
		doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
			text := script.Text()
			if !strings.Contains(text, "ytInitialPlayerResponse") {
				return true
			}
			if match := playerResponsePattern.FindStringSubmatch(text); match != nil {
				found = []byte(match[1])
				return false
			}
			return true
		})
		if found != nil {
			return found, nil
		}
	}

	if match := playerResponsePattern.FindSubmatch(body); match != nil {
		return match[1], nil
	}

	return nil, &ExtractionError{
		Message: "no ytInitialPlayerResponse assignment in response body",
		Cause:   ErrCausePlayerResponseMissing,
	}
}

func buildRecord(
	key normalize.VideoKey,
	response playerResponse,
) (VideoRecord, failure.ClassifiedError) {
	details := response.VideoDetails
	micro := response.Microformat.PlayerMicroformatRenderer

	// Identity fields fail closed
	if details.VideoID == "" {
		return VideoRecord{}, &ExtractionError{
			Message: "videoDetails.videoId is absent",
			Cause:   ErrCauseMissingIdentity,
		}
	}
	if details.Title == "" {
		return VideoRecord{}, &ExtractionError{
			Message: "videoDetails.title is absent",
			Cause:   ErrCauseMissingIdentity,
		}
	}

	viewCount, err := parseCount("viewCount", details.ViewCount)
	if err != nil {
		return VideoRecord{}, err
	}

	durationSeconds, err := parseDuration("lengthSeconds", details.LengthSeconds)
	if err != nil {
		return VideoRecord{}, err
	}

	uploadDate, err := parseUploadDate(micro.UploadDate)
	if err != nil {
		return VideoRecord{}, err
	}

	// default to family safe when the renderer omits the flag
	familySafe := true
	if micro.IsFamilySafe != nil {
		familySafe = *micro.IsFamilySafe
	}

	return NewVideoRecord(VideoRecordParam{
		Key:              key,
		Title:            details.Title,
		ChannelName:      details.Author,
		ChannelID:        details.ChannelID,
		ViewCount:        viewCount,
		DurationSeconds:  durationSeconds,
		UploadDate:       uploadDate,
		Category:         micro.Category,
		ThumbnailURL:     highestResolutionThumbnail(details.Thumbnail.Thumbnails),
		Keywords:         details.Keywords,
		ShortDescription: details.ShortDescription,
		IsLive:           details.IsLiveContent,
		IsFamilySafe:     familySafe,
	}), nil
}

func parseCount(field string, raw string) (uint64, failure.ClassifiedError) {
	if raw == "" {
		return 0, nil
	}
	count, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &ExtractionError{
			Message: fmt.Sprintf("%s %q is not a non-negative integer", field, raw),
			Cause:   ErrCauseMalformedField,
		}
	}
	return count, nil
}

func parseDuration(field string, raw string) (int64, failure.ClassifiedError) {
	if raw == "" {
		return 0, nil
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds < 0 {
		return 0, &ExtractionError{
			Message: fmt.Sprintf("%s %q is not a non-negative integer", field, raw),
			Cause:   ErrCauseMalformedField,
		}
	}
	return seconds, nil
}

func parseUploadDate(raw string) (time.Time, failure.ClassifiedError) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range uploadDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, &ExtractionError{
		Message: fmt.Sprintf("uploadDate %q does not match any known layout", raw),
		Cause:   ErrCauseMalformedField,
	}
}

// highestResolutionThumbnail returns the last thumbnail, which the
// upstream orders from smallest to largest. Empty string when absent.
func highestResolutionThumbnail(thumbnails []thumbnailEntry) string {
	if len(thumbnails) == 0 {
		return ""
	}
	return thumbnails[len(thumbnails)-1].URL
}
