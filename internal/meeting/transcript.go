package meeting

import (
	"strings"
	"unicode/utf8"
)

const (
	wholeTranscriptLimit = 2000
	targetSegments       = 8
	minSegmentSize       = 800
	segmentOverlap       = 300
)

// SegmentTranscript splits a long transcript into overlapping segments on
// sentence boundaries. Transcripts up to 2000 characters stay whole. Longer
// ones produce at most eight segments of max(len/8, 800) characters, each
// prefixed with the tail of the previous segment.
func SegmentTranscript(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	length := utf8.RuneCountInString(text)
	if length <= wholeTranscriptLimit {
		return []string{text}
	}

	segmentSize := length / targetSegments
	if segmentSize < minSegmentSize {
		segmentSize = minSegmentSize
	}

	var segments []string
	var current []string
	currentLen := 0

	flush := func() {
		segment := strings.Join(current, ". ") + "."
		segments = append(segments, segment)
	}

	for _, sentence := range strings.Split(text, ". ") {
		sentence = strings.Trim(sentence, ".")
		sentenceLen := utf8.RuneCountInString(sentence)
		if currentLen+sentenceLen > segmentSize && len(current) > 0 {
			if len(segments) > 0 {
				current = append([]string{tail(segments[len(segments)-1], segmentOverlap)}, current...)
			}
			flush()
			current = []string{sentence}
			currentLen = sentenceLen
			continue
		}
		current = append(current, sentence)
		currentLen += sentenceLen
	}
	if len(current) > 0 {
		if len(segments) > 0 {
			current = append([]string{tail(segments[len(segments)-1], segmentOverlap)}, current...)
		}
		flush()
	}

	if len(segments) > targetSegments {
		segments = segments[:targetSegments]
	}
	return segments
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
