package meeting

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentTranscript(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, SegmentTranscript("   "))
	})

	t.Run("short transcript stays whole", func(t *testing.T) {
		text := strings.Repeat("We agreed on the plan. ", 50)
		segments := SegmentTranscript(text)
		require.Len(t, segments, 1)
		assert.Equal(t, strings.TrimSpace(text), segments[0])
	})

	t.Run("long transcript is split with overlap", func(t *testing.T) {
		sentence := "The team discussed the quarterly roadmap in detail"
		var parts []string
		for i := 0; i < 200; i++ {
			parts = append(parts, sentence)
		}
		text := strings.Join(parts, ". ") + "."

		segments := SegmentTranscript(text)
		require.Greater(t, len(segments), 1)
		assert.LessOrEqual(t, len(segments), 8)

		for i := 1; i < len(segments); i++ {
			prevTail := tail(segments[i-1], 300)
			assert.True(t, strings.HasPrefix(segments[i], prevTail), "segment %d should start with previous tail", i)
		}
		for i, s := range segments {
			assert.True(t, strings.HasSuffix(s, "."))
			if i < len(segments)-1 {
				assert.Greater(t, utf8.RuneCountInString(s), 800)
			}
		}
	})
}

func TestFragmentsFromAnalysis(t *testing.T) {
	analysis := Analysis{
		Summary:     "Budget approved",
		ActionItems: []string{"A to send report", "  "},
		Decisions:   []string{"Migrate to new vendor"},
		Timeline: []TimelineEntry{
			{When: "Q2", Context: "launch"},
			{When: "next week"},
			{},
		},
	}

	fragments := FragmentsFromAnalysis("short transcript", analysis)

	want := []Fragment{
		{Type: ContentTranscript, Text: "short transcript"},
		{Type: ContentSummary, Text: "Budget approved"},
		{Type: ContentActionItem, Text: "A to send report"},
		{Type: ContentDecision, Text: "Migrate to new vendor"},
		{Type: ContentTimeline, Text: "Q2 - launch"},
		{Type: ContentTimeline, Text: "next week"},
	}
	assert.Equal(t, want, fragments)
}

func TestParseContentType(t *testing.T) {
	tests := []struct {
		in      string
		want    ContentType
		wantErr bool
	}{
		{"summary", ContentSummary, false},
		{"Action_Item", ContentActionItem, false},
		{"decisions", ContentDecision, false},
		{"timelines", ContentTimeline, false},
		{"slides", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseContentType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "English", LanguageName("en"))
	assert.Equal(t, "Spanish", LanguageName(" ES "))
	assert.Equal(t, "Unknown", LanguageName(""))
	assert.Equal(t, "Unknown", LanguageName(UnknownLanguage))
	assert.Equal(t, "XX", LanguageName("xx"))
}

func TestNormalizeLanguage(t *testing.T) {
	tests := map[string]string{
		"en":      "en",
		"EN":      "en",
		"en-US":   "en",
		"english": "en",
		"Spanish": "es",
		"":        UnknownLanguage,
		"  ":      UnknownLanguage,
		"xx":      "xx",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeLanguage(in), "input %q", in)
	}
}
