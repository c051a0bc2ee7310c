package analytics

import (
	"math"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const (
	tokenEncoding = "cl100k_base"
	// runesPerToken approximates token counts when the encoder is unavailable.
	runesPerToken = 4.0

	methodTiktoken = "tiktoken"
	methodEstimate = "estimate"
)

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

var (
	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
)

func getEncoder() *tiktoken.Tiktoken {
	encoderOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(tokenEncoding)
		if err == nil {
			encoder = enc
		}
	})
	return encoder
}

// TokenStats summarizes token counts per chunk.
type TokenStats struct {
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	P95    int     `json:"p95"`
	Method string  `json:"method"`
}

// countTokens returns the token count of text and the method used.
func countTokens(text string) (int, string) {
	if enc := getEncoder(); enc != nil {
		return len(enc.Encode(text, nil, nil)), methodTiktoken
	}
	n := int(math.Round(float64(utf8.RuneCountInString(text)) / runesPerToken))
	if n < 1 && text != "" {
		n = 1
	}
	return n, methodEstimate
}

func tokenStats(texts []string) TokenStats {
	if len(texts) == 0 {
		return TokenStats{}
	}
	counts := make([]int, len(texts))
	var method string
	for i, text := range texts {
		counts[i], method = countTokens(text)
	}
	stats := computeTokenStats(counts)
	stats.Method = method
	return stats
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) TokenStats {
	if len(tokenCounts) == 0 {
		return TokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range tokenCounts {
		sum += count
	}
	mean := float64(sum) / float64(len(tokenCounts))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	return TokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
