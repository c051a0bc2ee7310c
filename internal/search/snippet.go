package search

import (
	"sort"
	"strings"
	"unicode"
)

const (
	// DefaultSnippetLength is the snippet window in runes.
	DefaultSnippetLength = 200
	ellipsis             = "..."
	// maxWordSnap bounds how far a window edge moves to avoid splitting a word.
	maxWordSnap = 15
	// maxOccurrences caps the term matches considered when placing a window.
	maxOccurrences = 1000
)

type occurrence struct {
	pos, end, term int
}

// buildSnippet returns a window of at most length runes of text centred on a
// query term occurrence, choosing the occurrence whose window covers the most
// distinct terms. Without any occurrence the leading excerpt is used.
// Truncated sides are marked with an ellipsis.
func buildSnippet(text, query string, length int) string {
	if length <= 0 {
		length = DefaultSnippetLength
	}
	runes := []rune(text)
	if len(runes) <= length {
		return text
	}

	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}

	start := bestWindow(lower, queryTerms(query), length)
	end := start + length
	if start > 0 {
		start = snapForward(runes, start, end)
	}
	if end < len(runes) {
		end = snapBackward(runes, start, end)
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(strings.TrimSpace(string(runes[start:end])))
	if end < len(runes) {
		b.WriteString(ellipsis)
	}
	return b.String()
}

// bestWindow returns the start of the length-rune window of text that fully
// contains occurrences of the most distinct terms. Candidate windows are
// centred on each occurrence and swept left to right, keeping per-term counts
// of the occurrences inside the current window. Ties keep the earliest window.
func bestWindow(text []rune, terms []string, length int) int {
	var occs []occurrence
	for ti, term := range terms {
		needle := []rune(term)
		for _, pos := range indexAll(text, needle) {
			occs = append(occs, occurrence{pos: pos, end: pos + len(needle), term: ti})
		}
	}
	if len(occs) == 0 {
		return 0
	}
	sort.Slice(occs, func(i, j int) bool { return occs[i].pos < occs[j].pos })
	if len(occs) > maxOccurrences {
		occs = occs[:maxOccurrences]
	}

	maxStart := len(text) - length
	candidates := make([]int, len(occs))
	for i, occ := range occs {
		c := occ.pos - (length-(occ.end-occ.pos))/2
		if c < 0 {
			c = 0
		}
		if c > maxStart {
			c = maxStart
		}
		candidates[i] = c
	}
	sort.Ints(candidates)

	byEnd := make([]int, len(occs))
	for i := range byEnd {
		byEnd[i] = i
	}
	sort.Slice(byEnd, func(i, j int) bool { return occs[byEnd[i]].end < occs[byEnd[j]].end })

	inside := make([]bool, len(occs))
	perTerm := make([]int, len(terms))
	distinct, best, start := 0, 0, 0
	added, dropped := 0, 0
	for _, c := range candidates {
		for added < len(byEnd) && occs[byEnd[added]].end <= c+length {
			i := byEnd[added]
			added++
			if occs[i].pos < c {
				continue
			}
			inside[i] = true
			perTerm[occs[i].term]++
			if perTerm[occs[i].term] == 1 {
				distinct++
			}
		}
		for dropped < len(occs) && occs[dropped].pos < c {
			if inside[dropped] {
				inside[dropped] = false
				perTerm[occs[dropped].term]--
				if perTerm[occs[dropped].term] == 0 {
					distinct--
				}
			}
			dropped++
		}
		if distinct > best {
			best = distinct
			start = c
		}
	}
	return start
}

// indexAll returns every start position of needle in haystack.
func indexAll(haystack, needle []rune) []int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return nil
	}
	var positions []int
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if haystack[i+j] != r {
				continue outer
			}
		}
		positions = append(positions, i)
	}
	return positions
}

// snapForward moves start past a partial word, when a word boundary is close.
func snapForward(runes []rune, start, end int) int {
	if unicode.IsSpace(runes[start-1]) {
		return start
	}
	for i := start; i < end && i < start+maxWordSnap; i++ {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return start
}

// snapBackward moves end before a partial word, when a word boundary is close.
func snapBackward(runes []rune, start, end int) int {
	if unicode.IsSpace(runes[end]) {
		return end
	}
	for i := end - 1; i > start && i > end-maxWordSnap; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return end
}
