package helpers

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// TypoDetector suggests an existing module name for one that doesn't exist.
// It catches names that only differ in letter case and names with a single
// missing, extra, or mistyped character.
type TypoDetector struct {
	valid        map[string]bool
	byLowerCase  map[string]string
	oneCharTypos map[string]string
}

func MakeTypoDetector(valid []string) TypoDetector {
	detector := TypoDetector{
		valid:        make(map[string]bool),
		byLowerCase:  make(map[string]string),
		oneCharTypos: make(map[string]string),
	}

	// Sort so that the suggestion doesn't depend on directory order
	sorted := append([]string{}, valid...)
	sort.Strings(sorted)

	for _, correct := range sorted {
		detector.valid[correct] = true
		lower := strings.ToLower(correct)
		if _, ok := detector.byLowerCase[lower]; !ok {
			detector.byLowerCase[lower] = correct
		}

		// Short names have too many near misses to be useful
		if len(correct) > 3 {
			for i, ch := range correct {
				typo := correct[:i] + correct[i+utf8.RuneLen(ch):]
				if _, ok := detector.oneCharTypos[typo]; !ok {
					detector.oneCharTypos[typo] = correct
				}
			}
		}
	}

	return detector
}

func (detector TypoDetector) MaybeCorrectTypo(typo string) (string, bool) {
	if detector.valid[typo] {
		return "", false
	}
	if corrected, ok := detector.byLowerCase[strings.ToLower(typo)]; ok {
		return corrected, true
	}

	// Check for a single missing character
	if corrected, ok := detector.oneCharTypos[typo]; ok {
		return corrected, true
	}

	for i, ch := range typo {
		shorter := typo[:i] + typo[i+utf8.RuneLen(ch):]

		// Check for a single extra character
		if len(shorter) > 3 && detector.valid[shorter] {
			return shorter, true
		}

		// Check for a single mistyped character
		if corrected, ok := detector.oneCharTypos[shorter]; ok {
			return corrected, true
		}
	}

	return "", false
}
