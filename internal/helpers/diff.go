package helpers

import (
	"fmt"
	"strings"

	"github.com/esmkit/esmkit/internal/logger"
)

type diffOp uint8

const (
	diffKeep diffOp = iota
	diffRemove
	diffAdd
)

type diffLine struct {
	op   diffOp
	text string
}

// Diff renders a line diff between two versions of "path". Unchanged lines
// more than "contextLines" away from a change are left out. The result is
// empty when nothing changed.
func Diff(path string, old string, new string, contextLines int, color bool) string {
	if old == new {
		return ""
	}
	lines := diffRec(nil, strings.Split(old, "\n"), strings.Split(new, "\n"))

	// Mark the lines that are close enough to a change to be shown
	show := make([]bool, len(lines))
	for i, line := range lines {
		if line.op == diffKeep {
			continue
		}
		for j := i - contextLines; j <= i+contextLines; j++ {
			if j >= 0 && j < len(lines) {
				show[j] = true
			}
		}
	}

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("--- %s\n+++ %s\n", path, path))
	skipped := false
	for i, line := range lines {
		if !show[i] {
			skipped = true
			continue
		}
		if skipped {
			sb.WriteString(paint("@@", logger.TerminalColors.Dim, color))
			skipped = false
		}
		switch line.op {
		case diffRemove:
			sb.WriteString(paint("-"+line.text, logger.TerminalColors.Red, color))
		case diffAdd:
			sb.WriteString(paint("+"+line.text, logger.TerminalColors.Green, color))
		default:
			sb.WriteString(paint(" "+line.text, logger.TerminalColors.Dim, color))
		}
	}
	return sb.String()
}

func paint(text string, escape string, color bool) string {
	if color {
		return escape + text + logger.TerminalColors.Reset + "\n"
	}
	return text + "\n"
}

// This is a simple recursive line-by-line diff implementation
func diffRec(result []diffLine, old []string, new []string) []diffLine {
	o, n, common := lcSubstr(old, new)

	if common == 0 {
		// Everything changed
		for _, line := range old {
			result = append(result, diffLine{op: diffRemove, text: line})
		}
		for _, line := range new {
			result = append(result, diffLine{op: diffAdd, text: line})
		}
		return result
	}

	// Something in the middle stayed the same
	result = diffRec(result, old[:o], new[:n])
	for _, line := range old[o : o+common] {
		result = append(result, diffLine{op: diffKeep, text: line})
	}
	return diffRec(result, old[o+common:], new[n+common:])
}

// From: https://en.wikipedia.org/wiki/Longest_common_substring_problem
func lcSubstr(S []string, T []string) (int, int, int) {
	r := len(S)
	n := len(T)
	Lprev := make([]int, n)
	Lnext := make([]int, n)
	z := 0
	retI := 0
	retJ := 0

	for i := 0; i < r; i++ {
		for j := 0; j < n; j++ {
			if S[i] == T[j] {
				if j == 0 {
					Lnext[j] = 1
				} else {
					Lnext[j] = Lprev[j-1] + 1
				}
				if Lnext[j] > z {
					z = Lnext[j]
					retI = i + 1
					retJ = j + 1
				}
			} else {
				Lnext[j] = 0
			}
		}
		Lprev, Lnext = Lnext, Lprev
	}

	return retI - z, retJ - z, z
}
