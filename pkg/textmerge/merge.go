// Package textmerge implements a line-level three-way text merge equivalent
// to `git merge-file -p`: given a common ancestor and two derived versions it
// produces merged text, embedding conflict markers where both sides changed
// the same region.
//
// The merge follows the classic diff3 construction: pairwise differences are
// computed with the Hunt-McIlroy LCS algorithm and overlapping change regions
// become conflicts. See Khanna, Kunal and Pierce, "A Formal Investigation of
// Diff3" (FSTTCS 2007) for the underlying model.
package textmerge

import (
	"slices"
	"sort"
	"strings"
)

// Conflict markers, matching the git defaults.
const (
	markerBegin     = "<<<<<<<"
	markerSeparator = "======="
	markerEnd       = ">>>>>>>"
)

// Merge merges two versions derived from a common base. Returns the merged
// text and true when the result embeds conflict markers. Labels annotate the
// ours/theirs markers and may be empty.
func Merge(base, ours, theirs, labelOurs, labelTheirs string) (string, bool) {
	if labelOurs != "" {
		labelOurs = " " + labelOurs
	}
	if labelTheirs != "" {
		labelTheirs = " " + labelTheirs
	}

	o := splitLines(base)
	a := splitLines(ours)
	b := splitLines(theirs)

	regions := merge3(a, o, b)

	var out strings.Builder
	out.Grow(max(len(base), len(ours), len(theirs)))
	writeAll := func(lines []string) {
		for _, l := range lines {
			out.WriteString(l)
		}
	}
	// A dangling last line must be completed before a marker so the marker
	// starts its own line. Outside conflict blocks incomplete lines pass
	// through untouched.
	ensureNewline := func() {
		if s := out.String(); s != "" && !strings.HasSuffix(s, "\n") {
			out.WriteString("\n")
		}
	}

	conflicts := false
	for _, r := range regions {
		if r.conflict == nil {
			writeAll(r.ok)
			continue
		}
		conflicts = true
		ensureNewline()
		out.WriteString(markerBegin + labelOurs + "\n")
		writeAll(r.conflict.ours)
		ensureNewline()
		out.WriteString(markerSeparator + "\n")
		writeAll(r.conflict.theirs)
		ensureNewline()
		out.WriteString(markerEnd + labelTheirs + "\n")
	}
	return out.String(), conflicts
}

// splitLines splits text into lines, each keeping its trailing newline. A
// final line without a newline stays distinct from the same line with one,
// which mirrors how git treats incomplete last lines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			return lines
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
		if s == "" {
			return lines
		}
	}
}

// candidate is a node of the common-subsequence chains built by the
// Hunt-McIlroy algorithm.
type candidate struct {
	aIndex int
	bIndex int
	chain  *candidate
}

// lcs computes the longest common subsequence of two line slices following
// Hunt and McIlroy (Bell Labs CSTR #41, 1976). The result is the head of a
// reversed linked list of matching index pairs.
func lcs(a, b []string) *candidate {
	equivalence := make(map[string][]int, len(b))
	for j, line := range b {
		equivalence[line] = append(equivalence[line], j)
	}

	candidates := []*candidate{{aIndex: -1, bIndex: -1}}

	for i, line := range a {
		matches := equivalence[line]

		r := 0
		c := candidates[0]

		for _, j := range matches {
			var s int
			for s = r; s < len(candidates); s++ {
				if candidates[s].bIndex < j && (s == len(candidates)-1 || candidates[s+1].bIndex > j) {
					break
				}
			}

			if s < len(candidates) {
				next := &candidate{aIndex: i, bIndex: j, chain: candidates[s]}
				if r == len(candidates) {
					candidates = append(candidates, c)
				} else {
					candidates[r] = c
				}
				r = s + 1
				c = next
				if r == len(candidates) {
					break
				}
			}
		}

		if r == len(candidates) {
			candidates = append(candidates, c)
		} else {
			candidates[r] = c
		}
	}

	return candidates[len(candidates)-1]
}

// span is one mismatched chunk between two files: offset and length on each
// side.
type span struct {
	aStart, aLen int
	bStart, bLen int
}

// diffSpans reduces the LCS to the offsets and lengths of mismatched chunks.
func diffSpans(a, b []string) []span {
	var result []span
	tailA := len(a)
	tailB := len(b)

	for c := lcs(a, b); c != nil; c = c.chain {
		mismatchA := tailA - c.aIndex - 1
		mismatchB := tailB - c.bIndex - 1
		tailA = c.aIndex
		tailB = c.bIndex

		if mismatchA != 0 || mismatchB != 0 {
			result = append(result, span{
				aStart: tailA + 1, aLen: mismatchA,
				bStart: tailB + 1, bLen: mismatchB,
			})
		}
	}

	slices.Reverse(result)
	return result
}

// hunk is a change region relative to the base: [baseStart, side, baseLen,
// sideStart, sideLen] where side is 0 for ours and 2 for theirs.
type hunk [5]int

// mergeRegion is one output block: either clean lines or a conflict.
type mergeRegion struct {
	ok       []string
	conflict *conflictRegion
}

type conflictRegion struct {
	ours   []string
	theirs []string
	base   []string
}

// merge3 walks the change regions of both sides against the base. A region
// touched by only one side resolves cleanly; overlapping regions become
// conflicts unless both sides made the identical change.
func merge3(a, o, b []string) []mergeRegion {
	oursSpans := diffSpans(o, a)
	theirsSpans := diffSpans(o, b)

	var hunks []hunk
	for _, s := range oursSpans {
		hunks = append(hunks, hunk{s.aStart, 0, s.aLen, s.bStart, s.bLen})
	}
	for _, s := range theirsSpans {
		hunks = append(hunks, hunk{s.aStart, 2, s.aLen, s.bStart, s.bLen})
	}
	sort.Slice(hunks, func(i, j int) bool { return hunks[i][0] < hunks[j][0] })

	sides := [3][]string{a, o, b}
	var result []mergeRegion
	commonOffset := 0
	copyCommon := func(target int) {
		if target > commonOffset {
			result = append(result, mergeRegion{ok: o[commonOffset:target]})
			commonOffset = target
		}
	}

	for hunkIndex := 0; hunkIndex < len(hunks); hunkIndex++ {
		firstHunk := hunkIndex
		h := hunks[hunkIndex]
		regionLhs := h[0]
		regionRhs := regionLhs + h[2]

		// Coalesce hunks whose base regions overlap.
		for hunkIndex < len(hunks)-1 {
			next := hunks[hunkIndex+1]
			if next[0] > regionRhs {
				break
			}
			regionRhs = max(regionRhs, next[0]+next[2])
			hunkIndex++
		}

		copyCommon(regionLhs)
		if firstHunk == hunkIndex {
			// Only one side changed this region.
			side := h[1]
			if h[4] > 0 {
				result = append(result, mergeRegion{ok: sides[side][h[3] : h[3]+h[4]]})
			}
		} else {
			// Both sides changed it. Merge each side's hunks into one
			// region, correcting for skew against the base.
			regions := [3][4]int{
				{len(a), -1, len(o), -1},
				{},
				{len(b), -1, len(o), -1},
			}
			for i := firstHunk; i <= hunkIndex; i++ {
				h = hunks[i]
				side := h[1]
				oLhs := h[0]
				oRhs := oLhs + h[2]
				abLhs := h[3]
				abRhs := abLhs + h[4]
				regions[side][0] = min(abLhs, regions[side][0])
				regions[side][1] = max(abRhs, regions[side][1])
				regions[side][2] = min(oLhs, regions[side][2])
				regions[side][3] = max(oRhs, regions[side][3])
			}

			aLhs := regions[0][0] + (regionLhs - regions[0][2])
			aRhs := regions[0][1] + (regionRhs - regions[0][3])
			bLhs := regions[2][0] + (regionLhs - regions[2][2])
			bRhs := regions[2][1] + (regionRhs - regions[2][3])

			ours := a[aLhs:aRhs]
			theirs := b[bLhs:bRhs]
			if slices.Equal(ours, theirs) {
				// Both sides made the same change; not a real conflict.
				result = append(result, mergeRegion{ok: ours})
			} else {
				result = append(result, mergeRegion{conflict: &conflictRegion{
					ours:   ours,
					theirs: theirs,
					base:   o[regionLhs:regionRhs],
				}})
			}
		}
		commonOffset = regionRhs
	}

	copyCommon(len(o))
	return result
}
