// Package delivery splits a reply into chat bubbles and paces their arrival.
package delivery

import "strings"

// Segment splits reply on line breaks, trims each line and drops empty
// ones. An all-whitespace reply yields an empty slice.
func Segment(reply string) []string {
	lines := strings.Split(reply, "\n")
	segments := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return segments
}
