package grouping

import (
	"fmt"
	"strings"
)

// Render writes groups as an indented outline, one item per line:
//
//	Dairy
//	  Milk
//	    - Whole milk
func Render[T any](groups []AisleGroup[T], line func(T) string) string {
	var b strings.Builder
	for _, g := range groups {
		fmt.Fprintln(&b, g.Name)
		for _, s := range g.Sections {
			fmt.Fprintf(&b, "  %s\n", s.Name)
			for _, item := range s.Items {
				fmt.Fprintf(&b, "    - %s\n", line(item))
			}
		}
	}
	return b.String()
}
