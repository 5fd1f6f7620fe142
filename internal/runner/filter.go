package runner

import (
	"strings"

	"github.com/roach88/longevity/internal/journey"
)

// FilterOption is the argument key holding the exclusion list: canonical
// journey names separated by commas.
const FilterOption = "exclude-journey"

// Excluded reports whether journeyID is named in list.
// Names compare in canonical form.
func Excluded(list, journeyID string) bool {
	id := journey.CanonicalName(journeyID)
	if id == "" {
		return false
	}
	for _, name := range strings.Split(list, ",") {
		if journey.CanonicalName(name) == id {
			return true
		}
	}
	return false
}
