package app

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// DateFormatter renders completion dates the way the results table shows them.
type DateFormatter struct {
	tag      language.Tag
	location *time.Location
}

// NewDateFormatter parses a BCP 47 locale such as "ar-EG" or "en-US".
// Unknown locales fall back to ar-EG.
func NewDateFormatter(locale string, location *time.Location) DateFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse("ar-EG")
	}
	if location == nil {
		location = time.UTC
	}
	return DateFormatter{tag: tag, location: location}
}

const rlm = "\u200f"

var arabicIndicDigits = strings.NewReplacer(
	"0", "٠", "1", "١", "2", "٢", "3", "٣", "4", "٤",
	"5", "٥", "6", "٦", "7", "٧", "8", "٨", "9", "٩",
)

// Format returns the short numeric date for t.
func (f DateFormatter) Format(t time.Time) string {
	t = t.In(f.location)
	base, _ := f.tag.Base()
	region, _ := f.tag.Region()

	switch {
	case base.String() == "ar":
		s := fmt.Sprintf("%d%s/%d%s/%d", t.Day(), rlm, int(t.Month()), rlm, t.Year())
		return arabicIndicDigits.Replace(s)
	case base.String() == "en" && region.String() == "US":
		return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
	default:
		return fmt.Sprintf("%02d/%02d/%d", t.Day(), int(t.Month()), t.Year())
	}
}
