package forecast

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// PeriodWords binds a set of words to a wall-clock hour.
type PeriodWords struct {
	Words []string `yaml:"words"`
	Hour  int      `yaml:"hour"`
}

// Vocabulary is the locale-specific word list a Parser matches against.
// Patterns are regular expressions evaluated on the normalised phrase.
type Vocabulary struct {
	Name string `yaml:"name"`

	// RelativeHours patterns capture the hour count in their first group.
	RelativeHours []string `yaml:"relativeHours"`
	// WallClock patterns must define the named groups "hour" and "meridiem"
	// and may define "half".
	WallClock []string          `yaml:"wallClock"`
	Meridiem  map[string]string `yaml:"meridiem"` // word -> "am" | "pm"

	Tomorrow         []string      `yaml:"tomorrow"`
	DayAfterTomorrow []string      `yaml:"dayAfterTomorrow"`
	Qualifiers       []PeriodWords `yaml:"qualifiers"`
	Periods          []PeriodWords `yaml:"periods"`
	Morning          PeriodWords   `yaml:"morning"`
	FullDay          []string      `yaml:"fullDay"`

	ForecastWords []string `yaml:"forecastWords"`
	SummaryWords  []string `yaml:"summaryWords"`
}

// ParseVocabularyYAML decodes a vocabulary document.
func ParseVocabularyYAML(data []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("decode vocabulary: %w", err)
	}
	return v, nil
}

// BuiltinVocabulary returns a bundled vocabulary by name ("ko" or "en").
func BuiltinVocabulary(name string) (Vocabulary, error) {
	switch name {
	case "", "ko", "korean":
		return KoreanVocabulary(), nil
	case "en", "english":
		return EnglishVocabulary(), nil
	}
	return Vocabulary{}, fmt.Errorf("unknown vocabulary %q", name)
}

// KoreanVocabulary covers the relative-time expressions of Korean weather questions.
func KoreanVocabulary() Vocabulary {
	return Vocabulary{
		Name: "ko",
		RelativeHours: []string{
			`(\d+)\s*시간\s*(?:후|뒤|이후)`,
		},
		WallClock: []string{
			`(?P<meridiem>오전|오후)\s*(?P<hour>\d{1,2})\s*시\s*(?P<half>반|30\s*분)?`,
		},
		Meridiem:         map[string]string{"오전": "am", "오후": "pm"},
		Tomorrow:         []string{"내일"},
		DayAfterTomorrow: []string{"내일모레", "모레"},
		Qualifiers: []PeriodWords{
			{Words: []string{"아침"}, Hour: 7},
			{Words: []string{"오전"}, Hour: 9},
			{Words: []string{"오후"}, Hour: 15},
			{Words: []string{"저녁"}, Hour: 18},
			{Words: []string{"밤"}, Hour: 22},
		},
		Periods: []PeriodWords{
			{Words: []string{"심야", "한밤"}, Hour: 23},
			{Words: []string{"저녁"}, Hour: 18},
			{Words: []string{"밤"}, Hour: 22},
		},
		Morning: PeriodWords{Words: []string{"아침"}, Hour: 7},
		FullDay: []string{"하루종일", "온종일", "종일", "하루", "24시간", "오늘 날씨"},

		ForecastWords: []string{"예보", "나중", "앞으로", "미래"},
		SummaryWords:  []string{"전체", "종합", "자세히", "상세"},
	}
}

// EnglishVocabulary is the English rendition of the same rules.
func EnglishVocabulary() Vocabulary {
	return Vocabulary{
		Name: "en",
		RelativeHours: []string{
			`(\d+)\s*(?:hours?|hrs?)\s*(?:later|after|from now)`,
			`in\s+(\d+)\s*(?:hours?|hrs?)\b`,
		},
		WallClock: []string{
			`\b(?P<meridiem>am|pm)\s*(?P<hour>\d{1,2})\s*o'?clock(?:\s*,?\s*(?P<half>half))?`,
			`\b(?P<hour>\d{1,2})(?::(?P<half>30))?\s*(?P<meridiem>am|pm)\b`,
		},
		Meridiem:         map[string]string{"am": "am", "pm": "pm"},
		Tomorrow:         []string{"tomorrow"},
		DayAfterTomorrow: []string{"day after tomorrow", "overmorrow"},
		Qualifiers: []PeriodWords{
			{Words: []string{"morning"}, Hour: 7},
			{Words: []string{"forenoon", "before noon"}, Hour: 9},
			{Words: []string{"afternoon"}, Hour: 15},
			{Words: []string{"evening"}, Hour: 18},
			{Words: []string{"night"}, Hour: 22},
		},
		Periods: []PeriodWords{
			{Words: []string{"late night", "late-night", "midnight"}, Hour: 23},
			{Words: []string{"evening"}, Hour: 18},
			{Words: []string{"tonight", "night"}, Hour: 22},
		},
		Morning: PeriodWords{Words: []string{"morning"}, Hour: 7},
		FullDay: []string{"all day", "all-day", "whole day", "entire day", "today's weather"},

		ForecastWords: []string{"forecast", "later", "ahead", "future"},
		SummaryWords:  []string{"overall", "detailed", "in detail", "summary"},
	}
}
