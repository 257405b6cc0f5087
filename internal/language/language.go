package language

import "strings"

type entry struct {
	code2   string // ISO 639-1
	code3   string // ISO 639-2/T
	alt3    string // ISO 639-2/B when it differs ("fre" vs "fra")
	display string
}

var languages = []entry{
	{"en", "eng", "", "English"},
	{"es", "spa", "", "Spanish"},
	{"fr", "fra", "fre", "French"},
	{"de", "deu", "ger", "German"},
	{"it", "ita", "", "Italian"},
	{"pt", "por", "", "Portuguese"},
	{"ja", "jpn", "", "Japanese"},
	{"ko", "kor", "", "Korean"},
	{"zh", "zho", "chi", "Chinese"},
	{"ru", "rus", "", "Russian"},
	{"ar", "ara", "", "Arabic"},
	{"hi", "hin", "", "Hindi"},
	{"nl", "nld", "dut", "Dutch"},
	{"pl", "pol", "", "Polish"},
	{"sv", "swe", "", "Swedish"},
	{"da", "dan", "", "Danish"},
	{"no", "nor", "", "Norwegian"},
	{"fi", "fin", "", "Finnish"},
	{"tr", "tur", "", "Turkish"},
	{"uk", "ukr", "", "Ukrainian"},
}

var index = func() map[string]*entry {
	m := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		m[e.code2] = e
		m[e.code3] = e
		if e.alt3 != "" {
			m[e.alt3] = e
		}
		m[strings.ToLower(e.display)] = e
	}
	return m
}()

func lookup(code string) *entry {
	return index[strings.ToLower(strings.TrimSpace(code))]
}

// Normalize maps value to a lowercase speech language tag. The primary subtag
// becomes ISO 639-1 and a region suffix is kept: "ENG" is "en", "pt_BR" is
// "pt-br". Unknown two-letter codes pass through; anything else reports false.
func Normalize(value string) (string, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", false
	}
	primary, region, _ := strings.Cut(strings.ReplaceAll(value, "_", "-"), "-")
	code := ""
	if e := lookup(primary); e != nil {
		code = e.code2
	} else if len(primary) == 2 {
		code = primary
	}
	if code == "" {
		return "", false
	}
	if region != "" {
		return code + "-" + region, true
	}
	return code, true
}

// DisplayName returns a human-readable name for a recognized code or tag, or
// the uppercased input otherwise.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "Unknown"
	}
	primary, _, _ := strings.Cut(strings.ReplaceAll(code, "_", "-"), "-")
	if e := lookup(primary); e != nil {
		return e.display
	}
	return strings.ToUpper(code)
}
