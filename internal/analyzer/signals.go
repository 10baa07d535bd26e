package analyzer

import "strings"

// Strong guest-post signals and their weights. A page must carry at least
// one of these (or an LLM-confirmed equivalent) to pass the opportunity gate.
const (
	writeForUsWeight = 0.50
	guidelinesWeight = 0.35
	guestPostWeight  = 0.30

	// llmSignalWeight is credited when the optional LLM check confirms a
	// guest-post signal that the phrase scan missed.
	llmSignalWeight = 0.30
)

var (
	writeForUsPhrases = []string{
		"write for us",
		"write for me",
	}
	guidelinePhrases = []string{
		"submission guidelines",
		"contributor guidelines",
		"editorial guidelines",
		"submit your article",
		"submit a post",
	}
	guestPostPhrases = []string{
		"guest post",
		"guest article",
		"guest author",
		"guest contributor",
	}
)

// signalSet records which strong signals a page carries.
type signalSet struct {
	WriteForUs bool
	Guidelines bool
	GuestPost  bool
	LLM        bool
}

// Any reports whether at least one strong signal is present.
func (s signalSet) Any() bool {
	return s.WriteForUs || s.Guidelines || s.GuestPost || s.LLM
}

// Weight returns the weighted signal score, capped at 1.0.
func (s signalSet) Weight() float64 {
	w := 0.0
	if s.WriteForUs {
		w += writeForUsWeight
	}
	if s.Guidelines {
		w += guidelinesWeight
	}
	if s.GuestPost {
		w += guestPostWeight
	}
	if s.LLM {
		w += llmSignalWeight
	}
	if w > 1 {
		w = 1
	}
	return w
}

// detectSignals scans title+content for strong guest-post phrases.
func detectSignals(title, content string) signalSet {
	text := strings.ToLower(title + " " + content)

	var s signalSet
	for _, p := range writeForUsPhrases {
		if strings.Contains(text, p) {
			s.WriteForUs = true
			break
		}
	}
	for _, p := range guidelinePhrases {
		if strings.Contains(text, p) {
			s.Guidelines = true
			break
		}
	}
	for _, p := range guestPostPhrases {
		if strings.Contains(text, p) {
			s.GuestPost = true
			break
		}
	}
	return s
}
