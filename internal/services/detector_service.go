package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/pemistahl/lingua-go"
)

const (
	// Texts shorter than this carry too little signal for reliable
	// identification; they are reported with zero confidence so the
	// router ignores them.
	minTextLengthForDetection = 4
)

// DetectorService identifies the language of inbound messages.
type DetectorService struct {
	detector lingua.LanguageDetector
}

// NewDetectorService builds a detector over the relay's supported
// language set. Restricting the set keeps the preloaded models small
// and the confidence values meaningful.
func NewDetectorService() *DetectorService {
	languages := []lingua.Language{
		lingua.English, lingua.Spanish, lingua.French, lingua.German,
		lingua.Italian, lingua.Portuguese, lingua.Russian, lingua.Ukrainian,
		lingua.Arabic, lingua.Chinese, lingua.Japanese, lingua.Korean,
		lingua.Hindi, lingua.Turkish, lingua.Polish, lingua.Dutch,
	}

	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		WithPreloadedLanguageModels().
		Build()

	log.Printf("✅ Language detector initialized (%d languages)", len(languages))

	return &DetectorService{detector: detector}
}

// Detect returns the ISO 639-1 code of the most likely language of
// text together with a confidence in [0,1]. Texts below the minimum
// length are reported as English with zero confidence.
func (s *DetectorService) Detect(text string) (string, float64, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return "", 0, fmt.Errorf("%w: empty text", ErrDetection)
	}

	if len([]rune(cleaned)) < minTextLengthForDetection {
		return "en", 0, nil
	}

	values := s.detector.ComputeLanguageConfidenceValues(cleaned)
	if len(values) == 0 {
		return "", 0, fmt.Errorf("%w: no candidate languages", ErrDetection)
	}

	top := values[0]
	code := strings.ToLower(top.Language().IsoCode639_1().String())
	return code, top.Value(), nil
}
