package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/entities"
	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/providers"
)

// SignalExtractionService turns a raw utterance into structured filter
// signals using phrase rules and a service-term vocabulary. It implements
// the SignalExtractor collaborator without a model call, so extraction is
// deterministic and cheap enough to run on every turn.
type SignalExtractionService struct {
	serviceVocab   map[string]string   // matched phrase → canonical term
	multiWordIndex map[string][]string // first word → full multi-word keys
	carrierVocab   map[string]string   // matched phrase → canonical carrier
	cache          providers.CacheProvider
	cacheSeconds   int
}

var nonAlphaNumSignal = regexp.MustCompile(`[^\p{L}\p{N}\s\-'/]`)

var (
	locationPattern     = regexp.MustCompile(`(?i)\b(?:in|near|around|close to)\s+([a-z][a-z\s]{1,40}?)(?:$|,|\.|\band\b|\bthat\b|\bwith\b)`)
	providerRefPattern  = regexp.MustCompile(`\b(?i:what about|how about|tell me (?:more )?about|is|does)\s+(?:the\s+)?([A-Z][\w'&.-]*(?:\s+[A-Z][\w'&.-]*)+)`)
	extractionCacheOnce sync.Once
	extractionCounter   metric.Int64Counter
)

// Phrases that set or clear boolean filter fields. Order within a list does
// not matter; when both a set and a retract phrase appear in one utterance,
// the retract wins for that field.
var (
	freeSetPhrases      = []string{"free", "no cost", "at no cost", "without paying", "can't afford", "cannot afford"}
	freeRetractPhrases  = []string{"doesn't have to be free", "does not have to be free", "willing to pay", "don't need it to be free", "any price"}
	uninsuredPhrases    = []string{"no insurance", "without insurance", "uninsured", "self pay", "self-pay", "don't have insurance", "do not have insurance"}
	telehealthPhrases   = []string{"telehealth", "virtual visit", "video visit", "online visit", "remote visit", "virtual appointment"}
	inPersonPhrases     = []string{"in person", "in-person"}
	noSSNPhrases        = []string{"no ssn", "without ssn", "without a ssn", "no social security", "without a social security"}
	resetSearchPhrases  = []string{"start over", "new search", "forget all that", "clear everything"}
	resetServicePhrases = []string{"instead", "actually i need", "forget the", "never mind the"}
)

var defaultServiceVocab = map[string]string{
	"std testing":       "std testing",
	"std test":          "std testing",
	"sti testing":       "std testing",
	"hiv testing":       "hiv testing",
	"hiv test":          "hiv testing",
	"hiv counseling":    "hiv counseling",
	"counseling":        "counseling",
	"therapy":           "counseling",
	"mental health":     "counseling",
	"dental cleaning":   "dental cleaning",
	"dental":            "dental cleaning",
	"teeth cleaning":    "dental cleaning",
	"vaccination":       "vaccination",
	"vaccine":           "vaccination",
	"immunization":      "vaccination",
	"flu shot":          "flu shot",
	"mammogram":         "mammogram",
	"pap smear":         "pap smear",
	"prenatal care":     "prenatal care",
	"prenatal":          "prenatal care",
	"birth control":     "contraception",
	"contraception":     "contraception",
	"physical therapy":  "physical therapy",
	"urgent care":       "urgent care",
	"primary care":      "primary care",
	"checkup":           "primary care",
	"check up":          "primary care",
	"blood test":        "blood test",
	"blood work":        "blood test",
	"x-ray":             "x-ray",
	"xray":              "x-ray",
	"ultrasound":        "ultrasound",
	"pregnancy test":    "pregnancy test",
	"substance abuse":   "substance abuse treatment",
	"addiction":         "substance abuse treatment",
	"eye exam":          "eye exam",
	"vision test":       "eye exam",
	"dermatology":       "dermatology",
	"skin check":        "dermatology",
	"pediatric care":    "pediatric care",
	"pediatrician":      "pediatric care",
	"women's health":    "women's health",
	"wellness exam":     "primary care",
	"diabetes":          "diabetes management",
	"blood pressure":    "blood pressure screening",
	"cholesterol":       "cholesterol screening",
	"cancer screening":  "cancer screening",
	"colonoscopy":       "colonoscopy",
	"hepatitis testing": "hepatitis testing",
	"tb test":           "tb test",
	"tuberculosis test": "tb test",
}

var defaultCarrierVocab = map[string]string{
	"aetna":             "Aetna",
	"cigna":             "Cigna",
	"blue cross":        "Blue Cross Blue Shield",
	"blue shield":       "Blue Cross Blue Shield",
	"bcbs":              "Blue Cross Blue Shield",
	"united healthcare": "UnitedHealthcare",
	"unitedhealthcare":  "UnitedHealthcare",
	"kaiser":            "Kaiser Permanente",
	"humana":            "Humana",
	"anthem":            "Anthem",
	"ambetter":          "Ambetter",
	"molina":            "Molina Healthcare",
}

// NewSignalExtractionService creates a rule-based extractor with the built-in
// vocabularies.
func NewSignalExtractionService() *SignalExtractionService {
	svc := &SignalExtractionService{
		serviceVocab:   make(map[string]string, len(defaultServiceVocab)),
		multiWordIndex: make(map[string][]string),
		carrierVocab:   defaultCarrierVocab,
		cacheSeconds:   3600,
	}
	for key, canonical := range defaultServiceVocab {
		k := strings.ToLower(strings.TrimSpace(key))
		svc.serviceVocab[k] = canonical
		words := strings.Fields(k)
		if len(words) > 1 {
			svc.multiWordIndex[words[0]] = append(svc.multiWordIndex[words[0]], k)
		}
	}
	return svc
}

// SetCache enables caching of extraction results.
func (s *SignalExtractionService) SetCache(cache providers.CacheProvider, expirationSeconds int) {
	s.cache = cache
	if expirationSeconds > 0 {
		s.cacheSeconds = expirationSeconds
	}
}

// Extract parses one utterance into filter signals. An utterance that carries
// no recognizable signal yields empty signals, never an error.
func (s *SignalExtractionService) Extract(ctx context.Context, utterance string) (*entities.ExtractedSignals, error) {
	normalized := s.normalize(utterance)
	if normalized == "" {
		return &entities.ExtractedSignals{}, nil
	}

	cacheKey := "signals:v1:" + normalized
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil && len(data) > 0 {
			var cached entities.ExtractedSignals
			if json.Unmarshal(data, &cached) == nil {
				return &cached, nil
			}
		}
	}

	signals := &entities.ExtractedSignals{}

	s.extractBooleans(normalized, signals)
	s.extractResets(normalized, signals)
	s.extractCarriers(normalized, signals)
	s.extractLocation(utterance, signals)
	s.extractProviderReference(utterance, signals)
	signals.ServiceTerms = s.extractServiceTerms(normalized)

	s.recordExtraction(ctx, signals)

	if s.cache != nil {
		if data, err := json.Marshal(signals); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.cacheSeconds)
		}
	}

	return signals, nil
}

func (s *SignalExtractionService) normalize(utterance string) string {
	q := strings.ToLower(strings.TrimSpace(utterance))
	q = nonAlphaNumSignal.ReplaceAllString(q, "")
	return strings.Join(strings.Fields(q), " ")
}

func (s *SignalExtractionService) extractBooleans(normalized string, signals *entities.ExtractedSignals) {
	if containsAny(normalized, freeRetractPhrases) {
		signals.FreeOnly = entities.RetractSignal()
	} else if containsAny(normalized, freeSetPhrases) {
		signals.FreeOnly = entities.SetSignal(true)
	}

	if strings.Contains(normalized, "medicaid") {
		if strings.Contains(normalized, "don't have medicaid") || strings.Contains(normalized, "no medicaid") {
			signals.AcceptsMedicaid = entities.RetractSignal()
		} else {
			signals.AcceptsMedicaid = entities.SetSignal(true)
		}
	}
	if strings.Contains(normalized, "medicare") {
		signals.AcceptsMedicare = entities.SetSignal(true)
	}
	if containsAny(normalized, uninsuredPhrases) {
		signals.AcceptsUninsured = entities.SetSignal(true)
	}

	if containsAny(normalized, inPersonPhrases) {
		signals.TelehealthAvailable = entities.SetSignal(false)
	} else if containsAny(normalized, telehealthPhrases) {
		signals.TelehealthAvailable = entities.SetSignal(true)
	}

	if containsAny(normalized, noSSNPhrases) {
		signals.SSNRequired = entities.SetSignal(false)
	}
}

func (s *SignalExtractionService) extractResets(normalized string, signals *entities.ExtractedSignals) {
	if containsAny(normalized, resetSearchPhrases) {
		signals.ResetServiceTerms = true
		signals.ResetInsurance = true
		return
	}
	if containsAny(normalized, resetServicePhrases) {
		signals.ResetServiceTerms = true
	}
}

func (s *SignalExtractionService) extractCarriers(normalized string, signals *entities.ExtractedSignals) {
	seen := make(map[string]struct{})
	for phrase, canonical := range s.carrierVocab {
		if !strings.Contains(normalized, phrase) {
			continue
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		signals.InsuranceProviders = append(signals.InsuranceProviders, canonical)
	}
}

func (s *SignalExtractionService) extractLocation(utterance string, signals *entities.ExtractedSignals) {
	matches := locationPattern.FindStringSubmatch(utterance)
	if len(matches) < 2 {
		return
	}
	loc := strings.TrimSpace(matches[1])
	// "near me", "in person", "in network" are cues, not place names.
	switch strings.ToLower(loc) {
	case "", "me", "here", "person", "network", "my area":
		return
	}
	signals.LocationText = &loc
}

func (s *SignalExtractionService) extractProviderReference(utterance string, signals *entities.ExtractedSignals) {
	matches := providerRefPattern.FindStringSubmatch(utterance)
	if len(matches) < 2 {
		return
	}
	signals.ProviderNameReference = strings.TrimSpace(matches[1])
}

// extractServiceTerms matches the vocabulary against the utterance, longest
// phrase first so "hiv testing" wins over "hiv".
func (s *SignalExtractionService) extractServiceTerms(normalized string) []string {
	words := strings.Fields(normalized)
	matched := make(map[int]bool)
	seen := make(map[string]struct{})
	var terms []string

	add := func(canonical string) {
		if _, ok := seen[canonical]; ok {
			return
		}
		seen[canonical] = struct{}{}
		terms = append(terms, canonical)
	}

	for i := 0; i < len(words); i++ {
		if matched[i] {
			continue
		}
		if candidates, ok := s.multiWordIndex[words[i]]; ok {
			bestLen := 0
			bestCanonical := ""
			for _, phrase := range candidates {
				phraseWords := strings.Fields(phrase)
				if i+len(phraseWords) > len(words) {
					continue
				}
				if strings.Join(words[i:i+len(phraseWords)], " ") == phrase && len(phraseWords) > bestLen {
					bestLen = len(phraseWords)
					bestCanonical = s.serviceVocab[phrase]
				}
			}
			if bestCanonical != "" {
				add(bestCanonical)
				for j := i; j < i+bestLen; j++ {
					matched[j] = true
				}
				i += bestLen - 1
				continue
			}
		}
		if canonical, ok := s.serviceVocab[words[i]]; ok {
			add(canonical)
			matched[i] = true
		}
	}

	return terms
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func initExtractionCounter() {
	meter := otel.Meter("github.com/zatekoja/Providerdiscoveryengine/signal_extraction")
	counter, err := meter.Int64Counter(
		"discovery.signals_extracted.count",
		metric.WithDescription("Count of utterances processed by the signal extractor"),
	)
	if err == nil {
		extractionCounter = counter
	}
}

func (s *SignalExtractionService) recordExtraction(ctx context.Context, signals *entities.ExtractedSignals) {
	extractionCacheOnce.Do(initExtractionCounter)
	if extractionCounter == nil {
		return
	}
	extractionCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("signals.empty", signals.IsEmpty())),
	)
}
