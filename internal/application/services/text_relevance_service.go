package services

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/savdohub/ranking-engine/internal/domain/entities"
)

// Fixed bonuses of the lexical relevance formula. The exact query
// substring outweighs any expanded variation, and a hit in the title
// outweighs one in the description.
const (
	exactTitleBonus       = 50.0
	exactDescriptionBonus = 20.0
	variationTitleBonus   = 30.0
	variationDescBonus    = 10.0

	// Deterministic extra heuristics: a condition keyword shared by
	// query and title, and listings fresher than a week.
	conditionBonus    = 5.0
	freshListingBonus = 5.0
	freshListingAge   = 7 * 24 * time.Hour
)

// conditionKeywords are item-condition words buyers put into queries
var conditionKeywords = []string{"yangi", "new", "новый", "ishlatilgan", "б/у"}

// defaultSynonymGroups covers the transliteration pairs and brand
// aliases the marketplace sees most. Every member of a group expands
// to the rest of the group.
var defaultSynonymGroups = [][]string{
	{"krossovka", "krosovka", "krasovka", "sneaker", "кроссовки"},
	{"nike", "найк", "nayk"},
	{"adidas", "адидас"},
	{"telefon", "phone", "телефон"},
	{"kurtka", "куртка", "jacket"},
	{"futbolka", "футболка", "t-shirt"},
	{"sumka", "сумка", "bag"},
	{"noutbuk", "notebook", "ноутбук", "laptop"},
	{"soat", "часы", "watch"},
	{"telegram-bot", "tg-bot", "телеграм-бот"},
}

// TextRelevanceService scores how well a free-text query matches a
// listing's text fields, expanding the query with synonyms, brand
// aliases and transliteration variants.
type TextRelevanceService struct {
	synonyms map[string][]string
	mu       sync.RWMutex
}

// NewTextRelevanceService creates a scorer with the compiled-in
// synonym table
func NewTextRelevanceService() *TextRelevanceService {
	s := &TextRelevanceService{
		synonyms: make(map[string][]string),
	}
	for _, group := range defaultSynonymGroups {
		s.addGroup(group)
	}
	return s
}

// NewTextRelevanceServiceFromFile extends the compiled-in table with
// term mappings from a JSON file of the form {"term": ["variant", ...]}
func NewTextRelevanceServiceFromFile(path string) (*TextRelevanceService, error) {
	s := NewTextRelevanceService()
	if err := s.loadConfig(path); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *TextRelevanceService) loadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var mappings map[string][]string
	if err := json.Unmarshal(data, &mappings); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for term, variants := range mappings {
		group := append([]string{strings.ToLower(term)}, variants...)
		s.addGroupLocked(group)
	}
	return nil
}

func (s *TextRelevanceService) addGroup(group []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addGroupLocked(group)
}

func (s *TextRelevanceService) addGroupLocked(group []string) {
	for _, term := range group {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		for _, other := range group {
			other = strings.ToLower(strings.TrimSpace(other))
			if other == "" || other == term {
				continue
			}
			if !containsString(s.synonyms[term], other) {
				s.synonyms[term] = append(s.synonyms[term], other)
			}
		}
	}
}

// Score scores the query against a listing's title and description.
// An empty (or punctuation-only) query scores zero; callers skip
// relevance entirely in that case and fall back to secondary order.
func (s *TextRelevanceService) Score(query string, listing *entities.Listing) float64 {
	return s.ScoreAt(query, listing, time.Now())
}

// ScoreAt is Score with an explicit clock, so the recency bonus stays
// deterministic under test
func (s *TextRelevanceService) ScoreAt(query string, listing *entities.Listing, now time.Time) float64 {
	query = NormalizeQuery(query)
	if query == "" || listing == nil {
		return 0
	}

	title := strings.ToLower(listing.Title)
	description := strings.ToLower(listing.Description)

	score := 0.0

	// Exact substring match, title first
	if strings.Contains(title, query) {
		score += exactTitleBonus
	} else if strings.Contains(description, query) {
		score += exactDescriptionBonus
	}

	// Each variation is checked independently and its bonuses summed
	for _, variation := range s.Variations(query) {
		if strings.Contains(title, variation) {
			score += variationTitleBonus
		} else if strings.Contains(description, variation) {
			score += variationDescBonus
		}
	}

	for _, keyword := range conditionKeywords {
		if strings.Contains(query, keyword) && strings.Contains(title, keyword) {
			score += conditionBonus
			break
		}
	}

	if !listing.CreatedAt.IsZero() && now.Sub(listing.CreatedAt) <= freshListingAge {
		score += freshListingBonus
	}

	return score
}

// Variations returns the synonym/transliteration expansion of the
// query: expansions of the whole query plus expansions of each token.
// The query itself is not included.
func (s *TextRelevanceService) Variations(query string) []string {
	query = NormalizeQuery(query)
	if query == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var variations []string
	seen := map[string]bool{query: true}

	terms := append([]string{query}, strings.Fields(query)...)
	for _, term := range terms {
		for _, variant := range s.synonyms[term] {
			if !seen[variant] {
				variations = append(variations, variant)
				seen[variant] = true
			}
		}
	}

	return variations
}

// NormalizeQuery lowercases and trims a query. A query left without a
// single letter or digit normalizes to empty and is treated the same
// as no query at all.
func NormalizeQuery(query string) string {
	query = strings.ToLower(strings.TrimSpace(query))
	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return query
		}
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
