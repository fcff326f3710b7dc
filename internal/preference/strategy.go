package preference

import "strings"

// GenreStrategy infers genre labels from lower-cased review text.
type GenreStrategy interface {
	Genres(text string) []string
}

// KeywordRule maps a genre label to the phrases that signal it.
type KeywordRule struct {
	Genre    string
	Keywords []string
}

// KeywordStrategy reports every genre with at least one phrase present in
// the text, in rule order.
type KeywordStrategy []KeywordRule

func (s KeywordStrategy) Genres(text string) []string {
	var out []string
	for _, rule := range s {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				out = append(out, rule.Genre)
				break
			}
		}
	}
	return out
}

// DefaultKeywords is the built-in review vocabulary.
func DefaultKeywords() KeywordStrategy {
	return KeywordStrategy{
		{Genre: "action", Keywords: []string{"action", "explosion", "fight scene", "adrenaline", "stunts"}},
		{Genre: "comedy", Keywords: []string{"funny", "hilarious", "laugh", "comedy", "humor", "humour"}},
		{Genre: "drama", Keywords: []string{"drama", "emotional", "moving", "tearjerker", "powerful performance"}},
		{Genre: "horror", Keywords: []string{"scary", "horror", "terrifying", "creepy", "frightening", "jump scare"}},
		{Genre: "romance", Keywords: []string{"romance", "romantic", "love story", "chemistry"}},
		{Genre: "science fiction", Keywords: []string{"sci-fi", "science fiction", "space", "futuristic", "aliens"}},
		{Genre: "thriller", Keywords: []string{"thriller", "suspense", "tense", "edge of my seat", "twist"}},
		{Genre: "animation", Keywords: []string{"animated", "animation", "pixar", "anime"}},
		{Genre: "fantasy", Keywords: []string{"fantasy", "magic", "dragons", "wizard"}},
		{Genre: "mystery", Keywords: []string{"mystery", "whodunit", "detective"}},
	}
}

// queryKeywords maps words in a free-text request to search genres.
var queryKeywords = KeywordStrategy{
	{Genre: "horror", Keywords: []string{"horror"}},
	{Genre: "thriller", Keywords: []string{"thriller"}},
	{Genre: "comedy", Keywords: []string{"comedy"}},
	{Genre: "action", Keywords: []string{"action"}},
	{Genre: "science fiction", Keywords: []string{"sci-fi"}},
	{Genre: "drama", Keywords: []string{"drama"}},
	{Genre: "romance", Keywords: []string{"romance"}},
}

// SearchGenres merges genres named in the query with the profile's,
// profile first, without duplicates.
func SearchGenres(query string, p TasteProfile) []string {
	out := make([]string, 0, len(p.Genres))
	seen := make(map[string]bool)
	add := func(g string) {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	for _, g := range p.Genres {
		add(g)
	}
	for _, g := range queryKeywords.Genres(strings.ToLower(query)) {
		add(g)
	}
	return out
}
