package memtypes

import (
	"encoding/json"
	"time"
)

// MemoryType distinguishes the two kinds of stored memory.
type MemoryType string

const (
	TypeUserReview   MemoryType = "user_review"
	TypeConversation MemoryType = "conversation"
)

// Valid reports whether t is one of the known memory types.
func (t MemoryType) Valid() bool {
	return t == TypeUserReview || t == TypeConversation
}

// StoredMemory is a review or a conversation turn with its embedding.
// Rows are written once and never updated.
type StoredMemory struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	MemoryType MemoryType `json:"memory_type"`
	Document   string     `json:"document"`

	// user_review payload
	MovieTitle string   `json:"movie_title,omitempty"`
	ReviewText string   `json:"review_text,omitempty"`
	Rating     *float64 `json:"rating,omitempty"`

	// conversation payload
	QueryText    string `json:"query_text,omitempty"`
	ResponseText string `json:"response_text,omitempty"`
	AgentType    string `json:"agent_type,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	Provider  string    `json:"provider"`
	ModelID   string    `json:"model_id"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"-"`
}

// Metadata flattens the type-specific payload into a map, the shape callers
// receive alongside a similarity hit.
func (m StoredMemory) Metadata() map[string]any {
	md := map[string]any{
		"user_id":     m.UserID,
		"memory_type": string(m.MemoryType),
		"timestamp":   m.CreatedAt.UTC().Format(time.RFC3339),
	}
	switch m.MemoryType {
	case TypeUserReview:
		md["movie_title"] = m.MovieTitle
		md["review_text"] = m.ReviewText
		if m.Rating != nil {
			md["rating"] = *m.Rating
		}
	case TypeConversation:
		md["query"] = m.QueryText
		md["response"] = m.ResponseText
		md["agent_type"] = m.AgentType
	}
	return md
}

// SearchResult is a stored memory with its similarity to the query.
type SearchResult struct {
	Item       StoredMemory `json:"item"`
	Similarity float64      `json:"similarity"`
}

// MemoryFilter constrains a similarity search or listing.
type MemoryFilter struct {
	UserID     string
	MemoryType MemoryType
}

// ContentRow is a catalog entry as persisted by a content store. Fields are
// kept close to the upstream shape; normalization happens in the catalog
// package.
type ContentRow struct {
	ExternalID  string          `json:"external_id"`
	Title       string          `json:"title"`
	Overview    string          `json:"overview"`
	ReleaseDate string          `json:"release_date"`
	Rating      float64         `json:"rating"`
	Genres      json.RawMessage `json:"genres"`
	PosterPath  string          `json:"poster_path"`
	Source      string          `json:"source"`
	Embedding   []float32       `json:"-"`
}

// ContentSearchResult is a catalog row with its similarity to the query.
type ContentSearchResult struct {
	Row        ContentRow `json:"row"`
	Similarity float64    `json:"similarity"`
}
