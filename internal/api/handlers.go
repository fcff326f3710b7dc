package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/austiecodes/curator/internal/agent"
	"github.com/austiecodes/curator/internal/catalog"
	"github.com/austiecodes/curator/internal/logging"
	"github.com/austiecodes/curator/internal/memory/retrieval"
	"github.com/austiecodes/curator/internal/types"
)

// Agents routes and dispatches queries. Results are never nil.
type Agents interface {
	Route(ctx context.Context, userID, query string) agent.Result
	Dispatch(ctx context.Context, label types.AgentType, userID, query string) agent.Result
}

// Content resolves catalog items for the content endpoints.
type Content interface {
	ByID(ctx context.Context, id string) (catalog.ContentItem, bool)
	ByQuery(ctx context.Context, text string, f catalog.Filters) ([]catalog.ContentItem, error)
}

type ReviewRecorder interface {
	RecordReview(ctx context.Context, in retrieval.ReviewInput) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type queryRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
	Query  string `json:"query" validate:"required,max=2000"`
}

func (q *queryRequest) normalize() {
	q.UserID = strings.TrimSpace(q.UserID)
	q.Query = strings.TrimSpace(q.Query)
}

type reviewRequest struct {
	UserID string   `json:"user_id" validate:"required,max=128"`
	Title  string   `json:"title" validate:"required,max=300"`
	Text   string   `json:"text" validate:"max=5000"`
	Rating *float64 `json:"rating" validate:"omitempty,min=0,max=10"`
}

func (q *reviewRequest) normalize() {
	q.UserID = strings.TrimSpace(q.UserID)
	q.Title = strings.TrimSpace(q.Title)
}

// Handler serves the HTTP API.
type Handler struct {
	agents  Agents
	content Content
	reviews ReviewRecorder
	store   Pinger
}

// NewHandler builds the API handlers over the pipeline and storage.
func NewHandler(agents Agents, content Content, reviews ReviewRecorder, store Pinger) *Handler {
	return &Handler{agents: agents, content: content, reviews: reviews, store: store}
}

// Recommend runs the movie recommender directly.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, types.AgentMovieRecommendation)
}

func (h *Handler) IdeaGeneration(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, types.AgentIdeaGeneration)
}

func (h *Handler) ShortsScript(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, types.AgentShortsScript)
}

func (h *Handler) CaptionOptimizer(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, types.AgentCaptionOptimizer)
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, label types.AgentType) {
	var req queryRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := logging.ContextWithUserID(r.Context(), req.UserID)
	respondJSON(w, http.StatusOK, h.agents.Dispatch(ctx, label, req.UserID, req.Query))
}

// Route classifies the query and answers with whichever agent it picks.
func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := logging.ContextWithUserID(r.Context(), req.UserID)
	respondJSON(w, http.StatusOK, h.agents.Route(ctx, req.UserID, req.Query))
}

// RecordReview stores a review synchronously.
func (h *Handler) RecordReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	err := h.reviews.RecordReview(r.Context(), retrieval.ReviewInput{
		UserID: req.UserID,
		Title:  req.Title,
		Text:   req.Text,
		Rating: req.Rating,
	})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to record review")
		respondError(w, http.StatusInternalServerError, "failed to record review")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "stored"})
}

type agentInfo struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

var agentEndpoints = map[types.AgentType]string{
	types.AgentMovieRecommendation: "/api/ai/recommend/personal",
	types.AgentIdeaGeneration:      "/api/ai/agent/idea-generation",
	types.AgentShortsScript:        "/api/ai/agent/shorts-script",
	types.AgentCaptionOptimizer:    "/api/ai/agent/caption-optimizer",
}

// Agents lists the agents that can be called directly.
func (h *Handler) Agents(w http.ResponseWriter, r *http.Request) {
	out := make([]agentInfo, 0, len(types.AgentTypes))
	for _, t := range types.AgentTypes {
		if ep, ok := agentEndpoints[t]; ok {
			out = append(out, agentInfo{Name: t.String(), Endpoint: ep})
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"available_agents": out,
		"auto_routing":     "/api/ai/agent/route",
	})
}

// Health reports store reachability and the endpoint map.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status, store := "healthy", "ok"
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			status, store = "degraded", err.Error()
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"service": "curator",
		"store":   store,
		"endpoints": map[string][]string{
			"recommendation": {"personal"},
			"agent":          {"route", "idea-generation", "shorts-script", "caption-optimizer"},
			"content":        {"search", "{id}"},
			"memory":         {"review"},
		},
	})
}

// SearchContent searches the catalog by text, genre and rating floor.
func (h *Handler) SearchContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filters{Limit: 10}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		f.Limit = n
	}
	if v := q.Get("min_rating"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 || n > 10 {
			respondError(w, http.StatusBadRequest, "min_rating must be between 0 and 10")
			return
		}
		f.MinRating = n
	}
	for _, g := range strings.Split(q.Get("genres"), ",") {
		if g = strings.TrimSpace(g); g != "" {
			f.Genres = append(f.Genres, g)
		}
	}

	items, err := h.content.ByQuery(r.Context(), strings.TrimSpace(q.Get("query")), f)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("content search failed")
		respondError(w, http.StatusBadGateway, "content search failed")
		return
	}
	if items == nil {
		items = []catalog.ContentItem{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": items, "count": len(items)})
}

// ContentByID returns one catalog item or 404.
func (h *Handler) ContentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}
	item, ok := h.content.ByID(r.Context(), id)
	if !ok {
		respondError(w, http.StatusNotFound, "content not found")
		return
	}
	respondJSON(w, http.StatusOK, item)
}
