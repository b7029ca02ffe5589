package http

import (
	"errors"
	"math/rand/v2"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/minevox/minevox-server/internal/core"
	"github.com/minevox/minevox-server/internal/proto"
	"github.com/minevox/minevox-server/internal/store"
)

// WorldHandlers serves the REST surface over the world catalog and the
// live broker.
type WorldHandlers struct {
	broker  *core.Broker
	catalog store.Catalog
	log     *zerolog.Logger
}

func NewWorldHandlers(broker *core.Broker, catalog store.Catalog, logger *zerolog.Logger) *WorldHandlers {
	return &WorldHandlers{broker: broker, catalog: catalog, log: logger}
}

// WorldResponse is one world in API responses. Active reports whether the
// broker currently hosts members in it.
type WorldResponse struct {
	Name        string `json:"name"`
	Seed        int64  `json:"seed"`
	Generator   string `json:"generator"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CreateWorldRequest is the create-world request body.
type CreateWorldRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=64"`
	Seed        *int64 `json:"seed"`
	Generator   string `json:"generator"`
	Description string `json:"description"`
}

// BroadcastRequest is the body for a server-originated text broadcast.
type BroadcastRequest struct {
	Text string `json:"text" binding:"required"`
}

// ListWorlds merges catalog definitions with the broker's live world set.
func (h *WorldHandlers) ListWorlds(c *gin.Context) {
	defs, err := h.catalog.ListWorlds(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list worlds failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list worlds"})
		return
	}

	liveNames, err := h.broker.WorldNames(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("broker world query failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list worlds"})
		return
	}
	live := make(map[string]bool, len(liveNames))
	for _, name := range liveNames {
		live[name] = true
	}

	worlds := make([]WorldResponse, 0, len(defs))
	for _, def := range defs {
		worlds = append(worlds, WorldResponse{
			Name:        def.Name,
			Seed:        def.Seed,
			Generator:   string(def.Generator),
			Description: def.Description,
			Active:      live[def.Name],
			CreatedAt:   def.CreatedAt.Format(time.RFC3339),
		})
		delete(live, def.Name)
	}
	// Live worlds without a definition still show up in the listing.
	for name := range live {
		worlds = append(worlds, WorldResponse{Name: name, Active: true})
	}
	sort.Slice(worlds, func(i, j int) bool { return worlds[i].Name < worlds[j].Name })

	c.JSON(http.StatusOK, gin.H{"worlds": worlds})
}

// CreateWorld registers a world definition ahead of any client joining it.
func (h *WorldHandlers) CreateWorld(c *gin.Context) {
	var req CreateWorldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	generator := store.GeneratorFlat
	if req.Generator != "" {
		parsed, ok := store.ParseGenerator(req.Generator)
		if !ok {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown generator"})
			return
		}
		generator = parsed
	}

	seed := rand.Int64()
	if req.Seed != nil {
		seed = *req.Seed
	}

	def, err := h.catalog.CreateWorld(c.Request.Context(), req.Name, seed, generator, req.Description)
	if err != nil {
		if errors.Is(err, store.ErrWorldExists) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "world already exists"})
			return
		}
		h.log.Error().Err(err).Str("world", req.Name).Msg("create world failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create world"})
		return
	}

	c.JSON(http.StatusCreated, WorldResponse{
		Name:        def.Name,
		Seed:        def.Seed,
		Generator:   string(def.Generator),
		Description: def.Description,
		CreatedAt:   def.CreatedAt.Format(time.RFC3339),
	})
}

// BroadcastChat relays a server-originated text message to every member of
// the named world. Queued fire-and-forget; an unknown world is a no-op at
// the broker.
func (h *WorldHandlers) BroadcastChat(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	h.broker.Chat(core.RelayChat{
		WorldName: c.Param("name"),
		Content:   &proto.Message{Type: proto.TypeText, Text: req.Text},
	})

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
