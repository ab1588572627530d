package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/okian/witarcade/internal/domain/catalog"
)

type catalogResponse struct {
	Players []catalog.Entity `json:"players"`
}

type suggestResponse struct {
	Query string   `json:"query"`
	Names []string `json:"names"`
}

// CatalogHandler serves the entity list and autocomplete.
type CatalogHandler struct {
	catalog Catalog
	suggest Suggester
}

// NewCatalogHandler creates a catalog handler. suggest may be nil.
func NewCatalogHandler(c Catalog, s Suggester) *CatalogHandler {
	return &CatalogHandler{catalog: c, suggest: s}
}

// HandleCatalog handles GET /api/catalog.
func (h *CatalogHandler) HandleCatalog(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, catalogResponse{Players: h.catalog.Entities()})
}

// HandleSuggest handles GET /api/suggest?q=.
func (h *CatalogHandler) HandleSuggest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query().Get("q")
	names := []string{}
	if h.suggest != nil {
		if got := h.suggest.Query(q); got != nil {
			names = got
		}
	}
	writeJSON(w, http.StatusOK, suggestResponse{Query: q, Names: names})
}
