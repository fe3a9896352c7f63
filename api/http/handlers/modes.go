package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ingeniar/bizgen/api/http/presenter"
	"github.com/ingeniar/bizgen/pkg/business"
	"github.com/ingeniar/bizgen/pkg/llm"
)

// ModesHandler describes the catalog so clients can render the forms.
type ModesHandler struct{ catalog *business.Catalog }

func NewModesHandler(catalog *business.Catalog) *ModesHandler { return &ModesHandler{catalog: catalog} }

type fieldView struct {
	business.Field
	Label string `json:"label"`
}

type modeView struct {
	ID          string               `json:"id"`
	Path        string               `json:"path"`
	Locale      string               `json:"locale"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Generation  llm.GenerationConfig `json:"generation"`
	Fields      []fieldView          `json:"fields"`
}

type modesResponse struct {
	Languages []string   `json:"languages"`
	Modes     []modeView `json:"modes"`
}

// List returns every mode with its fields, labelled in the negotiated locale.
// @Summary List generation modes
// @Tags    generation
// @Produce json
// @Param   lang query string false "Locale (es, en)"
// @Success 200 {object} modesResponse
// @Router  /modes [get]
func (h *ModesHandler) List(c *fiber.Ctx) error {
	requested := negotiateLocale(c, h.catalog)
	out := modesResponse{Languages: h.catalog.Languages()}
	for _, m := range h.catalog.Modes {
		lang, loc := m.Locale(requested)
		mv := modeView{
			ID:          m.ID,
			Path:        m.Path,
			Locale:      lang,
			Title:       loc.Title,
			Description: loc.Description,
			Generation:  m.Generation,
		}
		for _, f := range m.Fields {
			label := loc.Labels[f.Name]
			if label == "" {
				label = f.Name
			}
			mv.Fields = append(mv.Fields, fieldView{Field: f, Label: label})
		}
		out.Modes = append(out.Modes, mv)
	}
	return presenter.JSON(c, http.StatusOK, out)
}
