package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"

	"github.com/ingeniar/bizgen/api/http/presenter"
	"github.com/ingeniar/bizgen/pkg/business"
)

type GenerateHandler struct {
	svc business.GenerationService
	// Limit uploaded file size read into memory (bytes)
	maxBytes int64
}

func NewGenerateHandler(svc business.GenerationService, maxBytes int64) *GenerateHandler {
	return &GenerateHandler{svc: svc, maxBytes: maxBytes}
}

// Mode returns a handler bound to one catalog mode.
func (h *GenerateHandler) Mode(id string) fiber.Handler {
	return func(c *fiber.Ctx) error { return h.generate(c, id) }
}

// Generate runs any catalog mode named in the path.
// @Summary Generate text for a mode
// @Description Validates the form of the mode, builds its prompt and returns the model text verbatim.
// @Description Modes: ideas, business-model, financial-plan, idea-validation. JSON or multipart (financial-plan accepts a "document" file).
// @Tags    generation
// @Accept  json
// @Accept  multipart/form-data
// @Produce json
// @Param   mode path  string true  "Mode id"
// @Param   lang query string false "Locale (es, en)"
// @Security BearerAuth
// @Success 200 {object} business.Result
// @Failure 400 {object} presenter.ErrorResponse "Missing or invalid fields"
// @Failure 404 {object} presenter.ErrorResponse "Unknown mode"
// @Failure 502 {object} presenter.ErrorResponse "Model call failed"
// @Router  /generate/{mode} [post]
func (h *GenerateHandler) Generate(c *fiber.Ctx) error {
	return h.generate(c, c.Params("mode"))
}

func (h *GenerateHandler) generate(c *fiber.Ctx, modeID string) error {
	m, ok := h.svc.Catalog().Mode(modeID)
	if !ok {
		return presenter.GenerationError(c, fmt.Errorf("%w: %q", business.ErrUnknownMode, modeID))
	}
	raw, err := h.readInput(c, m)
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Generate(c.UserContext(), business.Request{
		Mode:   m.ID,
		Locale: negotiateLocale(c, h.svc.Catalog()),
		Input:  raw,
	})
	if err != nil {
		return presenter.GenerationError(c, err)
	}
	return presenter.Result(c, res)
}

func (h *GenerateHandler) readInput(c *fiber.Ctx, m *business.Mode) (business.RawInput, error) {
	raw := business.RawInput{Fields: make(map[string]string, len(m.Fields))}
	if c.Is("json") {
		fields, err := decodeJSONFields(c.Body())
		if err != nil {
			return raw, err
		}
		raw.Fields = fields
		return raw, nil
	}

	for _, f := range m.Fields {
		if f.Kind == business.KindDocument {
			fh, err := c.FormFile(f.Name)
			if err != nil || fh == nil {
				// optional upload, or not a multipart request
				continue
			}
			data, err := h.readUpload(fh)
			if err != nil {
				return raw, err
			}
			raw.Document = &business.Upload{Filename: fh.Filename, Data: data}
			continue
		}
		raw.Fields[f.Name] = c.FormValue(f.Name)
	}
	return raw, nil
}

func (h *GenerateHandler) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		return nil, fmt.Errorf("file too large: limit is %s", humanize.IBytes(uint64(h.maxBytes)))
	}
	file, err := fh.Open()
	if err != nil {
		return nil, errors.New("failed to open uploaded file")
	}
	defer file.Close()
	return readAtMost(file, h.maxBytes)
}

func readAtMost(f io.Reader, max int64) ([]byte, error) {
	limited := io.LimitReader(f, max+1)
	b, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(b)) > max {
		return nil, fmt.Errorf("file too large: limit is %s", humanize.IBytes(uint64(max)))
	}
	return b, nil
}

// decodeJSONFields flattens a JSON object of scalars into raw form strings.
func decodeJSONFields(body []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, errors.New("invalid JSON body: expected an object")
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case bool:
			out[k] = fmt.Sprint(val)
		default:
			return nil, fmt.Errorf("field %q must be a string or a number", k)
		}
	}
	return out, nil
}

func negotiateLocale(c *fiber.Ctx, catalog *business.Catalog) string {
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return lang
	}
	return c.AcceptsLanguages(catalog.Languages()...)
}
