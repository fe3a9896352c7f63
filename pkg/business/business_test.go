package business

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingeniar/bizgen/pkg/llm"
)

type call struct {
	system string
	cfg    llm.GenerationConfig
	prompt string
}

type fakeModel struct {
	calls []call
	reply string
	err   error
}

func (f *fakeModel) Generate(_ context.Context, system string, cfg llm.GenerationConfig, prompt string) (string, error) {
	f.calls = append(f.calls, call{system: system, cfg: cfg, prompt: prompt})
	return f.reply, f.err
}

func (f *fakeModel) ModelName() string { return "fake-model" }

func mustCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	return c
}

func validFields(mode string) map[string]string {
	switch mode {
	case "ideas":
		return map[string]string{
			"interests":     "cocina saludable",
			"experience":    "5 años en restaurantes",
			"skills":        "gestión, marketing digital",
			"target_market": "jóvenes profesionales en Lima",
			"problems":      "falta de tiempo para cocinar",
		}
	case "business-model", "idea-validation":
		return map[string]string{"idea": "sell umbrellas"}
	case "financial-plan":
		return map[string]string{
			"fixed_income":    "1000",
			"variable_income": "0",
			"fixed_costs":     "400",
			"variable_costs":  "0",
			"currency":        "USD",
			"description":     "umbrella kiosk",
		}
	}
	return nil
}

func TestDefaultCatalog(t *testing.T) {
	c := mustCatalog(t)

	var ids, paths []string
	for _, m := range c.Modes {
		ids = append(ids, m.ID)
		paths = append(paths, m.Path)
	}
	assert.Equal(t, []string{"ideas", "business-model", "financial-plan", "idea-validation"}, ids)
	assert.Equal(t, []string{"/ideas", "/business-model", "/financial-plan", "/idea-validation"}, paths)
	assert.Equal(t, []string{"es", "en"}, c.Languages())

	m, ok := c.Mode("business-model")
	require.True(t, ok)
	if diff := cmp.Diff(llm.GenerationConfig{Temperature: 0.7, TopP: 0.95, TopK: 40, MaxOutputTokens: 4096}, m.Generation); diff != "" {
		t.Errorf("business-model generation config mismatch (-want +got):\n%s", diff)
	}
	m, _ = c.Mode("ideas")
	assert.Equal(t, 64, m.Generation.TopK)
	assert.Equal(t, 8192, m.Generation.MaxOutputTokens)
}

func TestMissingRequiredFieldNeverCallsModel(t *testing.T) {
	c := mustCatalog(t)
	for _, m := range c.Modes {
		for _, f := range m.Fields {
			if !f.Required {
				continue
			}
			for label, blank := range map[string]string{"empty": "", "spaces": "   "} {
				t.Run(m.ID+"/"+f.Name+"/"+label, func(t *testing.T) {
					fields := validFields(m.ID)
					fields[f.Name] = blank
					model := &fakeModel{reply: "unused"}
					svc := NewService(c, model, nil, 1000)

					_, err := svc.Generate(context.Background(), Request{Mode: m.ID, Input: RawInput{Fields: fields}})

					var verr *ValidationError
					require.ErrorAs(t, err, &verr)
					assert.Equal(t, []FieldError{{Field: f.Name, Message: "is required"}}, verr.Fields)
					assert.Empty(t, model.calls)
				})
			}
		}
	}
}

func TestCollectReportsEveryField(t *testing.T) {
	m, _ := mustCatalog(t).Mode("ideas")
	_, err := Collect(m, RawInput{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 5)
	assert.Equal(t, "interests", verr.Fields[0].Field)
	assert.Contains(t, err.Error(), "invalid input for ideas")
}

func TestCollectNumbers(t *testing.T) {
	m, _ := mustCatalog(t).Mode("financial-plan")
	tests := []struct {
		name      string
		override  map[string]string
		wantField string
		wantMsg   string
	}{
		{"negative income", map[string]string{"fixed_income": "-1"}, "fixed_income", "must be greater than or equal to 0"},
		{"negative costs", map[string]string{"variable_costs": "-0.01"}, "variable_costs", "must be greater than or equal to 0"},
		{"not a number", map[string]string{"fixed_costs": "cuatrocientos"}, "fixed_costs", "must be a number"},
		{"unknown currency", map[string]string{"currency": "GBP"}, "currency", "must be one of USD, PEN, EUR"},
		{"zero income", map[string]string{"fixed_income": "0", "variable_income": "0"}, "fixed_income+variable_income", "total income must be greater than 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validFields("financial-plan")
			for k, v := range tt.override {
				fields[k] = v
			}
			_, err := Collect(m, RawInput{Fields: fields})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, []FieldError{{Field: tt.wantField, Message: tt.wantMsg}}, verr.Fields)
		})
	}
}

func TestProfitability(t *testing.T) {
	m, _ := mustCatalog(t).Mode("financial-plan")
	tests := []struct {
		name                  string
		fi, vi, fc, vc        string
		wantIncome, wantCosts string
		want                  string
	}{
		{"simple surplus", "1000", "0", "400", "0", "1000", "400", "600"},
		{"all four fields", "1500.50", "200", "300.25", "100", "1700.5", "400.25", "1300.25"},
		{"loss", "100", "50", "200", "25", "150", "225", "-75"},
		{"exact decimals", "0.1", "0.2", "0.3", "0", "0.3", "0.3", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validFields("financial-plan")
			fields["fixed_income"], fields["variable_income"] = tt.fi, tt.vi
			fields["fixed_costs"], fields["variable_costs"] = tt.fc, tt.vc

			in, err := Collect(m, RawInput{Fields: fields})
			require.NoError(t, err)
			require.NotNil(t, in.Profitability)
			assert.Equal(t, tt.wantIncome, in.Profitability.Income.String())
			assert.Equal(t, tt.wantCosts, in.Profitability.Costs.String())
			assert.Equal(t, tt.want, in.Profitability.Profitability.String())
			assert.True(t, in.Values["profitability"].(decimal.Decimal).Equal(in.Profitability.Profitability))
		})
	}
}

func TestFinancialPromptIncludesProfitability(t *testing.T) {
	c := mustCatalog(t)
	model := &fakeModel{reply: "plan"}
	svc := NewService(c, model, nil, 1000)

	fields := validFields("financial-plan")
	fields["currency"] = "usd"
	res, err := svc.Generate(context.Background(), Request{Mode: "financial-plan", Locale: "es", Input: RawInput{Fields: fields}})

	require.NoError(t, err)
	require.Len(t, model.calls, 1)
	prompt := model.calls[0].prompt
	assert.Contains(t, prompt, "Rentabilidad estimada (ingresos - costos): 600 USD")
	assert.Contains(t, prompt, "Moneda: USD")
	assert.NotContains(t, prompt, "documento adjunto")
	assert.Equal(t, "600", res.Figures.Profitability.String())
	assert.Equal(t, "USD", res.Figures.Currency)
	assert.Nil(t, res.Document)
}

func TestBusinessModelPrompt(t *testing.T) {
	m, _ := mustCatalog(t).Mode("business-model")
	in, err := Collect(m, RawInput{Fields: map[string]string{"idea": "  sell umbrellas "}})
	require.NoError(t, err)

	labels := map[string][]string{
		"en": {"Value proposition", "Customer segments", "Revenue streams", "Key activities", "Key resources", "Channels"},
		"es": {"Propuesta de valor", "Segmentos de clientes", "Fuentes de ingresos", "Actividades clave", "Recursos clave", "Canales"},
	}
	for lang, want := range labels {
		t.Run(lang, func(t *testing.T) {
			prompt, err := BuildPrompt(m, lang, in)
			require.NoError(t, err)
			assert.Contains(t, prompt, "sell umbrellas")
			for _, label := range want {
				assert.Contains(t, prompt, "- "+label)
			}
		})
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	c := mustCatalog(t)
	for _, m := range c.Modes {
		in, err := Collect(m, RawInput{Fields: validFields(m.ID)})
		require.NoError(t, err)
		for _, lang := range c.Languages() {
			first, err := BuildPrompt(m, lang, in)
			require.NoError(t, err)
			again, err := BuildPrompt(m, lang, in)
			require.NoError(t, err)
			assert.Equal(t, first, again, "%s/%s", m.ID, lang)
			assert.NotContains(t, first, "<no value>")
		}
	}
}

func TestLocaleFallback(t *testing.T) {
	m, _ := mustCatalog(t).Mode("idea-validation")
	lang, loc := m.Locale("fr")
	assert.Equal(t, "es", lang)
	assert.Equal(t, "Error al validar la idea de negocio", loc.ErrorPrefix)

	lang, _ = m.Locale(" EN ")
	assert.Equal(t, "en", lang)
}

func TestServiceSuccess(t *testing.T) {
	c := mustCatalog(t)
	model := &fakeModel{reply: "## Canvas\n- Propuesta de valor: ..."}
	svc := NewService(c, model, nil, 1000)

	res, err := svc.Generate(context.Background(), Request{Mode: "business-model", Input: RawInput{Fields: validFields("business-model")}})

	require.NoError(t, err)
	assert.Equal(t, model.reply, res.Text)
	assert.Equal(t, "business-model", res.Mode)
	assert.Equal(t, "es", res.Locale)
	assert.Equal(t, "fake-model", res.Model)
	assert.Equal(t, "Modelo de Negocio Canvas Generado", res.Title)
	assert.NotEmpty(t, res.RequestID.String())
	assert.Nil(t, res.Figures)

	require.Len(t, model.calls, 1)
	assert.True(t, strings.HasPrefix(model.calls[0].system, "Eres un asistente para crear modelos de negocio Canvas."))
	assert.Equal(t, float32(0.7), model.calls[0].cfg.Temperature)
}

func TestServiceErrorIsRendered(t *testing.T) {
	c := mustCatalog(t)
	model := &fakeModel{err: errors.New("quota exceeded")}
	svc := NewService(c, model, nil, 1000)

	_, err := svc.Generate(context.Background(), Request{Mode: "business-model", Input: RawInput{Fields: validFields("business-model")}})

	var serr *ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Error al generar el modelo de negocio: quota exceeded", err.Error())
	assert.EqualError(t, errors.Unwrap(err), "quota exceeded")
	assert.Len(t, model.calls, 1, "service errors are not retried")

	_, err = svc.Generate(context.Background(), Request{Mode: "ideas", Locale: "en", Input: RawInput{Fields: validFields("ideas")}})
	assert.EqualError(t, err, "Error generating business ideas: quota exceeded")
}

func TestServiceUnknownMode(t *testing.T) {
	model := &fakeModel{}
	_, err := NewService(mustCatalog(t), model, nil, 1000).Generate(context.Background(), Request{Mode: "pitch"})
	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.Empty(t, model.calls)
}

// corruptPDF has an xref entry pointing past the end of the file.
var corruptPDF = []byte("%PDF-1.4\nxref\n0 2\n0000000000 65535 f \n0000099999 00000 n \n" +
	"trailer\n<< /Size 2 /Root 1 0 R >>\nstartxref\n9\n%%EOF\n")

func TestServiceAttachesDocument(t *testing.T) {
	c := mustCatalog(t)
	tests := []struct {
		name          string
		upload        *Upload
		extracted     string
		extractErr    error
		realExtractor bool
		wantInfo      DocumentInfo
		wantInPrompt  string
	}{
		{
			name:         "text used",
			upload:       &Upload{Filename: "plan.txt", Data: []byte("x")},
			extracted:    "ventas mensuales estables",
			wantInfo:     DocumentInfo{Filename: "plan.txt", CharsUsed: 25},
			wantInPrompt: "Información adicional del documento adjunto:\nventas mensuales estables",
		},
		{
			name:         "text excerpted",
			upload:       &Upload{Filename: "plan.pdf", Data: []byte("x")},
			extracted:    strings.Repeat("a", 30),
			wantInfo:     DocumentInfo{Filename: "plan.pdf", CharsUsed: 20, Excerpted: true},
			wantInPrompt: "documento adjunto:\n" + strings.Repeat("a", 20) + "\n",
		},
		{
			name:       "unreadable document skipped",
			upload:     &Upload{Filename: "plan.pdf", Data: []byte("x")},
			extractErr: errors.New("bad xref"),
			wantInfo:   DocumentInfo{Filename: "plan.pdf", Skipped: "unreadable document"},
		},
		{
			name:          "corrupt pdf skipped",
			upload:        &Upload{Filename: "plan.pdf", Data: corruptPDF},
			realExtractor: true,
			wantInfo:      DocumentInfo{Filename: "plan.pdf", Skipped: "unreadable document"},
		},
		{
			name:          "unsupported format skipped",
			upload:        &Upload{Filename: "plan.xlsx", Data: []byte("x")},
			realExtractor: true,
			wantInfo:      DocumentInfo{Filename: "plan.xlsx", Skipped: "unsupported format"},
		},
		{
			name:     "empty upload skipped",
			upload:   &Upload{Filename: "plan.pdf"},
			wantInfo: DocumentInfo{Filename: "plan.pdf", Skipped: "empty file"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{reply: "ok"}
			svc := NewService(c, model, nil, 20).(*service)
			if !tt.realExtractor {
				svc.extract = func(string, []byte) (string, error) { return tt.extracted, tt.extractErr }
			}

			var (
				res Result
				err error
			)
			require.NotPanics(t, func() {
				res, err = svc.Generate(context.Background(), Request{
					Mode:  "financial-plan",
					Input: RawInput{Fields: validFields("financial-plan"), Document: tt.upload},
				})
			})

			require.NoError(t, err)
			require.NotNil(t, res.Document)
			assert.Equal(t, tt.wantInfo, *res.Document)
			require.Len(t, model.calls, 1)
			if tt.wantInPrompt != "" {
				assert.Contains(t, model.calls[0].prompt, tt.wantInPrompt)
			} else {
				assert.NotContains(t, model.calls[0].prompt, "documento adjunto")
			}
		})
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"invalid yaml", "modes: [", "catalog: parse"},
		{"no modes", "default_locale: es\nmodes: []", "no modes defined"},
		{
			"missing default locale",
			"default_locale: es\nmodes:\n  - id: a\n    path: /a\n    locales:\n      en: {template: hi}",
			`has no default locale "es"`,
		},
		{
			"bad template",
			"default_locale: es\nmodes:\n  - id: a\n    path: /a\n    locales:\n      es: {template: '{{.idea'}",
			`mode "a" locale "es"`,
		},
		{
			"choice without options",
			"default_locale: es\nmodes:\n  - id: a\n    path: /a\n    fields: [{name: c, kind: choice}]\n    locales:\n      es: {template: hi}",
			"has no options",
		},
		{
			"profitability on text field",
			"default_locale: es\nmodes:\n  - id: a\n    path: /a\n    fields: [{name: t, kind: text}]\n    profitability: {income: [t]}\n    locales:\n      es: {template: hi}",
			"not a number field",
		},
		{
			"duplicate mode",
			"default_locale: es\nmodes:\n  - id: a\n    path: /a\n    locales:\n      es: {template: hi}\n  - id: a\n    path: /b\n    locales:\n      es: {template: hi}",
			`duplicate mode "a"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSetDefaultLocale(t *testing.T) {
	c := mustCatalog(t)
	require.NoError(t, c.SetDefaultLocale("EN"))
	m, _ := c.Mode("ideas")
	lang, loc := m.Locale("")
	assert.Equal(t, "en", lang)
	assert.Equal(t, "Generated Business Ideas", loc.Title)
	assert.Equal(t, []string{"en", "es"}, c.Languages())

	assert.Error(t, c.SetDefaultLocale("de"))
}
