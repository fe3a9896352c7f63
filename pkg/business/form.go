package business

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Upload is a file attached to a request.
type Upload struct {
	Filename string
	Data     []byte
}

// RawInput is the form exactly as the client sent it.
type RawInput struct {
	Fields   map[string]string
	Document *Upload
}

// Input is a validated form. Values holds strings for text and choice fields and
// decimal.Decimal for number fields.
type Input struct {
	Values        map[string]any
	Profitability *Figures
}

// Figures are the totals computed locally for modes with a profitability rule.
type Figures struct {
	Income        decimal.Decimal `json:"income"`
	Costs         decimal.Decimal `json:"costs"`
	Profitability decimal.Decimal `json:"profitability"`
	Currency      string          `json:"currency"`
}

// Collect validates raw against the mode's fields. Every offending field is reported
// in a single *ValidationError.
func Collect(m *Mode, raw RawInput) (Input, error) {
	verr := &ValidationError{Mode: m.ID}
	in := Input{Values: make(map[string]any, len(m.Fields)+3)}

	for _, f := range m.Fields {
		v := strings.TrimSpace(raw.Fields[f.Name])
		switch f.Kind {
		case KindText:
			if v == "" && f.Required {
				verr.add(f.Name, "is required")
				continue
			}
			in.Values[f.Name] = v
		case KindNumber:
			if v == "" {
				if f.Required {
					verr.add(f.Name, "is required")
					continue
				}
				in.Values[f.Name] = decimal.Zero
				continue
			}
			n, err := decimal.NewFromString(v)
			if err != nil {
				verr.add(f.Name, "must be a number")
				continue
			}
			if f.NonNegative && n.IsNegative() {
				verr.add(f.Name, "must be greater than or equal to 0")
				continue
			}
			in.Values[f.Name] = n
		case KindChoice:
			if v == "" {
				if f.Required {
					verr.add(f.Name, "is required")
				} else {
					in.Values[f.Name] = ""
				}
				continue
			}
			opt, ok := matchOption(f.Options, v)
			if !ok {
				verr.add(f.Name, "must be one of "+strings.Join(f.Options, ", "))
				continue
			}
			in.Values[f.Name] = opt
		case KindDocument:
			// filled in by the service once the upload has been read
			in.Values[f.Name] = ""
			if f.Required && (raw.Document == nil || len(raw.Document.Data) == 0) {
				verr.add(f.Name, "is required")
			}
		}
	}
	if len(verr.Fields) > 0 {
		return Input{}, verr
	}

	if p := m.Profitability; p != nil {
		fig := computeFigures(p, in.Values)
		if p.PositiveIncome && !fig.Income.IsPositive() {
			verr.add(strings.Join(p.Income, "+"), "total income must be greater than 0")
			return Input{}, verr
		}
		in.Values["total_income"] = fig.Income
		in.Values["total_costs"] = fig.Costs
		in.Values["profitability"] = fig.Profitability
		in.Profitability = &fig
	}
	return in, nil
}

// computeFigures sums income and cost fields: profitability = income - costs.
func computeFigures(p *Profitability, values map[string]any) Figures {
	sum := func(names []string) decimal.Decimal {
		total := decimal.Zero
		for _, name := range names {
			if n, ok := values[name].(decimal.Decimal); ok {
				total = total.Add(n)
			}
		}
		return total
	}
	fig := Figures{Income: sum(p.Income), Costs: sum(p.Costs)}
	fig.Profitability = fig.Income.Sub(fig.Costs)
	if cur, ok := values[p.Currency].(string); ok {
		fig.Currency = cur
	}
	return fig
}

func matchOption(options []string, v string) (string, bool) {
	for _, o := range options {
		if strings.EqualFold(o, v) {
			return o, true
		}
	}
	return "", false
}
