package ingest

import (
	"strings"
	"unicode"

	"github.com/schollz/closestmatch"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/pkg/nfe"
)

// Criterios de una sugerencia.
const (
	SuggestByTaxID   = "tax_id"
	SuggestByName    = "name"
	SuggestByClosest = "closest"
)

// Suggestion registro existente que probablemente corresponde a lo extraído.
type Suggestion struct {
	ID        string
	Name      string
	MatchedBy string
}

type namedItem struct {
	id   string
	name string
}

// SuggestVendor busca el proveedor por CNPJ/CPF exacto y luego por nombre.
func SuggestVendor(vendors []*entity.Vendor, taxID, name string) *Suggestion {
	if digits := nfe.OnlyDigits(taxID); digits != "" {
		for _, v := range vendors {
			if v.TaxID == digits {
				return &Suggestion{ID: v.ID, Name: v.LegalName, MatchedBy: SuggestByTaxID}
			}
		}
	}
	items := make([]namedItem, 0, len(vendors)*2)
	for _, v := range vendors {
		items = append(items, namedItem{id: v.ID, name: v.LegalName})
		if v.TradeName != "" {
			items = append(items, namedItem{id: v.ID, name: v.TradeName})
		}
	}
	return suggestByName(items, name)
}

// SuggestCategory busca la categoría sugerida por el servicio entre las existentes.
func SuggestCategory(categories []*entity.Category, name string) *Suggestion {
	items := make([]namedItem, 0, len(categories))
	for _, c := range categories {
		if c.Active {
			items = append(items, namedItem{id: c.ID, name: c.Name})
		}
	}
	return suggestByName(items, name)
}

// suggestByName: contención sin acentos ni mayúsculas en cualquier sentido; si nada
// coincide, el más parecido según closestmatch.
func suggestByName(items []namedItem, query string) *Suggestion {
	q := foldText(query)
	if q == "" || len(items) == 0 {
		return nil
	}
	folded := make([]string, len(items))
	byFolded := make(map[string]namedItem, len(items))
	for i, it := range items {
		folded[i] = foldText(it.name)
		if folded[i] == "" {
			continue
		}
		if _, ok := byFolded[folded[i]]; !ok {
			byFolded[folded[i]] = it
		}
		if strings.Contains(folded[i], q) || strings.Contains(q, folded[i]) {
			return &Suggestion{ID: it.id, Name: it.name, MatchedBy: SuggestByName}
		}
	}

	candidates := make([]string, 0, len(byFolded))
	for k := range byFolded {
		candidates = append(candidates, k)
	}
	// closestmatch indexa los candidatos en minúsculas pero no la consulta.
	cm := closestmatch.New(candidates, []int{3, 4})
	best := cm.Closest(strings.ToLower(q))
	if it, ok := byFolded[best]; ok && best != "" {
		return &Suggestion{ID: it.id, Name: it.name, MatchedBy: SuggestByClosest}
	}
	return nil
}

// foldText quita acentos, pasa a mayúsculas y colapsa espacios.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(out)), " ")
}
