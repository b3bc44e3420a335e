package nfexml

import (
	"strings"

	"github.com/beevik/etree"
)

// pathLookup una ruta candidata para un campo. relative=true se evalúa desde infNFe,
// si no desde la raíz del documento. Los prefijos de namespace se ignoran: "ide/nNF"
// encuentra también "nfe:ide/nfe:nNF".
type pathLookup struct {
	path     string
	relative bool
}

// Rutas en orden de preferencia; gana la primera con texto no vacío.
var (
	documentNumberLookups = []pathLookup{
		{path: "ide/nNF", relative: true},
		{path: "//NFe/infNFe/ide/nNF"},
		{path: "/nfeProc/NFe/infNFe/ide/nNF"},
		{path: "//ide/nNF"},
		{path: "//nNF"},
	}
	accessKeyFallbackLookups = []pathLookup{
		{path: "//protNFe/infProt/chNFe"},
		{path: "//chNFe"},
	}
	issueDateLookups = []pathLookup{
		{path: "ide/dhEmi", relative: true},
		{path: "ide/dEmi", relative: true},
		{path: "//ide/dhEmi"},
		{path: "//ide/dEmi"},
	}
	issuerTaxIDLookups = []pathLookup{
		{path: "emit/CNPJ", relative: true},
		{path: "emit/CPF", relative: true},
		{path: "//emit/CNPJ"},
		{path: "//emit/CPF"},
	}
	issuerLegalNameLookups = []pathLookup{
		{path: "emit/xNome", relative: true},
		{path: "//emit/xNome"},
	}
	issuerTradeNameLookups = []pathLookup{
		{path: "emit/xFant", relative: true},
		{path: "//emit/xFant"},
	}
	totalLookups = []pathLookup{
		{path: "total/ICMSTot/vNF", relative: true},
		{path: "//total/ICMSTot/vNF"},
		{path: "//ICMSTot/vNF"},
	}
	duplicataLookups = []pathLookup{
		{path: "cobr/dup", relative: true},
		{path: "//cobr/dup"},
	}
)

func (l pathLookup) element(doc *etree.Document, inf *etree.Element) *etree.Element {
	if l.relative {
		if inf == nil {
			return nil
		}
		return inf.FindElement(l.path)
	}
	return doc.FindElement(l.path)
}

func (l pathLookup) elements(doc *etree.Document, inf *etree.Element) []*etree.Element {
	if l.relative {
		if inf == nil {
			return nil
		}
		return inf.FindElements(l.path)
	}
	return doc.FindElements(l.path)
}

// firstText aplica las rutas en orden y devuelve el primer texto no vacío y la ruta usada.
func firstText(doc *etree.Document, inf *etree.Element, lookups []pathLookup) (string, string) {
	for _, l := range lookups {
		el := l.element(doc, inf)
		if el == nil {
			continue
		}
		if v := strings.TrimSpace(el.Text()); v != "" {
			return v, l.path
		}
	}
	return "", ""
}

// firstElements devuelve el primer conjunto no vacío de elementos.
func firstElements(doc *etree.Document, inf *etree.Element, lookups []pathLookup) []*etree.Element {
	for _, l := range lookups {
		if els := l.elements(doc, inf); len(els) > 0 {
			return els
		}
	}
	return nil
}

func childText(el *etree.Element, tag string) string {
	c := el.SelectElement(tag)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Text())
}
