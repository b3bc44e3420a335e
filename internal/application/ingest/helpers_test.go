package ingest_test

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ingest"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/nfexml"
	"github.com/jhoicas/fiscal-ingest-api/internal/testutil"
)

const (
	cnpjA = "11222333000181"
	cnpjB = "98765432000198"
)

// nfeXML arma una NF-e mínima sin chave, terminada en salto de línea como los
// archivos reales. dups en formato "valor@AAAA-MM-DD" (fecha opcional).
func nfeXML(number, cnpj, name, total string, dups ...string) []byte {
	return nfeXMLWithKey("", number, cnpj, name, total, dups...)
}

// nfeXMLWithKey igual que nfeXML pero con chave de acesso en infNFe/@Id.
func nfeXMLWithKey(key, number, cnpj, name, total string, dups ...string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n" + `<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe"><NFe>`)
	if key != "" {
		fmt.Fprintf(&b, `<infNFe Id="NFe%s">`, key)
	} else {
		b.WriteString(`<infNFe>`)
	}
	fmt.Fprintf(&b, `<ide><nNF>%s</nNF><dhEmi>2024-01-15T10:00:00-03:00</dhEmi></ide>`, number)
	fmt.Fprintf(&b, `<emit><CNPJ>%s</CNPJ><xNome>%s</xNome></emit>`, cnpj, name)
	fmt.Fprintf(&b, `<total><ICMSTot><vNF>%s</vNF></ICMSTot></total>`, total)
	if len(dups) > 0 {
		b.WriteString(`<cobr>`)
		for i, d := range dups {
			value, due, _ := strings.Cut(d, "@")
			fmt.Fprintf(&b, `<dup><nDup>%03d</nDup>`, i+1)
			if due != "" {
				fmt.Fprintf(&b, `<dVenc>%s</dVenc>`, due)
			}
			fmt.Fprintf(&b, `<vDup>%s</vDup></dup>`, value)
		}
		b.WriteString(`</cobr>`)
	}
	b.WriteString("</infNFe></NFe></nfeProc>\n")
	return []byte(b.String())
}

type harness struct {
	store        *testutil.Store
	archiver     *testutil.ArchiverStub
	orchestrator *ingest.Orchestrator
	detector     *ingest.DuplicateDetector
	resolver     *ingest.VendorResolver
	committer    *ingest.Committer
}

func newHarness() *harness {
	store := testutil.NewStore()
	archiver := &testutil.ArchiverStub{}
	detector := ingest.NewDuplicateDetector(store.Payables(), "NF")
	resolver := ingest.NewVendorResolver(store.Vendors())
	committer := ingest.NewCommitter(store, ingest.CommitConfig{DescriptionLabel: "NF", DefaultCategoryID: "cat-compras"})
	extractor := nfexml.NewExtractor(nil).WithClock(func() time.Time { return time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC) })
	return &harness{
		store:        store,
		archiver:     archiver,
		detector:     detector,
		resolver:     resolver,
		committer:    committer,
		orchestrator: ingest.NewOrchestrator(extractor, detector, resolver, committer, archiver, 0, nil),
	}
}

func file(name string, content []byte) entity.ImportFile {
	return entity.ImportFile{Name: name, Content: content}
}
