package nfe

import (
	"fmt"
	"strings"
)

// Layout de la chave de acesso (44 dígitos):
// cUF(2) AAMM(4) CNPJ(14) mod(2) serie(3) nNF(9) tpEmis(1) cNF(8) cDV(1).
const (
	AccessKeyLength = 44

	numberOffset = 25
	numberLength = 9
)

// AccessKey partes de una chave de acesso de NF-e.
type AccessKey struct {
	UF        string
	YearMonth string
	IssuerID  string
	Model     string
	Series    string
	Number    string
	EmisType  string
	Code      string
	Digit     byte
}

// NormalizeAccessKey quita el prefijo "NFe" del atributo Id y cualquier carácter no numérico.
func NormalizeAccessKey(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "NFe")
	return OnlyDigits(raw)
}

// NumberFromKey devuelve el número del documento embebido en la chave (posiciones 25..33).
// Exige al menos 34 dígitos; no valida el dígito verificador.
func NumberFromKey(key string) (string, bool) {
	if len(key) < numberOffset+numberLength {
		return "", false
	}
	n := key[numberOffset : numberOffset+numberLength]
	for i := 0; i < len(n); i++ {
		if n[i] < '0' || n[i] > '9' {
			return "", false
		}
	}
	return n, true
}

// ParseAccessKey valida longitud y dígito verificador (módulo 11) y separa los campos.
func ParseAccessKey(raw string) (*AccessKey, error) {
	key := NormalizeAccessKey(raw)
	if len(key) != AccessKeyLength {
		return nil, fmt.Errorf("nfe: chave de acesso debe tener %d dígitos, se encontraron %d", AccessKeyLength, len(key))
	}
	expected := ComputeAccessKeyDigit(key[:AccessKeyLength-1])
	if key[AccessKeyLength-1] != expected {
		return nil, fmt.Errorf("nfe: dígito verificador de la chave inválido: esperado %c, recibido %c", expected, key[AccessKeyLength-1])
	}
	return &AccessKey{
		UF:        key[0:2],
		YearMonth: key[2:6],
		IssuerID:  key[6:20],
		Model:     key[20:22],
		Series:    key[22:25],
		Number:    key[25:34],
		EmisType:  key[34:35],
		Code:      key[35:43],
		Digit:     key[43],
	}, nil
}

// ComputeAccessKeyDigit calcula el cDV sobre los 43 primeros dígitos.
// Pesos 2..9 cíclicos desde la derecha; restos 0 y 1 dan dígito 0.
func ComputeAccessKeyDigit(base string) byte {
	sum, weight := 0, 2
	for i := len(base) - 1; i >= 0; i-- {
		sum += int(base[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	dv := 11 - sum%11
	if dv >= 10 {
		return '0'
	}
	return byte('0' + dv)
}

// OnlyDigits conserva solo los dígitos ASCII.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
