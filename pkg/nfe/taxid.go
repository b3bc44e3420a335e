package nfe

import "fmt"

// pesos del primer y segundo dígito verificador del CNPJ (módulo 11).
var (
	cnpjWeights1 = [12]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = [13]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// ValidateTaxID valida un CNPJ (14 dígitos) o CPF (11 dígitos), con o sin máscara.
func ValidateTaxID(taxID string) error {
	digits := OnlyDigits(taxID)
	switch len(digits) {
	case 14:
		return validateCNPJ(digits)
	case 11:
		return validateCPF(digits)
	default:
		return fmt.Errorf("nfe: documento del emisor debe tener 11 (CPF) o 14 (CNPJ) dígitos, se encontraron %d", len(digits))
	}
}

func validateCNPJ(d string) error {
	if allSame(d) {
		return fmt.Errorf("nfe: CNPJ inválido %s", d)
	}
	dv1 := mod11(d[:12], cnpjWeights1[:])
	dv2 := mod11(d[:13], cnpjWeights2[:])
	if d[12] != dv1 || d[13] != dv2 {
		return fmt.Errorf("nfe: dígitos verificadores del CNPJ inválidos: esperado %c%c, recibido %s", dv1, dv2, d[12:])
	}
	return nil
}

func validateCPF(d string) error {
	if allSame(d) {
		return fmt.Errorf("nfe: CPF inválido %s", d)
	}
	dv1 := mod11(d[:9], descending(10, 9))
	dv2 := mod11(d[:10], descending(11, 10))
	if d[9] != dv1 || d[10] != dv2 {
		return fmt.Errorf("nfe: dígitos verificadores del CPF inválidos: esperado %c%c, recibido %s", dv1, dv2, d[9:])
	}
	return nil
}

func mod11(base string, weights []int) byte {
	var sum int
	for i := 0; i < len(base); i++ {
		sum += int(base[i]-'0') * weights[i]
	}
	r := sum % 11
	if r < 2 {
		return '0'
	}
	return byte('0' + (11 - r))
}

func descending(from, n int) []int {
	w := make([]int, n)
	for i := range w {
		w[i] = from - i
	}
	return w
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
