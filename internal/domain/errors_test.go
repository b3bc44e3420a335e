package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
)

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("%w: XML syntax error", domain.ErrMalformedDocument), domain.KindMalformedDocument},
		{fmt.Errorf("paso 3: %w", fmt.Errorf("%w: cobr", domain.ErrInstallmentPersistence)), domain.KindInstallmentPersistence},
		{errors.Join(domain.ErrMissingIssuerData, errors.New("sin CNPJ")), domain.KindMissingIssuerData},
		{domain.ErrInstallmentAlreadySettled, domain.KindConflict},
		{context.Canceled, domain.KindInternal},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, domain.ErrorKind(c.err), "%v", c.err)
	}
}
