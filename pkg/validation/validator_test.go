package validation

import (
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stationInput struct {
	CNPJ    string      `validate:"required,cnpj"`
	Product string      `validate:"required,fuel_product"`
	Doc     null.String `validate:"omitempty,cpf_cnpj"`
	Phone   string      `validate:"omitempty,br_phone"`
}

func TestDocumentChecks(t *testing.T) {
	assert.True(t, ValidCNPJ("11.222.333/0001-81"))
	assert.False(t, ValidCNPJ("11.222.333/0001-80"))
	assert.False(t, ValidCNPJ("00000000000000"))
	assert.True(t, ValidCPF("529.982.247-25"))
	assert.False(t, ValidCPF("529.982.247-24"))
	assert.False(t, ValidCPF("111.111.111-11"))
}

func TestCustomValidator(t *testing.T) {
	v := New()

	ok := stationInput{CNPJ: "11222333000181", Product: "diesel_s10", Phone: "(11) 98765-4321"}
	assert.NoError(t, v.Validate(ok))

	ok.Doc = null.StringFrom("529.982.247-25")
	assert.NoError(t, v.Validate(ok))

	bad := ok
	bad.Product = "kerosene"
	assert.Error(t, v.Validate(bad))

	bad = ok
	bad.Doc = null.StringFrom("123")
	assert.Error(t, v.Validate(bad))

	bad = ok
	bad.Phone = "12"
	assert.Error(t, v.Validate(bad))
}

type taggedInput struct {
	StationID uint64 `json:"station_id" validate:"required"`
	From      string `query:"from" validate:"required"`
	Plain     string `validate:"required"`
}

func TestErrorsUseWireNames(t *testing.T) {
	err := New().Validate(taggedInput{})
	require.Error(t, err)

	var fields []string
	for _, fe := range err.(validator.ValidationErrors) {
		fields = append(fields, fe.Field())
	}
	assert.Equal(t, []string{"station_id", "from", "Plain"}, fields)
}
