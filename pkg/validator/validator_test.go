package validator

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createProductForm struct {
	SKU    string  `json:"sku" validate:"required,max=50"`
	Name   string  `json:"name" validate:"required,min=3,max=255"`
	Price  float64 `json:"price" validate:"required,gt=0"`
	Status string  `json:"status" validate:"omitempty,oneof=active inactive"`
}

func TestValidate_Success(t *testing.T) {
	form := createProductForm{SKU: "SKU-001", Name: "Wireless Mouse", Price: 29.99}
	assert.NoError(t, Validate(form))
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	form := createProductForm{Name: "ab", Status: "archived"}

	err := Validate(form)
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	fields := vErr.Fields()
	assert.Equal(t, "is required", fields["SKU"])
	assert.Equal(t, "must be at least 3 characters", fields["Name"])
	assert.Equal(t, "is required", fields["Price"])
	assert.Equal(t, "must be one of: active inactive", fields["Status"])
}

func TestValidationError_Message(t *testing.T) {
	err := Validate(createProductForm{SKU: "SKU-001", Name: "Mouse", Price: -1})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "field 'Price' must be greater than 0")
}

func TestDecodeAndValidate(t *testing.T) {
	body := `{"sku":"SKU-001","name":"Wireless Mouse","price":29.99}`
	r := httptest.NewRequest("POST", "/products", strings.NewReader(body))

	var form createProductForm
	require.NoError(t, DecodeAndValidate(r, &form))
	assert.Equal(t, "SKU-001", form.SKU)
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/products", strings.NewReader("{not json"))

	var form createProductForm
	err := DecodeAndValidate(r, &form)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
