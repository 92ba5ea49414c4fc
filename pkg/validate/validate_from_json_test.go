package validate_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Gunvolt24/wb_products/pkg/validate"
)

func TestValidateProductFromJSON_OK(t *testing.T) {
	v := validate.NewProductValidator()

	raw := []byte(`{"name":"Laptop","price":999.99}`)
	p, err := validate.ValidateProductFromJSON(context.Background(), v, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Laptop" || p.Price != 999.99 {
		t.Fatalf("unexpected product: %+v", p)
	}
}

func TestValidateProductFromJSON_BrokenJSON(t *testing.T) {
	v := validate.NewProductValidator()

	_, err := validate.ValidateProductFromJSON(context.Background(), v, []byte(`{"name":`))
	if err == nil || !strings.Contains(err.Error(), "invalid json") {
		t.Fatalf("want invalid json error, got %v", err)
	}
}

func TestValidateProductFromJSON_UnknownField(t *testing.T) {
	v := validate.NewProductValidator()

	raw := []byte(`{"name":"x","price":1,"discount":0.5}`)
	_, err := validate.ValidateProductFromJSON(context.Background(), v, raw)
	if err == nil || !strings.Contains(err.Error(), "invalid json") {
		t.Fatalf("неизвестное поле должно отклоняться, got %v", err)
	}
}

func TestValidateProductFromJSON_TrailingData(t *testing.T) {
	v := validate.NewProductValidator()

	raw := []byte(`{"name":"x","price":1} {}`)
	_, err := validate.ValidateProductFromJSON(context.Background(), v, raw)
	if err == nil || !strings.Contains(err.Error(), "trailing data") {
		t.Fatalf("want trailing data error, got %v", err)
	}
}

func TestValidateProductFromJSON_ValidationFailed(t *testing.T) {
	v := validate.NewProductValidator()

	raw := []byte(`{"name":"","price":1}`)
	_, err := validate.ValidateProductFromJSON(context.Background(), v, raw)
	if !errors.Is(err, validate.ErrInvalidProduct) {
		t.Fatalf("want ErrInvalidProduct, got %v", err)
	}
}
