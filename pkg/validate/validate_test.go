package validate_test

import (
	"testing"

	"github.com/Astemirdum/book-inventory/pkg/validate"
	"github.com/stretchr/testify/require"
)

func TestCustomValidator_Validate(t *testing.T) {
	type item struct {
		Name  string `validate:"required"`
		Count *int   `validate:"required,gte=0"`
	}
	type req struct {
		Items []item `validate:"required,min=1,dive"`
	}
	zero, neg := 0, -1

	v := validate.NewCustomValidator()
	require.NoError(t, v.Validate(req{Items: []item{{Name: "a", Count: &zero}}}))
	require.Error(t, v.Validate(req{}))
	require.Error(t, v.Validate(req{Items: []item{{Name: "", Count: &zero}}}))
	require.Error(t, v.Validate(req{Items: []item{{Name: "a"}}}))
	require.Error(t, v.Validate(req{Items: []item{{Name: "a", Count: &neg}}}))
}
