package apicontract_test

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apicontract "github.com/tuanvumaihuynh/product-inventory/api-contract"
)

func TestOpenAPIDocument(t *testing.T) {
	doc, err := openapi3.NewLoader().LoadFromData(apicontract.GetSpecBytes())
	require.NoError(t, err)

	require.NoError(t, doc.Validate(context.Background()))

	t.Run("Should describe the stock movement types", func(t *testing.T) {
		schema := doc.Components.Schemas["StockMovementType"].Value
		require.NotNil(t, schema)
		assert.ElementsMatch(t, []any{"increase", "decrease"}, schema.Enum)
	})

	t.Run("Should cap the page size", func(t *testing.T) {
		limit := doc.Components.Parameters["Limit"].Value
		require.NotNil(t, limit.Schema.Value.Max)
		assert.InDelta(t, 100, *limit.Schema.Value.Max, 0)
	})
}
