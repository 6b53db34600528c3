package bd

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuel-pricing/pkg/types"
)

var allowed = map[string]string{
	"status":     "ps.status",
	"created_at": "ps.created_at",
	"product":    "ps.product",
}

func TestApplyListParamsIgnoresUnknownKeys(t *testing.T) {
	filter := types.Filter{
		Filter:         map[string]interface{}{"status": "pending", "password": "x"},
		Sort:           map[string]string{"product": "asc", "created_at": "desc", "id; drop": "asc"},
		Limit:          20,
		Offset:         40,
		WithPagination: true,
	}

	query, args, err := ApplyListParams(sq.Select("ps.id").From("price_suggestions ps"), filter, allowed).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT ps.id FROM price_suggestions ps WHERE ps.status = ? ORDER BY ps.created_at DESC, ps.product ASC LIMIT 20 OFFSET 40",
		query)
	assert.Equal(t, []interface{}{"pending"}, args)
}

func TestCommaSeparatedFilterBecomesIn(t *testing.T) {
	filter := types.Filter{Filter: map[string]interface{}{"status": "draft,pending"}}

	query, args, err := ApplyListParams(sq.Select("ps.id").From("price_suggestions ps"), filter, allowed).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT ps.id FROM price_suggestions ps WHERE ps.status IN (?,?)", query)
	assert.Equal(t, []interface{}{"draft", "pending"}, args)
}

func TestApplySearch(t *testing.T) {
	base := sq.Select("s.id").From("sis_empresa s")

	query, _, err := ApplySearch(base, "  ", "s.name").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT s.id FROM sis_empresa s", query)

	query, args, err := ApplySearch(base, "central", "s.name", "s.city").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT s.id FROM sis_empresa s WHERE (s.name ILIKE ? OR s.city ILIKE ?)", query)
	assert.Equal(t, []interface{}{"%central%", "%central%"}, args)
}

func TestCountFilterDropsPagingAndSort(t *testing.T) {
	f := types.Filter{Sort: map[string]string{"product": "asc"}, WithPagination: true, Limit: 10}
	c := CountFilter(f)
	assert.False(t, c.WithPagination)
	assert.Nil(t, c.Sort)
	assert.True(t, f.WithPagination)
}
