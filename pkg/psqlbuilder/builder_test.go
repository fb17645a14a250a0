package psqlbuilder

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_UsesDollarPlaceholders(t *testing.T) {
	query, args, err := Select("id").
		From("invoices").
		Where(squirrel.Eq{"status": "pending"}).
		Where(squirrel.LtOrEq{"payment_hold_deadline": 5}).
		ToSql()

	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM invoices WHERE status = $1 AND payment_hold_deadline <= $2", query)
	assert.Equal(t, []interface{}{"pending", 5}, args)
}

func TestUpdate_UsesDollarPlaceholders(t *testing.T) {
	query, _, err := Update("stored_credits").
		Set("remaining_units", squirrel.Expr("remaining_units - 1")).
		Where(squirrel.Eq{"ref": "abc"}).
		ToSql()

	require.NoError(t, err)
	assert.Equal(t, "UPDATE stored_credits SET remaining_units = remaining_units - 1 WHERE ref = $1", query)
}
