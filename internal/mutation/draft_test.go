package mutation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txdash/internal/catalog"
	apperr "txdash/internal/errors"
)

func catalogOf(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(statuses)
	require.NoError(t, err)
	return c
}

func TestNormalizeTrims(t *testing.T) {
	d := Draft{
		ProductID:    " P1 ",
		ProductName:  "\tWidget",
		CustomerName: "Andi  ",
		Amount:       " 2500.75 ",
		Status:       " 0",
	}
	f, err := d.Normalize(catalogOf(t))
	require.NoError(t, err)
	assert.Equal(t, "P1", f.ProductID)
	assert.Equal(t, "Widget", f.ProductName)
	assert.Equal(t, "Andi", f.CustomerName)
	assert.Equal(t, "2500.75", f.Amount.Text())
	assert.Equal(t, 0, f.Status)
}

func TestNormalizeReportsEveryField(t *testing.T) {
	_, err := Draft{}.Normalize(catalogOf(t))
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.ValidationFailure, appErr.Code)
	assert.Len(t, appErr.Fields, 5)
}

func TestNormalizeEmptyCatalogRejectsStatus(t *testing.T) {
	d := validDraft()
	_, err := d.Normalize(catalog.Empty())
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{FieldStatus: "Status is not in the catalog"}, appErr.Fields)
}
