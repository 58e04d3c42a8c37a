package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/OscarIvaVP/inventario-ventas/internal/store"

	"github.com/stretchr/testify/assert"
)

func TestErrStatus(t *testing.T) {
	missing := fmt.Errorf("sale VENTA-AAAA0001: %w", store.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, errStatus(missing, http.StatusInternalServerError))

	// a wrapped lookup failure still maps to 404
	wrapped := fmt.Errorf("failed to read sale: %w", missing)
	assert.Equal(t, http.StatusNotFound, errStatus(wrapped, http.StatusInternalServerError))

	other := fmt.Errorf("connection refused")
	assert.Equal(t, http.StatusInternalServerError, errStatus(other, http.StatusInternalServerError))
}
