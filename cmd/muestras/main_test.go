package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/muestras/app/services"
	"github.com/shashiranjanraj/muestras/pkg/listview"
)

func TestParseSet(t *testing.T) {
	got, err := parseSet([]string{"nombre=Slim Fit", "precio = 12.5", "descripcion="})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"nombre", "Slim Fit"}, {"precio", " 12.5"}, {"descripcion", ""}}, got)

	_, err = parseSet([]string{"nombre"})
	assert.Error(t, err)
	_, err = parseSet([]string{"=x"})
	assert.Error(t, err)
}

func TestPrintView(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printView(&buf, listview.View{
		Columns: []listview.Header{{Key: "nombre", Label: "Name"}},
		Rows:    []listview.Row{{ID: "1", Cells: []string{"Nike"}}},
	}))
	assert.Contains(t, buf.String(), "NAME")
	assert.Contains(t, buf.String(), "Nike")

	buf.Reset()
	require.NoError(t, printView(&buf, listview.View{Placeholder: "No brands yet"}))
	assert.Contains(t, buf.String(), "No brands yet")
}

func TestRouteList(t *testing.T) {
	a, _ := console(consoleTestConfig())
	names := map[string]bool{}
	for _, ri := range a.Router().Routes() {
		names[ri.Name] = true
	}
	for _, want := range []string{"auth.login", "pages.show", "pages.reorder", "files.show", "toasts", "toasts.stream", "health", "metrics"} {
		assert.True(t, names[want], want)
	}
}

func consoleTestConfig() services.Config {
	return services.Config{BackendURL: "http://backend.test", TokenDriver: "memory"}
}
