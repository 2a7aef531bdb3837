package catsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
global_parameters:
  - name: "Datasheet"
categories:
  - name: "Passives"
    children:
      - name: "Resistors"
        parameters:
          - name: "Resistance"
            unit: "Ohm"
            symbol: "R"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Len(t, cfg.GlobalParameters, 1)
	assert.Equal(t, "Datasheet", cfg.GlobalParameters[0].Name)
	require.Len(t, cfg.Categories, 1)
	require.Len(t, cfg.Categories[0].Children, 1)
	leaf := cfg.Categories[0].Children[0]
	assert.Equal(t, "Resistors", leaf.Name)
	require.Len(t, leaf.Parameters, 1)
	assert.Equal(t, "Ohm", leaf.Parameters[0].Unit)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// fakePartDB is the slice of the Part-DB API the syncer exercises.
type fakePartDB struct {
	t *testing.T

	createdCategories []string
	createdParts      []string
	createdParams     []map[string]any
	deletedPaths      []string
}

func (f *fakePartDB) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/categories", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"hydra:member": [
			{"id": 1, "name": "Passives", "parent": ""},
			{"id": 9, "name": "Legacy", "parent": ""}
		]}`)
	})
	mux.HandleFunc("POST /api/categories", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&payload))
		f.createdCategories = append(f.createdCategories, payload["name"].(string))
		fmt.Fprintf(w, `{"id": 2, "name": %q, "parent": "/api/categories/1"}`, payload["name"])
	})

	mux.HandleFunc("GET /api/manufacturers", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"hydra:member": []}`)
	})
	mux.HandleFunc("POST /api/manufacturers", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id": 5}`)
	})

	mux.HandleFunc("GET /api/parts", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("name") == DummyPartName:
			fmt.Fprint(w, `{"hydra:member": [], "hydra:totalItems": 0}`)
		case q.Get("category") == "9":
			fmt.Fprint(w, `{"hydra:member": [{"id": 11, "name": "DUMMY", "parameters": []}]}`)
		default:
			fmt.Fprint(w, `{"hydra:member": []}`)
		}
	})
	mux.HandleFunc("POST /api/parts", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&payload))
		f.createdParts = append(f.createdParts, payload["name"].(string))
		fmt.Fprint(w, `{"id": 10, "name": "DUMMY", "parameters": []}`)
	})
	mux.HandleFunc("GET /api/parts/10", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id": 10, "name": "DUMMY", "parameters": []}`)
	})

	mux.HandleFunc("POST /api/parameters", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&payload))
		f.createdParams = append(f.createdParams, payload)
		fmt.Fprint(w, `{"id": 20}`)
	})

	mux.HandleFunc("DELETE /", func(w http.ResponseWriter, r *http.Request) {
		f.deletedPaths = append(f.deletedPaths, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func TestRunSyncsTreeAndPrunes(t *testing.T) {
	fake := &fakePartDB{t: t}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	cfg := &Config{
		GlobalParameters: []ParameterSpec{{Name: "Datasheet"}},
		Categories: []CategoryNode{{
			Name: "Passives",
			Children: []CategoryNode{{
				Name:       "Resistors",
				Parameters: []ParameterSpec{{Name: "Resistance", Unit: "Ohm", Symbol: "R"}},
			}},
		}},
	}

	s := NewSyncer(srv.URL, "token")
	require.NoError(t, s.Run(context.Background(), cfg))

	// "Passives" already existed; only the leaf is created.
	assert.Equal(t, []string{"Resistors"}, fake.createdCategories)

	// The leaf gets its placeholder part.
	assert.Equal(t, []string{DummyPartName}, fake.createdParts)

	// Inherited plus own parameters, numeric when a unit is declared.
	require.Len(t, fake.createdParams, 2)
	byName := map[string]map[string]any{}
	for _, p := range fake.createdParams {
		byName[p["name"].(string)] = p
	}
	assert.Equal(t, "string", byName["Datasheet"]["valueType"])
	assert.Equal(t, "numeric", byName["Resistance"]["valueType"])
	assert.Equal(t, "/api/parts/10", byName["Resistance"]["element"])

	// "Legacy" is not in the tree: its placeholder is removed, then the
	// category itself.
	assert.Contains(t, fake.deletedPaths, "/api/parts/11")
	assert.Contains(t, fake.deletedPaths, "/api/categories/9")
}

func TestRunRequiresToken(t *testing.T) {
	s := NewSyncer("http://localhost:3000", "")
	err := s.Run(context.Background(), &Config{})
	assert.Error(t, err)
}

func TestParameterValuePreservation(t *testing.T) {
	v := "4k7"
	withValue := apiParameter{ValueText: &v}
	assert.True(t, withValue.hasValue())

	blank := ""
	withBlank := apiParameter{ValueText: &blank}
	assert.False(t, withBlank.hasValue())

	n := 4700.0
	numeric := apiParameter{ValueNumeric: &n}
	assert.True(t, numeric.hasValue())

	assert.False(t, (&apiParameter{}).hasValue())
}
