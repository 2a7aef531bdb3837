package partdb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbx-solutions/partlinker/pkg/errors"
)

func TestFetchPartsExpandsParameters(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/parts":
			gotQuery = r.URL.RawQuery
			gotAuth = r.Header.Get("Authorization")
			fmt.Fprint(w, `{
				"hydra:member": [{
					"id": 42,
					"name": "LM358",
					"description": "Dual op-amp",
					"category": {"name": "OpAmp", "full_path": "ICs → OpAmp"},
					"footprint": {"name": "SOIC-8"},
					"addedDate": "2025-10-12T08:00:00+00:00",
					"parameters": [
						{"@id": "/api/parameters/1"},
						{"@id": "/api/parameters/2"},
						{"@id": "/api/parameters/3"}
					]
				}]
			}`)
		case "/api/parameters/1":
			fmt.Fprint(w, `{"name": "Voltage", "value_text": "32 V"}`)
		case "/api/parameters/2":
			// Present but blank parameter.
			fmt.Fprint(w, `{"name": "Tolerance", "value_text": ""}`)
		case "/api/parameters/3":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token123", "2025-10-01")
	records, err := c.FetchParts(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	part := records[0]
	assert.Equal(t, 42, part.ID)
	assert.Equal(t, "LM358", part.Name)
	assert.Equal(t, "ICs → OpAmp", part.Category.FullPath)
	assert.Equal(t, "SOIC-8", part.Footprint.Name)

	assert.Equal(t, "32 V", part.Parameters["Voltage"])
	assert.Equal(t, "-", part.Parameters["Tolerance"], "blank value becomes the dash placeholder")
	assert.Len(t, part.Parameters, 2, "failing parameter is dropped, not fatal")

	assert.Equal(t, "Bearer token123", gotAuth)
	// Cutoff date converted to the API's DD.MM.YYYY form.
	assert.Contains(t, gotQuery, "addedDate%5Bafter%5D=01.10.2025")
	assert.Contains(t, gotQuery, "order%5Bname%5D=asc")
}

func TestFetchPartsFollowsPagination(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/parts" {
			http.NotFound(w, r)
			return
		}
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		if page == "1" {
			fmt.Fprint(w, `{
				"hydra:member": [{"id": 1, "name": "A", "parameters": []}],
				"hydra:view": {"hydra:next": "/api/parts?page=2"}
			}`)
			return
		}
		fmt.Fprint(w, `{"hydra:member": [{"id": 2, "name": "B", "parameters": []}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", "2025-10-01")
	records, err := c.FetchParts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, pages)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].Name)
	assert.Equal(t, "B", records[1].Name)
}

func TestFetchPartsRequiresToken(t *testing.T) {
	c := NewClient("http://localhost:8888", "", "2025-10-01")
	_, err := c.FetchParts(context.Background())
	assert.ErrorIs(t, err, errors.ErrAPIKeyRequired)
}

func TestFetchPartsRejectsBadDate(t *testing.T) {
	c := NewClient("http://localhost:8888", "t", "01.10.2025")
	_, err := c.FetchParts(context.Background())
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestFetchPartsSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad", "2025-10-01")
	_, err := c.FetchParts(context.Background())
	require.Error(t, err)

	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestFetchPartsEmptyCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"hydra:member": []}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", "2025-10-01")
	records, err := c.FetchParts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}
