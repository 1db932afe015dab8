package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	schema "github.com/lilianammmatos/graphql-go/internal/schema"
)

func testSchema() *schema.Schema {
	character := schema.NewType("Character", schema.TypeKindObject, "").
		AddField(schema.NewField("id", "", schema.NamedType("ID"))).
		AddField(schema.NewField("name", "", schema.NamedType("String"))).
		AddField(schema.NewField("friends", "", schema.ListType(schema.NamedType("Character"))).
			SetResolve(func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
				return []any{
					map[string]any{"id": "1000", "name": "Luke Skywalker"},
					map[string]any{"id": "1002", "name": "Han Solo"},
					map[string]any{"id": "1003", "name": "Leia Organa"},
				}, nil
			}))
	query := schema.NewType("Query", schema.TypeKindObject, "").
		AddField(schema.NewField("hero", "", schema.NamedType("Character")).
			SetResolve(func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
				return map[string]any{"id": "2001", "name": "R2-D2"}, nil
			}))
	return schema.NewSchema("").
		EnableIncremental().
		SetQueryType("Query").
		AddType(query).
		AddType(character)
}

func postJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServeSingleResponse(t *testing.T) {
	h := New(testSchema())

	rec := postJSON(t, h, `{"query": "{ hero { id name } }"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var res map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, map[string]any{
		"hero": map[string]any{"id": "2001", "name": "R2-D2"},
	}, res["data"])
	require.NotContains(t, res, "errors")
}

func TestServeGETRequest(t *testing.T) {
	h := New(testSchema())

	req := httptest.NewRequest(http.MethodGet, "/graphql?query={hero{id}}", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, map[string]any{"hero": map[string]any{"id": "2001"}}, res["data"])
}

func TestServeIncrementalMultipart(t *testing.T) {
	h := New(testSchema())

	rec := postJSON(t, h, `{"query": "{ hero { friends @stream(initialCount: 2, label: \"F\") { name } } }"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	mediaType, params, err := mime.ParseMediaType(rec.Header().Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(bytes.NewReader(rec.Body.Bytes()), params["boundary"])
	var parts []map[string]any
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.Equal(t, "application/json", p.Header.Get("Content-Type"))
		var payload map[string]any
		require.NoError(t, json.NewDecoder(p).Decode(&payload))
		parts = append(parts, payload)
	}

	require.Len(t, parts, 3)
	require.Equal(t, true, parts[0]["hasNext"])
	require.Equal(t, map[string]any{
		"hero": map[string]any{"friends": []any{
			map[string]any{"name": "Luke Skywalker"},
			map[string]any{"name": "Han Solo"},
		}},
	}, parts[0]["data"])

	require.Equal(t, map[string]any{"name": "Leia Organa"}, parts[1]["data"])
	require.Equal(t, []any{"hero", "friends", float64(2)}, parts[1]["path"])
	require.Equal(t, "F", parts[1]["label"])
	require.Equal(t, true, parts[1]["hasNext"])

	require.Equal(t, false, parts[2]["hasNext"])
	require.NotContains(t, parts[2], "data")
}

func TestServeBatchedRequests(t *testing.T) {
	h := New(testSchema())

	rec := postJSON(t, h, `[{"query": "{ hero { id } }"}, {"query": "{ hero { name } }"}]`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res, 2)
	require.Equal(t, map[string]any{"hero": map[string]any{"id": "2001"}}, res[0]["data"])
	require.Equal(t, map[string]any{"hero": map[string]any{"name": "R2-D2"}}, res[1]["data"])
}

func TestServeParseErrorIsBadRequestShaped(t *testing.T) {
	h := New(testSchema())

	rec := postJSON(t, h, `{"query": "{ hero {"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotContains(t, res, "data")
	require.NotEmpty(t, res["errors"])
}

func TestServeMethodNotAllowed(t *testing.T) {
	h := New(testSchema())

	req := httptest.NewRequest(http.MethodDelete, "/graphql", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServeBodyTooLarge(t *testing.T) {
	h := New(testSchema(), WithMaxBodyBytes(10))

	rec := postJSON(t, h, `{"query": "{ hero { id } }"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestServeCORSPreflight(t *testing.T) {
	h := New(testSchema(), WithCORS("https://app.example"))

	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
