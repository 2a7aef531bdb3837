package catsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dbx-solutions/partlinker/pkg/constants"
	"github.com/dbx-solutions/partlinker/pkg/errors"
	"github.com/dbx-solutions/partlinker/pkg/logging"
)

// DummyPartName is the placeholder part seeded into every leaf category
// so the category structure survives even before real parts exist.
const DummyPartName = "DUMMY"

const (
	dummyDescription = "Placeholder part for category structure."
	manufacturerName = "dbx-solutions"
)

var parentIDRe = regexp.MustCompile(`/(\d+)$`)

// Syncer mirrors a declared category tree into one Part-DB instance.
type Syncer struct {
	baseURL string
	token   string
	client  *http.Client

	categories map[int]apiCategory
	touched    map[int]bool
}

// apiCategory is a category as the API serializes it; Parent is a
// resource IRI or empty.
type apiCategory struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Parent string `json:"parent"`
}

type apiPart struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  []parameterRef `json:"parameters"`
}

type parameterRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// apiParameter is a native parameter detail, including every value field
// the API has been observed to use.
type apiParameter struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Unit         string   `json:"unit"`
	Symbol       string   `json:"symbol"`
	Value        *string  `json:"value"`
	ValueText    *string  `json:"value_text"`
	ValueNumeric *float64 `json:"valueNumeric"`
	ValueNumSnk  *float64 `json:"value_numeric"`
}

// NewSyncer creates a syncer for one Part-DB instance.
func NewSyncer(baseURL, token string) *Syncer {
	return &Syncer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		client:     &http.Client{Timeout: constants.DefaultHTTPTimeout},
		categories: make(map[int]apiCategory),
		touched:    make(map[int]bool),
	}
}

// Run syncs the declared tree: categories are created where missing,
// every leaf gets its DUMMY part and parameter set, real parts get their
// parameters aligned, and categories absent from the tree are pruned.
func (s *Syncer) Run(ctx context.Context, cfg *Config) error {
	if s.token == "" {
		return errors.ErrAPIKeyRequired
	}

	ctx = logging.WithOperation(ctx, "category-sync")

	if err := s.fetchExistingCategories(ctx); err != nil {
		return err
	}
	if err := s.syncTree(ctx, cfg.Categories, 0, cfg.GlobalParameters); err != nil {
		return err
	}
	s.pruneCategories(ctx)

	logging.Ctx(ctx).Info().Msg("category sync complete")
	return nil
}

// fetchExistingCategories loads every category so later lookups and the
// final prune see the complete picture.
func (s *Syncer) fetchExistingCategories(ctx context.Context) error {
	s.categories = make(map[int]apiCategory)

	for page := 1; ; page++ {
		var result struct {
			Members []apiCategory `json:"hydra:member"`
			View    *struct {
				Next string `json:"hydra:next"`
			} `json:"hydra:view"`
		}
		query := url.Values{
			"page":         {strconv.Itoa(page)},
			"itemsPerPage": {strconv.Itoa(constants.CategoryPageSize)},
		}
		if err := s.getJSON(ctx, "/api/categories?"+query.Encode(), &result); err != nil {
			return err
		}
		for _, cat := range result.Members {
			s.categories[cat.ID] = cat
		}
		if len(result.Members) == 0 || result.View == nil || result.View.Next == "" {
			break
		}
	}

	logging.Ctx(ctx).Info().Int("categories", len(s.categories)).Msg("fetched existing categories")
	return nil
}

// syncTree walks the declared tree depth-first. Parameters accumulate:
// each node passes its ancestors' parameters plus its own to its
// children; leaves apply the accumulated set.
func (s *Syncer) syncTree(ctx context.Context, nodes []CategoryNode, parentID int, inherited []ParameterSpec) error {
	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}

		params := make([]ParameterSpec, 0, len(inherited)+len(node.Parameters))
		params = append(params, inherited...)
		params = append(params, node.Parameters...)

		catID, err := s.ensureCategory(ctx, node.Name, parentID)
		if err != nil {
			return err
		}

		if len(node.Children) > 0 {
			if err := s.syncTree(ctx, node.Children, catID, params); err != nil {
				return err
			}
			continue
		}

		s.ensureDummyPart(ctx, catID, params)
		s.syncRealParts(ctx, catID, params)
	}
	return nil
}

// ensureCategory finds or creates a category under the given parent and
// marks it as touched.
func (s *Syncer) ensureCategory(ctx context.Context, name string, parentID int) (int, error) {
	if id, ok := s.findCategoryID(name, parentID); ok {
		s.touched[id] = true
		return id, nil
	}

	payload := map[string]any{"name": name}
	if parentID != 0 {
		payload["parent"] = fmt.Sprintf("/api/categories/%d", parentID)
	}

	var created apiCategory
	if err := s.postJSON(ctx, "/api/categories", payload, &created); err != nil {
		return 0, errors.WrapResource("create", "category", name, err)
	}

	logging.Info().Str("category", name).Int("id", created.ID).Msg("created category")
	s.categories[created.ID] = created
	s.touched[created.ID] = true
	return created.ID, nil
}

// findCategoryID matches on name plus parent, so equal names in
// different branches stay distinct.
func (s *Syncer) findCategoryID(name string, parentID int) (int, bool) {
	for id, cat := range s.categories {
		if cat.Name != name {
			continue
		}
		catParent := 0
		if m := parentIDRe.FindStringSubmatch(cat.Parent); m != nil {
			catParent, _ = strconv.Atoi(m[1])
		}
		if catParent == parentID {
			return id, true
		}
	}
	return 0, false
}

// ensureManufacturer finds or creates the placeholder manufacturer.
func (s *Syncer) ensureManufacturer(ctx context.Context, name string) (int, error) {
	var result struct {
		Members []struct {
			ID int `json:"id"`
		} `json:"hydra:member"`
	}
	query := url.Values{"name": {name}, "itemsPerPage": {"1"}}
	if err := s.getJSON(ctx, "/api/manufacturers?"+query.Encode(), &result); err == nil && len(result.Members) > 0 {
		return result.Members[0].ID, nil
	}

	var created struct {
		ID int `json:"id"`
	}
	if err := s.postJSON(ctx, "/api/manufacturers", map[string]any{"name": name}, &created); err != nil {
		return 0, errors.WrapResource("create", "manufacturer", name, err)
	}
	logging.Info().Str("manufacturer", name).Msg("created manufacturer")
	return created.ID, nil
}

// ensureDummyPart creates or refreshes the category's placeholder part
// and aligns its parameters. Failures here degrade the one category and
// are logged, not returned; the rest of the tree still syncs.
func (s *Syncer) ensureDummyPart(ctx context.Context, categoryID int, params []ParameterSpec) {
	existing, err := s.findPart(ctx, categoryID, DummyPartName)
	if err != nil {
		logging.Err(err).Int("category", categoryID).Msg("could not look up placeholder part")
		return
	}

	mfrID, err := s.ensureManufacturer(ctx, manufacturerName)
	if err != nil {
		logging.Err(err).Int("category", categoryID).Msg("could not ensure manufacturer")
		return
	}

	if existing != nil {
		current := strings.TrimSpace(strings.ReplaceAll(existing.Description, "\r\n", "\n"))
		if current != dummyDescription {
			patch := map[string]any{
				"description":  dummyDescription,
				"manufacturer": fmt.Sprintf("/api/manufacturers/%d", mfrID),
			}
			if err := s.patchJSON(ctx, fmt.Sprintf("/api/parts/%d", existing.ID), patch); err != nil {
				logging.Err(err).Int("part", existing.ID).Msg("could not update placeholder part")
			} else {
				logging.Info().Int("category", categoryID).Msg("updated placeholder part")
			}
		}
		s.syncParameters(ctx, existing.ID, params, false)
		return
	}

	payload := map[string]any{
		"name":          DummyPartName,
		"description":   dummyDescription,
		"category":      fmt.Sprintf("/api/categories/%d", categoryID),
		"manufacturer":  fmt.Sprintf("/api/manufacturers/%d", mfrID),
		"minStockLevel": 0,
	}
	var created apiPart
	if err := s.postJSON(ctx, "/api/parts", payload, &created); err != nil {
		logging.Err(err).Int("category", categoryID).Msg("could not create placeholder part")
		return
	}
	logging.Info().Int("category", categoryID).Msg("created placeholder part")
	s.syncParameters(ctx, created.ID, params, false)
}

// syncRealParts aligns parameters on every non-placeholder part in a
// category. Values entered by users are preserved: obsolete parameters
// that carry a value are kept.
func (s *Syncer) syncRealParts(ctx context.Context, categoryID int, params []ParameterSpec) {
	for page := 1; ; page++ {
		var result struct {
			Members []apiPart `json:"hydra:member"`
			View    *struct {
				Next string `json:"hydra:next"`
			} `json:"hydra:view"`
		}
		query := url.Values{
			"category":     {strconv.Itoa(categoryID)},
			"page":         {strconv.Itoa(page)},
			"itemsPerPage": {strconv.Itoa(constants.PartPageSize)},
		}
		if err := s.getJSON(ctx, "/api/parts?"+query.Encode(), &result); err != nil {
			logging.Err(err).Int("category", categoryID).Msg("could not list parts")
			return
		}
		for _, part := range result.Members {
			if part.Name == DummyPartName {
				continue
			}
			s.syncParameters(ctx, part.ID, params, true)
		}
		if len(result.Members) == 0 || result.View == nil || result.View.Next == "" {
			return
		}
	}
}

// syncParameters creates missing parameters, updates ones whose unit or
// symbol drifted, and deletes obsolete ones. With safeDelete, a
// parameter holding any value survives deletion.
func (s *Syncer) syncParameters(ctx context.Context, partID int, desired []ParameterSpec, safeDelete bool) {
	var part apiPart
	if err := s.getJSON(ctx, fmt.Sprintf("/api/parts/%d", partID), &part); err != nil {
		logging.Err(err).Int("part", partID).Msg("could not fetch part parameters")
		return
	}

	existing := make(map[string]apiParameter, len(part.Parameters))
	for _, ref := range part.Parameters {
		var detail apiParameter
		if err := s.getJSON(ctx, fmt.Sprintf("/api/parameters/%d", ref.ID), &detail); err != nil {
			logging.Err(err).Int("parameter", ref.ID).Msg("could not fetch parameter detail")
			continue
		}
		existing[detail.Name] = detail
	}

	desiredNames := make(map[string]bool, len(desired))
	for _, spec := range desired {
		desiredNames[spec.Name] = true

		valueType := "string"
		if spec.Unit != "" {
			valueType = "numeric"
		}

		if current, ok := existing[spec.Name]; ok {
			if current.Unit == spec.Unit && current.Symbol == spec.Symbol {
				continue
			}
			payload := map[string]any{
				"name":      spec.Name,
				"unit":      spec.Unit,
				"symbol":    spec.Symbol,
				"valueType": valueType,
			}
			if err := s.putJSON(ctx, fmt.Sprintf("/api/parameters/%d", current.ID), payload); err != nil {
				logging.Err(err).Str("parameter", spec.Name).Int("part", partID).Msg("could not update parameter")
			} else {
				logging.Info().Str("parameter", spec.Name).Int("part", partID).Msg("updated parameter")
			}
			continue
		}

		payload := map[string]any{
			"name":      spec.Name,
			"unit":      spec.Unit,
			"symbol":    spec.Symbol,
			"valueType": valueType,
			"element":   fmt.Sprintf("/api/parts/%d", partID),
		}
		if err := s.postJSON(ctx, "/api/parameters", payload, nil); err != nil {
			logging.Err(err).Str("parameter", spec.Name).Int("part", partID).Msg("could not create parameter")
		} else {
			logging.Info().Str("parameter", spec.Name).Int("part", partID).Msg("created parameter")
		}
	}

	for name, param := range existing {
		if desiredNames[name] {
			continue
		}
		if safeDelete && param.hasValue() {
			continue
		}
		if err := s.delete(ctx, fmt.Sprintf("/api/parameters/%d", param.ID)); err != nil {
			logging.Err(err).Str("parameter", name).Int("part", partID).Msg("could not delete parameter")
		} else {
			logging.Info().Str("parameter", name).Int("part", partID).Msg("deleted obsolete parameter")
		}
	}
}

func (p *apiParameter) hasValue() bool {
	if p.Value != nil && strings.TrimSpace(*p.Value) != "" {
		return true
	}
	if p.ValueText != nil && strings.TrimSpace(*p.ValueText) != "" {
		return true
	}
	return p.ValueNumeric != nil || p.ValueNumSnk != nil
}

// pruneCategories removes categories that exist in Part-DB but were not
// visited by the tree walk. Only categories holding nothing but the
// placeholder part are deleted.
func (s *Syncer) pruneCategories(ctx context.Context) {
	ids := make([]int, 0, len(s.categories))
	for id := range s.categories {
		if !s.touched[id] {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	for _, id := range ids {
		s.safeDeleteCategory(ctx, id, s.categories[id].Name)
	}
}

// safeDeleteCategory deletes a category after clearing its placeholder
// parts, unless real parts live in it.
func (s *Syncer) safeDeleteCategory(ctx context.Context, categoryID int, name string) {
	var result struct {
		Members []apiPart `json:"hydra:member"`
	}
	query := url.Values{
		"category":     {strconv.Itoa(categoryID)},
		"itemsPerPage": {"50"},
	}
	if err := s.getJSON(ctx, "/api/parts?"+query.Encode(), &result); err != nil {
		logging.Err(err).Str("category", name).Msg("could not inspect category before delete")
		return
	}

	for _, part := range result.Members {
		if part.Name != DummyPartName {
			logging.Info().
				Str("category", name).
				Int("id", categoryID).
				Msg("keeping category with real parts")
			return
		}
	}

	for _, part := range result.Members {
		if err := s.delete(ctx, fmt.Sprintf("/api/parts/%d", part.ID)); err != nil {
			logging.Err(err).Int("part", part.ID).Msg("could not delete placeholder part")
		}
	}
	if err := s.delete(ctx, fmt.Sprintf("/api/categories/%d", categoryID)); err != nil {
		logging.Err(err).Str("category", name).Msg("could not delete category")
		return
	}

	logging.Info().Str("category", name).Int("id", categoryID).Msg("deleted obsolete category")
	delete(s.categories, categoryID)
}

// HTTP plumbing.

func (s *Syncer) getJSON(ctx context.Context, path string, out any) error {
	return s.do(ctx, http.MethodGet, path, "", nil, out)
}

func (s *Syncer) postJSON(ctx context.Context, path string, payload, out any) error {
	return s.do(ctx, http.MethodPost, path, "application/json", payload, out)
}

func (s *Syncer) putJSON(ctx context.Context, path string, payload any) error {
	return s.do(ctx, http.MethodPut, path, "application/json", payload, nil)
}

func (s *Syncer) patchJSON(ctx context.Context, path string, payload any) error {
	return s.do(ctx, http.MethodPatch, path, "application/merge-patch+json", payload, nil)
}

func (s *Syncer) delete(ctx context.Context, path string) error {
	return s.do(ctx, http.MethodDelete, path, "", nil, nil)
}

func (s *Syncer) do(ctx context.Context, method, path, contentType string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return errors.WrapResource("create", "request", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/ld+json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.WrapAPI(path, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewAPIError(path, resp.StatusCode, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapParse("json", path, err)
	}
	return nil
}

// findPart looks up one part by exact name within a category.
func (s *Syncer) findPart(ctx context.Context, categoryID int, name string) (*apiPart, error) {
	var result struct {
		Members []apiPart `json:"hydra:member"`
		Total   int       `json:"hydra:totalItems"`
	}
	query := url.Values{
		"category":     {strconv.Itoa(categoryID)},
		"name":         {name},
		"itemsPerPage": {"1"},
	}
	if err := s.getJSON(ctx, "/api/parts?"+query.Encode(), &result); err != nil {
		return nil, err
	}
	if result.Total == 0 || len(result.Members) == 0 {
		return nil, nil
	}
	return &result.Members[0], nil
}
