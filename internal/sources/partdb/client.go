// Package partdb implements the Part-DB API client: it fetches part
// records created after a cutoff date, follows the hydra collection
// pagination, and expands each part's parameter references into the
// name→value bag the symbol core consumes.
package partdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dbx-solutions/partlinker/pkg/constants"
	"github.com/dbx-solutions/partlinker/pkg/errors"
	"github.com/dbx-solutions/partlinker/pkg/logging"
	"github.com/dbx-solutions/partlinker/pkg/parts"
)

const acceptHeader = "application/ld+json"

// Client talks to one Part-DB instance.
type Client struct {
	BaseURL   string
	AfterDate string // YYYY-MM-DD; parts added on or before are skipped
	Client    *http.Client

	token    string
	pageSize int
}

// NewClient creates a Part-DB client. afterDate is YYYY-MM-DD.
func NewClient(baseURL, token, afterDate string) *Client {
	return &Client{
		BaseURL:   baseURL,
		AfterDate: afterDate,
		Client:    &http.Client{Timeout: constants.DefaultHTTPTimeout},
		token:     token,
		pageSize:  constants.DefaultPageSize,
	}
}

// wirePart is a part record as the API serializes it: fixed attributes
// inline, parameters as a list of resource references.
type wirePart struct {
	ID                     int                 `json:"id"`
	Name                   string              `json:"name"`
	Description            string              `json:"description"`
	Category               *parts.Category     `json:"category"`
	Footprint              *parts.Footprint    `json:"footprint"`
	Manufacturer           *parts.Manufacturer `json:"manufacturer"`
	ManufacturerProductURL string              `json:"manufacturer_product_url"`
	AddedDate              string              `json:"addedDate"`
	Parameters             []parameterRef      `json:"parameters"`
}

type parameterRef struct {
	ID string `json:"@id"`
}

// partsPage is one page of the hydra parts collection.
type partsPage struct {
	Members []wirePart `json:"hydra:member"`
	View    *hydraView `json:"hydra:view"`
}

type hydraView struct {
	Next string `json:"hydra:next"`
}

// parameterDetail is the part of a parameter resource the client uses.
type parameterDetail struct {
	Name      string `json:"name"`
	ValueText string `json:"value_text"`
}

// FetchParts returns all parts added after the cutoff date, with their
// parameter bags fully expanded. A failing parameter fetch degrades that
// one parameter with a warning; a failing page fetch fails the run.
func (c *Client) FetchParts(ctx context.Context) ([]*parts.Part, error) {
	if c.token == "" {
		return nil, errors.ErrAPIKeyRequired
	}
	apiDate, err := convertAfterDate(c.AfterDate)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithOperation(ctx, "fetch")
	logging.Ctx(ctx).Info().
		Str("base_url", c.BaseURL).
		Str("added_after", apiDate).
		Msg("fetching parts from Part-DB")

	var records []*parts.Part
	for page := 1; ; page++ {
		result, err := c.fetchPage(ctx, page, apiDate)
		if err != nil {
			return nil, err
		}
		for i := range result.Members {
			records = append(records, c.expandPart(ctx, &result.Members[i]))
		}
		if result.View == nil || result.View.Next == "" || len(result.Members) == 0 {
			break
		}
	}

	logging.Ctx(ctx).Info().Int("parts", len(records)).Msg("fetch complete")
	return records, nil
}

// fetchPage requests one page of the parts collection.
func (c *Client) fetchPage(ctx context.Context, page int, apiDate string) (*partsPage, error) {
	endpoint := c.BaseURL + "/api/parts"
	query := url.Values{
		"page":             {strconv.Itoa(page)},
		"itemsPerPage":     {strconv.Itoa(c.pageSize)},
		"addedDate[after]": {apiDate},
		"order[name]":      {"asc"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", endpoint, err)
	}
	c.setHeaders(req)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, errors.WrapAPI(endpoint, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewAPIError(endpoint, resp.StatusCode, resp.Status)
	}

	var result partsPage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.WrapParse("json", endpoint, err)
	}
	return &result, nil
}

// expandPart converts a wire record into a core part, fetching each
// parameter reference for its text value. An empty value becomes "-" so
// the bag distinguishes a present-but-blank parameter from an absent one.
func (c *Client) expandPart(ctx context.Context, wire *wirePart) *parts.Part {
	part := &parts.Part{
		ID:                     wire.ID,
		Name:                   wire.Name,
		Description:            wire.Description,
		Category:               wire.Category,
		Footprint:              wire.Footprint,
		Manufacturer:           wire.Manufacturer,
		ManufacturerProductURL: wire.ManufacturerProductURL,
		AddedDate:              wire.AddedDate,
		Parameters:             make(map[string]string, len(wire.Parameters)),
	}

	partCtx := logging.WithPart(ctx, wire.Name)
	for _, ref := range wire.Parameters {
		detail, err := c.fetchParameter(ctx, ref.ID)
		if err != nil {
			logging.Ctx(partCtx).Err(err).
				Str("parameter", ref.ID).
				Msg("could not fetch parameter")
			continue
		}
		if detail.Name == "" {
			continue
		}
		value := detail.ValueText
		if value == "" {
			value = "-"
		}
		part.Parameters[detail.Name] = value
	}

	return part
}

// fetchParameter resolves one parameter resource reference.
func (c *Client) fetchParameter(ctx context.Context, refID string) (*parameterDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ParameterFetchTimeout)
	defer cancel()

	endpoint := c.BaseURL + refID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", endpoint, err)
	}
	c.setHeaders(req)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, errors.WrapAPI(endpoint, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewAPIError(endpoint, resp.StatusCode, resp.Status)
	}

	var detail parameterDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, errors.WrapParse("json", endpoint, err)
	}
	return &detail, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("accept", acceptHeader)
	req.Header.Set("Authorization", "Bearer "+c.token)
}

// convertAfterDate converts YYYY-MM-DD to the DD.MM.YYYY form the API
// filter expects.
func convertAfterDate(afterDate string) (string, error) {
	parsed, err := time.Parse("2006-01-02", afterDate)
	if err != nil {
		return "", errors.NewConfigError("partdb",
			fmt.Sprintf("invalid after-date %q, expected YYYY-MM-DD", afterDate), err)
	}
	return parsed.Format("02.01.2006"), nil
}
