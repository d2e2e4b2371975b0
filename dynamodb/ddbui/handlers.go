package ddbui

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-chi/chi/v5"

	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/attrinspect"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbbrowse"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbconn"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbstore"
)

const (
	filterParamPrefix = "filter."
	maxInspectBody    = 16 << 20
)

// APIHandler serves the JSON API.
type APIHandler struct {
	browser   *ddbbrowse.Browser
	inspector *attrinspect.Inspector
	identity  IdentityFunc
	scanLimit int
}

// NewAPIHandler creates a new API handler. identity may be nil.
func NewAPIHandler(browser *ddbbrowse.Browser, inspector *attrinspect.Inspector, identity IdentityFunc, scanLimit int) *APIHandler {
	if scanLimit <= 0 {
		scanLimit = ddbbrowse.DefaultScanLimit
	}
	return &APIHandler{
		browser:   browser,
		inspector: inspector,
		identity:  identity,
		scanLimit: scanLimit,
	}
}

// RegisterRoutes registers all API routes on r.
func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/tables", h.listTables)
		r.Get("/tables/{table}", h.getTable)
		r.Get("/tables/{table}/items", h.scanItems)
		r.Post("/inspect", h.inspect)
		r.Get("/regions", h.regions)
		r.Get("/whoami", h.whoami)
	})
}

func (h *APIHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) listTables(w http.ResponseWriter, r *http.Request) {
	names, err := h.browser.ListCollections(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": names})
}

func (h *APIHandler) getTable(w http.ResponseWriter, r *http.Request) {
	c, err := h.browser.Describe(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type scanResponse struct {
	Items   []map[string]any   `json:"items"`
	Rows    [][]ddbbrowse.Cell `json:"rows"`
	Columns []string           `json:"columns"`
	Count   int                `json:"count"`
	Scanned int                `json:"scanned"`
	LastKey string             `json:"lastKey,omitempty"`
}

// scanItems scans up to limit records, then applies search and column
// filters to that page.
func (h *APIHandler) scanItems(w http.ResponseWriter, r *http.Request) {
	tableName := chi.URLParam(r, "table")
	q := r.URL.Query()

	opts := ddbbrowse.ScanOptions{Limit: parseIntParam(r, "limit", h.scanLimit)}
	if attrs := q.Get("attributes"); attrs != "" {
		for _, a := range strings.Split(attrs, ",") {
			if a = strings.TrimSpace(a); a != "" {
				opts.Attributes = append(opts.Attributes, a)
			}
		}
	}
	if lastKey := q.Get("lastKey"); lastKey != "" {
		key, err := decodeLastKey(lastKey)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid lastKey: "+err.Error())
			return
		}
		opts.StartKey = key
	}

	filter := ddbbrowse.Filter{Search: q.Get("search")}
	for name, values := range q {
		if col, ok := strings.CutPrefix(name, filterParamPrefix); ok && col != "" && len(values) > 0 {
			if filter.Columns == nil {
				filter.Columns = make(map[string]string)
			}
			filter.Columns[col] = values[0]
		}
	}

	page, err := h.browser.Scan(r.Context(), tableName, opts)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	var keys ddbbrowse.Collection
	if c, err := h.browser.Describe(r.Context(), tableName); err == nil {
		keys = c
	}
	columns := ddbbrowse.Columns(page.Items, keys.Keys)
	matched := filter.Apply(page.Items)

	resp := scanResponse{
		Items:   make([]map[string]any, 0, len(matched)),
		Rows:    make([][]ddbbrowse.Cell, 0, len(matched)),
		Columns: columns,
		Count:   len(matched),
		Scanned: len(page.Items),
	}
	if resp.Columns == nil {
		resp.Columns = []string{}
	}
	for _, item := range matched {
		doc, err := ddbbrowse.Document(item)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Items = append(resp.Items, doc)
		resp.Rows = append(resp.Rows, ddbbrowse.Cells(item, columns))
	}
	if page.LastKey != nil {
		encoded, err := encodeLastKey(page.LastKey)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.LastKey = encoded
	}

	writeJSON(w, http.StatusOK, resp)
}

type inspectRequest struct {
	Value json.RawMessage `json:"value"`
	// Binary marks a string value as base64 encoded bytes.
	Binary bool `json:"binary"`
	// Title replaces the default title of plain content.
	Title string `json:"title"`
}

func (h *APIHandler) inspect(w http.ResponseWriter, r *http.Request) {
	var req inspectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInspectBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	v, err := inspectValue(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.inspector.InspectNamed(r.Context(), req.Title, v))
}

func inspectValue(req inspectRequest) (attrinspect.Value, error) {
	if len(req.Value) == 0 {
		return attrinspect.Value{}, errors.New("value is required")
	}

	dec := json.NewDecoder(bytes.NewReader(req.Value))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return attrinspect.Value{}, fmt.Errorf("invalid value: %w", err)
	}

	if !req.Binary {
		return attrinspect.FromAny(raw), nil
	}
	s, ok := raw.(string)
	if !ok {
		return attrinspect.Value{}, errors.New("binary value must be a base64 string")
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return attrinspect.Value{}, fmt.Errorf("binary value is not base64: %w", err)
	}
	return attrinspect.Bytes(b), nil
}

func (h *APIHandler) regions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"regions": ddbconn.Regions()})
}

func (h *APIHandler) whoami(w http.ResponseWriter, r *http.Request) {
	if h.identity == nil {
		writeError(w, http.StatusNotFound, "identity is only available when browsing AWS")
		return
	}
	id, err := h.identity(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// statusFor maps backend errors to HTTP status codes.
func statusFor(err error) int {
	var notFound *types.ResourceNotFoundException
	switch {
	case errors.Is(err, ddbstore.ErrTableNotFound), errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// encodeLastKey packs a key into an opaque URL-safe token. Key attributes
// are always S, N or B, so each is stored with its type tag.
func encodeLastKey(key map[string]types.AttributeValue) (string, error) {
	tagged := make(map[string]map[string]string, len(key))
	for name, av := range key {
		switch v := av.(type) {
		case *types.AttributeValueMemberS:
			tagged[name] = map[string]string{"S": v.Value}
		case *types.AttributeValueMemberN:
			tagged[name] = map[string]string{"N": v.Value}
		case *types.AttributeValueMemberB:
			tagged[name] = map[string]string{"B": base64.StdEncoding.EncodeToString(v.Value)}
		default:
			return "", fmt.Errorf("key attribute %q has unsupported type %T", name, av)
		}
	}
	b, err := json.Marshal(tagged)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodeLastKey(encoded string) (map[string]types.AttributeValue, error) {
	b, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	var tagged map[string]map[string]string
	if err := json.Unmarshal(b, &tagged); err != nil {
		return nil, err
	}

	key := make(map[string]types.AttributeValue, len(tagged))
	for name, tv := range tagged {
		if len(tv) != 1 {
			return nil, fmt.Errorf("key attribute %q must have exactly one type", name)
		}
		for typ, val := range tv {
			switch typ {
			case "S":
				key[name] = &types.AttributeValueMemberS{Value: val}
			case "N":
				key[name] = &types.AttributeValueMemberN{Value: val}
			case "B":
				raw, err := base64.StdEncoding.DecodeString(val)
				if err != nil {
					return nil, fmt.Errorf("key attribute %q: %w", name, err)
				}
				key[name] = &types.AttributeValueMemberB{Value: raw}
			default:
				return nil, fmt.Errorf("key attribute %q has unsupported type %q", name, typ)
			}
		}
	}
	return key, nil
}
