package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

var errBaseURLRequired = errors.New("remote base url is required")

type tokenKey struct{}

// ContextWithToken carries the caller's bearer token so row-level policies
// on the remote apply to requests made on their behalf.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// RESTStore speaks the PostgREST dialect of a hosted row store.
type RESTStore struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// RESTOption configures optional client behavior.
type RESTOption func(*RESTStore)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) RESTOption {
	return func(s *RESTStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// NewRESTStore builds a REST store for baseURL (e.g. https://host/rest/v1).
func NewRESTStore(baseURL, apiKey string, opts ...RESTOption) (*RESTStore, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	store := &RESTStore{
		baseURL:    trimmed,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

func (s *RESTStore) Select(ctx context.Context, table string, q Query, dest any) error {
	if err := ValidateIdentifier(table); err != nil {
		return err
	}
	if err := q.Validate(); err != nil {
		return err
	}

	params := encodeFilter(q.Filter)
	params.Set("select", "*")
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(q.OrderBy) > 0 {
		parts := make([]string, 0, len(q.OrderBy))
		for _, o := range q.OrderBy {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			parts = append(parts, o.Column+"."+dir)
		}
		params.Set("order", strings.Join(parts, ","))
	}

	body, err := s.do(ctx, http.MethodGet, table, params, nil, "")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "decode select response")
	}
	return nil
}

func (s *RESTStore) Insert(ctx context.Context, table string, rows any) error {
	if err := ValidateIdentifier(table); err != nil {
		return err
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal insert payload: %w", err)
	}

	body, err := s.do(ctx, http.MethodPost, table, url.Values{}, payload, "return=representation")
	if err != nil {
		return err
	}
	if err := decodeRepresentation(body, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "decode insert response")
	}
	return nil
}

func (s *RESTStore) Update(ctx context.Context, table string, patch map[string]any, f Filter) error {
	if err := ValidateIdentifier(table); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if len(f) == 0 {
		return errUnscopedWrite
	}
	payload, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal update payload: %w", err)
	}

	_, err = s.do(ctx, http.MethodPatch, table, encodeFilter(f), payload, "return=minimal")
	return err
}

func (s *RESTStore) Delete(ctx context.Context, table string, f Filter) error {
	if err := ValidateIdentifier(table); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if len(f) == 0 {
		return errUnscopedWrite
	}

	_, err := s.do(ctx, http.MethodDelete, table, encodeFilter(f), nil, "return=minimal")
	return err
}

func (s *RESTStore) do(ctx context.Context, method, table string, params url.Values, payload []byte, prefer string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%s", s.baseURL, table)
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "build remote request")
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
	}
	bearer := TokenFromContext(ctx)
	if bearer == "" {
		bearer = s.apiKey
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "execute remote request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		statusErr := &StatusError{
			Method: method,
			Table:  table,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(msg)),
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, statusErr, "remote request failed")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "read remote response")
	}
	return body, nil
}

// StatusError is a non-2xx answer from the REST remote.
type StatusError struct {
	Method string
	Table  string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s status %d: %s", e.Method, e.Table, e.Status, e.Body)
}

func (e *StatusError) RemoteStatus() int   { return e.Status }
func (e *StatusError) RemoteTable() string { return e.Table }

// decodeRepresentation copies the returned rows back into the caller's
// value. PostgREST always answers with an array.
func decodeRepresentation(body []byte, rows any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	target := reflect.TypeOf(rows)
	if target != nil && target.Kind() == reflect.Pointer && target.Elem().Kind() == reflect.Slice {
		return json.Unmarshal(body, rows)
	}

	var returned []json.RawMessage
	if err := json.Unmarshal(body, &returned); err != nil {
		return err
	}
	if len(returned) == 0 {
		return nil
	}
	return json.Unmarshal(returned[0], rows)
}

func encodeFilter(f Filter) url.Values {
	params := url.Values{}
	var groups []string
	for _, c := range f {
		if len(c.Any) == 1 {
			cond := c.Any[0]
			params.Add(cond.Column, operand(cond))
			continue
		}
		parts := make([]string, 0, len(c.Any))
		for _, cond := range c.Any {
			parts = append(parts, cond.Column+"."+quoteReserved(operand(cond)))
		}
		groups = append(groups, "("+strings.Join(parts, ",")+")")
	}

	switch len(groups) {
	case 0:
	case 1:
		params.Set("or", groups[0])
	default:
		nested := make([]string, 0, len(groups))
		for _, g := range groups {
			nested = append(nested, "or"+g)
		}
		params.Set("and", "("+strings.Join(nested, ",")+")")
	}
	return params
}

// operand renders cond in PostgREST's op.value form. PostgREST turns every
// * into % and has no literal form for it, so a * in an ilike term matches
// any single character.
func operand(cond Condition) string {
	if cond.Op == OpILike {
		term := strings.ReplaceAll(EscapeLike(formatValue(cond.Value)), "*", "_")
		return "ilike.*" + term + "*"
	}
	return "eq." + formatValue(cond.Value)
}

// quoteReserved quotes the value part of op.value when it contains
// characters PostgREST treats as syntax inside logical groups.
func quoteReserved(op string) string {
	dot := strings.Index(op, ".")
	name, value := op[:dot], op[dot+1:]
	if !strings.ContainsAny(value, ",.:()\" ") {
		return op
	}
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value)
	return name + `."` + escaped + `"`
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
