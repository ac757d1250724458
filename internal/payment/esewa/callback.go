package esewa

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// AcceptedKeys are the query parameters eSewa has been observed to carry the
// encoded response under.
var AcceptedKeys = []string{"data", "response", "encodedResponse", "payload"}

var (
	ErrNoToken          = errors.New("no encoded response in callback url")
	ErrMalformedPayload = errors.New("malformed payment response")
)

// TokenSource tells which extraction layer found the token.
type TokenSource string

const (
	SourceNone     TokenSource = ""
	SourceParam    TokenSource = "param"
	SourceEmbedded TokenSource = "embedded"
	SourceRawURL   TokenSource = "raw_url"
)

const embeddedMarker = "data="

var (
	rawDataToken = regexp.MustCompile(`data=([A-Za-z0-9+/_\-]{8,}(?:=|%3[Dd]){0,2})`)
	percentPad   = regexp.MustCompile(`%3[Dd]`)
)

// trailingDelimiters are stripped from the end of an extracted token.
const trailingDelimiters = "&?#/\"'"

// ExtractToken finds the base64 response in a callback URL. Query parameters
// are tried first, then a data= fragment embedded in another parameter value
// (eSewa sometimes appends ?data= to a URL that already has a query), then a
// scan over the percent-decoded URL.
func ExtractToken(rawURL string) (string, TokenSource) {
	if u, err := url.Parse(rawURL); err == nil {
		query := u.Query()
		for _, key := range AcceptedKeys {
			if token := cleanToken(query.Get(key)); token != "" {
				return token, SourceParam
			}
		}

		keys := make([]string, 0, len(query))
		for key := range query {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			for _, value := range query[key] {
				if token := embeddedToken(value); token != "" {
					return token, SourceEmbedded
				}
			}
		}
	}

	if token := scanRawURL(rawURL); token != "" {
		return token, SourceRawURL
	}
	return "", SourceNone
}

func embeddedToken(value string) string {
	i := strings.Index(value, embeddedMarker)
	if i < 0 {
		return ""
	}
	rest := value[i+len(embeddedMarker):]
	if j := strings.IndexAny(rest, "&?#"); j >= 0 {
		rest = rest[:j]
	}
	return cleanToken(rest)
}

func scanRawURL(rawURL string) string {
	decoded := percentPad.ReplaceAllString(rawURL, "=")
	if unescaped, err := url.PathUnescape(decoded); err == nil {
		decoded = unescaped
	}
	match := rawDataToken.FindStringSubmatch(decoded)
	if match == nil {
		return ""
	}
	return cleanToken(match[1])
}

func cleanToken(token string) string {
	token = strings.TrimSpace(token)
	token = strings.TrimRight(token, trailingDelimiters)
	return percentPad.ReplaceAllString(token, "=")
}

// FallbackStatus returns the bare status=success|failure flag, ignoring
// anything glued onto it by a malformed redirect.
func FallbackStatus(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	status := u.Query().Get("status")
	if i := strings.IndexAny(status, "?&#"); i >= 0 {
		status = status[:i]
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "success" || status == "failure" {
		return status
	}
	return ""
}

// CleanURL strips callback parameters from the return URL so that it can
// replace the visible address without re-triggering processing.
func CleanURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	query := u.Query()
	for _, key := range AcceptedKeys {
		query.Del(key)
	}
	query.Del("status")
	for key, values := range query {
		for _, v := range values {
			if strings.Contains(v, embeddedMarker) {
				query.Del(key)
				break
			}
		}
	}
	u.RawQuery = query.Encode()
	u.Fragment = ""
	return u.String()
}

// Response is a decoded eSewa callback payload.
type Response struct {
	TransactionCode  string
	Status           Status
	TotalAmount      string
	TransactionUUID  string
	ProductCode      string
	SignedFieldNames string
	Signature        string

	fields map[string]string
}

// Field returns the exact text of a payload field as it was signed.
func (r Response) Field(name string) (string, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Fields returns a copy of every payload field as text.
func (r Response) Fields() map[string]string {
	out := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// SignedFields returns the field names the signature covers, in order.
func (r Response) SignedFields() []string {
	return SplitFieldNames(r.SignedFieldNames)
}

// Amount parses total_amount, which eSewa formats with thousands separators.
func (r Response) Amount() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(r.TotalAmount), ",", ""))
}

// DecodeResponse decodes a base64 token into a Response. Standard and
// URL-safe alphabets are accepted, as are missing padding and spaces left by
// form decoding of '+'.
func DecodeResponse(token string) (Response, error) {
	if strings.TrimSpace(token) == "" {
		return Response{}, ErrNoToken
	}
	raw, err := decodeBase64(token)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(raw, &object); err != nil || object == nil {
		if err == nil {
			err = errors.New("payload is not an object")
		}
		return Response{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	fields := make(map[string]string, len(object))
	for name, value := range object {
		text, err := fieldText(value)
		if err != nil {
			return Response{}, fmt.Errorf("%w: field %s: %v", ErrMalformedPayload, name, err)
		}
		fields[name] = text
	}

	return Response{
		TransactionCode:  fields["transaction_code"],
		Status:           ParseStatus(fields["status"]),
		TotalAmount:      fields["total_amount"],
		TransactionUUID:  fields["transaction_uuid"],
		ProductCode:      fields["product_code"],
		SignedFieldNames: fields["signed_field_names"],
		Signature:        fields["signature"],
		fields:           fields,
	}, nil
}

// fieldText returns the value as eSewa signed it: strings unquoted, numbers
// and booleans in their literal form.
func fieldText(value json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", errors.New("nested values are not supported")
	default:
		return string(trimmed), nil
	}
}

func decodeBase64(token string) ([]byte, error) {
	t := strings.TrimSpace(token)
	t = strings.NewReplacer(" ", "+", "-", "+", "_", "/", "\n", "", "\r", "").Replace(t)
	t = strings.TrimRight(t, "=")
	return base64.RawStdEncoding.DecodeString(t)
}
