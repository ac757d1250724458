package esewa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const responseSignedFields = "transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names"

// payload is a callback body whose values are written verbatim as JSON.
type payload struct {
	keys   []string
	values map[string]string
}

func newPayload(status, totalAmount, transactionUUID string) *payload {
	p := &payload{values: map[string]string{}}
	p.set("transaction_code", `"000AWEO"`)
	p.set("status", `"`+status+`"`)
	p.set("total_amount", totalAmount)
	p.set("transaction_uuid", `"`+transactionUUID+`"`)
	p.set("product_code", `"`+testProductCode+`"`)
	p.set("signed_field_names", `"`+responseSignedFields+`"`)
	return p
}

func (p *payload) set(key, rawJSON string) *payload {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = rawJSON
	return p
}

// sign computes the signature over the current values with secret.
func (p *payload) sign(t *testing.T, secret string) *payload {
	t.Helper()
	texts := make(map[string]string, len(p.values))
	for k, raw := range p.values {
		text, err := fieldText(json.RawMessage(raw))
		require.NoError(t, err)
		texts[k] = text
	}
	var names string
	require.NoError(t, json.Unmarshal([]byte(p.values["signed_field_names"]), &names))
	signature, err := NewSigner(secret).SignFields(SplitFieldNames(names), texts)
	require.NoError(t, err)
	return p.set("signature", `"`+signature+`"`)
}

func (p *payload) json() string {
	parts := make([]string, 0, len(p.keys))
	for _, k := range p.keys {
		parts = append(parts, `"`+k+`":`+p.values[k])
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (p *payload) token() string {
	return base64.StdEncoding.EncodeToString([]byte(p.json()))
}

func signedToken(t *testing.T, status, totalAmount, transactionUUID string) string {
	t.Helper()
	return newPayload(status, totalAmount, transactionUUID).sign(t, testSecret).token()
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 6, 10, 16, 24, 13, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingCart struct {
	clears int
}

func (c *countingCart) Clear(context.Context) {
	c.clears++
}
