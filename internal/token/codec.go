package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
)

// MinSecretLength is the minimum signing secret length in bytes.
const MinSecretLength = 16

// Codec signs and verifies continuation tokens. Tokens are client-held
// state: the signature is what makes the delivered-ID set trustworthy.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec creates a Codec with the given signing secret and token lifetime.
func NewCodec(secret []byte, ttl time.Duration) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("token secret too short (min %d bytes)", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %v", ttl)
	}
	return &Codec{secret: secret, ttl: ttl, now: time.Now}, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// payload is the wire form of a token. Short keys keep the encoded
// cursor compact; delivered sets grow with every batch.
type payload struct {
	Query     string      `json:"q"`
	Matches   []matchPair `json:"m,omitempty"`
	Ranges    []rangeSpec `json:"r,omitempty"`
	Soft      []string    `json:"s,omitempty"`
	Complex   bool        `json:"x,omitempty"`
	Delivered []string    `json:"d,omitempty"`
	Batch     int         `json:"b"`
	IssuedAt  int64       `json:"t"`
}

type matchPair struct {
	Key   string `json:"k"`
	Value string `json:"v"`
}

type rangeSpec struct {
	Key string   `json:"k"`
	GTE *float64 `json:"gte,omitempty"`
	LTE *float64 `json:"lte,omitempty"`
}

// Encode serializes and signs a token as base64url(payload).base64url(mac).
func (c *Codec) Encode(t Token) (string, error) {
	p := payload{
		Query:     t.query,
		Soft:      t.filters.Soft(),
		Complex:   t.complexQuery,
		Delivered: t.delivered,
		Batch:     t.batchNumber,
		IssuedAt:  t.issuedAt.Unix(),
	}
	for _, cond := range t.filters.Must() {
		switch {
		case cond.IsMatch():
			p.Matches = append(p.Matches, matchPair{Key: cond.Key(), Value: cond.Match()})
		case cond.IsRange():
			r := cond.Range()
			p.Ranges = append(p.Ranges, rangeSpec{Key: cond.Key(), GTE: r.GTE(), LTE: r.LTE()})
		}
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal token payload: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(raw) + "." +
		base64.RawURLEncoding.EncodeToString(c.sign(raw)), nil
}

// Decode verifies and parses an encoded token. Structural and signature
// defects yield ErrTokenMalformed; a valid but stale token yields
// ErrTokenExpired.
func (c *Codec) Decode(encoded string) (Token, error) {
	head, tail, ok := strings.Cut(encoded, ".")
	if !ok || head == "" || tail == "" {
		return Token{}, fmt.Errorf("%w: bad segment layout", domain.ErrTokenMalformed)
	}

	raw, err := base64.RawURLEncoding.DecodeString(head)
	if err != nil {
		return Token{}, fmt.Errorf("%w: payload encoding", domain.ErrTokenMalformed)
	}
	mac, err := base64.RawURLEncoding.DecodeString(tail)
	if err != nil {
		return Token{}, fmt.Errorf("%w: signature encoding", domain.ErrTokenMalformed)
	}
	if !hmac.Equal(mac, c.sign(raw)) {
		return Token{}, fmt.Errorf("%w: signature mismatch", domain.ErrTokenMalformed)
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Token{}, fmt.Errorf("%w: payload structure", domain.ErrTokenMalformed)
	}

	filters, err := c.rebuildFilters(p)
	if err != nil {
		return Token{}, fmt.Errorf("%w: filter payload", domain.ErrTokenMalformed)
	}

	issuedAt := time.Unix(p.IssuedAt, 0)
	t, err := New(p.Query, filters, p.Complex, p.Delivered, p.Batch, issuedAt)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}

	if c.now().Sub(issuedAt) > c.ttl {
		return Token{}, fmt.Errorf("%w: issued at %s", domain.ErrTokenExpired, issuedAt.UTC().Format(time.RFC3339))
	}

	return t, nil
}

func (c *Codec) rebuildFilters(p payload) (filter.Set, error) {
	conds := make([]filter.Condition, 0, len(p.Matches)+len(p.Ranges))
	for _, m := range p.Matches {
		cond, err := filter.NewMatch(m.Key, m.Value)
		if err != nil {
			return filter.Set{}, err
		}
		conds = append(conds, cond)
	}
	for _, r := range p.Ranges {
		rng, err := filter.NewRangeFilter(r.GTE, r.LTE)
		if err != nil {
			return filter.Set{}, err
		}
		cond, err := filter.NewRange(r.Key, rng)
		if err != nil {
			return filter.Set{}, err
		}
		conds = append(conds, cond)
	}
	return filter.NewSet(conds, p.Soft)
}

func (c *Codec) sign(raw []byte) []byte {
	h := hmac.New(sha256.New, c.secret)
	h.Write(raw)
	return h.Sum(nil)
}
