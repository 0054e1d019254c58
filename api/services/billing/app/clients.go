package app

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	billingdb "github.com/stockwolf/billing-api/api/services/billing/db"
)

// ListActiveClients returns the clients entitled to digests, for the
// automation workflow holding the shared secret.
func (s serviceImpl) ListActiveClients(ctx context.Context, sharedSecret string) ([]ActiveClient, error) {
	want, err := s.cfg.AutomationSecret()
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(sharedSecret), []byte(want)) != 1 {
		return nil, ErrUnauthorized
	}

	rows, err := s.store.ListActiveClients(ctx, billingdb.ActiveStatuses, billingdb.ActiveClientsLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: error listing active clients: %v", ErrDatabase, err)
	}

	out := make([]ActiveClient, 0, len(rows))
	for _, c := range rows {
		out = append(out, ActiveClient{
			ClientID:        c.ClientID,
			ClientName:      c.ClientName,
			DigestEmails:    c.DigestEmails,
			UrgentEmails:    c.UrgentEmails,
			UniverseTickers: ParseTickers(firstNonBlank(c.UniverseTickers, s.cfg.DefaultUniverseTickers)),
			SECTickers:      ParseTickers(firstNonBlank(c.SECTickers, s.cfg.DefaultSECTickers)),
			Timezone:        firstNonBlank(c.Timezone, s.cfg.DefaultTimezone),
		})
	}
	return out, nil
}

// ParseTickers splits a comma-separated ticker list. Entries are trimmed and
// upper-cased; empties and repeats are dropped, first occurrence wins.
func ParseTickers(raw string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		t := strings.ToUpper(strings.TrimSpace(part))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
