package config

import (
	"fmt"

	"github.com/nghyane/llm-gw/internal/pool"
)

// BuildAccounts constructs pool.Account values from the configured account
// list, seeding RefreshMeta.AccessToken from whichever token the operator
// already supplied. Acquiring a refresh token from scratch is an external
// collaborator's job; this only wires in what config.yaml
// already has on hand.
func BuildAccounts(entries []AccountEntry) []*pool.Account {
	accounts := make([]*pool.Account, 0, len(entries))
	for i, e := range entries {
		acc := pool.NewAccount(accountID(e, i), e.Email, e.ProjectID)
		acc.RefreshMeta.AccessToken = e.AccessToken
		accounts = append(accounts, acc)
	}
	return accounts
}

// accountID prefers the email as a human-legible pool id, falling back to
// a positional id for the (operator error) case of a blank email.
func accountID(e AccountEntry, i int) string {
	if e.Email != "" {
		return e.Email
	}
	return fmt.Sprintf("account-%d", i)
}
