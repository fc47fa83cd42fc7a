package config

import "testing"

func TestBuildAccountsSeedsAccessTokenAndEmail(t *testing.T) {
	accounts := BuildAccounts([]AccountEntry{
		{Email: "a@example.com", ProjectID: "proj-1", AccessToken: "tok-1"},
	})
	if len(accounts) != 1 {
		t.Fatalf("expected one account, got %d", len(accounts))
	}
	acc := accounts[0]
	if acc.ID != "a@example.com" || acc.Email != "a@example.com" || acc.ProjectID != "proj-1" {
		t.Fatalf("unexpected account identity: %+v", acc)
	}
	if acc.RefreshMeta.AccessToken != "tok-1" {
		t.Fatalf("expected access token seeded, got %q", acc.RefreshMeta.AccessToken)
	}
}

func TestBuildAccountsFallsBackToPositionalIDWhenEmailBlank(t *testing.T) {
	accounts := BuildAccounts([]AccountEntry{{ProjectID: "proj-1"}})
	if accounts[0].ID != "account-0" {
		t.Fatalf("expected positional fallback id, got %q", accounts[0].ID)
	}
}
