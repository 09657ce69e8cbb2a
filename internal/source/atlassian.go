// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"net/http"
	"strings"

	"github.com/pdiddy/work-output/pkg/types"
)

// atlassianGatewayBase is the api.atlassian.com root used with scoped
// bearer tokens. Declared as a var so tests can substitute an httptest
// server.
var atlassianGatewayBase = "https://api.atlassian.com/ex"

// AtlassianAuth decides where Confluence and Jira requests go and how they
// authenticate. Query building in the adapters never depends on the mode.
type AtlassianAuth struct {
	Mode    types.AtlassianAuthMode
	Email   string
	Token   string
	CloudID string
}

// NewAtlassianAuth resolves the configured mode (auto becomes bearer when a
// cloud ID is present, basic otherwise).
func NewAtlassianAuth(cfg types.AtlassianConfig) AtlassianAuth {
	return AtlassianAuth{
		Mode:    cfg.ResolvedAuth(),
		Email:   cfg.Email,
		Token:   cfg.APIToken,
		CloudID: cfg.CloudID,
	}
}

// productRoot returns the REST root for product ("jira" or "confluence").
// Bearer mode addresses the gateway by cloud ID; basic mode talks to the
// tenant directly at directRoot.
func (a AtlassianAuth) productRoot(product, gatewaySuffix, directRoot string) string {
	if a.Mode == types.AuthBearer {
		return atlassianGatewayBase + "/" + product + "/" + a.CloudID + gatewaySuffix
	}
	return strings.TrimRight(directRoot, "/")
}

// apply sets the auth and accept headers on req.
func (a AtlassianAuth) apply(req *http.Request) {
	if a.Mode == types.AuthBearer {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	} else {
		req.SetBasicAuth(a.Email, a.Token)
	}
	req.Header.Set("Accept", "application/json")
}
