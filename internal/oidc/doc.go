/*
Package oidc locates an identity provider's signing keys through OpenID
Connect discovery.

Providers publish their metadata at a well-known location under the issuer:

	https://login.microsoftonline.com/{tenant}/v2.0/.well-known/openid-configuration

Only the issuer and jwks_uri members are read. The key cache uses this when
it is configured with an issuer URL instead of an explicit JWKS URI.

	issuerURL, _ := url.Parse("https://login.microsoftonline.com/contoso/v2.0")
	endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, client, *issuerURL)
	if err != nil {
	    // the key source is unavailable
	}
	jwksURI := endpoints.JWKSURI
*/
package oidc
