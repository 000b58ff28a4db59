/*
Package validator turns a bearer token into a verified ClaimSet or a typed
ValidationError.

It is written for Microsoft Entra ID (Azure AD) v2.0 access tokens but
works with any issuer that signs with an asymmetric key published in a
JWKS document.

	cache, _ := jwks.NewCache(jwks.WithJWKSURI(jwksURL))

	v, err := validator.New(validator.Config{
	    ClientID: "api://demo",
	    TenantID: "contoso",
	}, cache)
	if err != nil {
	    log.Fatal(err)
	}

	claims, err := v.ValidateToken(ctx, token)
	if err != nil {
	    kind, _ := validator.KindOf(err)
	    // kind is one of the Kind constants
	}
	fmt.Println(claims.PreferredUsername())

# Verification

The token header is parsed without verification to read kid and alg. The
algorithm must be on the allow-list (RS256 unless configured otherwise; HMAC
and "none" can never be allowed). The key is then resolved by kid and the
signature, issuer, audience and expiry are checked in one step. Claims are
decoded only after that step succeeds, so no code path returns claims from
an unverified token.

The issuer must equal Config.ExpectedIssuer exactly and aud must contain
Config.ClientID exactly. exp is required. Clock skew defaults to zero and
is capped at 300 seconds.

# Errors

Every failure is a *ValidationError. errors.Is(err, ErrAuthenticationFailed)
holds for all of them; Kind tells them apart:

	KindMalformedToken            header unparsable or kid missing
	KindUnknownSigningKey         no published key for kid, even after refetch
	KindKeySourceUnavailable      the JWKS endpoint could not be read
	KindTokenExpired              exp is in the past
	KindInvalidAudience           aud does not contain the client id
	KindInvalidIssuer             iss is not the configured issuer
	KindInvalidSignatureOrFormat  everything else, including bad signatures
	KindAuthNotConfigured         the validator has no client or tenant id

A Validator built from an incomplete Config is not an error: it rejects
every token with KindAuthNotConfigured so the process can start and report
the problem per request.
*/
package validator
