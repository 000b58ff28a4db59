/*
Package jwks fetches and caches the signing keys an identity provider
publishes as a JSON Web Key Set.

The Cache is what the token validator asks for verification keys:

	jwksURI, _ := url.Parse("https://login.microsoftonline.com/contoso/discovery/v2.0/keys")

	cache, err := jwks.NewCache(
	    jwks.WithJWKSURI(jwksURI),
	    jwks.WithFetchTimeout(5*time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}

	key, err := cache.SigningKey(ctx, kid)

# Caching

The key set is fetched on first use and kept in memory until invalidated.
There is no TTL and no background refresh. Rotation is detected when a token
names a kid that is not cached: the cache is invalidated, refetched once,
and the lookup is retried. If the kid is still missing, SigningKey returns
ErrUnknownSigningKey.

Tokens signed with a key that the provider revoked keep validating until
something triggers a refetch. Call Invalidate to force one.

# Failures

Network errors, timeouts, non-200 responses, bodies over 1 MiB and
malformed documents all surface as ErrKeySourceUnavailable with the cause
wrapped. A failed fetch is not retried and leaves the cache empty, so the
next lookup tries again.

# Discovery

WithIssuerURL can be used instead of WithJWKSURI. The jwks_uri is then read
from the issuer's /.well-known/openid-configuration on first fetch and
remembered.

# Concurrency

Lookups take a read lock on an immutable KeySet, so readers never see a
partially populated set. Concurrent fetches are coalesced with
golang.org/x/sync/singleflight. A refetch triggered by a miss never joins a
fetch that started before the invalidation.
*/
package jwks
