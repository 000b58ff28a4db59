// Package testissuer runs an in-process identity provider for tests. It
// publishes a JWKS document and an OpenID discovery document over httptest
// and signs tokens with the private halves of the published keys.
package testissuer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

// Tenant is the tenant segment of every URL the issuer serves.
const Tenant = "tenant"

type signingKey struct {
	alg       jwa.SignatureAlgorithm
	private   jwk.Key
	public    jwk.Key
	published bool
}

// Issuer is a fake identity provider.
type Issuer struct {
	server *httptest.Server

	mu      sync.Mutex
	order   []string
	keys    map[string]*signingKey
	status  int
	rawJWKS string
	delay   time.Duration

	fetches atomic.Int64
}

// New starts an Issuer. It is shut down when the test ends.
func New(t testing.TB) *Issuer {
	t.Helper()

	iss := &Issuer{keys: make(map[string]*signingKey)}

	mux := http.NewServeMux()
	mux.HandleFunc("/"+Tenant+"/discovery/v2.0/keys", iss.serveJWKS)
	mux.HandleFunc("/"+Tenant+"/v2.0/.well-known/openid-configuration", iss.serveDiscovery)
	iss.server = httptest.NewServer(mux)
	t.Cleanup(iss.server.Close)

	return iss
}

// URL is the authority base, i.e. the server root.
func (i *Issuer) URL() string {
	return i.server.URL
}

// Client returns an HTTP client for the server.
func (i *Issuer) Client() *http.Client {
	return i.server.Client()
}

// Issuer is the value expected in the iss claim.
func (i *Issuer) Issuer() string {
	return i.server.URL + "/" + Tenant + "/v2.0"
}

// IssuerURL is Issuer parsed.
func (i *Issuer) IssuerURL() *url.URL {
	u, _ := url.Parse(i.Issuer())
	return u
}

// JWKSURL is where the key set is served.
func (i *Issuer) JWKSURL() *url.URL {
	u, _ := url.Parse(i.server.URL + "/" + Tenant + "/discovery/v2.0/keys")
	return u
}

// AddKey generates an RSA key, publishes it under kid and returns it.
func (i *Issuer) AddKey(t testing.TB, kid string) jwk.Key {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return i.addKey(t, kid, jwa.RS256, raw)
}

// AddECKey generates a P-256 key for ES256 and publishes it under kid.
func (i *Issuer) AddECKey(t testing.TB, kid string) jwk.Key {
	t.Helper()

	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	return i.addKey(t, kid, jwa.ES256, raw)
}

func (i *Issuer) addKey(t testing.TB, kid string, alg jwa.SignatureAlgorithm, raw any) jwk.Key {
	t.Helper()

	private, err := jwk.FromRaw(raw)
	require.NoError(t, err)
	require.NoError(t, private.Set(jwk.KeyIDKey, kid))

	public, err := private.PublicKey()
	require.NoError(t, err)
	require.NoError(t, public.Set(jwk.KeyUsageKey, jwk.ForSignature))
	require.NoError(t, public.Set(jwk.AlgorithmKey, alg))

	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.keys[kid]; !ok {
		i.order = append(i.order, kid)
	}
	i.keys[kid] = &signingKey{alg: alg, private: private, public: public, published: true}

	return public
}

// Unpublish removes kid from the JWKS document. Tokens can still be signed
// with it.
func (i *Issuer) Unpublish(kid string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if k, ok := i.keys[kid]; ok {
		k.published = false
	}
}

// Publish puts a previously unpublished key back into the JWKS document.
func (i *Issuer) Publish(kid string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if k, ok := i.keys[kid]; ok {
		k.published = true
	}
}

// SetUnavailable makes the JWKS endpoint answer with status. Zero restores
// normal service.
func (i *Issuer) SetUnavailable(status int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.status = status
}

// SetRawJWKS serves body verbatim instead of the generated key set. An
// empty body restores the generated one.
func (i *Issuer) SetRawJWKS(body string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.rawJWKS = body
}

// SetDelay holds every JWKS response for d.
func (i *Issuer) SetDelay(d time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.delay = d
}

// Fetches counts JWKS requests served so far.
func (i *Issuer) Fetches() int {
	return int(i.fetches.Load())
}

// Sign signs claims with the private key registered under kid and puts kid
// in the protected header.
func (i *Issuer) Sign(t testing.TB, kid string, claims map[string]any) string {
	t.Helper()
	return i.sign(t, kid, "", claims, true)
}

// SignWithAlg signs claims with kid's key using alg instead of the key's
// published algorithm.
func (i *Issuer) SignWithAlg(t testing.TB, kid string, alg jwa.SignatureAlgorithm, claims map[string]any) string {
	t.Helper()
	return i.sign(t, kid, alg, claims, true)
}

// SignWithoutKID signs claims with kid's key but leaves the kid header out.
func (i *Issuer) SignWithoutKID(t testing.TB, kid string, claims map[string]any) string {
	t.Helper()
	return i.sign(t, kid, "", claims, false)
}

func (i *Issuer) sign(t testing.TB, kid string, alg jwa.SignatureAlgorithm, claims map[string]any, withKID bool) string {
	t.Helper()

	i.mu.Lock()
	key, ok := i.keys[kid]
	i.mu.Unlock()
	require.True(t, ok, "unknown kid %q", kid)

	tok := jwt.New()
	for name, value := range claims {
		require.NoError(t, tok.Set(name, value))
	}

	headers := jws.NewHeaders()
	if withKID {
		require.NoError(t, headers.Set(jws.KeyIDKey, kid))
	}

	private := key.private
	if !withKID {
		private, _ = key.private.Clone()
		require.NoError(t, private.Remove(jwk.KeyIDKey))
	}

	if alg == "" {
		alg = key.alg
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(alg, private, jws.WithProtectedHeaders(headers)))
	require.NoError(t, err)

	return string(signed)
}

// Claims returns a valid claim set for audience, expiring in an hour.
func (i *Issuer) Claims(audience string) map[string]any {
	now := time.Now()
	return map[string]any{
		"iss":                i.Issuer(),
		"aud":                audience,
		"sub":                "user-123",
		"name":               "Ada Lovelace",
		"preferred_username": "ada@example.com",
		"iat":                now,
		"nbf":                now,
		"exp":                now.Add(time.Hour),
	}
}

func (i *Issuer) serveJWKS(w http.ResponseWriter, _ *http.Request) {
	i.fetches.Add(1)

	i.mu.Lock()
	status, raw, delay := i.status, i.rawJWKS, i.delay
	set := jwk.NewSet()
	for _, kid := range i.order {
		if k := i.keys[kid]; k.published {
			_ = set.AddKey(k.public)
		}
	}
	i.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if raw != "" {
		_, _ = w.Write([]byte(raw))
		return
	}
	_ = json.NewEncoder(w).Encode(set)
}

func (i *Issuer) serveDiscovery(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"issuer":   i.Issuer(),
		"jwks_uri": i.JWKSURL().String(),
	})
}
