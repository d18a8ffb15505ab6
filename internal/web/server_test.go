package web_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v4"

	"github.com/breachwatch/hibp-relay/internal/auth"
	"github.com/breachwatch/hibp-relay/internal/config"
	"github.com/breachwatch/hibp-relay/internal/enrich"
	"github.com/breachwatch/hibp-relay/internal/hibp"
	"github.com/breachwatch/hibp-relay/internal/web"
)

const secretKey = "module-secret"

// newRelay wires the full stack against a mock HIBP upstream and returns the
// relay's test server.
func newRelay(t *testing.T, upstream http.HandlerFunc) *httptest.Server {
	t.Helper()

	hibpServer := httptest.NewServer(upstream)
	t.Cleanup(hibpServer.Close)

	cfg := &config.Config{
		Web:  config.WebConfig{ListenAddr: ":0"},
		Auth: config.AuthConfig{SecretKey: secretKey},
		HIBP: config.HIBPConfig{
			APIURL:    hibpServer.URL + "/api/v3/breachedaccount/%s?truncateResponse=%s",
			UIURL:     "https://haveibeenpwned.com/account/%s",
			UserAgent: "Relay Tests (tests@example.com)",
			TestEmail: "user@example.com",
		},
		EntitiesLimit: 100,
	}

	client := hibp.NewClient(hibp.ClientConfig{
		APIURL:    cfg.HIBP.APIURL,
		UserAgent: cfg.HIBP.UserAgent,
	})
	keys := auth.NewKeyProvider(cfg.Auth.SecretKey)
	enricher := enrich.New(client, cfg.EntitiesLimit, cfg.HIBP.UIURL)

	relay := httptest.NewServer(web.NewServer(cfg, keys, enricher, client).Routes())
	t.Cleanup(relay.Close)
	return relay
}

func bearerToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"key": "hibp-key"}).
		SignedString([]byte(secretKey))
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + token
}

func post(t *testing.T, relay *httptest.Server, route, body, authorization string) map[string]any {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, relay.URL+route, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s returned %d, envelopes always ride on 200", route, resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return payload
}

func TestObserveObservables(t *testing.T) {
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"Name":"X","Title":"Breach X","Domain":"","BreachDate":"2020-01-01",
			 "Description":"<b>hi</b>","DataClasses":["Email addresses"],"IsVerified":false}
		]`))
	})

	payload := post(t, relay, "/observe/observables",
		`[{"type":"email","value":"a@b.com"}]`, bearerToken(t))

	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("payload = %v, want a data envelope", payload)
	}
	if _, hasErrors := payload["errors"]; hasErrors {
		t.Fatalf("unexpected errors in %v", payload)
	}

	indicators := data["indicators"].(map[string]any)
	if indicators["count"].(float64) != 1 {
		t.Errorf("indicators count = %v", indicators["count"])
	}

	doc := indicators["docs"].([]any)[0].(map[string]any)
	if doc["confidence"] != "Medium" || doc["severity"] != "Medium" {
		t.Errorf("doc = %v", doc)
	}
	if doc["description"] != "**hi**" {
		t.Errorf("description = %v", doc["description"])
	}

	sighting := data["sightings"].(map[string]any)["docs"].([]any)[0].(map[string]any)
	if _, hasRelations := sighting["relations"]; hasRelations {
		t.Error("relations key must be absent for an empty domain")
	}
}

func TestObserveWithInvalidPayload(t *testing.T) {
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called for an invalid payload")
	})

	for _, route := range []string{"/observe/observables", "/refer/observables", "/deliberate/observables"} {
		payload := post(t, relay, route, `[{"type":"unknown","value":""}]`, bearerToken(t))

		errs, ok := payload["errors"].([]any)
		if !ok || len(errs) != 1 {
			t.Fatalf("%s: payload = %v, want one error", route, payload)
		}
		apiErr := errs[0].(map[string]any)
		if apiErr["code"] != "invalid payload received" || apiErr["type"] != "fatal" {
			t.Errorf("%s: error = %v", route, apiErr)
		}
	}
}

func TestObserveWithoutAuthorization(t *testing.T) {
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called without a key")
	})

	payload := post(t, relay, "/observe/observables", `[{"type":"email","value":"a@b.com"}]`, "")

	errs := payload["errors"].([]any)
	apiErr := errs[0].(map[string]any)
	if apiErr["code"] != "access denied" {
		t.Errorf("error = %v", apiErr)
	}
}

func TestObserveUpstreamErrorIncludesPartialData(t *testing.T) {
	var calls int
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(`[{"Name":"X","Title":"Breach X","Domain":"","BreachDate":"2020-01-01",
				"Description":"d","DataClasses":[],"IsVerified":false}]`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"key expired"}`))
	})

	payload := post(t, relay, "/observe/observables",
		`[{"type":"email","value":"first@b.com"},{"type":"email","value":"second@b.com"}]`,
		bearerToken(t))

	errs := payload["errors"].([]any)
	apiErr := errs[0].(map[string]any)
	if apiErr["code"] != "access denied" {
		t.Fatalf("error = %v", apiErr)
	}

	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("payload = %v, want partial data alongside the error", payload)
	}
	if data["indicators"].(map[string]any)["count"].(float64) != 1 {
		t.Errorf("partial data = %v", data)
	}
}

func TestObserveWithNoEmailObservables(t *testing.T) {
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called")
	})

	payload := post(t, relay, "/observe/observables",
		`[{"type":"domain","value":"example.com"}]`, bearerToken(t))

	data := payload["data"].(map[string]any)
	if len(data) != 0 {
		t.Errorf("data = %v, want {}", data)
	}
}

func TestDeliberateObservables(t *testing.T) {
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("deliberate performs no lookups")
	})

	payload := post(t, relay, "/deliberate/observables",
		`[{"type":"email","value":"a@b.com"}]`, bearerToken(t))

	data, ok := payload["data"].(map[string]any)
	if !ok || len(data) != 0 {
		t.Errorf("payload = %v, want an empty verdict set", payload)
	}
}

func TestReferObservables(t *testing.T) {
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("refer performs no lookups")
	})

	payload := post(t, relay, "/refer/observables",
		`[{"type":"email","value":"fluffy@example.com"}]`, bearerToken(t))

	references := payload["data"].([]any)
	if len(references) != 1 {
		t.Fatalf("references = %v", references)
	}
	reference := references[0].(map[string]any)
	if reference["id"] != "ref-hibp-search-email-fluffy%40example.com" {
		t.Errorf("id = %v", reference["id"])
	}
	if reference["url"] != "https://haveibeenpwned.com/account/fluffy%40example.com" {
		t.Errorf("url = %v", reference["url"])
	}
}

func TestHealth(t *testing.T) {
	var gotQuery string
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	})

	payload := post(t, relay, "/health", "", bearerToken(t))

	data := payload["data"].(map[string]any)
	if data["status"] != "ok" {
		t.Errorf("payload = %v", payload)
	}
	if gotQuery != "truncateResponse=true" {
		t.Errorf("health check must use a truncated lookup, got %q", gotQuery)
	}
}

func TestHealthReportsUpstreamFailure(t *testing.T) {
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	payload := post(t, relay, "/health", "", bearerToken(t))

	errs := payload["errors"].([]any)
	apiErr := errs[0].(map[string]any)
	if apiErr["code"] != "service unavailable" {
		t.Errorf("error = %v", apiErr)
	}
}

func TestVersion(t *testing.T) {
	relay := newRelay(t, func(w http.ResponseWriter, r *http.Request) {})

	resp, err := http.Get(relay.URL + "/version")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload["version"] != web.Version {
		t.Errorf("version = %v", payload["version"])
	}
}
