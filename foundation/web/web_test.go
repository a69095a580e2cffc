package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/vnetwork/vblockchain/foundation/web"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_App(t *testing.T) {
	t.Log("Given the need to route requests through the app.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling a request with a path parameter.", testID)
		{
			var order []string
			mw := func(name string) web.Middleware {
				return func(handler web.Handler) web.Handler {
					return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
						order = append(order, name)
						return handler(ctx, w, r)
					}
				}
			}

			shutdown := make(chan os.Signal, 1)
			app := web.NewApp(shutdown, mw("first"), mw("second"))

			h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				v, err := web.GetValues(ctx)
				if err != nil || v.TraceID == "" {
					return web.NewShutdownError("web value missing from context")
				}

				resp := struct {
					Name string `json:"name"`
				}{
					Name: web.Param(r, "name"),
				}
				return web.Respond(ctx, w, resp, http.StatusOK)
			}
			app.Handle(http.MethodGet, "v1", "/hello/:name", h)

			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/hello/bill", nil))

			if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"name":"bill"}` {
				t.Fatalf("\t%s\tTest %d:\tShould get the response: %d %s", failed, testID, w.Code, w.Body.String())
			}
			t.Logf("\t%s\tTest %d:\tShould get the response.", success, testID)

			if len(order) != 2 || order[0] != "first" || order[1] != "second" {
				t.Fatalf("\t%s\tTest %d:\tShould run the middleware in order: %v", failed, testID, order)
			}
			t.Logf("\t%s\tTest %d:\tShould run the middleware in order.", success, testID)

			if len(shutdown) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not signal a shutdown.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not signal a shutdown.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen a handler returns a shutdown error.", testID)
		{
			shutdown := make(chan os.Signal, 1)
			app := web.NewApp(shutdown)

			h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return web.NewShutdownError("integrity issue")
			}
			app.Handle(http.MethodGet, "", "/fail", h)

			app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

			if len(shutdown) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould signal a shutdown.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould signal a shutdown.", success, testID)
		}
	}
}

func Test_Decode(t *testing.T) {
	var v struct {
		Amount float64 `json:"amount"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":5}`))
	if err := web.Decode(r, &v); err != nil || v.Amount != 5 {
		t.Fatalf("Should decode a known document: %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"unknown":5}`))
	if err := web.Decode(r, &v); err == nil {
		t.Fatalf("Should reject unknown fields.")
	}
}
