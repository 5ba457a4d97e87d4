package airrapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/airrsanity/internal/adapters/airrapi"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExecute(t *testing.T) {
	Convey("Given a repository server", t, func() {
		var gotBody []byte
		var gotAccept string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotBody, _ = io.ReadAll(r.Body)
			gotAccept = r.Header.Get("Accept")
			switch r.URL.Path {
			case "/airr/v1/rearrangement":
				_, _ = w.Write([]byte(`{"Facet":[{"repertoire_id":"R1","count":10}]}`))
			case "/bad":
				w.WriteHeader(http.StatusBadRequest)
			case "/broken":
				w.WriteHeader(http.StatusInternalServerError)
			case "/text":
				_, _ = w.Write([]byte("a\tb\n"))
			}
		}))
		defer srv.Close()
		client := airrapi.NewClient(airrapi.WithTimeout(5 * time.Second))
		ctx := context.Background()

		Convey("When the query succeeds", func() {
			resp, err := client.Execute(ctx, airrapi.Endpoint(srv.URL, "rearrangement"), airrapi.FacetQuery("R1"), airrapi.ExecOptions{ExpectPass: true, Endpoint: "facet"})

			Convey("Then the body is decoded and the query was posted as JSON", func() {
				So(err, ShouldBeNil)
				So(resp.Status, ShouldEqual, airrapi.StatusOK)
				So(resp.JSON, ShouldNotBeNil)
				So(gotAccept, ShouldEqual, "application/json")
				var q map[string]any
				So(json.Unmarshal(gotBody, &q), ShouldBeNil)
				So(q["facets"], ShouldEqual, "repertoire_id")
			})

			Convey("Then the facet bucket is readable", func() {
				f, err := airrapi.ParseFacet(resp)
				So(err, ShouldBeNil)
				So(f, ShouldResemble, airrapi.Facet{RepertoireID: "R1", Count: 10, Found: true})
			})
		})

		Convey("When a query expected to fail gets a 400", func() {
			resp, err := client.Execute(ctx, srv.URL+"/bad", nil, airrapi.ExecOptions{ExpectPass: false})

			Convey("Then it is an expected failure, not an error", func() {
				So(err, ShouldBeNil)
				So(resp.Status, ShouldEqual, airrapi.StatusExpectedFailure)
				So(resp.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a query expected to pass gets a 400", func() {
			resp, err := client.Execute(ctx, srv.URL+"/bad", nil, airrapi.ExecOptions{ExpectPass: true})

			Convey("Then the result is empty with a status error", func() {
				So(errors.Is(err, airrapi.ErrStatus), ShouldBeTrue)
				So(resp.Status, ShouldEqual, airrapi.StatusEmpty)
			})
		})

		Convey("When the server fails", func() {
			resp, err := client.Execute(ctx, srv.URL+"/broken", nil, airrapi.ExecOptions{})

			Convey("Then the result is empty even for queries expected to fail", func() {
				So(errors.Is(err, airrapi.ErrStatus), ShouldBeTrue)
				So(resp.Status, ShouldEqual, airrapi.StatusEmpty)
				f, ferr := airrapi.ParseFacet(resp)
				So(ferr, ShouldBeNil)
				So(f.Found, ShouldBeFalse)
			})
		})

		Convey("When the body is not JSON", func() {
			_, err := client.Execute(ctx, srv.URL+"/text", nil, airrapi.ExecOptions{ExpectPass: true})
			forced, ferr := client.Execute(ctx, srv.URL+"/text", "{bad", airrapi.ExecOptions{ExpectPass: true, Force: true})

			Convey("Then decoding fails unless forced, and forced bodies come back raw", func() {
				So(errors.Is(err, airrapi.ErrDecode), ShouldBeTrue)
				So(ferr, ShouldBeNil)
				So(forced.Status, ShouldEqual, airrapi.StatusOK)
				So(string(forced.Raw), ShouldEqual, "a\tb\n")
				So(string(gotBody), ShouldEqual, "{bad")
			})
		})
	})

	Convey("Given an unreachable repository", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		resp, err := airrapi.NewClient().Execute(context.Background(), url, nil, airrapi.ExecOptions{})

		Convey("Then the result is empty with a transport error", func() {
			So(airrapi.IsTransport(err), ShouldBeTrue)
			So(resp.Status, ShouldEqual, airrapi.StatusEmpty)
		})
	})
}

func TestInsecureSkipVerify(t *testing.T) {
	Convey("Given a TLS repository with a self-signed certificate", t, func() {
		srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"Facet":[]}`))
		}))
		defer srv.Close()

		Convey("Then the default client refuses it", func() {
			_, err := airrapi.NewClient().Execute(context.Background(), srv.URL, nil, airrapi.ExecOptions{})
			So(airrapi.IsTransport(err), ShouldBeTrue)
		})

		Convey("Then the insecure client accepts it and an empty facet is not found", func() {
			resp, err := airrapi.NewClient(airrapi.WithInsecureSkipVerify(true)).Execute(context.Background(), srv.URL, nil, airrapi.ExecOptions{})
			So(err, ShouldBeNil)
			f, err := airrapi.ParseFacet(resp)
			So(err, ShouldBeNil)
			So(f.Found, ShouldBeFalse)
		})
	})
}

func TestLoadQuery(t *testing.T) {
	Convey("Given query files", t, func() {
		dir := t.TempDir()
		good := filepath.Join(dir, "good.json")
		bad := filepath.Join(dir, "bad.json")
		So(os.WriteFile(good, []byte(`{"filters":{"op":"=","content":{"field":"study.study_id","value":"PRJ"}}}`), 0o600), ShouldBeNil)
		So(os.WriteFile(bad, []byte("{\"filters\":\n"), 0o600), ShouldBeNil)

		Convey("Then valid JSON decodes", func() {
			q, err := airrapi.LoadQuery(good, false)
			So(err, ShouldBeNil)
			So(q, ShouldHaveSameTypeAs, map[string]any{})
		})

		Convey("Then invalid JSON fails without force", func() {
			_, err := airrapi.LoadQuery(bad, false)
			So(errors.Is(err, airrapi.ErrQueryFile), ShouldBeTrue)
		})

		Convey("Then invalid JSON is passed through verbatim with force", func() {
			q, err := airrapi.LoadQuery(bad, true)
			So(err, ShouldBeNil)
			So(q, ShouldEqual, `{"filters":`)
		})

		Convey("Then a missing file fails", func() {
			_, err := airrapi.LoadQuery(filepath.Join(dir, "nope.json"), true)
			So(errors.Is(err, airrapi.ErrQueryFile), ShouldBeTrue)
		})
	})
}

func TestRecords(t *testing.T) {
	Convey("Given a forced repertoire response", t, func() {
		resp := airrapi.Response{Status: airrapi.StatusOK, Raw: []byte(`{"Repertoire":[{"repertoire_id":"R1"}]}`)}

		Convey("Then the records are decoded from the raw body", func() {
			recs, err := airrapi.Records(resp, "Repertoire")
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 1)
		})

		Convey("Then a missing key is an error", func() {
			_, err := airrapi.Records(resp, "Facet")
			So(errors.Is(err, airrapi.ErrDecode), ShouldBeTrue)
		})
	})

	Convey("Given endpoint helpers", t, func() {
		So(airrapi.Endpoint("https://h/", "repertoire"), ShouldEqual, "https://h/airr/v1/repertoire")
		So(airrapi.StatsEndpoint("https://h", "/irplus/v1/stats/rearrangement/count"), ShouldEqual, "https://h/irplus/v1/stats/rearrangement/count")
	})
}
