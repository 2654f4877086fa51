package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/dojo/internal/adapters/http/api"
	"github.com/okian/dojo/internal/adapters/repository"
	service "github.com/okian/dojo/internal/app"
	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/session"
	"github.com/okian/dojo/internal/domain/types"
	"github.com/okian/dojo/internal/synth"
	"github.com/okian/dojo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newMux() (*http.ServeMux, *service.Service, func()) {
	svc := service.New(service.WithShardCount(2))
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc, api.WithPingInterval(50*time.Millisecond)).Register(context.Background(), mux)
	return mux, svc, func() { _ = svc.Stop(context.Background()) }
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func wireFrames(name string) []types.FrameInput {
	sc, err := synth.Build(name, 0, 7)
	if err != nil {
		panic(err)
	}
	out := make([]types.FrameInput, len(sc.Frames))
	for i := range sc.Frames {
		out[i] = types.FromFrame(sc.Frames[i])
	}
	return out
}

func mustJSON(v any) string {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		panic(err)
	}
	return buf.String()
}

func TestServer_Routes(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux, _, stop := newMux()
		defer stop()

		Convey("Then /healthz reports ok", func() {
			w := do(mux, "GET", "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"ok"`)
		})

		Convey("Then /stats returns the service stats", func() {
			w := do(mux, "GET", "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var st service.Stats
			So(json.Unmarshal(w.Body.Bytes(), &st), ShouldBeNil)
			So(st.Started, ShouldBeTrue)
			So(st.Shards, ShouldEqual, 2)
		})

		Convey("Then /metrics serves the dojo registry", func() {
			do(mux, "GET", "/healthz", "")
			w := do(mux, "GET", "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "dojo_engine_http_requests_total")
		})

		Convey("Then a wrong method is refused by the mux", func() {
			w := do(mux, "GET", "/sessions", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestServer_SessionLifecycle(t *testing.T) {
	Convey("Given a created session", t, func() {
		mux, _, stop := newMux()
		defer stop()

		w := do(mux, "POST", "/sessions", `{"id":"dojo-1"}`)
		So(w.Code, ShouldEqual, http.StatusCreated)
		var created types.SessionResponse
		So(json.Unmarshal(w.Body.Bytes(), &created), ShouldBeNil)
		So(created.ID, ShouldEqual, "dojo-1")

		Convey("Creating it again conflicts", func() {
			So(do(mux, "POST", "/sessions", `{"id":"dojo-1"}`).Code, ShouldEqual, http.StatusConflict)
		})

		Convey("An empty body creates a session with a generated id", func() {
			w := do(mux, "POST", "/sessions", "")
			So(w.Code, ShouldEqual, http.StatusCreated)
			var resp types.SessionResponse
			So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.ID, ShouldNotBeEmpty)
		})

		Convey("Unknown sessions are 404", func() {
			So(do(mux, "POST", "/sessions/ghost/reset", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, "GET", "/sessions/ghost/events", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, "GET", "/sessions/ghost", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("The defender needs a track id", func() {
			So(do(mux, "POST", "/sessions/dojo-1/defender", `{}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, "POST", "/sessions/dojo-1/defender", `not json`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("There is no report before the session ends", func() {
			So(do(mux, "GET", "/sessions/dojo-1/report", "").Code, ShouldEqual, http.StatusConflict)
		})

		Convey("Bad query parameters are rejected", func() {
			So(do(mux, "GET", "/sessions/dojo-1/events?since=x", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, "GET", "/sessions/dojo-1/events?limit=-1", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a punch is streamed in as a batch", func() {
			So(do(mux, "POST", "/sessions/dojo-1/defender", `{"track_id":"defender"}`).Code, ShouldEqual, http.StatusNoContent)

			frames := wireFrames("punch")
			w := do(mux, "POST", "/sessions/dojo-1/frames", mustJSON(types.FrameBatch{Frames: frames}))
			So(w.Code, ShouldEqual, http.StatusAccepted)
			var fr types.FramesResponse
			So(json.Unmarshal(w.Body.Bytes(), &fr), ShouldBeNil)
			So(fr.Accepted, ShouldEqual, len(frames))

			Convey("Then resending one frame is a duplicate", func() {
				w := do(mux, "POST", "/sessions/dojo-1/frames", mustJSON(frames[0]))
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(json.Unmarshal(w.Body.Bytes(), &fr), ShouldBeNil)
				So(fr.Duplicates, ShouldEqual, 1)
			})

			Convey("Then ending returns the report and the events are readable", func() {
				w := do(mux, "POST", "/sessions/dojo-1/end", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var report session.Report
				So(json.Unmarshal(w.Body.Bytes(), &report), ShouldBeNil)
				So(report.Analysis.TotalFrames, ShouldEqual, len(frames))

				So(do(mux, "GET", "/sessions/dojo-1/report", "").Code, ShouldEqual, http.StatusOK)

				w = do(mux, "GET", "/sessions/dojo-1/events?since=0", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var events struct {
					Events []repository.Record `json:"events"`
					Next   uint64              `json:"next"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &events), ShouldBeNil)
				So(events.Events, ShouldNotBeEmpty)
				So(events.Next, ShouldEqual, events.Events[len(events.Events)-1].Seq)
				var punches int
				for _, e := range events.Events {
					if e.Kind == session.KindAction && e.Action.Type == model.ActionPunch {
						punches++
					}
				}
				So(punches, ShouldEqual, 1)

				w = do(mux, "GET", "/sessions/dojo-1/events?since=999", "")
				So(json.Unmarshal(w.Body.Bytes(), &events), ShouldBeNil)
				So(events.Events, ShouldBeEmpty)
				So(events.Next, ShouldEqual, 999)
			})

			Convey("Then reset and delete succeed", func() {
				So(do(mux, "POST", "/sessions/dojo-1/reset", "").Code, ShouldEqual, http.StatusNoContent)
				So(do(mux, "GET", "/sessions/dojo-1", "").Code, ShouldEqual, http.StatusOK)
				So(do(mux, "DELETE", "/sessions/dojo-1", "").Code, ShouldEqual, http.StatusNoContent)
				So(do(mux, "GET", "/sessions/dojo-1", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("An oversized batch is rejected", func() {
			batch := types.FrameBatch{Frames: make([]types.FrameInput, 1001)}
			So(do(mux, "POST", "/sessions/dojo-1/frames", mustJSON(batch)).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestServer_Stream(t *testing.T) {
	Convey("Given a websocket client on a session stream", t, func() {
		mux, _, stop := newMux()
		defer stop()
		srv := httptest.NewServer(mux)
		defer srv.Close()

		So(do(mux, "POST", "/sessions", `{"id":"live","defender":"defender"}`).Code, ShouldEqual, http.StatusCreated)

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/live/stream"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		Convey("When a kick is posted", func() {
			frames := wireFrames("kick")
			resp, err := http.Post(srv.URL+"/sessions/live/frames", "application/json",
				strings.NewReader(mustJSON(types.FrameBatch{Frames: frames})))
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusAccepted)

			Convey("Then the kick arrives on the stream", func() {
				_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
				var kicked bool
				for !kicked {
					var rec repository.Record
					if err := conn.ReadJSON(&rec); err != nil {
						break
					}
					kicked = rec.Kind == session.KindAction && rec.Action.Type == model.ActionKick
				}
				So(kicked, ShouldBeTrue)
			})
		})

		Convey("When the session is deleted", func() {
			So(do(mux, "DELETE", "/sessions/live", "").Code, ShouldEqual, http.StatusNoContent)

			Convey("Then the stream closes normally", func() {
				_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
				_, _, err := conn.ReadMessage()
				So(websocket.IsCloseError(err, websocket.CloseNormalClosure), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unknown session", t, func() {
		mux, _, stop := newMux()
		defer stop()

		Convey("Then the stream endpoint is 404 before upgrading", func() {
			So(do(mux, "GET", "/sessions/none/stream", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_StreamOrigins(t *testing.T) {
	Convey("Given a server allowing one browser origin", t, func() {
		svc := service.New(service.WithShardCount(1))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()
		mux := http.NewServeMux()
		api.NewServer(svc, svc,
			api.WithCheckOrigin(api.AllowOrigins([]string{"https://dojo.example"})),
		).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		So(do(mux, "POST", "/sessions", `{"id":"live","defender":"defender"}`).Code, ShouldEqual, http.StatusCreated)
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/live/stream"

		Convey("The allowed origin opens the stream", func() {
			conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://dojo.example"}})
			So(err, ShouldBeNil)
			_ = conn.Close()
		})

		Convey("Another origin is refused", func() {
			_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://other.example"}})
			So(err, ShouldEqual, websocket.ErrBadHandshake)
			So(resp, ShouldNotBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusForbidden)
		})
	})

	Convey("Given an origin list", t, func() {
		check := api.AllowOrigins([]string{"https://dojo.example"})
		req := httptest.NewRequest("GET", "/sessions/live/stream", nil)

		Convey("A request without an Origin header passes", func() {
			So(check(req), ShouldBeTrue)
		})

		Convey("Origins compare case-insensitively", func() {
			req.Header.Set("Origin", "HTTPS://DOJO.EXAMPLE")
			So(check(req), ShouldBeTrue)
		})

		Convey("A wildcard accepts any origin", func() {
			req.Header.Set("Origin", "https://other.example")
			So(check(req), ShouldBeFalse)
			So(api.AllowOrigins([]string{"*"})(req), ShouldBeTrue)
		})
	})
}
