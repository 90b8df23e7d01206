package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSiteHandler(t *testing.T) {
	convey.Convey("Given the landing page handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		convey.Convey("When registering the site", func() {
			Register(ctx, mux)

			convey.Convey("Then it should serve the landing page at root", func() {
				req := httptest.NewRequest("GET", "/", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "Fila Distribuidor")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/dashboard")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/api-docs")
			})

			convey.Convey("And unknown paths should fall through to 404", func() {
				req := httptest.NewRequest("GET", "/no-such-page", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSiteHandlerWithNilMux(t *testing.T) {
	convey.Convey("Given a nil mux", t, func() {
		convey.Convey("When registering the site", func() {
			convey.Convey("Then it should panic", func() {
				convey.So(func() {
					Register(context.Background(), nil)
				}, convey.ShouldPanic)
			})
		})
	})
}

func TestSiteErrors(t *testing.T) {
	convey.Convey("Given site error constants", t, func() {
		convey.Convey("Then ErrServe should be defined", func() {
			convey.So(ErrServe, convey.ShouldNotBeNil)
			convey.So(ErrServe.Error(), convey.ShouldEqual, "site serve failed")
		})
	})
}
