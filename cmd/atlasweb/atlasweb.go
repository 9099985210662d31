// Binary atlasweb serves an atlas written by lod2atlas for browsing.
package main

import (
	"flag"
	"net/http"
	"os"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "golang.org/x/net/trace"

	"badc0de.net/pkg/go-heroes3/web"
)

var (
	listenAddress = flag.String("listen_address", ":8080", "http listen address for atlasweb")
	atlasPath     = flag.String("atlas_path", "sprites.atlas", "descriptor written by lod2atlas; the page image is read from the same directory")
)

func main() {
	flagutil.Parse()

	h, err := web.NewHandler(*atlasPath)
	if err != nil {
		glog.Exitf("loading atlas: %v", err)
	}

	r := mux.NewRouter()
	h.RegisterRoutes(r)
	// x/net/trace registers /debug/requests and /debug/events on the default mux.
	r.PathPrefix("/debug/").Handler(http.DefaultServeMux)

	glog.Infof("atlasweb: listening on %s", *listenAddress)
	glog.Fatal(http.ListenAndServe(*listenAddress, handlers.CombinedLoggingHandler(os.Stderr, handlers.CompressHandler(r))))
}
