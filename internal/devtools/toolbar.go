package devtools

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// NewToolbarHandler serves the stored reports as JSON:
//
//	GET {prefix}            newest reports, ?limit=N
//	GET {prefix}/latest     newest report
//	GET {prefix}/{token}    one report
func NewToolbarHandler(store *ReportStore, prefix string) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc(prefix, func(w http.ResponseWriter, req *http.Request) {
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, store.List(limit))
	}).Methods(http.MethodGet)

	r.HandleFunc(prefix+"/latest", func(w http.ResponseWriter, _ *http.Request) {
		report, ok := store.Latest()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no reports"})
			return
		}
		writeJSON(w, http.StatusOK, report)
	}).Methods(http.MethodGet)

	r.HandleFunc(prefix+"/{token}", func(w http.ResponseWriter, req *http.Request) {
		report, ok := store.Get(mux.Vars(req)["token"])
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "report not found"})
			return
		}
		writeJSON(w, http.StatusOK, report)
	}).Methods(http.MethodGet)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
