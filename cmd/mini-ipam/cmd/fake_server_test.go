package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/pkg/cidr"
)

// fakeServer is an in-memory stand-in for the REST API. It stores what it
// is sent without validating it, so tests can tell local checks apart from
// server rejections.
type fakeServer struct {
	*httptest.Server

	mu          sync.Mutex
	collections []models.Collection
	nodes       []models.Node
	nextID      int64
	writes      int
	tokens      []string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{nextID: 1}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, models.ListResponse[models.Collection]{Data: append([]models.Collection{}, f.collections...)})
	})
	mux.HandleFunc("POST /api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		var req models.CollectionRequest
		json.NewDecoder(r.Body).Decode(&req)
		block, err := cidr.ParseCIDR(req.CIDR)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error(), Code: "INVALID_CIDR"})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.recordWrite(r)
		c := models.Collection{ID: f.nextID, Name: req.Name, CIDR: block.String()}
		f.nextID++
		f.collections = append(f.collections, c)
		writeJSON(w, http.StatusCreated, models.MutationResponse[models.Collection]{Message: models.MessageSuccess, Data: &c})
	})
	mux.HandleFunc("GET /api/v1/collections/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if c := findCollection(f.collections, pathID(r)); c != nil {
			writeJSON(w, http.StatusOK, models.ItemResponse[models.Collection]{Data: *c})
			return
		}
		notFound(w)
	})
	mux.HandleFunc("PUT /api/v1/collections/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req models.CollectionRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.recordWrite(r)
		c := findCollection(f.collections, pathID(r))
		if c == nil {
			notFound(w)
			return
		}
		c.Name, c.CIDR = req.Name, cidr.MustParseCIDR(req.CIDR).String()
		writeJSON(w, http.StatusOK, models.MutationResponse[models.Collection]{Message: models.MessageUpdated, Data: c})
	})
	mux.HandleFunc("DELETE /api/v1/collections/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.recordWrite(r)
		id := pathID(r)
		for i, c := range f.collections {
			if c.ID == id {
				f.collections = append(f.collections[:i], f.collections[i+1:]...)
				writeJSON(w, http.StatusOK, map[string]any{"message": models.MessageDeleted, "changes": 1})
				return
			}
		}
		notFound(w)
	})
	mux.HandleFunc("GET /api/v1/collections/{id}/info", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		c := findCollection(f.collections, pathID(r))
		if c == nil {
			notFound(w)
			return
		}
		d := cidr.Describe(cidr.MustParseCIDR(c.CIDR))
		writeJSON(w, http.StatusOK, models.ItemResponse[models.CollectionInfo]{Data: models.CollectionInfo{
			Collection: *c, Network: d.Network, Netmask: d.Netmask, Prefix: d.Prefix,
			Broadcast: d.Broadcast, FirstUsable: d.FirstUsable, LastUsable: d.LastUsable,
			TotalIPs: d.TotalIPs, UsableIPs: d.UsableIPs, NodeCount: len(f.nodesIn(c.ID)),
		}})
	})
	mux.HandleFunc("GET /api/v1/collections/{id}/nodes", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, models.ListResponse[models.Node]{Data: f.nodesIn(pathID(r))})
	})
	mux.HandleFunc("GET /api/v1/nodes", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, models.ListResponse[models.Node]{Data: append([]models.Node{}, f.nodes...)})
	})
	mux.HandleFunc("POST /api/v1/nodes", func(w http.ResponseWriter, r *http.Request) {
		var req models.NodeRequest
		json.NewDecoder(r.Body).Decode(&req)
		fields, err := req.Normalize()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.recordWrite(r)
		n := nodeFromFields(f.nextID, fields)
		f.nextID++
		f.nodes = append(f.nodes, n)
		writeJSON(w, http.StatusCreated, models.MutationResponse[models.Node]{Message: models.MessageSuccess, Data: &n})
	})
	mux.HandleFunc("GET /api/v1/nodes/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if i := f.nodeIndex(pathID(r)); i >= 0 {
			writeJSON(w, http.StatusOK, models.ItemResponse[models.Node]{Data: f.nodes[i]})
			return
		}
		notFound(w)
	})
	mux.HandleFunc("PUT /api/v1/nodes/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req models.NodeRequest
		json.NewDecoder(r.Body).Decode(&req)
		fields, err := req.Normalize()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.recordWrite(r)
		i := f.nodeIndex(pathID(r))
		if i < 0 {
			notFound(w)
			return
		}
		f.nodes[i] = nodeFromFields(f.nodes[i].ID, fields)
		writeJSON(w, http.StatusOK, models.MutationResponse[models.Node]{Message: models.MessageUpdated, Data: &f.nodes[i]})
	})
	mux.HandleFunc("DELETE /api/v1/nodes/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.recordWrite(r)
		i := f.nodeIndex(pathID(r))
		if i < 0 {
			notFound(w)
			return
		}
		f.nodes = append(f.nodes[:i], f.nodes[i+1:]...)
		writeJSON(w, http.StatusOK, map[string]any{"message": models.MessageDeleted, "changes": 1})
	})
	mux.HandleFunc("GET /api/v1/lookup", func(w http.ResponseWriter, r *http.Request) {
		ip, err := cidr.ParseIPv4(r.URL.Query().Get("ip"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error(), Code: "INVALID_IP"})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, models.LookupResponse{IP: ip.String(), Match: suggest(ip, f.collections)})
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

// seedCollection stores a collection directly, bypassing the API.
func (f *fakeServer) seedCollection(name, block string) models.Collection {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := models.Collection{ID: f.nextID, Name: name, CIDR: block}
	f.nextID++
	f.collections = append(f.collections, c)
	return c
}

func (f *fakeServer) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeServer) recordWrite(r *http.Request) {
	f.writes++
	f.tokens = append(f.tokens, r.Header.Get("X-Mini-IPAM-Token"))
}

func (f *fakeServer) nodesIn(id int64) []models.Node {
	out := []models.Node{}
	for _, n := range f.nodes {
		if n.CollectionID != nil && *n.CollectionID == id {
			out = append(out, n)
		}
	}
	return out
}

func (f *fakeServer) nodeIndex(id int64) int {
	for i, n := range f.nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func nodeFromFields(id int64, fields models.NodeFields) models.Node {
	ip := cidr.MustParseIPv4(fields.IPAddress)
	return models.Node{
		ID:           id,
		IPAddress:    ip.String(),
		Port:         fields.Port,
		CollectionID: fields.CollectionID,
		Name:         fields.Name,
		Notes:        fields.Notes,
	}
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "not found", Code: "NOT_FOUND"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// runCLI executes the command tree against url with a hermetic environment.
func runCLI(t *testing.T, url string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	opts := &rootOptions{getenv: func(string) string { return "" }}
	root := newRootCmd(opts)

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--url", url}, args...))

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
