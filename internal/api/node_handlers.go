package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/borellim/bandkit/internal/archive"
	"github.com/borellim/bandkit/internal/bands"
	"github.com/borellim/bandkit/internal/httputil"
)

// maxDocumentSize caps uploaded interchange documents.
const maxDocumentSize = 32 << 20

// handleNodes lists nodes on GET and imports an interchange document on POST.
// Query params (GET):
//
//	type (optional) - filter by node type
//	limit (optional, default 100)
//
// Query params (POST):
//
//	user (optional) - owner email, defaults to the archive default user
//	computer (optional) - name of an existing computer to associate
func (ws *WebServer) handleNodes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ws.listNodes(w, r)
	case http.MethodPost:
		ws.importNode(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (ws *WebServer) listNodes(w http.ResponseWriter, r *http.Request) {
	nodeType := r.URL.Query().Get("type")

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v <= 0 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		limit = v
	}

	records, err := ws.archive.Nodes().List(nodeType, limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("list nodes: %v", err))
		return
	}
	if records == nil {
		records = []*archive.NodeRecord{}
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"nodes": records,
		"count": len(records),
	})
}

func (ws *WebServer) importNode(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("read request body: %v", err))
		return
	}

	bs, err := bands.DecodeDocument(body)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("decode document: %v", err))
		return
	}

	rec, err := ws.archive.Nodes().SaveBands(bs, r.URL.Query().Get("user"), r.URL.Query().Get("computer"))
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			// Only the named computer can be missing at this point.
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("save bands: %v", err))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"uuid": rec.UUID})
}

// handleNodeGet returns the stored record of one node, attributes included.
// Query params:
//
//	uuid (required)
func (ws *WebServer) handleNodeGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	id := r.URL.Query().Get("uuid")
	if id == "" {
		httputil.BadRequest(w, "missing 'uuid' parameter")
		return
	}

	rec, err := ws.archive.Nodes().Get(id)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("get node: %v", err))
		return
	}

	httputil.WriteJSONOK(w, rec)
}

// handleNodeDelete removes a node and its arrays.
// Query params:
//
//	uuid (required)
func (ws *WebServer) handleNodeDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	id := r.URL.Query().Get("uuid")
	if id == "" {
		httputil.BadRequest(w, "missing 'uuid' parameter")
		return
	}

	if err := ws.archive.Nodes().Delete(id); err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("delete node: %v", err))
		return
	}

	httputil.NoContent(w)
}
