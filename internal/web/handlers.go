package web

import (
	"net/http"
	"strconv"
	"strings"

	"mindmap-cli/internal/address"
	"mindmap-cli/internal/model"
	"mindmap-cli/internal/publish"
	"mindmap-cli/internal/treesync"

	"github.com/gin-gonic/gin"
)

type CreateDocumentRequest struct {
	Title string `json:"title" binding:"required,max=200"`
}

// InsertNodeRequest inserts under ParentID, after SiblingOf, or (neither) as a
// new root-level node.
type InsertNodeRequest struct {
	ParentID  string `json:"parentId" binding:"excluded_with=SiblingOf"`
	SiblingOf string `json:"siblingOf"`
	Content   string `json:"content"`
}

// UpdateNodeRequest renames and/or moves a node. ParentID "" moves the node to
// root level; nil leaves the parent alone.
type UpdateNodeRequest struct {
	Content  *string `json:"content"`
	ParentID *string `json:"parentId"`
}

type DocumentResponse struct {
	Document  model.Document    `json:"document"`
	Graph     model.CanvasGraph `json:"graph"`
	Addresses map[string]string `json:"addresses"`
	Dirty     bool              `json:"dirty"`
}

type InsertNodeResponse struct {
	NodeID  string `json:"nodeId"`
	Address string `json:"address"`
	DocumentResponse
}

type DeleteNodeResponse struct {
	treesync.Deletion
	DocumentResponse
}

type ResolveResponse struct {
	Address string `json:"address"`
	NodeID  string `json:"nodeId"`
	Depth   int    `json:"depth"`
	Parent  string `json:"parent,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.cfg.Store.ListDocuments(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (s *Server) handleCreateDocument(c *gin.Context) {
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	doc, err := s.cfg.Store.CreateDocument(c.Request.Context(), req.Title)
	if err != nil {
		abortWithError(c, err)
		return
	}
	loggerFrom(c).Info("document created", "document", doc.ID)
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) documentResponse(c *gin.Context, se *treesync.Session) (DocumentResponse, bool) {
	doc, err := s.cfg.Store.GetDocument(c.Request.Context(), se.DocumentID())
	if err != nil {
		abortWithError(c, err)
		return DocumentResponse{}, false
	}
	v := se.View()
	return DocumentResponse{Document: doc, Graph: v.Graph, Addresses: v.Addresses, Dirty: se.Dirty()}, true
}

func (s *Server) handleGetDocument(c *gin.Context) {
	se, err := s.session(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	resp, ok := s.documentResponse(c, se)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleReconcile(c *gin.Context) {
	var graph model.CanvasGraph
	if err := c.ShouldBindJSON(&graph); err != nil {
		badRequest(c, "invalid canvas graph: "+err.Error())
		return
	}
	se, err := s.session(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := se.Reconcile(graph); err != nil {
		abortWithError(c, err)
		return
	}
	resp, ok := s.documentResponse(c, se)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleInsertNode(c *gin.Context) {
	var req InsertNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	se, err := s.session(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	var id string
	switch {
	case strings.TrimSpace(req.SiblingOf) != "":
		id, err = se.InsertSibling(req.SiblingOf, req.Content)
	case strings.TrimSpace(req.ParentID) != "":
		id, err = se.InsertChild(req.ParentID, req.Content)
	default:
		id, err = se.InsertRoot(req.Content)
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	resp, ok := s.documentResponse(c, se)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, InsertNodeResponse{NodeID: id, Address: resp.Addresses[id], DocumentResponse: resp})
}

func (s *Server) handleUpdateNode(c *gin.Context) {
	var req UpdateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Content == nil && req.ParentID == nil {
		badRequest(c, "nothing to update: set content and/or parentId")
		return
	}
	se, err := s.session(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	nodeID := c.Param("nodeId")
	if req.Content != nil {
		if err := se.Rename(nodeID, *req.Content); err != nil {
			abortWithError(c, err)
			return
		}
	}
	if req.ParentID != nil {
		if err := se.Move(nodeID, *req.ParentID); err != nil {
			abortWithError(c, err)
			return
		}
	}
	resp, ok := s.documentResponse(c, se)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteNode(c *gin.Context) {
	se, err := s.session(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	d, err := se.DeleteSubtree(c.Param("nodeId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	resp, ok := s.documentResponse(c, se)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, DeleteNodeResponse{Deletion: d, DocumentResponse: resp})
}

func (s *Server) handleSave(c *gin.Context) {
	se, err := s.session(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := se.Save(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true, "nodes": se.Tree().Len()})
}

func (s *Server) handleResolve(c *gin.Context) {
	p, err := address.Parse(c.Param("address"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	se, err := s.session(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	id, err := address.Resolve(se.Tree(), p.Address)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ResolveResponse{Address: p.Address, NodeID: id, Depth: p.Depth, Parent: p.Parent})
}

func (s *Server) handleEvents(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	id := c.Param("id")
	if _, err := s.cfg.Store.GetDocument(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	evs, err := s.cfg.Store.ReadEvents(c.Request.Context(), id, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": evs})
}

// handleExport renders the open tree (including unsaved edits) as markdown,
// or as an HTML page with ?format=html.
func (s *Server) handleExport(c *gin.Context) {
	se, err := s.session(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	doc, err := s.cfg.Store.GetDocument(c.Request.Context(), se.DocumentID())
	if err != nil {
		abortWithError(c, err)
		return
	}
	md := publish.RenderDocumentMarkdown(doc, se.Tree(), publish.RenderOptions{Addresses: se.View().Addresses})

	switch c.DefaultQuery("format", "md") {
	case "md", "markdown":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
	case "html":
		page, err := renderExportPage(doc.Title, md)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	default:
		badRequest(c, "format must be md or html")
	}
}
