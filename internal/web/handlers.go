package web

import (
	"errors"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"fitcoach/internal/helper"
	"fitcoach/internal/models"
	"fitcoach/internal/parser"
	"fitcoach/internal/rag"
)

const (
	viewHistory = "history"
	viewPDF     = "pdf"
)

type pageData struct {
	Model       string
	View        string
	Question    string
	Error       string
	Latest      *models.Answer
	ShowSources bool
	Messages    []models.ChatMessage

	PDFs     []string
	PDFName  string
	Pages    []models.Page
	PDFError string
}

type askRequest struct {
	Question string `json:"question" form:"question"`
}

// session returns the caller's transcript, issuing a new id when needed.
func (s *Server) session(c *gin.Context) *Transcript {
	id, err := c.Cookie(sessionCookie)
	if err != nil || !validSessionID(id) {
		if id, err = helper.GenerateUUID(); err != nil {
			log.Error().Err(err).Msg("Failed to create session")
			return &Transcript{}
		}
	}
	// reissued on every request so the cookie expires with the session
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, int(s.cfg.Server.SessionTTL/time.Second), "/", "", false, true)
	return s.sessions.Get(id)
}

func (s *Server) index(c *gin.Context) {
	s.renderPage(c, http.StatusOK, s.session(c), "", "")
}

func (s *Server) ask(c *gin.Context) {
	t := s.session(c)
	var req askRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Warn().Err(err).Msg("Invalid ask form")
		s.renderPage(c, http.StatusBadRequest, t, "", "Invalid request, please submit the question again.")
		return
	}
	t.SetShowSources(c.PostForm("show_sources") != "")

	answer, err := s.answerer.Answer(c.Request.Context(), req.Question)
	if err != nil {
		log.Error().Err(err).Msg("Failed to answer question")
		s.renderPage(c, errorStatus(err), t, req.Question, userMessage(err))
		return
	}
	t.Append(answer.Query, answer)
	s.renderPage(c, http.StatusOK, t, "", "")
}

func (s *Server) clear(c *gin.Context) {
	s.session(c).Clear()
	c.Redirect(http.StatusSeeOther, "/?view="+viewHistory)
}

func (s *Server) apiAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	answer, err := s.answerer.Answer(c.Request.Context(), req.Question)
	if err != nil {
		log.Error().Err(err).Msg("Failed to answer question")
		c.JSON(errorStatus(err), gin.H{"error": userMessage(err)})
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "model": s.answerer.Model()})
}

func (s *Server) renderPage(c *gin.Context, status int, t *Transcript, question, errMsg string) {
	messages, latest := t.Snapshot()
	data := pageData{
		Model:       s.answerer.Model(),
		View:        c.Query("view"),
		Question:    question,
		Error:       errMsg,
		Latest:      latest,
		ShowSources: t.ShowSources(),
		Messages:    messages,
	}
	if data.View == viewPDF {
		s.loadPDFView(&data, c.Query("file"))
	}
	c.HTML(status, "index.html", data)
}

// loadPDFView fills the document viewer. Only files listed in the data
// directory can be opened.
func (s *Server) loadPDFView(data *pageData, name string) {
	pdfs, err := parser.ListPDFs(s.cfg.DataDir)
	if err != nil {
		data.PDFError = "No documents available."
		return
	}
	data.PDFs = pdfs
	if name == "" {
		return
	}
	if !slices.Contains(pdfs, name) || filepath.Base(name) != name {
		data.PDFError = "Unknown document."
		return
	}
	pages, err := s.readPages(filepath.Join(s.cfg.DataDir, name))
	if err != nil {
		log.Warn().Err(err).Str("file", name).Msg("Failed to read document for viewer")
		data.PDFError = "Could not read " + name + "."
		return
	}
	data.PDFName = name
	data.Pages = pages
}

func errorStatus(err error) int {
	if errors.Is(err, rag.ErrEmptyQuestion) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func userMessage(err error) string {
	if errors.Is(err, rag.ErrEmptyQuestion) {
		return "Please enter a question."
	}
	return "Sorry, I could not answer that: " + strings.TrimSpace(err.Error())
}
