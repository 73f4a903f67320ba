package redactor

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aisa-it/redactor/internal/redactor/apierrors"
	"github.com/aisa-it/redactor/internal/redactor/commands"
	"github.com/aisa-it/redactor/internal/redactor/dao"
	"github.com/aisa-it/redactor/internal/redactor/export"
	"github.com/aisa-it/redactor/internal/redactor/live"
	stack_error "github.com/aisa-it/redactor/internal/redactor/stack-error"
	"github.com/labstack/echo/v4"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type DocumentContext struct {
	echo.Context
	Doc dao.Document
}

func (s *Services) DocumentMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		doc, err := dao.GetDocument(s.db, c.Param("docId"))
		if err != nil {
			if errors.Is(err, dao.ErrDocumentNotFound) {
				return EErrorDefined(c, apierrors.ErrDocumentNotFound)
			}
			return EError(c, err)
		}
		return next(DocumentContext{c, *doc})
	}
}

func (s *Services) AddDocumentServices(g *echo.Group) {
	docGroup := g.Group("docs/:docId", s.DocumentMiddleware)

	g.GET("docs/", s.getDocumentList)
	g.POST("docs/", s.createDocument)

	docGroup.GET("/", s.getDocument)
	docGroup.PUT("/", s.updateDocument)
	docGroup.DELETE("/", s.deleteDocument)
	docGroup.POST("/edit/", s.editDocument)

	docGroup.GET("/revisions/", s.getRevisionList)
	docGroup.POST("/undo/", s.undoDocument)
	docGroup.POST("/redo/", s.redoDocument)

	docGroup.GET("/export/:format/", s.exportDocument)

	// Websocket document events endpoint
	docGroup.GET("/ws/", func(c echo.Context) error {
		s.hub.Handle(c.(DocumentContext).Doc.ID.String(), c.Response(), c.Request())
		return nil
	})
}

// getDocumentList возвращает страницу документов. search - поиск по заголовку и тексту.
func (s *Services) getDocumentList(c echo.Context) error {
	offset := 0
	limit := defaultPageLimit
	if err := echo.QueryParamsBinder(c).
		Int("offset", &offset).
		Int("limit", &limit).
		BindError(); err != nil {
		return EErrorDefined(c, apierrors.ErrUnsupportedQuery.WithFormattedMessage(err.Error()))
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}

	resp, err := dao.ListDocuments(s.db, c.QueryParam("search"), offset, limit)
	if err != nil {
		return EError(c, stack_error.TrackErrorStack(err).AddContext("search", c.QueryParam("search")))
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Services) createDocument(c echo.Context) error {
	var req DocumentRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrBadRequest)
	}
	if req.Title == "" {
		return EErrorDefined(c, apierrors.ErrTitleRequired)
	}
	if err := c.Validate(&req); err != nil {
		return EError(c, err)
	}

	nodes, err := req.nodes()
	if err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidDocument)
	}
	// Блоки получают id до первого сохранения
	ed := s.newEditor()
	ed.Load(nodes)

	doc := dao.Document{Title: req.Title}
	if err := dao.CreateDocument(s.db, &doc, ed.Save()); err != nil {
		return EError(c, stack_error.TrackErrorStack(err).AddContext("title", req.Title))
	}
	return c.JSON(http.StatusCreated, doc)
}

func (s *Services) getDocument(c echo.Context) error {
	return c.JSON(http.StatusOK, c.(DocumentContext).Doc)
}

// updateDocument меняет заголовок сразу, а содержимое загружает в редактор документа.
// Ревизия пишется с задержкой, серия быстрых изменений дает одну ревизию.
func (s *Services) updateDocument(c echo.Context) error {
	doc := c.(DocumentContext).Doc

	var req DocumentUpdateRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}

	if req.Title != nil {
		if *req.Title == "" {
			return EErrorDefined(c, apierrors.ErrTitleRequired)
		}
		if err := dao.RenameDocument(s.db, doc.ID, *req.Title); err != nil {
			return EError(c, stack_error.TrackErrorStack(err).AddContext("docId", doc.ID))
		}
		doc.Title = *req.Title
	}

	if len(req.Data) > 0 || req.HTML != nil {
		var html string
		if req.HTML != nil {
			html = *req.HTML
		}
		nodes, err := DocumentRequest{Data: req.Data, HTML: html}.nodes()
		if err != nil {
			return EErrorDefined(c, apierrors.ErrInvalidDocument)
		}

		ed, err := s.sessions.Get(&doc)
		if err != nil {
			return EError(c, stack_error.TrackErrorStack(err).AddContext("docId", doc.ID))
		}
		ed.Load(nodes)
		s.recorder.Touch(doc.ID, ed, req.BlockID)
	}

	return c.JSON(http.StatusAccepted, map[string]any{
		"id":      doc.ID,
		"title":   doc.Title,
		"pending": s.recorder.Pending(doc.ID),
	})
}

// editDocument выполняет команду редактора над блоком документа и откладывает сохранение ревизии.
func (s *Services) editDocument(c echo.Context) error {
	doc := c.(DocumentContext).Doc

	var req DocumentEditRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}

	var f commands.Format
	if req.Action == "format" || req.Action == "remove" {
		var err error
		if f, err = commands.ParseFormat(req.Format); err != nil {
			return EErrorDefined(c, apierrors.ErrInvalidFormat.WithFormattedMessage(req.Format))
		}
	}

	ed, err := s.sessions.Get(&doc)
	if err != nil {
		return EError(c, stack_error.TrackErrorStack(err).AddContext("docId", doc.ID))
	}

	// Выделение, команда и ответ выполняются под одной блокировкой редактора документа
	blockID := req.BlockID
	var resp EditResponse
	err = ed.Edit(req.BlockID, req.Start, req.End, func(tx *EditTx) error {
		var dir *commands.Direction
		switch req.Action {
		case "format":
			d, err := tx.Format(f, formatAttributes(f, req.Attrs)...)
			s.metrics.formatOperations.WithLabelValues(f.String(), d.String()).Inc()
			if err != nil {
				return err
			}
			dir = &d
		case "remove":
			if err := tx.RemoveFormat(f); err != nil {
				return err
			}
		case "clear":
			if err := tx.ClearFormatting(); err != nil {
				return err
			}
		case "split":
			id, err := tx.SplitAtCursor()
			if err != nil {
				return err
			}
			blockID = id
		case "paste":
			if err := tx.Paste(req.Paste); err != nil {
				return err
			}
		}
		resp = editResponse(tx, dir)
		return nil
	})
	if err != nil {
		return EError(c, err)
	}

	s.recorder.Touch(doc.ID, ed, blockID)
	return c.JSON(http.StatusOK, resp)
}

func (s *Services) deleteDocument(c echo.Context) error {
	doc := c.(DocumentContext).Doc

	s.recorder.Cancel(doc.ID)
	if err := dao.DeleteDocument(s.db, doc.ID); err != nil {
		return EError(c, stack_error.TrackErrorStack(err).AddContext("docId", doc.ID))
	}
	s.sessions.Drop(doc.ID)
	s.hub.Send(live.Event{Type: live.EventDeleted, DocumentID: doc.ID.String()})
	s.hub.CloseDocument(doc.ID.String(), "document deleted")
	return c.NoContent(http.StatusNoContent)
}

func (s *Services) getRevisionList(c echo.Context) error {
	doc := c.(DocumentContext).Doc

	if _, err := s.recorder.Flush(doc.ID); err != nil {
		return EError(c, stack_error.TrackErrorStack(err).AddContext("docId", doc.ID))
	}
	revs, err := dao.GetRevisions(s.db, doc.ID)
	if err != nil {
		return EError(c, stack_error.TrackErrorStack(err).AddContext("docId", doc.ID))
	}
	return c.JSON(http.StatusOK, revs)
}

func (s *Services) undoDocument(c echo.Context) error {
	return s.moveDocument(c, -1)
}

func (s *Services) redoDocument(c echo.Context) error {
	return s.moveDocument(c, 1)
}

// moveDocument переключает ревизию документа и перезагружает его редактор.
func (s *Services) moveDocument(c echo.Context, delta int) error {
	doc := c.(DocumentContext).Doc

	var moved *dao.Document
	var err error
	if delta < 0 {
		moved, err = s.recorder.Undo(doc.ID)
	} else {
		moved, err = s.recorder.Redo(doc.ID)
	}
	if err != nil {
		if errors.Is(err, dao.ErrNoRevision) {
			if delta < 0 {
				return EErrorDefined(c, apierrors.ErrNothingToUndo)
			}
			return EErrorDefined(c, apierrors.ErrNothingToRedo)
		}
		return EError(c, stack_error.TrackErrorStack(err).AddContext("docId", doc.ID).AddContext("delta", delta))
	}

	if _, err := s.sessions.Reload(moved); err != nil {
		return EError(c, stack_error.TrackErrorStack(err).AddContext("docId", doc.ID))
	}
	return c.JSON(http.StatusOK, moved)
}

// exportDocument отдает документ файлом в формате md, html или pdf. Отложенные правки сохраняются до экспорта.
func (s *Services) exportDocument(c echo.Context) error {
	doc := c.(DocumentContext).Doc

	format, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrUnsupportedExport.WithFormattedMessage(c.Param("format")))
	}

	if flushed, err := s.recorder.Flush(doc.ID); err != nil {
		return EError(c, stack_error.TrackErrorStack(err).AddContext("docId", doc.ID))
	} else if flushed != nil {
		doc = *flushed
	}

	nodes, err := doc.Nodes()
	if err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidDocument)
	}

	var buf bytes.Buffer
	if err := export.Export(format, doc.Title, nodes, &buf); err != nil {
		stack_error.GetError(c, stack_error.TrackErrorStack(err).AddContext("docId", doc.ID).AddContext("format", format))
		return EErrorDefined(c, apierrors.ErrExportFailed)
	}

	fileName := fmt.Sprintf("%s.%s", doc.Title, format)
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename*=UTF-8''"+url.PathEscape(fileName))
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}
