package redactor

import (
	"net/http"
	"strconv"

	"github.com/aisa-it/redactor/internal/redactor/apierrors"
	"github.com/aisa-it/redactor/internal/redactor/commands"
	"github.com/aisa-it/redactor/internal/redactor/editor"
	policy "github.com/aisa-it/redactor/internal/redactor/redactor-policy"
	"github.com/aisa-it/redactor/internal/redactor/rules"
	"github.com/aisa-it/redactor/internal/redactor/selection"
	"github.com/labstack/echo/v4"
	"golang.org/x/net/html"
)

func (s *Services) AddEditServices(g *echo.Group) {
	g.POST("format/", s.formatText)
	g.POST("direction/", s.getSelectionDirection)
	g.POST("clear/", s.clearFormatting)
	g.POST("split/", s.splitContent)
	g.POST("paste/", s.pasteContent)
	g.POST("parse/", s.parseMarkup)
	g.POST("render/", s.renderData)
	g.POST("sanitize/", s.sanitizeMarkup)
}

// bindRequest разбирает тело запроса и проверяет его валидатором.
func bindRequest(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apierrors.ErrBadRequest
	}
	return c.Validate(req)
}

// loadSelection создает редактор с разметкой запроса и выделением в ней.
func (s *Services) loadSelection(req SelectionRequest) (*Editor, error) {
	ed := s.newEditor()
	if err := ed.LoadHTML(req.HTML); err != nil {
		return nil, apierrors.ErrInvalidDocument
	}
	if err := ed.Select(req.BlockID, req.Start, req.End); err != nil {
		return nil, err
	}
	return ed, nil
}

// formatAttributes оставляет атрибуты, разрешенные для тега формата строчной конфигурацией очистки.
func formatAttributes(f commands.Format, attrs map[string]string) []html.Attribute {
	allowed := policy.BasicConfig().Attributes[f.Tag()]
	var res []html.Attribute
	for _, attr := range attributes(attrs) {
		for _, key := range allowed {
			if attr.Key == key {
				res = append(res, attr)
				break
			}
		}
	}
	return res
}

// editState - содержимое и выделение редактора для ответа: *Editor или *EditTx внутри Edit.
type editState interface {
	HTML() string
	Selection() (blockID string, start, end int, ok bool)
}

func editResponse(ed editState, dir *commands.Direction) EditResponse {
	resp := EditResponse{HTML: ed.HTML()}
	if dir != nil {
		resp.Direction = dir.String()
	}
	if id, start, end, ok := ed.Selection(); ok {
		resp.Selection = &SelectionResponse{BlockID: id, Start: start, End: end}
	}
	return resp
}

// formatText переключает формат на выделенном тексте.
func (s *Services) formatText(c echo.Context) error {
	var req FormatRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}
	f, err := commands.ParseFormat(req.Format)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidFormat.WithFormattedMessage(req.Format))
	}

	ed, err := s.loadSelection(req.SelectionRequest)
	if err != nil {
		return EError(c, err)
	}
	dir, err := ed.Format(f, formatAttributes(f, req.Attrs)...)
	s.metrics.formatOperations.WithLabelValues(f.String(), dir.String()).Inc()
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, editResponse(ed, &dir))
}

// getSelectionDirection возвращает отношение выделения к разметке формата без изменений.
func (s *Services) getSelectionDirection(c echo.Context) error {
	var req FormatRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}
	f, err := commands.ParseFormat(req.Format)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidFormat.WithFormattedMessage(req.Format))
	}

	ed, err := s.loadSelection(req.SelectionRequest)
	if err != nil {
		return EError(c, err)
	}
	bounds, _ := ed.Bounds()
	return c.JSON(http.StatusOK, struct {
		Direction commands.Direction `json:"direction"`
		Bounds    selection.Bounds   `json:"bounds"`
	}{ed.Direction(f), bounds})
}

func (s *Services) clearFormatting(c echo.Context) error {
	var req SelectionRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}
	ed, err := s.loadSelection(req)
	if err != nil {
		return EError(c, err)
	}
	if err := ed.ClearFormatting(); err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, editResponse(ed, nil))
}

// splitContent отрезает разметку после начала выделения.
func (s *Services) splitContent(c echo.Context) error {
	var req SelectionRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}
	ed, err := s.loadSelection(req)
	if err != nil {
		return EError(c, err)
	}
	tail, err := ed.SplitContent()
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"html": ed.HTML(),
		"tail": tail,
	})
}

func (s *Services) pasteContent(c echo.Context) error {
	var req PasteRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}
	ed, err := s.loadSelection(req.SelectionRequest)
	if err != nil {
		return EError(c, err)
	}
	if err := ed.Paste(req.Paste); err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, editResponse(ed, nil))
}

// parseMarkup переводит разметку в модель документа.
func (s *Services) parseMarkup(c echo.Context) error {
	var req MarkupRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": editor.HTMLToData(req.HTML),
	})
}

func (s *Services) renderData(c echo.Context) error {
	var req RenderRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}
	nodes, err := editor.DecodeNodes(req.Data)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidDocument)
	}
	markup, err := editor.RenderHTML(nodes)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"html": markup})
}

type SanitizeResponse struct {
	HTML     string                   `json:"html"`
	Messages []rules.LuaOut           `json:"messages,omitempty"`
	Errors   []apierrors.DefinedError `json:"errors,omitempty"`
}

// sanitizeMarkup очищает разметку по выбранной конфигурации. Скрипт из запроса заменяет серверный.
func (s *Services) sanitizeMarkup(c echo.Context) error {
	var req SanitizeRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}

	script := s.rules
	if req.Script != "" {
		custom, err := rules.NewTransformer(req.Script)
		if err != nil {
			s.countRulesError(err)
			return EError(c, err)
		}
		defer custom.Close()
		script = custom
	} else if script != nil {
		// Сообщения и ошибки серверного скрипта общие, запросы к нему идут по очереди
		s.rulesMu.Lock()
		defer s.rulesMu.Unlock()
	}

	sanitizer := policy.New(sanitizerConfigs[req.Policy]())
	if script != nil {
		sanitizer.AddTransformer(script.Transformer())
	}
	resp := SanitizeResponse{HTML: sanitizer.Sanitize(req.HTML)}

	if script != nil {
		resp.Messages = script.Messages()
		for _, e := range script.Errors() {
			s.countRulesError(e)
			resp.Errors = append(resp.Errors, e.ClientError())
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Services) countRulesError(err error) {
	if defined, ok := definedError(err); ok {
		s.metrics.rulesErrors.WithLabelValues(strconv.Itoa(defined.Code)).Inc()
	}
}
