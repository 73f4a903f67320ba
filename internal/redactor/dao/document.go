// DAO (Data Access Object) документов редактора и их ревизий.
//
// Основные возможности:
//   - Хранение модели документа в JSON колонке и очищенного HTML для выдачи и поиска.
//   - Последовательные ревизии документа с отменой и повтором.
//   - Очистка старых ревизий с сохранением текущей.
//   - Поиск по тексту документа без разметки.
package dao

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/aisa-it/redactor/internal/redactor/editor"
	"github.com/gofrs/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrNoRevision       = errors.New("revision not found")
)

func GenUUID() uuid.UUID {
	u2, _ := uuid.NewV4()
	return u2
}

type PaginationResponse struct {
	Count  int64 `json:"count"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
	Result any   `json:"result"`
}

type Document struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title     string         `json:"title" validate:"required,max=150"`
	Content   datatypes.JSON `json:"content"`
	HTML      RedactorHTML   `json:"html" gorm:"column:html"`
	PlainText string         `json:"-"`
	// Номер текущей ревизии.
	Revision int `json:"revision"`
}

func (Document) TableName() string { return "documents" }

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = GenUUID()
	}
	if len(d.Content) == 0 {
		d.Content = datatypes.JSON("[]")
	}
	return nil
}

// Nodes декодирует модель документа.
func (d *Document) Nodes() ([]any, error) {
	if len(d.Content) == 0 {
		return []any{}, nil
	}
	return editor.DecodeNodes(d.Content)
}

// SetNodes записывает модель документа и пересчитывает HTML и текст для поиска.
func (d *Document) SetNodes(nodes []any) error {
	if nodes == nil {
		nodes = []any{}
	}
	b, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("marshal document content: %w", err)
	}
	markup, err := editor.RenderHTML(nodes)
	if err != nil {
		return fmt.Errorf("render document content: %w", err)
	}
	d.Content = datatypes.JSON(b)
	d.HTML = RedactorHTML{Body: markup}
	d.PlainText = d.HTML.StripTags()
	return nil
}

type DocumentRevision struct {
	ID         uuid.UUID      `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	DocumentID uuid.UUID      `gorm:"type:uuid;uniqueIndex:document_revisions_seq_idx,priority:1" json:"document_id"`
	Seq        int            `gorm:"uniqueIndex:document_revisions_seq_idx,priority:2" json:"seq"`
	Content    datatypes.JSON `json:"content"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (DocumentRevision) TableName() string { return "document_revisions" }

func (r *DocumentRevision) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = GenUUID()
	}
	return nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Document{}, &DocumentRevision{})
}

// CreateDocument сохраняет новый документ вместе с первой ревизией.
func CreateDocument(db *gorm.DB, doc *Document, nodes []any) error {
	if err := doc.SetNodes(nodes); err != nil {
		return err
	}
	doc.Revision = 1
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		return tx.Create(&DocumentRevision{
			DocumentID: doc.ID,
			Seq:        1,
			Content:    doc.Content,
		}).Error
	})
}

func GetDocument(db *gorm.DB, id string) (*Document, error) {
	docId, err := uuid.FromString(id)
	if err != nil {
		return nil, ErrDocumentNotFound
	}
	var doc Document
	if err := db.Where("id = ?", docId).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// ListDocuments возвращает страницу документов, свежие первыми. search ищет по тексту и заголовку без учета регистра.
func ListDocuments(db *gorm.DB, search string, offset, limit int) (PaginationResponse, error) {
	query := db.Model(&Document{})
	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("lower(plain_text) LIKE ? OR lower(title) LIKE ?", pattern, pattern)
	}
	query = query.Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return PaginationResponse{}, err
	}

	docs := make([]Document, 0)
	if err := query.Order("updated_at desc").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return PaginationResponse{}, err
	}
	return PaginationResponse{
		Count:  count,
		Offset: offset,
		Limit:  limit,
		Result: docs,
	}, nil
}

func RenameDocument(db *gorm.DB, id uuid.UUID, title string) error {
	res := db.Model(&Document{}).Where("id = ?", id).Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// SaveRevision записывает новое содержимое документа следующей ревизией.
// Ревизии после текущей (ветка повтора) удаляются. Неизмененное содержимое ревизию не создает.
func SaveRevision(db *gorm.DB, id uuid.UUID, nodes []any) (*Document, error) {
	var doc Document
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDocumentNotFound
			}
			return err
		}

		prev := doc.Content
		if err := doc.SetNodes(nodes); err != nil {
			return err
		}
		if sameJSON(prev, doc.Content) {
			return nil
		}

		if err := tx.Where("document_id = ? AND seq > ?", doc.ID, doc.Revision).Delete(&DocumentRevision{}).Error; err != nil {
			return err
		}
		doc.Revision++
		if err := tx.Create(&DocumentRevision{
			DocumentID: doc.ID,
			Seq:        doc.Revision,
			Content:    doc.Content,
		}).Error; err != nil {
			return err
		}
		return tx.Save(&doc).Error
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MoveRevision переключает документ на ревизию текущая+delta: -1 отмена, +1 повтор.
func MoveRevision(db *gorm.DB, id uuid.UUID, delta int) (*Document, error) {
	var doc Document
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDocumentNotFound
			}
			return err
		}

		var rev DocumentRevision
		if err := tx.Where("document_id = ? AND seq = ?", doc.ID, doc.Revision+delta).First(&rev).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoRevision
			}
			return err
		}

		nodes, err := editor.DecodeNodes(rev.Content)
		if err != nil {
			return fmt.Errorf("decode revision %d: %w", rev.Seq, err)
		}
		if err := doc.SetNodes(nodes); err != nil {
			return err
		}
		doc.Revision = rev.Seq
		return tx.Save(&doc).Error
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func GetRevisions(db *gorm.DB, id uuid.UUID) ([]DocumentRevision, error) {
	revs := make([]DocumentRevision, 0)
	err := db.Where("document_id = ?", id).Order("seq").Find(&revs).Error
	return revs, err
}

func DeleteDocument(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&DocumentRevision{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Document{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDocumentNotFound
		}
		return nil
	})
}

// PruneRevisions оставляет у каждого документа keep последних ревизий и текущую. Возвращает число удаленных.
func PruneRevisions(db *gorm.DB, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	res := db.
		Where("seq <= (SELECT MAX(r2.seq) FROM document_revisions r2 WHERE r2.document_id = document_revisions.document_id) - ?", keep).
		Where("seq <> (SELECT d.revision FROM documents d WHERE d.id = document_revisions.document_id)").
		Delete(&DocumentRevision{})
	return res.RowsAffected, res.Error
}

// sameJSON сравнивает JSON по значению: postgres jsonb не сохраняет исходное форматирование.
func sameJSON(a, b []byte) bool {
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}
