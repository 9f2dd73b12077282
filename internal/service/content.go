package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/colivhub/portal-server-go/internal/content"
	"github.com/colivhub/portal-server-go/internal/database"
	apperrors "github.com/colivhub/portal-server-go/internal/errors"
	"github.com/colivhub/portal-server-go/internal/model"
	"github.com/colivhub/portal-server-go/internal/repository"
	"github.com/colivhub/portal-server-go/internal/sse"
)

// Resolution is the content of one property in one language. FromDB is
// false whenever the static fallback supplied the sections.
type Resolution struct {
	Sections []content.Section `json:"sections"`
	FromDB   bool              `json:"fromDb"`
}

type TxRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

type EventPublisher interface {
	Publish(ctx context.Context, propertyID string, event sse.Event) error
}

type ContentService struct {
	db        TxRunner
	repo      repository.PropertyContentRepository
	static    *content.StaticProvider
	publisher EventPublisher
}

func NewContentService(
	db TxRunner,
	repo repository.PropertyContentRepository,
	static *content.StaticProvider,
	publisher EventPublisher,
) *ContentService {
	return &ContentService{
		db:        db,
		repo:      repo,
		static:    static,
		publisher: publisher,
	}
}

// Resolve never fails: without a property id, on a backend error, or when
// the backend has no rows yet, it serves the static sections for
// propertyKey.
func (s *ContentService) Resolve(ctx context.Context, propertyID *string, propertyKey string, lang model.Language) Resolution {
	if propertyID == nil || *propertyID == "" {
		return s.fallback(propertyKey, lang)
	}

	rows, err := s.repo.ListByProperty(ctx, *propertyID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("propertyId", *propertyID).
			Str("propertyKey", propertyKey).
			Msg("content query failed, serving fallback")
		return s.fallback(propertyKey, lang)
	}
	if len(rows) == 0 {
		return s.fallback(propertyKey, lang)
	}

	sections := make([]content.Section, 0, len(rows))
	for _, row := range rows {
		sections = append(sections, content.FromBackendRow(row, lang))
	}
	return Resolution{Sections: sections, FromDB: true}
}

func (s *ContentService) fallback(propertyKey string, lang model.Language) Resolution {
	return Resolution{Sections: s.static.Sections(propertyKey, lang)}
}

// Rows returns the stored rows of a property in both languages.
func (s *ContentService) Rows(ctx context.Context, propertyID string) ([]model.PropertyContent, error) {
	rows, err := s.repo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return rows, nil
}

// Upsert updates the row named by params.ID, or inserts a new one with
// defaults for omitted optional fields. A section key appears at most once
// per property.
func (s *ContentService) Upsert(ctx context.Context, params model.UpsertPropertyContentParams) (*model.PropertyContent, error) {
	if err := ValidateStruct(params); err != nil {
		return nil, err
	}
	if !content.IsKnownSection(params.SectionKey) {
		return nil, apperrors.InvalidInput("sectionKey", "unknown section")
	}

	var row *model.PropertyContent
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		existing, err := lockedRows(ctx, repo, params.PropertyID)
		if err != nil {
			return err
		}
		found := false
		for _, r := range existing {
			if params.ID != nil && r.ID == *params.ID {
				found = true
				continue
			}
			if r.SectionKey == params.SectionKey {
				return apperrors.AlreadyExists(fmt.Sprintf("section %q", params.SectionKey))
			}
		}
		if params.ID != nil && !found {
			return apperrors.NotFound("content section")
		}

		if params.ID != nil {
			row, err = repo.Update(ctx, *params.ID, model.UpdatePropertyContentParams{
				SectionKey: params.SectionKey,
				Icon:       params.Icon,
				TitleFR:    params.TitleFR,
				TitleEN:    params.TitleEN,
				ContentFR:  params.ContentFR,
				ContentEN:  params.ContentEN,
				SortOrder:  params.SortOrder,
			})
			if err == nil && row == nil {
				return apperrors.NotFound("content section")
			}
		} else {
			row, err = repo.Create(ctx, insertDefaults(params))
		}
		return err
	})
	if err != nil {
		return nil, asContentError(err)
	}

	log.Info().
		Str("propertyId", row.PropertyID).
		Str("sectionKey", row.SectionKey).
		Str("id", row.ID).
		Msg("content section saved")

	s.notify(ctx, row.PropertyID)
	return row, nil
}

// lockedRows serializes writers of one property for the rest of the
// transaction and returns its current rows.
func lockedRows(ctx context.Context, repo repository.PropertyContentRepository, propertyID string) ([]model.PropertyContent, error) {
	if err := repo.LockProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	return repo.ListByProperty(ctx, propertyID)
}

func asContentError(err error) error {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	return apperrors.Database(err)
}

func insertDefaults(params model.UpsertPropertyContentParams) model.CreatePropertyContentParams {
	row := model.CreatePropertyContentParams{
		PropertyID: params.PropertyID,
		SectionKey: params.SectionKey,
		Icon:       content.Meta(content.SectionKey(params.SectionKey)).Icon,
		TitleFR:    params.TitleFR,
		ContentFR:  params.ContentFR,
	}
	if params.Icon != nil {
		row.Icon = *params.Icon
	}
	if params.TitleEN != nil {
		row.TitleEN = *params.TitleEN
	}
	if params.ContentEN != nil {
		row.ContentEN = *params.ContentEN
	}
	if params.SortOrder != nil {
		row.SortOrder = *params.SortOrder
	}
	return row
}

// Seed copies the whole static set of propertyKey into backend rows for
// propertyID in one transaction. It refuses a property that already has
// rows and returns the number of rows inserted.
func (s *ContentService) Seed(ctx context.Context, propertyID, propertyKey string) (int, error) {
	rows := s.static.SeedRows(propertyID, propertyKey)
	if len(rows) == 0 {
		return 0, apperrors.NotFound(fmt.Sprintf("fallback content %q", propertyKey))
	}

	var inserted int64
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		existing, err := lockedRows(ctx, repo, propertyID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return apperrors.AlreadyExists("content for this property")
		}
		inserted, err = repo.CreateBatch(ctx, rows)
		return err
	})
	if err != nil {
		return 0, asContentError(err)
	}

	log.Info().
		Str("propertyId", propertyID).
		Str("propertyKey", propertyKey).
		Int64("rows", inserted).
		Msg("content seeded from fallback")

	s.notify(ctx, propertyID)
	return int(inserted), nil
}

func (s *ContentService) notify(ctx context.Context, propertyID string) {
	if s.publisher == nil {
		return
	}
	event, err := sse.NewEvent(sse.EventContentUpdated, map[string]any{
		"propertyId": propertyID,
		"updatedAt":  time.Now().UTC(),
	})
	if err == nil {
		err = s.publisher.Publish(ctx, propertyID, event)
	}
	if err != nil {
		log.Warn().Err(err).Str("propertyId", propertyID).Msg("failed to publish content update")
	}
}
