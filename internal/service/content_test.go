package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/colivhub/portal-server-go/internal/content"
	apperrors "github.com/colivhub/portal-server-go/internal/errors"
	"github.com/colivhub/portal-server-go/internal/model"
	"github.com/colivhub/portal-server-go/internal/sse"
)

const testFallback = `
lavilla:
  fr:
    - section: welcome
      content: Bienvenue à La Villa
    - section: wifi
      content: Réseau LaVilla
  en:
    - section: welcome
      content: Welcome to La Villa
    - section: wifi
      content: Network LaVilla
`

const propertyUUID = "6f1c2a4e-3b7d-4c1a-9e2f-0a1b2c3d4e5f"

func newContentService(t *testing.T) (*ContentService, *mockContentRepo, *fakeTx, *fakePublisher) {
	t.Helper()
	static, err := content.ParseStaticProvider([]byte(testFallback))
	require.NoError(t, err)

	repo := &mockContentRepo{}
	tx := &fakeTx{}
	pub := &fakePublisher{}
	return NewContentService(tx, repo, static, pub), repo, tx, pub
}

func strPtr(s string) *string { return &s }

func TestContentService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("no property id serves fallback without querying", func(t *testing.T) {
		svc, repo, _, _ := newContentService(t)

		res := svc.Resolve(ctx, nil, "lavilla", model.LanguageEN)
		assert.False(t, res.FromDB)
		require.Len(t, res.Sections, 2)
		assert.Equal(t, "Welcome to La Villa", res.Sections[0].Body)
		repo.AssertNotCalled(t, "ListByProperty", mock.Anything, mock.Anything)
	})

	t.Run("backend error degrades to fallback", func(t *testing.T) {
		svc, repo, _, _ := newContentService(t)
		repo.On("ListByProperty", ctx, "abc").Return(nil, errors.New("connection refused"))

		res := svc.Resolve(ctx, strPtr("abc"), "lavilla", model.LanguageFR)
		assert.False(t, res.FromDB)
		require.Len(t, res.Sections, 2)
		assert.Equal(t, "Bienvenue", res.Sections[0].Title)
	})

	t.Run("zero rows degrade to fallback", func(t *testing.T) {
		svc, repo, _, _ := newContentService(t)
		repo.On("ListByProperty", ctx, "abc").Return([]model.PropertyContent{}, nil)

		res := svc.Resolve(ctx, strPtr("abc"), "lavilla", model.LanguageEN)
		assert.False(t, res.FromDB)
		assert.NotEmpty(t, res.Sections)
	})

	t.Run("unknown key and no rows is empty", func(t *testing.T) {
		svc, repo, _, _ := newContentService(t)
		repo.On("ListByProperty", ctx, "abc").Return([]model.PropertyContent{}, nil)

		res := svc.Resolve(ctx, strPtr("abc"), "nowhere", model.LanguageEN)
		assert.False(t, res.FromDB)
		assert.Empty(t, res.Sections)
	})

	t.Run("backend rows with per-field language fallback", func(t *testing.T) {
		svc, repo, _, _ := newContentService(t)
		repo.On("ListByProperty", ctx, "abc").Return([]model.PropertyContent{
			{SectionKey: "house_rules", TitleFR: "Règles", TitleEN: "", ContentFR: "Pas de bruit", ContentEN: "No noise", SortOrder: 0},
			{SectionKey: "wifi", TitleFR: "Wi-Fi", TitleEN: "Wi-Fi", ContentFR: "Réseau", ContentEN: "", SortOrder: 1},
		}, nil)

		res := svc.Resolve(ctx, strPtr("abc"), "lavilla", model.LanguageEN)
		assert.True(t, res.FromDB)
		require.Len(t, res.Sections, 2)
		assert.Equal(t, "Règles", res.Sections[0].Title)
		assert.Equal(t, "No noise", res.Sections[0].Body)
		assert.Equal(t, "Réseau", res.Sections[1].Body)
		assert.Equal(t, content.SectionWifi, res.Sections[1].Key)
	})

	t.Run("empty property id is treated as absent", func(t *testing.T) {
		svc, repo, _, _ := newContentService(t)

		res := svc.Resolve(ctx, strPtr(""), "lavilla", model.LanguageEN)
		assert.False(t, res.FromDB)
		repo.AssertNotCalled(t, "ListByProperty", mock.Anything, mock.Anything)
	})
}

// expectLockedRows stubs the lock and listing done before every write.
func expectLockedRows(repo *mockContentRepo, ctx context.Context, propertyID string, rows []model.PropertyContent) {
	repo.On("LockProperty", ctx, propertyID).Return(nil)
	repo.On("ListByProperty", ctx, propertyID).Return(rows, nil)
}

func TestContentService_Upsert(t *testing.T) {
	ctx := context.Background()
	rowID := "0b7e9a52-8c1d-4f3e-a2b4-5c6d7e8f9a0b"

	t.Run("insert applies defaults", func(t *testing.T) {
		svc, repo, tx, pub := newContentService(t)
		expectLockedRows(repo, ctx, propertyUUID, nil)
		repo.On("Create", ctx, model.CreatePropertyContentParams{
			PropertyID: propertyUUID,
			SectionKey: "wifi",
			Icon:       "wifi",
			TitleFR:    "Wi-Fi",
			TitleEN:    "",
			ContentFR:  "Réseau",
			ContentEN:  "",
			SortOrder:  0,
		}).Return(&model.PropertyContent{ID: "c1", PropertyID: propertyUUID, SectionKey: "wifi"}, nil)

		row, err := svc.Upsert(ctx, model.UpsertPropertyContentParams{
			PropertyID: propertyUUID,
			SectionKey: "wifi",
			TitleFR:    "Wi-Fi",
			ContentFR:  "Réseau",
		})
		require.NoError(t, err)
		assert.Equal(t, "c1", row.ID)
		assert.Equal(t, 1, tx.calls)
		repo.AssertExpectations(t)

		require.Len(t, pub.events[propertyUUID], 1)
		assert.Equal(t, sse.EventContentUpdated, pub.events[propertyUUID][0].Type)
	})

	t.Run("insert of an existing section key is rejected", func(t *testing.T) {
		svc, repo, _, pub := newContentService(t)
		expectLockedRows(repo, ctx, propertyUUID, []model.PropertyContent{
			{ID: rowID, PropertyID: propertyUUID, SectionKey: "wifi"},
		})

		row, err := svc.Upsert(ctx, model.UpsertPropertyContentParams{
			PropertyID: propertyUUID, SectionKey: "wifi", TitleFR: "Wi-Fi", ContentFR: "x",
		})
		assert.Nil(t, row)
		assert.Equal(t, apperrors.ErrCodeAlreadyExists, apperrors.GetCode(err))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, pub.events)
	})

	t.Run("update with id", func(t *testing.T) {
		svc, repo, _, _ := newContentService(t)
		order := 4
		expectLockedRows(repo, ctx, propertyUUID, []model.PropertyContent{
			{ID: rowID, PropertyID: propertyUUID, SectionKey: "wifi"},
		})
		repo.On("Update", ctx, rowID, model.UpdatePropertyContentParams{
			SectionKey: "wifi",
			TitleFR:    "Wi-Fi",
			ContentFR:  "Nouveau réseau",
			SortOrder:  &order,
		}).Return(&model.PropertyContent{ID: rowID, PropertyID: propertyUUID}, nil)

		row, err := svc.Upsert(ctx, model.UpsertPropertyContentParams{
			ID:         &rowID,
			PropertyID: propertyUUID,
			SectionKey: "wifi",
			TitleFR:    "Wi-Fi",
			ContentFR:  "Nouveau réseau",
			SortOrder:  &order,
		})
		require.NoError(t, err)
		assert.Equal(t, rowID, row.ID)
	})

	t.Run("update onto another row's section key is rejected", func(t *testing.T) {
		svc, repo, _, _ := newContentService(t)
		expectLockedRows(repo, ctx, propertyUUID, []model.PropertyContent{
			{ID: rowID, PropertyID: propertyUUID, SectionKey: "wifi"},
			{ID: "c2", PropertyID: propertyUUID, SectionKey: "kitchen"},
		})

		_, err := svc.Upsert(ctx, model.UpsertPropertyContentParams{
			ID: &rowID, PropertyID: propertyUUID, SectionKey: "kitchen", TitleFR: "Cuisine", ContentFR: "x",
		})
		assert.Equal(t, apperrors.ErrCodeAlreadyExists, apperrors.GetCode(err))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("update of a row outside the property", func(t *testing.T) {
		svc, repo, _, pub := newContentService(t)
		expectLockedRows(repo, ctx, propertyUUID, nil)

		row, err := svc.Upsert(ctx, model.UpsertPropertyContentParams{
			ID: &rowID, PropertyID: propertyUUID, SectionKey: "wifi", TitleFR: "Wi-Fi", ContentFR: "x",
		})
		assert.Nil(t, row)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, pub.events)
	})

	t.Run("update of a row deleted meanwhile", func(t *testing.T) {
		svc, repo, _, _ := newContentService(t)
		expectLockedRows(repo, ctx, propertyUUID, []model.PropertyContent{
			{ID: rowID, PropertyID: propertyUUID, SectionKey: "wifi"},
		})
		repo.On("Update", ctx, rowID, mock.Anything).Return(nil, nil)

		_, err := svc.Upsert(ctx, model.UpsertPropertyContentParams{
			ID: &rowID, PropertyID: propertyUUID, SectionKey: "wifi", TitleFR: "Wi-Fi", ContentFR: "x",
		})
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})

	t.Run("validation failure", func(t *testing.T) {
		svc, repo, tx, _ := newContentService(t)

		row, err := svc.Upsert(ctx, model.UpsertPropertyContentParams{PropertyID: "not-a-uuid"})
		assert.Nil(t, row)
		assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(err))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Zero(t, tx.calls)
	})

	t.Run("unknown section", func(t *testing.T) {
		svc, _, _, _ := newContentService(t)

		_, err := svc.Upsert(ctx, model.UpsertPropertyContentParams{
			PropertyID: propertyUUID, SectionKey: "rooftop", TitleFR: "Toit", ContentFR: "x",
		})
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("write error is returned, not retried", func(t *testing.T) {
		svc, repo, _, _ := newContentService(t)
		expectLockedRows(repo, ctx, propertyUUID, nil)
		repo.On("Create", ctx, mock.Anything).Return(nil, errors.New("connection reset")).Once()

		row, err := svc.Upsert(ctx, model.UpsertPropertyContentParams{
			PropertyID: propertyUUID, SectionKey: "wifi", TitleFR: "Wi-Fi", ContentFR: "x",
		})
		assert.Nil(t, row)
		assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.GetCode(err))
		repo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("lock failure is a database error", func(t *testing.T) {
		svc, repo, _, _ := newContentService(t)
		repo.On("LockProperty", ctx, propertyUUID).Return(errors.New("connection reset"))

		_, err := svc.Upsert(ctx, model.UpsertPropertyContentParams{
			PropertyID: propertyUUID, SectionKey: "wifi", TitleFR: "Wi-Fi", ContentFR: "x",
		})
		assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.GetCode(err))
		repo.AssertNotCalled(t, "ListByProperty", mock.Anything, mock.Anything)
	})
}

func TestContentService_Seed(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts the zipped static set in one transaction", func(t *testing.T) {
		svc, repo, tx, pub := newContentService(t)
		expectLockedRows(repo, ctx, "p1", nil)
		repo.On("CreateBatch", ctx, mock.MatchedBy(func(rows []model.CreatePropertyContentParams) bool {
			return len(rows) == 2 &&
				rows[0].SectionKey == "welcome" && rows[0].ContentEN == "Welcome to La Villa" &&
				rows[1].Icon == "wifi" && rows[1].PropertyID == "p1"
		})).Return(int64(2), nil)

		n, err := svc.Seed(ctx, "p1", "lavilla")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, 1, tx.calls)
		assert.Len(t, pub.events["p1"], 1)
	})

	t.Run("refuses a property that already has rows", func(t *testing.T) {
		svc, repo, _, pub := newContentService(t)
		expectLockedRows(repo, ctx, "p1", []model.PropertyContent{{ID: "c1", PropertyID: "p1", SectionKey: "welcome"}})

		n, err := svc.Seed(ctx, "p1", "lavilla")
		assert.Zero(t, n)
		assert.Equal(t, apperrors.ErrCodeAlreadyExists, apperrors.GetCode(err))
		repo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
		assert.Empty(t, pub.events)
	})

	t.Run("reports the first error", func(t *testing.T) {
		svc, repo, _, pub := newContentService(t)
		expectLockedRows(repo, ctx, "p1", nil)
		repo.On("CreateBatch", ctx, mock.Anything).Return(int64(0), errors.New("connection reset"))

		n, err := svc.Seed(ctx, "p1", "lavilla")
		assert.Zero(t, n)
		assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.GetCode(err))
		assert.ErrorContains(t, err, "connection reset")
		assert.Empty(t, pub.events)
	})

	t.Run("unknown key", func(t *testing.T) {
		svc, _, tx, _ := newContentService(t)

		_, err := svc.Seed(ctx, "p1", "nowhere")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
		assert.Zero(t, tx.calls)
	})
}

func TestContentService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, pub := newContentService(t)
	pub.err = errors.New("redis down")
	expectLockedRows(repo, ctx, "p1", nil)
	repo.On("CreateBatch", ctx, mock.Anything).Return(int64(2), nil)

	n, err := svc.Seed(ctx, "p1", "lavilla")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
