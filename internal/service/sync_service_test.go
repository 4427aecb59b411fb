package service

import (
	"context"
	"testing"
	"time"

	"github.com/pavelplus/vetis-tools/internal/model"
	"github.com/pavelplus/vetis-tools/internal/vetis"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncFixture struct {
	registry *stubRegistry
	creds    *memCredentials
	bes      *memBES
	ents     *memEnts
	catalog  *memCatalog
	stock    *memStock
	svc      *syncService
	be       *model.BusinessEntity
	ent      *model.Enterprise
	clock    time.Time
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	f := &syncFixture{
		registry: newStubRegistry(),
		bes:      newMemBES(),
		ents:     newMemEnts(),
		catalog:  newMemCatalog(),
		stock:    newMemStock(),
		clock:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.creds = &memCredentials{rows: map[uint]*model.Credentials{
		1: {ID: 1, Name: "acme", Login: "operator", Password: "pw", APIKey: "key", ServiceID: "svc", IssuerID: "iss"},
	}}

	credID := uint(1)
	f.be = f.bes.add(model.BusinessEntity{
		GUID: uuid.New(), UUID: uuid.New(), Name: "Acme Foods", CredentialsID: &credID, IsActive: true,
	})
	f.ent = f.ents.add(model.Enterprise{
		GUID: uuid.New(), UUID: uuid.New(), Name: "Acme warehouse",
		BusinessEntityID: &f.be.ID, IsActive: true, IsAllowed: true,
	})

	svc, ok := NewSyncService(f.registry, f.creds, f.bes, f.ents, f.catalog, f.stock).(*syncService)
	require.True(t, ok)
	svc.now = func() time.Time { return f.clock }
	f.svc = svc
	return f
}

func TestReloadEnterprises(t *testing.T) {
	f := newSyncFixture(t)
	// A stale site that the fresh listing no longer mentions.
	stale := f.ents.add(model.Enterprise{
		GUID: uuid.New(), UUID: uuid.New(), Name: "Closed depot",
		BusinessEntityID: &f.be.ID, IsActive: true,
	})

	kept := vetis.EnterpriseXML{
		UUID: f.ent.UUID.String(), GUID: f.ent.GUID.String(), Name: "Acme warehouse",
		NumberList: []string{"RU-123", "RU-456"},
	}
	fresh := vetis.EnterpriseXML{UUID: uuid.NewString(), GUID: uuid.NewString(), Name: "New shop"}
	f.registry.locationList = []vetis.EnterpriseXML{kept, fresh}

	summary, err := f.svc.ReloadEnterprises(context.Background(), 1, "operator", f.be.ID)
	require.NoError(t, err)
	assert.Contains(t, summary, "2 sites")

	got, err := f.ents.FindByGUID(context.Background(), f.ent.GUID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Equal(t, "RU-123, RU-456", got.NumberList)

	gone, err := f.ents.FindByID(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.False(t, gone.IsActive, "sites absent from the listing stay deactivated")
}

func TestReloadEnterprisesAuthMismatch(t *testing.T) {
	f := newSyncFixture(t)
	other := f.bes.add(model.BusinessEntity{GUID: uuid.New(), UUID: uuid.New(), Name: "Other org"})

	_, err := f.svc.ReloadEnterprises(context.Background(), 1, "operator", other.ID)
	assert.ErrorIs(t, err, vetis.ErrAuthMismatch)
}

func TestReloadProductsSubProductsRefreshesKnownRows(t *testing.T) {
	f := newSyncFixture(t)
	pGUID, spGUID := uuid.New(), uuid.New()
	require.NoError(t, f.catalog.UpsertProduct(context.Background(), &model.Product{
		GUID: pGUID, UUID: uuid.New(), Name: "Old product name",
	}))
	require.NoError(t, f.catalog.UpsertSubProduct(context.Background(), &model.SubProduct{
		GUID: spGUID, UUID: uuid.New(), Name: "Old sub name", ProductGUID: pGUID,
	}))
	f.registry.products[pGUID.String()] = &vetis.ProductXML{
		UUID: uuid.NewString(), GUID: pGUID.String(), Name: "Fresh product name",
	}
	f.registry.subProducts[spGUID.String()] = &vetis.SubProductXML{
		UUID: uuid.NewString(), GUID: spGUID.String(), Name: "Fresh sub name", ProductGUID: pGUID.String(),
	}

	summary, err := f.svc.ReloadProductsSubProducts(context.Background(), 1, "operator")
	require.NoError(t, err)
	assert.Contains(t, summary, "1 products and 1 sub-products")

	p, err := f.catalog.FindProductByGUID(context.Background(), pGUID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh product name", p.Name)
}

func TestReloadProductItems(t *testing.T) {
	f := newSyncFixture(t)
	itemGUID := uuid.New()
	item := vetis.ProductItemXML{
		UUID: uuid.NewString(), GUID: itemGUID.String(), Active: true, Name: "Cream 20%",
	}
	item.Producer.GUID = f.be.GUID.String()
	f.registry.itemList = []vetis.ProductItemXML{item}
	// The per-item cleanup fetch resolves the catalog links the list omitted.
	linked := item
	linked.ProductGUID = uuid.NewString()
	f.registry.products[linked.ProductGUID] = &vetis.ProductXML{
		UUID: uuid.NewString(), GUID: linked.ProductGUID, Name: "Milk",
	}
	f.registry.productItems[itemGUID.String()] = &linked

	summary, err := f.svc.ReloadProductItems(context.Background(), 1, "operator", f.be.ID)
	require.NoError(t, err)
	assert.Contains(t, summary, "loaded 1 product items")

	got, err := f.catalog.FindProductItemByGUID(context.Background(), itemGUID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.NotNil(t, got.ProductID)
}

func TestUpdateStockEntriesInitialMode(t *testing.T) {
	f := newSyncFixture(t)
	guid := uuid.New()
	f.registry.stockEntries = []vetis.StockEntryXML{
		*wireEntry(guid, uuid.New(), model.StockStatusProduced),
	}

	summary, err := f.svc.UpdateStockEntries(context.Background(), 1, "operator", f.ent.ID)
	require.NoError(t, err)
	assert.Contains(t, summary, "INITIAL sync")
	assert.Contains(t, summary, "1 versions reconciled")
	assert.Contains(t, summary, "1 heads populated")
	assert.Equal(t, 1, f.registry.entriesCalls)
	assert.Zero(t, f.registry.changesCalls)

	// Watermark advances to the instant captured before the page loop.
	ent, err := f.ents.FindByID(context.Background(), f.ent.ID)
	require.NoError(t, err)
	require.NotNil(t, ent.StockSyncedAt)
	assert.True(t, ent.StockSyncedAt.Equal(f.clock))

	main, err := f.stock.FindMainByGUID(context.Background(), guid)
	require.NoError(t, err)
	assert.True(t, main.Populated)
}

func TestUpdateStockEntriesChangesWindow(t *testing.T) {
	f := newSyncFixture(t)
	watermark := f.clock.Add(-24 * time.Hour)
	f.ents.rows[f.ent.ID].StockSyncedAt = &watermark

	summary, err := f.svc.UpdateStockEntries(context.Background(), 1, "operator", f.ent.ID)
	require.NoError(t, err)
	assert.Contains(t, summary, "CHANGES sync")
	assert.Contains(t, summary, "0 versions reconciled")
	assert.Equal(t, 1, f.registry.changesCalls)
	assert.Zero(t, f.registry.entriesCalls)

	// The window starts five minutes before the stored watermark.
	assert.True(t, f.registry.changesBegin.Equal(watermark.Add(-5*time.Minute)))
	assert.True(t, f.registry.changesEnd.Equal(f.clock))

	ent, err := f.ents.FindByID(context.Background(), f.ent.ID)
	require.NoError(t, err)
	assert.True(t, ent.StockSyncedAt.Equal(f.clock), "empty window still advances the watermark")
}

func TestUpdateStockEntriesRequiresAllowedSite(t *testing.T) {
	f := newSyncFixture(t)
	f.ents.rows[f.ent.ID].IsAllowed = false

	_, err := f.svc.UpdateStockEntries(context.Background(), 1, "operator", f.ent.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")
}

func TestUpdateStockEntriesAuthChain(t *testing.T) {
	f := newSyncFixture(t)
	orphan := f.ents.add(model.Enterprise{
		GUID: uuid.New(), UUID: uuid.New(), Name: "Unlinked site", IsActive: true, IsAllowed: true,
	})

	_, err := f.svc.UpdateStockEntries(context.Background(), 1, "operator", orphan.ID)
	assert.ErrorIs(t, err, vetis.ErrAuthMismatch)
}

func TestLoadStockEntryVersions(t *testing.T) {
	f := newSyncFixture(t)
	guid := uuid.New()
	v1 := wireEntry(guid, uuid.New(), model.StockStatusProduced)
	v1.CreateDate = "2024-01-10T12:00:00"
	v2 := wireEntry(guid, uuid.New(), model.StockStatusChanged)
	v2.CreateDate = "2024-02-01T12:00:00"
	f.registry.stockVersions = []vetis.StockEntryXML{*v1, *v2}

	summary, err := f.svc.LoadStockEntryVersions(context.Background(), 1, "operator", f.ent.ID, guid)
	require.NoError(t, err)
	assert.Contains(t, summary, "loaded 2 versions")

	versions, err := f.stock.ListVersions(context.Background(), guid)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestPopulateStockEntryMainsCountsDeferred(t *testing.T) {
	f := newSyncFixture(t)

	// One head resolvable from its first version's site, one stuck waiting
	// for a document reference.
	resolvable := wireEntry(uuid.New(), uuid.New(), model.StockStatusProduced)
	stuck := wireEntry(uuid.New(), uuid.New(), model.StockStatusVetDocRedeemed)
	f.registry.stockVersions = nil

	mapper := NewMapper(f.svc.resolver)
	rec := NewReconciler(f.registry, f.svc.resolver, mapper, f.stock, f.ents)
	acc := vetis.Account{Login: "operator"}
	_, err := rec.UpsertVersion(context.Background(), acc, f.ent.ID, resolvable)
	require.NoError(t, err)
	_, err = rec.UpsertVersion(context.Background(), acc, f.ent.ID, stuck)
	require.NoError(t, err)

	summary, err := f.svc.PopulateStockEntryMains(context.Background(), 1, "operator", f.ent.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated 1 of 2 head records (1 deferred)", summary)
}
