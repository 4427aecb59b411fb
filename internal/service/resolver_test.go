package service

import (
	"context"
	"testing"

	"github.com/pavelplus/vetis-tools/internal/model"
	"github.com/pavelplus/vetis-tools/internal/vetis"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverFixture struct {
	registry *stubRegistry
	catalog  *memCatalog
	bes      *memBES
	ents     *memEnts
	resolver *Resolver
}

func newResolverFixture() *resolverFixture {
	f := &resolverFixture{
		registry: newStubRegistry(),
		catalog:  newMemCatalog(),
		bes:      newMemBES(),
		ents:     newMemEnts(),
	}
	f.resolver = NewResolver(f.registry, f.catalog, f.bes, f.ents)
	return f
}

func testAcc() vetis.Account {
	return vetis.Account{Name: "acme", Login: "operator", Password: "pw"}
}

func TestResolverProductCachedSkipsFetch(t *testing.T) {
	f := newResolverFixture()
	guid := uuid.New()
	require.NoError(t, f.catalog.UpsertProduct(context.Background(), &model.Product{
		GUID: guid, UUID: uuid.New(), Name: "Milk",
	}))

	p, err := f.resolver.Product(context.Background(), testAcc(), guid, false)
	require.NoError(t, err)
	assert.Equal(t, "Milk", p.Name)
	assert.Zero(t, f.registry.fetches["product:"+guid.String()])
}

func TestResolverProductFetchesOnceAndUpserts(t *testing.T) {
	f := newResolverFixture()
	guid := uuid.New()
	f.registry.products[guid.String()] = &vetis.ProductXML{
		UUID: uuid.NewString(), GUID: guid.String(), Name: "Milk", Code: "01.1", ProductType: 5,
	}

	p, err := f.resolver.Product(context.Background(), testAcc(), guid, false)
	require.NoError(t, err)
	assert.Equal(t, "Milk", p.Name)
	assert.NotZero(t, p.ID)

	// Second resolve hits the cached row.
	again, err := f.resolver.Product(context.Background(), testAcc(), guid, false)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, 1, f.registry.fetches["product:"+guid.String()])
}

func TestResolverForceRefreshKeepsRowIdentity(t *testing.T) {
	f := newResolverFixture()
	guid := uuid.New()
	stale := &model.Product{GUID: guid, UUID: uuid.New(), Name: "Old name"}
	require.NoError(t, f.catalog.UpsertProduct(context.Background(), stale))
	f.registry.products[guid.String()] = &vetis.ProductXML{
		UUID: uuid.NewString(), GUID: guid.String(), Name: "New name",
	}

	p, err := f.resolver.Product(context.Background(), testAcc(), guid, true)
	require.NoError(t, err)
	assert.Equal(t, "New name", p.Name)
	assert.Equal(t, stale.ID, p.ID, "refresh converges onto the existing row")
	assert.Equal(t, 1, f.registry.fetches["product:"+guid.String()])
}

func TestResolverSubProductResolvesParentFirst(t *testing.T) {
	f := newResolverFixture()
	parentGUID := uuid.New()
	spGUID := uuid.New()
	f.registry.products[parentGUID.String()] = &vetis.ProductXML{
		UUID: uuid.NewString(), GUID: parentGUID.String(), Name: "Milk",
	}
	f.registry.subProducts[spGUID.String()] = &vetis.SubProductXML{
		UUID: uuid.NewString(), GUID: spGUID.String(), Name: "Cream", ProductGUID: parentGUID.String(),
	}

	sp, err := f.resolver.SubProduct(context.Background(), testAcc(), spGUID, false)
	require.NoError(t, err)
	require.NotNil(t, sp.ProductID)
	assert.Equal(t, parentGUID, sp.ProductGUID)

	parent, err := f.catalog.FindProductByGUID(context.Background(), parentGUID)
	require.NoError(t, err)
	assert.Equal(t, *sp.ProductID, parent.ID)
}

func TestResolverProductItemResolvesAllReferences(t *testing.T) {
	f := newResolverFixture()
	productGUID := uuid.New()
	spGUID := uuid.New()
	producerGUID := uuid.New()
	itemGUID := uuid.New()

	f.registry.products[productGUID.String()] = &vetis.ProductXML{
		UUID: uuid.NewString(), GUID: productGUID.String(), Name: "Milk",
	}
	f.registry.subProducts[spGUID.String()] = &vetis.SubProductXML{
		UUID: uuid.NewString(), GUID: spGUID.String(), Name: "Cream", ProductGUID: productGUID.String(),
	}
	f.registry.bes[producerGUID.String()] = &vetis.BusinessEntityXML{
		UUID: uuid.NewString(), GUID: producerGUID.String(), Name: "Dairy Plant LLC", INN: "7701234567",
	}
	wire := &vetis.ProductItemXML{
		UUID: uuid.NewString(), GUID: itemGUID.String(), Active: true, Name: "Cream 20%",
		ProductGUID: productGUID.String(), SubProductGUID: spGUID.String(),
	}
	wire.Producer.GUID = producerGUID.String()
	f.registry.productItems[itemGUID.String()] = wire

	item, err := f.resolver.ProductItem(context.Background(), testAcc(), itemGUID, false)
	require.NoError(t, err)
	assert.NotNil(t, item.ProductID)
	assert.NotNil(t, item.SubProductID)
	require.NotNil(t, item.ProducerID)

	// The producer arrives as a read-only shadow without credentials.
	producer, err := f.bes.FindByID(context.Background(), *item.ProducerID)
	require.NoError(t, err)
	assert.Equal(t, "Dairy Plant LLC", producer.Name)
	assert.Nil(t, producer.CredentialsID)
}

func TestResolverUnitCreatedOnFirstSight(t *testing.T) {
	f := newResolverFixture()
	guid := uuid.New()

	u1, err := f.resolver.Unit(context.Background(), guid.String(), "kg")
	require.NoError(t, err)
	u2, err := f.resolver.Unit(context.Background(), guid.String(), "kilogram")
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)
	// Lookup rows are never updated after creation.
	assert.Equal(t, "kg", u2.Name)
}

func TestResolverRejectsMalformedGUID(t *testing.T) {
	f := newResolverFixture()
	guid := uuid.New()
	f.registry.products[guid.String()] = &vetis.ProductXML{
		UUID: "not-a-uuid", GUID: guid.String(), Name: "Broken",
	}

	_, err := f.resolver.Product(context.Background(), testAcc(), guid, false)
	assert.Error(t, err)
}
