package service

import (
	"context"
	"sort"
	"time"

	"github.com/pavelplus/vetis-tools/internal/model"
	"github.com/pavelplus/vetis-tools/internal/repository"
	"github.com/pavelplus/vetis-tools/internal/vetis"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repositories and a scripted registry. WithTx returns the
// receiver and DB() returns nil, so runTx falls through to plain calls.

// stubRegistry answers only the calls a test scripts; anything else fails.
type stubRegistry struct {
	products      map[string]*vetis.ProductXML
	subProducts   map[string]*vetis.SubProductXML
	productItems  map[string]*vetis.ProductItemXML
	bes           map[string]*vetis.BusinessEntityXML
	enterprises   map[string]*vetis.EnterpriseXML
	vetDocs       map[string]*vetis.VetDocumentXML
	itemList      []vetis.ProductItemXML
	locationList  []vetis.EnterpriseXML
	stockEntries  []vetis.StockEntryXML
	stockChanges  []vetis.StockEntryXML
	stockVersions []vetis.StockEntryXML

	fetches       map[string]int
	changesBegin  time.Time
	changesEnd    time.Time
	changesCalls  int
	entriesCalls  int
	versionsCalls int
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{
		products:     map[string]*vetis.ProductXML{},
		subProducts:  map[string]*vetis.SubProductXML{},
		productItems: map[string]*vetis.ProductItemXML{},
		bes:          map[string]*vetis.BusinessEntityXML{},
		enterprises:  map[string]*vetis.EnterpriseXML{},
		vetDocs:      map[string]*vetis.VetDocumentXML{},
		fetches:      map[string]int{},
	}
}

func (s *stubRegistry) GetProductByGUID(_ context.Context, _ vetis.Account, guid string) (*vetis.ProductXML, error) {
	s.fetches["product:"+guid]++
	if p, ok := s.products[guid]; ok {
		return p, nil
	}
	return nil, &vetis.MappingError{Action: "GetProductByGuid", Detail: "not scripted: " + guid}
}

func (s *stubRegistry) GetSubProductByGUID(_ context.Context, _ vetis.Account, guid string) (*vetis.SubProductXML, error) {
	s.fetches["subProduct:"+guid]++
	if sp, ok := s.subProducts[guid]; ok {
		return sp, nil
	}
	return nil, &vetis.MappingError{Action: "GetSubProductByGuid", Detail: "not scripted: " + guid}
}

func (s *stubRegistry) GetProductItemByGUID(_ context.Context, _ vetis.Account, guid string) (*vetis.ProductItemXML, error) {
	s.fetches["productItem:"+guid]++
	if item, ok := s.productItems[guid]; ok {
		return item, nil
	}
	return nil, &vetis.MappingError{Action: "GetProductItemByGuid", Detail: "not scripted: " + guid}
}

func (s *stubRegistry) GetBusinessEntityByGUID(_ context.Context, _ vetis.Account, guid string) (*vetis.BusinessEntityXML, error) {
	s.fetches["businessEntity:"+guid]++
	if be, ok := s.bes[guid]; ok {
		return be, nil
	}
	return nil, &vetis.MappingError{Action: "GetBusinessEntityByGuid", Detail: "not scripted: " + guid}
}

func (s *stubRegistry) GetEnterpriseByGUID(_ context.Context, _ vetis.Account, guid string) (*vetis.EnterpriseXML, error) {
	s.fetches["enterprise:"+guid]++
	if ent, ok := s.enterprises[guid]; ok {
		return ent, nil
	}
	return nil, &vetis.MappingError{Action: "GetEnterpriseByGuid", Detail: "not scripted: " + guid}
}

func (s *stubRegistry) ListProductItems(_ context.Context, _ vetis.Account, _ string, fn func(vetis.ProductItemXML) error) error {
	for _, item := range s.itemList {
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubRegistry) ListActivityLocations(_ context.Context, _ vetis.Account, _ string, fn func(vetis.EnterpriseXML) error) error {
	for _, loc := range s.locationList {
		if err := fn(loc); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubRegistry) ListStockEntries(_ context.Context, _ vetis.Account, _, _ string, fn func(vetis.StockEntryXML) error) error {
	s.entriesCalls++
	for _, e := range s.stockEntries {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubRegistry) ListStockEntryChanges(_ context.Context, _ vetis.Account, _, _ string, begin, end time.Time, fn func(vetis.StockEntryXML) error) error {
	s.changesCalls++
	s.changesBegin, s.changesEnd = begin, end
	for _, e := range s.stockChanges {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubRegistry) ListStockEntryVersions(_ context.Context, _ vetis.Account, _, _, _ string, fn func(vetis.StockEntryXML) error) error {
	s.versionsCalls++
	for _, e := range s.stockVersions {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubRegistry) GetVetDocumentByUUID(_ context.Context, _ vetis.Account, _, _, docUUID string) (*vetis.VetDocumentXML, error) {
	s.fetches["vetDocument:"+docUUID]++
	if doc, ok := s.vetDocs[docUUID]; ok {
		return doc, nil
	}
	return nil, &vetis.MappingError{Action: "GetVetDocumentByUuid", Detail: "not scripted: " + docUUID}
}

// ── In-memory repositories ───────────────────────────────────────────────────

type memCredentials struct {
	rows map[uint]*model.Credentials
}

func (m *memCredentials) FindByID(_ context.Context, id uint) (*model.Credentials, error) {
	if c, ok := m.rows[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCredentials) List(_ context.Context) ([]model.Credentials, error) {
	var out []model.Credentials
	for _, c := range m.rows {
		out = append(out, *c)
	}
	return out, nil
}

type memBES struct {
	rows   map[uint]*model.BusinessEntity
	nextID uint
}

func newMemBES() *memBES { return &memBES{rows: map[uint]*model.BusinessEntity{}} }

func (m *memBES) add(be model.BusinessEntity) *model.BusinessEntity {
	if be.ID == 0 {
		m.nextID++
		be.ID = m.nextID
	} else if be.ID > m.nextID {
		m.nextID = be.ID
	}
	m.rows[be.ID] = &be
	return &be
}

func (m *memBES) FindByID(_ context.Context, id uint) (*model.BusinessEntity, error) {
	if be, ok := m.rows[id]; ok {
		return be, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memBES) FindByGUID(_ context.Context, guid uuid.UUID) (*model.BusinessEntity, error) {
	for _, be := range m.rows {
		if be.GUID == guid {
			return be, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memBES) List(_ context.Context) ([]model.BusinessEntity, error) {
	var out []model.BusinessEntity
	for _, be := range m.rows {
		out = append(out, *be)
	}
	return out, nil
}

func (m *memBES) Upsert(_ context.Context, be *model.BusinessEntity) error {
	for _, existing := range m.rows {
		if existing.GUID == be.GUID {
			be.ID = existing.ID
			if be.CredentialsID == nil {
				be.CredentialsID = existing.CredentialsID
			}
			m.rows[be.ID] = be
			return nil
		}
	}
	m.nextID++
	be.ID = m.nextID
	m.rows[be.ID] = be
	return nil
}

func (m *memBES) WithTx(*gorm.DB) repository.BusinessEntityRepository { return m }
func (m *memBES) DB() *gorm.DB                                        { return nil }

type memEnts struct {
	rows   map[uint]*model.Enterprise
	nextID uint
}

func newMemEnts() *memEnts { return &memEnts{rows: map[uint]*model.Enterprise{}} }

func (m *memEnts) add(ent model.Enterprise) *model.Enterprise {
	if ent.ID == 0 {
		m.nextID++
		ent.ID = m.nextID
	} else if ent.ID > m.nextID {
		m.nextID = ent.ID
	}
	m.rows[ent.ID] = &ent
	return &ent
}

func (m *memEnts) FindByID(_ context.Context, id uint) (*model.Enterprise, error) {
	if ent, ok := m.rows[id]; ok {
		return ent, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memEnts) FindByGUID(_ context.Context, guid uuid.UUID) (*model.Enterprise, error) {
	for _, ent := range m.rows {
		if ent.GUID == guid {
			return ent, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memEnts) ListByBusinessEntity(_ context.Context, businessEntityID uint) ([]model.Enterprise, error) {
	var out []model.Enterprise
	for _, ent := range m.rows {
		if ent.BusinessEntityID != nil && *ent.BusinessEntityID == businessEntityID {
			out = append(out, *ent)
		}
	}
	return out, nil
}

func (m *memEnts) ListSyncTargets(_ context.Context) ([]model.Enterprise, error) {
	var out []model.Enterprise
	for _, ent := range m.rows {
		if ent.IsActive && ent.IsAllowed && ent.BusinessEntityID != nil {
			out = append(out, *ent)
		}
	}
	return out, nil
}

func (m *memEnts) Upsert(_ context.Context, ent *model.Enterprise) error {
	for _, existing := range m.rows {
		if existing.GUID == ent.GUID {
			ent.ID = existing.ID
			ent.IsAllowed = existing.IsAllowed
			ent.StockSyncedAt = existing.StockSyncedAt
			if ent.BusinessEntityID == nil {
				ent.BusinessEntityID = existing.BusinessEntityID
			}
			m.rows[ent.ID] = ent
			return nil
		}
	}
	m.nextID++
	ent.ID = m.nextID
	m.rows[ent.ID] = ent
	return nil
}

func (m *memEnts) DeactivateAll(_ context.Context, businessEntityID uint) error {
	for _, ent := range m.rows {
		if ent.BusinessEntityID != nil && *ent.BusinessEntityID == businessEntityID {
			ent.IsActive = false
		}
	}
	return nil
}

func (m *memEnts) SetWatermark(_ context.Context, id uint, at time.Time) error {
	ent, ok := m.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	ent.StockSyncedAt = &at
	return nil
}

func (m *memEnts) WithTx(*gorm.DB) repository.EnterpriseRepository { return m }
func (m *memEnts) DB() *gorm.DB                                    { return nil }

type memCatalog struct {
	products     map[uuid.UUID]*model.Product
	subProducts  map[uuid.UUID]*model.SubProduct
	productItems map[uuid.UUID]*model.ProductItem
	units        map[uuid.UUID]*model.Unit
	packingTypes map[uuid.UUID]*model.PackingType
	nextID       uint
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		products:     map[uuid.UUID]*model.Product{},
		subProducts:  map[uuid.UUID]*model.SubProduct{},
		productItems: map[uuid.UUID]*model.ProductItem{},
		units:        map[uuid.UUID]*model.Unit{},
		packingTypes: map[uuid.UUID]*model.PackingType{},
	}
}

func (m *memCatalog) id() uint { m.nextID++; return m.nextID }

func (m *memCatalog) FindProductByGUID(_ context.Context, guid uuid.UUID) (*model.Product, error) {
	if p, ok := m.products[guid]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCatalog) UpsertProduct(_ context.Context, p *model.Product) error {
	if existing, ok := m.products[p.GUID]; ok {
		p.ID = existing.ID
	} else {
		p.ID = m.id()
	}
	m.products[p.GUID] = p
	return nil
}

func (m *memCatalog) ListProducts(_ context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range m.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memCatalog) FindSubProductByGUID(_ context.Context, guid uuid.UUID) (*model.SubProduct, error) {
	if sp, ok := m.subProducts[guid]; ok {
		return sp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCatalog) UpsertSubProduct(_ context.Context, sp *model.SubProduct) error {
	if existing, ok := m.subProducts[sp.GUID]; ok {
		sp.ID = existing.ID
	} else {
		sp.ID = m.id()
	}
	m.subProducts[sp.GUID] = sp
	return nil
}

func (m *memCatalog) ListSubProducts(_ context.Context) ([]model.SubProduct, error) {
	var out []model.SubProduct
	for _, sp := range m.subProducts {
		out = append(out, *sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memCatalog) FindProductItemByID(_ context.Context, id uint) (*model.ProductItem, error) {
	for _, item := range m.productItems {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCatalog) FindProductItemByGUID(_ context.Context, guid uuid.UUID) (*model.ProductItem, error) {
	if item, ok := m.productItems[guid]; ok {
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCatalog) UpsertProductItem(_ context.Context, item *model.ProductItem) error {
	if existing, ok := m.productItems[item.GUID]; ok {
		item.ID = existing.ID
	} else {
		item.ID = m.id()
	}
	m.productItems[item.GUID] = item
	return nil
}

func (m *memCatalog) ListProductItems(_ context.Context, filter repository.ProductItemFilter) ([]model.ProductItem, error) {
	var out []model.ProductItem
	for _, item := range m.productItems {
		if filter.ProducerID != 0 && (item.ProducerID == nil || *item.ProducerID != filter.ProducerID) {
			continue
		}
		switch filter.Active {
		case "all":
		case "false":
			if item.IsActive {
				continue
			}
		default:
			if !item.IsActive {
				continue
			}
		}
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memCatalog) DeactivateProductItems(_ context.Context, producerID uint) error {
	for _, item := range m.productItems {
		if item.ProducerID != nil && *item.ProducerID == producerID {
			item.IsActive = false
		}
	}
	return nil
}

func (m *memCatalog) ListUnlinkedProductItems(_ context.Context, producerID uint) ([]model.ProductItem, error) {
	var out []model.ProductItem
	for _, item := range m.productItems {
		if item.ProducerID == nil || *item.ProducerID != producerID || !item.IsActive {
			continue
		}
		if item.ProductID == nil || item.SubProductID == nil {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memCatalog) GetOrCreateUnit(_ context.Context, guid uuid.UUID, name string) (*model.Unit, error) {
	if u, ok := m.units[guid]; ok {
		return u, nil
	}
	u := &model.Unit{ID: m.id(), GUID: guid, Name: name}
	m.units[guid] = u
	return u, nil
}

func (m *memCatalog) GetOrCreatePackingType(_ context.Context, pt *model.PackingType) (*model.PackingType, error) {
	if existing, ok := m.packingTypes[pt.GUID]; ok {
		return existing, nil
	}
	pt.ID = m.id()
	m.packingTypes[pt.GUID] = pt
	return pt, nil
}

func (m *memCatalog) WithTx(*gorm.DB) repository.CatalogRepository { return m }
func (m *memCatalog) DB() *gorm.DB                                 { return nil }

type memStock struct {
	entries map[uuid.UUID]*model.StockEntry // keyed by version UUID
	mains   map[uuid.UUID]*model.StockEntryMain
	pkgs    map[uint][]model.Package
	refs    map[uint][]model.VetDocumentRef
	nextID  uint
}

func newMemStock() *memStock {
	return &memStock{
		entries: map[uuid.UUID]*model.StockEntry{},
		mains:   map[uuid.UUID]*model.StockEntryMain{},
		pkgs:    map[uint][]model.Package{},
		refs:    map[uint][]model.VetDocumentRef{},
	}
}

func (m *memStock) id() uint { m.nextID++; return m.nextID }

func (m *memStock) FindEntryByID(_ context.Context, id uint) (*model.StockEntry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStock) FindEntryByUUID(_ context.Context, entryUUID uuid.UUID) (*model.StockEntry, error) {
	if e, ok := m.entries[entryUUID]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStock) SaveEntry(_ context.Context, e *model.StockEntry) error {
	if e.ID == 0 {
		e.ID = m.id()
	}
	m.entries[e.UUID] = e
	return nil
}

func (m *memStock) ListEntries(_ context.Context, _ repository.StockEntryFilter) ([]model.StockEntry, int64, error) {
	var out []model.StockEntry
	for _, e := range m.entries {
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (m *memStock) versionsOf(guid uuid.UUID) []*model.StockEntry {
	var out []*model.StockEntry
	for _, e := range m.entries {
		if e.GUID == guid {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateCreated.Equal(out[j].DateCreated) {
			return out[i].DateCreated.Before(out[j].DateCreated)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memStock) ListVersions(_ context.Context, guid uuid.UUID) ([]model.StockEntry, error) {
	var out []model.StockEntry
	for _, e := range m.versionsOf(guid) {
		out = append(out, *e)
	}
	return out, nil
}

func (m *memStock) ClearLastExcept(_ context.Context, guid uuid.UUID, keepUUID uuid.UUID) error {
	for _, e := range m.entries {
		if e.GUID == guid && e.UUID != keepUUID {
			e.IsLast = false
		}
	}
	return nil
}

func (m *memStock) FirstVersion(_ context.Context, guid uuid.UUID) (*model.StockEntry, error) {
	versions := m.versionsOf(guid)
	if len(versions) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return versions[0], nil
}

func (m *memStock) GetOrCreateMain(_ context.Context, guid uuid.UUID) (*model.StockEntryMain, error) {
	if main, ok := m.mains[guid]; ok {
		return main, nil
	}
	main := &model.StockEntryMain{ID: m.id(), GUID: guid}
	m.mains[guid] = main
	return main, nil
}

func (m *memStock) FindMainByGUID(_ context.Context, guid uuid.UUID) (*model.StockEntryMain, error) {
	if main, ok := m.mains[guid]; ok {
		return main, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStock) SaveMain(_ context.Context, main *model.StockEntryMain) error {
	if main.ID == 0 {
		main.ID = m.id()
	}
	m.mains[main.GUID] = main
	return nil
}

func (m *memStock) ListUnpopulatedMains(_ context.Context, enterpriseID uint) ([]model.StockEntryMain, error) {
	var out []model.StockEntryMain
	for _, main := range m.mains {
		if main.Populated {
			continue
		}
		for _, e := range m.entries {
			if e.MainID == main.ID && e.IsLast && e.EnterpriseID == enterpriseID {
				out = append(out, *main)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStock) ReplacePackages(_ context.Context, entryID uint, pkgs []model.Package) error {
	for i := range pkgs {
		pkgs[i].StockEntryID = entryID
	}
	m.pkgs[entryID] = pkgs
	return nil
}

func (m *memStock) ReplaceVetDocRefs(_ context.Context, entryID uint, refs []model.VetDocumentRef) error {
	for i := range refs {
		refs[i].StockEntryID = entryID
	}
	m.refs[entryID] = refs
	return nil
}

func (m *memStock) ListVetDocRefs(_ context.Context, entryID uint) ([]model.VetDocumentRef, error) {
	return m.refs[entryID], nil
}

func (m *memStock) WithTx(*gorm.DB) repository.StockRepository { return m }
func (m *memStock) DB() *gorm.DB                               { return nil }
