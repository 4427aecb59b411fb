package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pavelplus/vetis-tools/internal/model"
	"github.com/pavelplus/vetis-tools/internal/vetis"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Mapper turns a wire ledger record into StockEntry fields plus the owned
// package and document rows. Reference lookups go through the resolver and
// may fetch from the registry; any failure there aborts the version as a
// whole. Origin annotations are the one exception: they are optional on the
// wire and their lookups are tolerated to fail.
type Mapper struct {
	resolver *Resolver
}

func NewMapper(resolver *Resolver) *Mapper {
	return &Mapper{resolver: resolver}
}

func (m *Mapper) WithTx(tx *gorm.DB) *Mapper {
	if tx == nil {
		return m
	}
	return &Mapper{resolver: m.resolver.WithTx(tx)}
}

// Apply fills entry from wire and returns the replacement package and
// document-reference sets. Identity fields (MainID, EnterpriseID, GUID,
// UUID) are the reconciler's business and are not touched here.
func (m *Mapper) Apply(ctx context.Context, acc vetis.Account, entry *model.StockEntry, wire *vetis.StockEntryXML) ([]model.Package, []model.VetDocumentRef, error) {
	entry.IsActive = wire.Active
	entry.IsLast = wire.Last
	entry.Status = wire.Status
	entry.EntryNumber = wire.EntryNumber

	var err error
	if entry.DateCreated, err = vetis.ParseDateTime(wire.CreateDate); err != nil {
		return nil, nil, fmt.Errorf("createDate %q: %w", wire.CreateDate, err)
	}
	if wire.UpdateDate != "" {
		if entry.DateUpdated, err = vetis.ParseDateTime(wire.UpdateDate); err != nil {
			return nil, nil, fmt.Errorf("updateDate %q: %w", wire.UpdateDate, err)
		}
	} else {
		entry.DateUpdated = entry.DateCreated
	}

	entry.PreviousUUID = nil
	if wire.PreviousUUID != "" {
		prev, err := parseGUID("stockEntry previous", wire.PreviousUUID)
		if err != nil {
			return nil, nil, err
		}
		entry.PreviousUUID = &prev
	}
	entry.NextUUID = nil
	if wire.NextUUID != "" {
		next, err := parseGUID("stockEntry next", wire.NextUUID)
		if err != nil {
			return nil, nil, err
		}
		entry.NextUUID = &next
	}

	if err := m.applyBatch(ctx, acc, entry, wire); err != nil {
		return nil, nil, err
	}

	pkgs, err := m.mapPackages(ctx, wire)
	if err != nil {
		return nil, nil, err
	}
	refs, err := mapVetDocRefs(wire)
	if err != nil {
		return nil, nil, err
	}
	return pkgs, refs, nil
}

func (m *Mapper) applyBatch(ctx context.Context, acc vetis.Account, entry *model.StockEntry, wire *vetis.StockEntryXML) error {
	batch := &wire.Batch
	entry.ProductType = batch.ProductType
	entry.ProductItemName = batch.ProductItem.Name

	entry.ProductGUID, entry.ProductID = nil, nil
	if batch.ProductGUID != "" {
		pg, err := parseGUID("stockEntry product", batch.ProductGUID)
		if err != nil {
			return err
		}
		p, err := m.resolver.Product(ctx, acc, pg, false)
		if err != nil {
			return err
		}
		entry.ProductGUID, entry.ProductID = &pg, &p.ID
	}
	entry.SubProductGUID, entry.SubProductID = nil, nil
	if batch.SubProductGUID != "" {
		spg, err := parseGUID("stockEntry subProduct", batch.SubProductGUID)
		if err != nil {
			return err
		}
		sp, err := m.resolver.SubProduct(ctx, acc, spg, false)
		if err != nil {
			return err
		}
		entry.SubProductGUID, entry.SubProductID = &spg, &sp.ID
	}
	entry.ProductItemGUID, entry.ProductItemID = nil, nil
	if batch.ProductItem.GUID != "" {
		ig, err := parseGUID("stockEntry productItem", batch.ProductItem.GUID)
		if err != nil {
			return err
		}
		item, err := m.resolver.ProductItem(ctx, acc, ig, false)
		if err != nil {
			return err
		}
		entry.ProductItemGUID, entry.ProductItemID = &ig, &item.ID
	}

	// Annulled records always read as empty stock, whatever the wire says.
	if entry.Status == model.StockStatusAnnulled {
		entry.Volume = decimal.Zero
	} else {
		vol, err := decimal.NewFromString(batch.Volume)
		if err != nil {
			return fmt.Errorf("volume %q: %w", batch.Volume, err)
		}
		entry.Volume = vol
	}

	unit, err := m.resolver.Unit(ctx, batch.Unit.GUID, batch.Unit.Name)
	if err != nil {
		return err
	}
	entry.UnitID = unit.ID

	prod1, prod2, prodMin, err := mapDateInterval(batch.DateOfProduction.FirstDate, batch.DateOfProduction.SecondDate)
	if err != nil {
		return fmt.Errorf("dateOfProduction: %w", err)
	}
	if prod1 == "" {
		return fmt.Errorf("dateOfProduction: missing first date")
	}
	entry.DateProduced1, entry.DateProduced2, entry.DateProduced = prod1, prod2, prodMin

	exp1, exp2, expMin, err := mapDateInterval(batch.ExpiryDate.FirstDate, batch.ExpiryDate.SecondDate)
	if err != nil {
		return fmt.Errorf("expiryDate: %w", err)
	}
	if exp1 == "" {
		// Non-perishable goods may come without an expiry interval; the
		// comparable instant falls back to production so sorting stays sane.
		expMin = prodMin
	}
	entry.DateExpiry1, entry.DateExpiry2, entry.DateExpiry = exp1, exp2, expMin

	entry.IsPerishable = batch.Perishable

	entry.OriginCountry = nil
	if name := batch.Origin.Country.Name; name != "" {
		entry.OriginCountry = &name
	}
	entry.ProducerName = nil
	if producer := batch.Origin.Producer.Enterprise; producer.Name != "" || producer.GUID != "" {
		if producer.Name != "" {
			name := producer.Name
			entry.ProducerName = &name
		}
		if producer.GUID != "" {
			if g, err := parseGUID("stockEntry producer", producer.GUID); err == nil {
				if ent, err := m.resolver.EnterpriseInfo(ctx, acc, g, false); err == nil {
					if entry.ProducerName == nil {
						entry.ProducerName = &ent.Name
					}
				} else {
					log.Warn().Err(err).Str("guid", producer.GUID).
						Msg("producer site lookup failed, keeping wire name only")
				}
			}
		}
	}
	return nil
}

func (m *Mapper) mapPackages(ctx context.Context, wire *vetis.StockEntryXML) ([]model.Package, error) {
	pkgs := make([]model.Package, 0, len(wire.Batch.Packages))
	for i := range wire.Batch.Packages {
		p := &wire.Batch.Packages[i]
		pt, err := m.resolver.PackingType(ctx, p)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, model.Package{
			Level:         p.Level,
			PackingTypeID: pt.ID,
			Quantity:      p.Quantity,
			ProductMarks:  strings.Join(p.ProductMarks, ", "),
		})
	}
	return pkgs, nil
}

func mapVetDocRefs(wire *vetis.StockEntryXML) ([]model.VetDocumentRef, error) {
	refs := make([]model.VetDocumentRef, 0, len(wire.VetDocumentUUIDs))
	for _, raw := range wire.VetDocumentUUIDs {
		u, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("vetDocument uuid %q: %w", raw, err)
		}
		refs = append(refs, model.VetDocumentRef{UUID: u})
	}
	return refs, nil
}

// mapDateInterval renders a pair of partial dates into display strings plus
// the comparable minimum instant of the interval start.
func mapDateInterval(first, second *vetis.ComplexDateXML) (string, string, time.Time, error) {
	var s1, s2 string
	var min time.Time
	if first != nil {
		pd, err := first.PartialDate()
		if err != nil {
			return "", "", min, err
		}
		s1 = pd.String()
		min = pd.Time()
	}
	if second != nil {
		pd, err := second.PartialDate()
		if err != nil {
			return "", "", min, err
		}
		s2 = pd.String()
	}
	return s1, s2, min, nil
}
