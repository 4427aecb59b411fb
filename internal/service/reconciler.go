package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pavelplus/vetis-tools/internal/model"
	"github.com/pavelplus/vetis-tools/internal/repository"
	"github.com/pavelplus/vetis-tools/internal/vetis"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Reconciler folds wire ledger versions into the local version chain and
// traces head-record lineage. It owns the two structural invariants of the
// ledger: one head row per GUID, and at most one version per GUID flagged as
// last.
type Reconciler struct {
	registry Registry
	resolver *Resolver
	mapper   *Mapper
	stock    repository.StockRepository
	ents     repository.EnterpriseRepository
}

func NewReconciler(
	registry Registry,
	resolver *Resolver,
	mapper *Mapper,
	stock repository.StockRepository,
	ents repository.EnterpriseRepository,
) *Reconciler {
	return &Reconciler{
		registry: registry,
		resolver: resolver,
		mapper:   mapper,
		stock:    stock,
		ents:     ents,
	}
}

func (r *Reconciler) WithTx(tx *gorm.DB) *Reconciler {
	if tx == nil {
		return r
	}
	return &Reconciler{
		registry: r.registry,
		resolver: r.resolver.WithTx(tx),
		mapper:   r.mapper.WithTx(tx),
		stock:    r.stock.WithTx(tx),
		ents:     r.ents.WithTx(tx),
	}
}

// UpsertVersion stores one wire version on the given site: the head row is
// created on first sight of the GUID, the version row is located by UUID or
// created, fields are delegated to the mapper and the owned package /
// document sets are replaced whole.
func (r *Reconciler) UpsertVersion(ctx context.Context, acc vetis.Account, enterpriseID uint, wire *vetis.StockEntryXML) (*model.StockEntry, error) {
	guid, err := parseGUID("stockEntry", wire.GUID)
	if err != nil {
		return nil, err
	}
	entryUUID, err := parseGUID("stockEntry version", wire.UUID)
	if err != nil {
		return nil, err
	}

	main, err := r.stock.GetOrCreateMain(ctx, guid)
	if err != nil {
		return nil, err
	}

	entry, err := r.stock.FindEntryByUUID(ctx, entryUUID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry = &model.StockEntry{GUID: guid, UUID: entryUUID}
	} else if err != nil {
		return nil, err
	}
	entry.MainID = main.ID
	entry.EnterpriseID = enterpriseID

	pkgs, refs, err := r.mapper.Apply(ctx, acc, entry, wire)
	if err != nil {
		return nil, err
	}
	if err := r.stock.SaveEntry(ctx, entry); err != nil {
		return nil, err
	}
	if entry.IsLast {
		if err := r.stock.ClearLastExcept(ctx, guid, entryUUID); err != nil {
			return nil, err
		}
	}
	if err := r.stock.ReplacePackages(ctx, entry.ID, pkgs); err != nil {
		return nil, err
	}
	if err := r.stock.ReplaceVetDocRefs(ctx, entry.ID, refs); err != nil {
		return nil, err
	}
	return entry, nil
}

// PopulateMain traces the lineage origin of one head record. It reports
// (true, nil) when the head was populated by this call, (false, nil) when it
// already was, and (false, vetis.ErrNotResolvable) when tracing must wait
// for a document reference that has not appeared yet. Any other error is
// fatal to the calling workflow.
func (r *Reconciler) PopulateMain(ctx context.Context, acc vetis.Account, initiatorLogin string, ent *model.Enterprise, main *model.StockEntryMain) (bool, error) {
	if main.Populated {
		return false, nil
	}

	first, err := r.stock.FirstVersion(ctx, main.GUID)
	if err != nil {
		return false, err
	}
	// A known predecessor means local history is incomplete: backfill the
	// full chain before deciding which version came first.
	if first.PreviousUUID != nil {
		err := r.registry.ListStockEntryVersions(ctx, acc, initiatorLogin, ent.GUID.String(), main.GUID.String(),
			func(wire vetis.StockEntryXML) error {
				_, err := r.UpsertVersion(ctx, acc, ent.ID, &wire)
				return err
			})
		if err != nil {
			return false, err
		}
		if first, err = r.stock.FirstVersion(ctx, main.GUID); err != nil {
			return false, err
		}
	}

	if first.Status == model.StockStatusVetDocRedeemed {
		if err := r.populateFromVetDocument(ctx, acc, initiatorLogin, ent, main, first); err != nil {
			return false, err
		}
	} else {
		// Any other originating status: the record was born on the site that
		// reported its first version.
		firstEnt, err := r.ents.FindByID(ctx, first.EnterpriseID)
		if err != nil {
			return false, err
		}
		main.OriginEnterpriseID = &firstEnt.ID
		main.OriginBusinessEntityID = firstEnt.BusinessEntityID
	}

	main.Populated = true
	if err := r.stock.SaveMain(ctx, main); err != nil {
		return false, err
	}
	return true, nil
}

// populateFromVetDocument derives the lineage origin from the transport
// document the first version was redeemed against.
func (r *Reconciler) populateFromVetDocument(ctx context.Context, acc vetis.Account, initiatorLogin string, ent *model.Enterprise, main *model.StockEntryMain, first *model.StockEntry) error {
	refs, err := r.stock.ListVetDocRefs(ctx, first.ID)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		log.Debug().Str("guid", main.GUID.String()).
			Msg("redeemed first version carries no document reference yet")
		return vetis.ErrNotResolvable
	}

	doc, err := r.registry.GetVetDocumentByUUID(ctx, acc, initiatorLogin, ent.GUID.String(), refs[0].UUID.String())
	if err != nil {
		return err
	}
	if doc.Type != vetis.VetDocumentTypeTransport {
		return fmt.Errorf("vet document %s: unexpected subtype %q", refs[0].UUID, doc.Type)
	}

	consignor := doc.Consignment.Consignor
	if consignor.BusinessEntityGUID != "" {
		bg, err := parseGUID("consignor businessEntity", consignor.BusinessEntityGUID)
		if err != nil {
			return err
		}
		be, err := r.resolver.BusinessEntityInfo(ctx, acc, bg, false)
		if err != nil {
			return err
		}
		main.OriginBusinessEntityID = &be.ID
	}
	if consignor.EnterpriseGUID != "" {
		eg, err := parseGUID("consignor enterprise", consignor.EnterpriseGUID)
		if err != nil {
			return err
		}
		origin, err := r.resolver.EnterpriseInfo(ctx, acc, eg, false)
		if err != nil {
			return err
		}
		main.OriginEnterpriseID = &origin.ID
	}
	return nil
}
