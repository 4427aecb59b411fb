package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pavelplus/vetis-tools/internal/model"
	"github.com/pavelplus/vetis-tools/internal/repository"
	"github.com/pavelplus/vetis-tools/internal/vetis"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// changesRollback is subtracted from the stored watermark when requesting an
// incremental window, so records landing right at the boundary under clock
// skew are not missed. Re-reading them is harmless: reconciliation is
// idempotent by version UUID.
const changesRollback = 5 * time.Minute

// SyncService runs the named synchronization workflows. Each call is one
// atomic unit against the local store: a fatal error rolls the whole unit
// back, non-fatal conditions are counted into the returned summary.
type SyncService interface {
	ReloadEnterprises(ctx context.Context, credentialsID uint, initiatorLogin string, businessEntityID uint) (string, error)
	ReloadProductsSubProducts(ctx context.Context, credentialsID uint, initiatorLogin string) (string, error)
	ReloadProductItems(ctx context.Context, credentialsID uint, initiatorLogin string, businessEntityID uint) (string, error)
	UpdateStockEntries(ctx context.Context, credentialsID uint, initiatorLogin string, enterpriseID uint) (string, error)
	LoadStockEntryVersions(ctx context.Context, credentialsID uint, initiatorLogin string, enterpriseID uint, stockEntryGUID uuid.UUID) (string, error)
	PopulateStockEntryMains(ctx context.Context, credentialsID uint, initiatorLogin string, enterpriseID uint) (string, error)
}

type syncService struct {
	registry   Registry
	creds      repository.CredentialsRepository
	bes        repository.BusinessEntityRepository
	ents       repository.EnterpriseRepository
	catalog    repository.CatalogRepository
	stock      repository.StockRepository
	resolver   *Resolver
	mapper     *Mapper
	reconciler *Reconciler
	now        func() time.Time
}

func NewSyncService(
	registry Registry,
	creds repository.CredentialsRepository,
	bes repository.BusinessEntityRepository,
	ents repository.EnterpriseRepository,
	catalog repository.CatalogRepository,
	stock repository.StockRepository,
) SyncService {
	resolver := NewResolver(registry, catalog, bes, ents)
	mapper := NewMapper(resolver)
	return &syncService{
		registry:   registry,
		creds:      creds,
		bes:        bes,
		ents:       ents,
		catalog:    catalog,
		stock:      stock,
		resolver:   resolver,
		mapper:     mapper,
		reconciler: NewReconciler(registry, resolver, mapper, stock, ents),
		now:        time.Now,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// account loads the credentials row and builds the client profile.
func (s *syncService) account(ctx context.Context, credentialsID uint) (vetis.Account, error) {
	c, err := s.creds.FindByID(ctx, credentialsID)
	if err != nil {
		return vetis.Account{}, fmt.Errorf("credentials %d: %w", credentialsID, err)
	}
	return accountFor(c), nil
}

// businessEntityFor loads the organization and checks it is operated under
// the supplied credentials.
func (s *syncService) businessEntityFor(ctx context.Context, credentialsID, businessEntityID uint) (*model.BusinessEntity, error) {
	be, err := s.bes.FindByID(ctx, businessEntityID)
	if err != nil {
		return nil, fmt.Errorf("business entity %d: %w", businessEntityID, err)
	}
	if be.CredentialsID == nil || *be.CredentialsID != credentialsID {
		return nil, vetis.ErrAuthMismatch
	}
	return be, nil
}

// enterpriseFor loads the site plus its organization and checks the
// credentials chain.
func (s *syncService) enterpriseFor(ctx context.Context, credentialsID, enterpriseID uint) (*model.Enterprise, *model.BusinessEntity, error) {
	ent, err := s.ents.FindByID(ctx, enterpriseID)
	if err != nil {
		return nil, nil, fmt.Errorf("enterprise %d: %w", enterpriseID, err)
	}
	if ent.BusinessEntityID == nil {
		return nil, nil, vetis.ErrAuthMismatch
	}
	be, err := s.businessEntityFor(ctx, credentialsID, *ent.BusinessEntityID)
	if err != nil {
		return nil, nil, err
	}
	return ent, be, nil
}

func (s *syncService) ReloadEnterprises(ctx context.Context, credentialsID uint, initiatorLogin string, businessEntityID uint) (string, error) {
	be, err := s.businessEntityFor(ctx, credentialsID, businessEntityID)
	if err != nil {
		return "", err
	}
	acc, err := s.account(ctx, credentialsID)
	if err != nil {
		return "", err
	}

	count := 0
	txErr := runTx(ctx, s.ents.DB(), func(tx *gorm.DB) error {
		ents := s.ents.WithTx(tx)
		if err := ents.DeactivateAll(ctx, be.ID); err != nil {
			return err
		}
		return s.registry.ListActivityLocations(ctx, acc, be.GUID.String(), func(wire vetis.EnterpriseXML) error {
			ent, err := mapEnterprise(&wire)
			if err != nil {
				return err
			}
			ent.BusinessEntityID = &be.ID
			if err := ents.Upsert(ctx, ent); err != nil {
				return err
			}
			count++
			return nil
		})
	})
	if txErr != nil {
		return "", txErr
	}
	log.Info().Uint("business_entity_id", be.ID).Int("sites", count).Msg("site list reloaded")
	return fmt.Sprintf("reloaded %d sites for %s", count, be.DisplayName()), nil
}

func (s *syncService) ReloadProductsSubProducts(ctx context.Context, credentialsID uint, initiatorLogin string) (string, error) {
	acc, err := s.account(ctx, credentialsID)
	if err != nil {
		return "", err
	}

	var products, subProducts int
	txErr := runTx(ctx, s.catalog.DB(), func(tx *gorm.DB) error {
		res := s.resolver.WithTx(tx)
		catalog := s.catalog.WithTx(tx)

		ps, err := catalog.ListProducts(ctx)
		if err != nil {
			return err
		}
		for i := range ps {
			if _, err := res.Product(ctx, acc, ps[i].GUID, true); err != nil {
				return err
			}
			products++
		}

		sps, err := catalog.ListSubProducts(ctx)
		if err != nil {
			return err
		}
		for i := range sps {
			if _, err := res.SubProduct(ctx, acc, sps[i].GUID, true); err != nil {
				return err
			}
			subProducts++
		}
		return nil
	})
	if txErr != nil {
		return "", txErr
	}
	return fmt.Sprintf("refreshed %d products and %d sub-products", products, subProducts), nil
}

func (s *syncService) ReloadProductItems(ctx context.Context, credentialsID uint, initiatorLogin string, businessEntityID uint) (string, error) {
	be, err := s.businessEntityFor(ctx, credentialsID, businessEntityID)
	if err != nil {
		return "", err
	}
	acc, err := s.account(ctx, credentialsID)
	if err != nil {
		return "", err
	}

	var loaded, relinked int
	txErr := runTx(ctx, s.catalog.DB(), func(tx *gorm.DB) error {
		res := s.resolver.WithTx(tx)
		catalog := s.catalog.WithTx(tx)

		if err := catalog.DeactivateProductItems(ctx, be.ID); err != nil {
			return err
		}
		err := s.registry.ListProductItems(ctx, acc, be.GUID.String(), func(wire vetis.ProductItemXML) error {
			if _, err := res.UpsertProductItemRecord(ctx, acc, &wire); err != nil {
				return err
			}
			loaded++
			return nil
		})
		if err != nil {
			return err
		}

		// Cleanup pass: items the list payload left without catalog links get
		// a full per-item fetch.
		orphans, err := catalog.ListUnlinkedProductItems(ctx, be.ID)
		if err != nil {
			return err
		}
		for i := range orphans {
			if _, err := res.ProductItem(ctx, acc, orphans[i].GUID, true); err != nil {
				return err
			}
			relinked++
		}
		return nil
	})
	if txErr != nil {
		return "", txErr
	}
	return fmt.Sprintf("loaded %d product items for %s, relinked %d", loaded, be.DisplayName(), relinked), nil
}

func (s *syncService) UpdateStockEntries(ctx context.Context, credentialsID uint, initiatorLogin string, enterpriseID uint) (string, error) {
	ent, _, err := s.enterpriseFor(ctx, credentialsID, enterpriseID)
	if err != nil {
		return "", err
	}
	if !ent.IsAllowed {
		return "", fmt.Errorf("enterprise %s is not allowed for ledger sync", ent.Name)
	}
	acc, err := s.account(ctx, credentialsID)
	if err != nil {
		return "", err
	}

	mode := "INITIAL"
	if ent.StockSyncedAt != nil {
		mode = "CHANGES"
	}
	// The watermark advances to the instant captured before the page loop,
	// so a pass that fails midway can be retried without losing records.
	syncedThrough := s.now()

	var versions, populated, deferred int
	txErr := runTx(ctx, s.stock.DB(), func(tx *gorm.DB) error {
		rec := s.reconciler.WithTx(tx)
		handle := func(wire vetis.StockEntryXML) error {
			if _, err := rec.UpsertVersion(ctx, acc, ent.ID, &wire); err != nil {
				return err
			}
			versions++
			return nil
		}

		if mode == "INITIAL" {
			err = s.registry.ListStockEntries(ctx, acc, initiatorLogin, ent.GUID.String(), handle)
		} else {
			begin := ent.StockSyncedAt.Add(-changesRollback)
			err = s.registry.ListStockEntryChanges(ctx, acc, initiatorLogin, ent.GUID.String(), begin, syncedThrough, handle)
		}
		if err != nil {
			return err
		}
		if err := s.ents.WithTx(tx).SetWatermark(ctx, ent.ID, syncedThrough); err != nil {
			return err
		}

		populated, deferred, err = s.populateMains(ctx, tx, acc, initiatorLogin, ent)
		return err
	})
	if txErr != nil {
		return "", txErr
	}

	log.Info().Str("mode", mode).Uint("enterprise_id", ent.ID).
		Int("versions", versions).Int("populated", populated).Int("deferred", deferred).
		Msg("ledger sync finished")
	return fmt.Sprintf("%s sync of %s: %d versions reconciled, %d heads populated, %d deferred",
		mode, ent.Name, versions, populated, deferred), nil
}

func (s *syncService) LoadStockEntryVersions(ctx context.Context, credentialsID uint, initiatorLogin string, enterpriseID uint, stockEntryGUID uuid.UUID) (string, error) {
	ent, _, err := s.enterpriseFor(ctx, credentialsID, enterpriseID)
	if err != nil {
		return "", err
	}
	acc, err := s.account(ctx, credentialsID)
	if err != nil {
		return "", err
	}

	count := 0
	txErr := runTx(ctx, s.stock.DB(), func(tx *gorm.DB) error {
		rec := s.reconciler.WithTx(tx)
		return s.registry.ListStockEntryVersions(ctx, acc, initiatorLogin, ent.GUID.String(), stockEntryGUID.String(),
			func(wire vetis.StockEntryXML) error {
				if _, err := rec.UpsertVersion(ctx, acc, ent.ID, &wire); err != nil {
					return err
				}
				count++
				return nil
			})
	})
	if txErr != nil {
		return "", txErr
	}
	return fmt.Sprintf("loaded %d versions of ledger record %s", count, stockEntryGUID), nil
}

func (s *syncService) PopulateStockEntryMains(ctx context.Context, credentialsID uint, initiatorLogin string, enterpriseID uint) (string, error) {
	ent, _, err := s.enterpriseFor(ctx, credentialsID, enterpriseID)
	if err != nil {
		return "", err
	}
	acc, err := s.account(ctx, credentialsID)
	if err != nil {
		return "", err
	}

	var populated, deferred, total int
	txErr := runTx(ctx, s.stock.DB(), func(tx *gorm.DB) error {
		mains, err := s.stock.WithTx(tx).ListUnpopulatedMains(ctx, ent.ID)
		if err != nil {
			return err
		}
		total = len(mains)
		populated, deferred, err = s.populateMainsList(ctx, tx, acc, initiatorLogin, ent, mains)
		return err
	})
	if txErr != nil {
		return "", txErr
	}
	return fmt.Sprintf("updated %d of %d head records (%d deferred)", populated, total, deferred), nil
}

// populateMains runs the head population pass over every unresolved head on
// the site.
func (s *syncService) populateMains(ctx context.Context, tx *gorm.DB, acc vetis.Account, initiatorLogin string, ent *model.Enterprise) (int, int, error) {
	mains, err := s.stock.WithTx(tx).ListUnpopulatedMains(ctx, ent.ID)
	if err != nil {
		return 0, 0, err
	}
	return s.populateMainsList(ctx, tx, acc, initiatorLogin, ent, mains)
}

func (s *syncService) populateMainsList(ctx context.Context, tx *gorm.DB, acc vetis.Account, initiatorLogin string, ent *model.Enterprise, mains []model.StockEntryMain) (int, int, error) {
	rec := s.reconciler.WithTx(tx)
	var populated, deferred int
	for i := range mains {
		updated, err := rec.PopulateMain(ctx, acc, initiatorLogin, ent, &mains[i])
		if errors.Is(err, vetis.ErrNotResolvable) {
			deferred++
			continue
		}
		if err != nil {
			return 0, 0, err
		}
		if updated {
			populated++
		}
	}
	return populated, deferred, nil
}
