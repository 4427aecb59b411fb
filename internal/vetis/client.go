package vetis

import (
	"context"
	"time"
)

// Action-level API. Each method issues one registry operation, parses the
// fixed response shape and hands records to the caller. List operations page
// through the full result set; the ledger listings additionally run through
// the two-phase application protocol.

// GetProductByGUID fetches one catalog product.
func (c *Client) GetProductByGUID(ctx context.Context, acc Account, guid string) (*ProductXML, error) {
	resp, err := c.Send(ctx, acc, ProductByGUIDRequest(guid))
	if err != nil {
		return nil, err
	}
	var parsed productByGUIDResponse
	if err := unmarshalBody("GetProductByGuid", resp.Body, &parsed); err != nil {
		return nil, err
	}
	if parsed.Product == nil || parsed.Product.GUID == "" {
		return nil, mappingErr("GetProductByGuid", "missing product element for guid %s", guid)
	}
	return parsed.Product, nil
}

// GetSubProductByGUID fetches one catalog sub-product.
func (c *Client) GetSubProductByGUID(ctx context.Context, acc Account, guid string) (*SubProductXML, error) {
	resp, err := c.Send(ctx, acc, SubProductByGUIDRequest(guid))
	if err != nil {
		return nil, err
	}
	var parsed subProductByGUIDResponse
	if err := unmarshalBody("GetSubProductByGuid", resp.Body, &parsed); err != nil {
		return nil, err
	}
	if parsed.SubProduct == nil || parsed.SubProduct.GUID == "" {
		return nil, mappingErr("GetSubProductByGuid", "missing subProduct element for guid %s", guid)
	}
	return parsed.SubProduct, nil
}

// GetProductItemByGUID fetches one named product item.
func (c *Client) GetProductItemByGUID(ctx context.Context, acc Account, guid string) (*ProductItemXML, error) {
	resp, err := c.Send(ctx, acc, ProductItemByGUIDRequest(guid))
	if err != nil {
		return nil, err
	}
	var parsed productItemByGUIDResponse
	if err := unmarshalBody("GetProductItemByGuid", resp.Body, &parsed); err != nil {
		return nil, err
	}
	if parsed.ProductItem == nil || parsed.ProductItem.GUID == "" {
		return nil, mappingErr("GetProductItemByGuid", "missing productItem element for guid %s", guid)
	}
	return parsed.ProductItem, nil
}

// GetBusinessEntityByGUID fetches one business entity record.
func (c *Client) GetBusinessEntityByGUID(ctx context.Context, acc Account, guid string) (*BusinessEntityXML, error) {
	resp, err := c.Send(ctx, acc, BusinessEntityByGUIDRequest(guid))
	if err != nil {
		return nil, err
	}
	var parsed businessEntityByGUIDResponse
	if err := unmarshalBody("GetBusinessEntityByGuid", resp.Body, &parsed); err != nil {
		return nil, err
	}
	if parsed.BusinessEntity == nil || parsed.BusinessEntity.GUID == "" {
		return nil, mappingErr("GetBusinessEntityByGuid", "missing businessEntity element for guid %s", guid)
	}
	return parsed.BusinessEntity, nil
}

// GetEnterpriseByGUID fetches one enterprise record.
func (c *Client) GetEnterpriseByGUID(ctx context.Context, acc Account, guid string) (*EnterpriseXML, error) {
	resp, err := c.Send(ctx, acc, EnterpriseByGUIDRequest(guid))
	if err != nil {
		return nil, err
	}
	var parsed enterpriseByGUIDResponse
	if err := unmarshalBody("GetEnterpriseByGuid", resp.Body, &parsed); err != nil {
		return nil, err
	}
	if parsed.Enterprise == nil || parsed.Enterprise.GUID == "" {
		return nil, mappingErr("GetEnterpriseByGuid", "missing enterprise element for guid %s", guid)
	}
	return parsed.Enterprise, nil
}

// ListProductItems pages through the product items registered by a business
// entity, calling fn for each record in registry order.
func (c *Client) ListProductItems(ctx context.Context, acc Account, businessEntityGUID string, fn func(ProductItemXML) error) error {
	return c.fetchAll(ctx, func(ctx context.Context, offset, count int) (int, error) {
		resp, err := c.Send(ctx, acc, ProductItemListRequest(businessEntityGUID, count, offset))
		if err != nil {
			return 0, err
		}
		var parsed productItemListResponse
		if err := unmarshalBody("GetProductItemList", resp.Body, &parsed); err != nil {
			return 0, err
		}
		for _, item := range parsed.List.Items {
			if err := fn(item); err != nil {
				return 0, err
			}
		}
		return parsed.List.Total, nil
	})
}

// ListActivityLocations pages through the activity locations (enterprises)
// of a business entity.
func (c *Client) ListActivityLocations(ctx context.Context, acc Account, businessEntityGUID string, fn func(EnterpriseXML) error) error {
	return c.fetchAll(ctx, func(ctx context.Context, offset, count int) (int, error) {
		resp, err := c.Send(ctx, acc, ActivityLocationListRequest(businessEntityGUID, count, offset))
		if err != nil {
			return 0, err
		}
		var parsed activityLocationListResponse
		if err := unmarshalBody("GetActivityLocationList", resp.Body, &parsed); err != nil {
			return 0, err
		}
		for _, loc := range parsed.List.Locations {
			if err := fn(loc.Enterprise); err != nil {
				return 0, err
			}
		}
		return parsed.List.Total, nil
	})
}

// runStockEntryPage executes one two-phase ledger page and feeds its entries
// to fn.
func (c *Client) runStockEntryPage(ctx context.Context, acc Account, appData string, fn func(StockEntryXML) error) (int, error) {
	result, err := c.RunApplication(ctx, acc, appData)
	if err != nil {
		return 0, err
	}
	var parsed stockEntryListResult
	if err := unmarshalResult("receiveApplicationResult", result, &parsed); err != nil {
		return 0, err
	}
	for _, entry := range parsed.List.Entries {
		if err := fn(entry); err != nil {
			return 0, err
		}
	}
	return parsed.List.Total, nil
}

// ListStockEntries pages through the full ledger of an enterprise.
func (c *Client) ListStockEntries(ctx context.Context, acc Account, initiatorLogin, enterpriseGUID string, fn func(StockEntryXML) error) error {
	return c.fetchAll(ctx, func(ctx context.Context, offset, count int) (int, error) {
		data := StockEntryListData(c.now(), initiatorLogin, enterpriseGUID, count, offset)
		return c.runStockEntryPage(ctx, acc, data, fn)
	})
}

// ListStockEntryChanges pages through the ledger records updated inside the
// [begin, end] window.
func (c *Client) ListStockEntryChanges(ctx context.Context, acc Account, initiatorLogin, enterpriseGUID string, begin, end time.Time, fn func(StockEntryXML) error) error {
	return c.fetchAll(ctx, func(ctx context.Context, offset, count int) (int, error) {
		data := StockEntryChangesListData(c.now(), initiatorLogin, enterpriseGUID, begin, end, count, offset)
		return c.runStockEntryPage(ctx, acc, data, fn)
	})
}

// ListStockEntryVersions pages through every version of one logical ledger
// record.
func (c *Client) ListStockEntryVersions(ctx context.Context, acc Account, initiatorLogin, enterpriseGUID, stockEntryGUID string, fn func(StockEntryXML) error) error {
	return c.fetchAll(ctx, func(ctx context.Context, offset, count int) (int, error) {
		data := StockEntryVersionListData(c.now(), initiatorLogin, enterpriseGUID, stockEntryGUID, count, offset)
		return c.runStockEntryPage(ctx, acc, data, fn)
	})
}

// GetVetDocumentByUUID fetches one veterinary document via the two-phase
// protocol.
func (c *Client) GetVetDocumentByUUID(ctx context.Context, acc Account, initiatorLogin, enterpriseGUID, documentUUID string) (*VetDocumentXML, error) {
	data := VetDocumentByUUIDData(c.now(), initiatorLogin, enterpriseGUID, documentUUID)
	result, err := c.RunApplication(ctx, acc, data)
	if err != nil {
		return nil, err
	}
	var parsed vetDocumentResult
	if err := unmarshalResult("GetVetDocumentByUuid", result, &parsed); err != nil {
		return nil, err
	}
	if parsed.VetDocument == nil || parsed.VetDocument.UUID == "" {
		return nil, mappingErr("GetVetDocumentByUuid", "missing vetDocument element for uuid %s", documentUUID)
	}
	return parsed.VetDocument, nil
}
