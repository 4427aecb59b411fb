package vetis

import (
	"bytes"
	"encoding/xml"
	"time"
)

// Response DTOs. Element shapes are fixed by the registry schemas; decoding
// matches on local names (the namespace prefixes vary between responses) and
// required elements are checked afterwards — a missing one is a mapping fault.

// ComplexDateXML is the registry's partial date: year is mandatory, finer
// components optional.
type ComplexDateXML struct {
	Year   int  `xml:"year"`
	Month  *int `xml:"month"`
	Day    *int `xml:"day"`
	Hour   *int `xml:"hour"`
	Minute *int `xml:"minute"`
}

// PartialDate converts the wire shape into the validated value type.
func (c *ComplexDateXML) PartialDate() (PartialDate, error) {
	return NewPartialDate(c.Year, c.Month, c.Day, c.Hour, c.Minute)
}

type ProductXML struct {
	UUID        string `xml:"uuid"`
	GUID        string `xml:"guid"`
	Name        string `xml:"name"`
	Code        string `xml:"code"`
	ProductType int    `xml:"productType"`
}

type SubProductXML struct {
	UUID        string `xml:"uuid"`
	GUID        string `xml:"guid"`
	Name        string `xml:"name"`
	Code        string `xml:"code"`
	ProductGUID string `xml:"productGuid"`
}

type ProductItemXML struct {
	UUID           string `xml:"uuid"`
	GUID           string `xml:"guid"`
	Active         bool   `xml:"active"`
	Name           string `xml:"name"`
	GTIN           string `xml:"globalID"`
	ProductType    int    `xml:"productType"`
	ProductGUID    string `xml:"product>guid"`
	SubProductGUID string `xml:"subProduct>guid"`
	GOST           string `xml:"gost"`
	Producer       struct {
		GUID string `xml:"guid"`
	} `xml:"producer"`
	CorrespondsToGost *bool `xml:"correspondsToGost"`
}

type BusinessEntityXML struct {
	UUID      string `xml:"uuid"`
	GUID      string `xml:"guid"`
	Type      int    `xml:"type"`
	Name      string `xml:"name"`
	ShortName string `xml:"shortName"`
	INN       string `xml:"inn"`
	Address   string `xml:"juridicalAddress>addressView"`
}

type EnterpriseXML struct {
	UUID       string   `xml:"uuid"`
	GUID       string   `xml:"guid"`
	Type       int      `xml:"type"`
	Name       string   `xml:"name"`
	Address    string   `xml:"address>addressView"`
	NumberList []string `xml:"numberList>enterpriseNumber"`
}

type PackageXML struct {
	Level       int `xml:"level"`
	PackingType struct {
		UUID     string `xml:"uuid"`
		GUID     string `xml:"guid"`
		Name     string `xml:"name"`
		GlobalID string `xml:"globalID"`
	} `xml:"packingType"`
	Quantity     int      `xml:"quantity"`
	ProductMarks []string `xml:"productMarks"`
}

// StockEntryXML is one ledger version as reported by the registry.
type StockEntryXML struct {
	UUID         string `xml:"uuid"`
	GUID         string `xml:"guid"`
	Active       bool   `xml:"active"`
	Last         bool   `xml:"last"`
	Status       int    `xml:"status"`
	CreateDate   string `xml:"createDate"`
	UpdateDate   string `xml:"updateDate"`
	PreviousUUID string `xml:"previous"`
	NextUUID     string `xml:"next"`
	EntryNumber  int    `xml:"entryNumber"`

	Batch struct {
		ProductType    int    `xml:"productType"`
		ProductGUID    string `xml:"product>guid"`
		SubProductGUID string `xml:"subProduct>guid"`
		ProductItem    struct {
			GUID string `xml:"guid"`
			Name string `xml:"name"`
		} `xml:"productItem"`
		Volume string `xml:"volume"`
		Unit   struct {
			GUID string `xml:"guid"`
			Name string `xml:"name"`
		} `xml:"unit"`
		DateOfProduction struct {
			FirstDate  *ComplexDateXML `xml:"firstDate"`
			SecondDate *ComplexDateXML `xml:"secondDate"`
		} `xml:"dateOfProduction"`
		ExpiryDate struct {
			FirstDate  *ComplexDateXML `xml:"firstDate"`
			SecondDate *ComplexDateXML `xml:"secondDate"`
		} `xml:"expiryDate"`
		Perishable bool `xml:"perishable"`
		Origin     struct {
			Country struct {
				Name string `xml:"name"`
			} `xml:"country"`
			Producer struct {
				Enterprise struct {
					GUID string `xml:"guid"`
					Name string `xml:"name"`
				} `xml:"enterprise"`
			} `xml:"producer"`
		} `xml:"origin"`
		Packages []PackageXML `xml:"packageList>package"`
	} `xml:"batch"`

	VetDocumentUUIDs []string `xml:"vetDocument>uuid"`
}

// VetDocumentXML is the subset of a veterinary document the engine needs to
// derive stock lineage: its subtype and the consignor of the certified
// consignment.
type VetDocumentXML struct {
	UUID     string `xml:"uuid"`
	Type     string `xml:"vetDType"`
	Consignment struct {
		Consignor struct {
			BusinessEntityGUID string `xml:"businessEntity>guid"`
			EnterpriseGUID     string `xml:"enterprise>guid"`
		} `xml:"consignor"`
	} `xml:"certifiedConsignment"`
}

// VetDocumentTypeTransport is the only subtype whose consignor defines stock
// lineage; any other subtype on a redeemed first version is an unrecognized
// format.
const VetDocumentTypeTransport = "TRANSPORT"

// ── Envelope decoding ────────────────────────────────────────────────────────

type soapBody struct {
	XMLName xml.Name
	Body    struct {
		Inner []byte `xml:",innerxml"`
	} `xml:"Body"`
}

// unmarshalBody extracts the SOAP body and decodes it into dst.
func unmarshalBody(action string, raw []byte, dst any) error {
	var env soapBody
	if err := xml.Unmarshal(raw, &env); err != nil {
		return mappingErr(action, "not a SOAP envelope: %v", err)
	}
	if len(bytes.TrimSpace(env.Body.Inner)) == 0 {
		return mappingErr(action, "empty SOAP body")
	}
	if err := xml.Unmarshal([]byte("<body>"+string(env.Body.Inner)+"</body>"), dst); err != nil {
		return mappingErr(action, "decode %T: %v", dst, err)
	}
	return nil
}

// ParseDateTime parses a registry timestamp. Responses usually carry the
// plain wire format, occasionally with a zone offset appended.
func ParseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(datetimeFormat, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// unmarshalResult decodes an application result payload. The root element is
// the operation's response wrapper; fields match on its children.
func unmarshalResult(action string, raw []byte, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return mappingErr(action, "empty application result")
	}
	if err := xml.Unmarshal(raw, dst); err != nil {
		return mappingErr(action, "decode result %T: %v", dst, err)
	}
	return nil
}

type productByGUIDResponse struct {
	Product *ProductXML `xml:"getProductByGuidResponse>product"`
}

type subProductByGUIDResponse struct {
	SubProduct *SubProductXML `xml:"getSubProductByGuidResponse>subProduct"`
}

type productItemByGUIDResponse struct {
	ProductItem *ProductItemXML `xml:"getProductItemByGuidResponse>productItem"`
}

type businessEntityByGUIDResponse struct {
	BusinessEntity *BusinessEntityXML `xml:"getBusinessEntityByGuidResponse>businessEntity"`
}

type enterpriseByGUIDResponse struct {
	Enterprise *EnterpriseXML `xml:"getEnterpriseByGuidResponse>enterprise"`
}

type productItemListResponse struct {
	List struct {
		Total int              `xml:"total,attr"`
		Items []ProductItemXML `xml:"productItem"`
	} `xml:"getProductItemListResponse>productItemList"`
}

type activityLocationListResponse struct {
	List struct {
		Total     int `xml:"total,attr"`
		Locations []struct {
			Enterprise EnterpriseXML `xml:"enterprise"`
		} `xml:"location"`
	} `xml:"getActivityLocationListResponse>activityLocationList"`
}

// ── Application (two-phase) payloads ─────────────────────────────────────────

const (
	AppStatusAccepted  = "ACCEPTED"
	AppStatusInProcess = "IN_PROCESS"
	AppStatusCompleted = "COMPLETED"
	AppStatusRejected  = "REJECTED"
)

type applicationError struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

type applicationXML struct {
	ApplicationID string `xml:"applicationId"`
	Status        string `xml:"status"`
	Result        struct {
		Inner []byte `xml:",innerxml"`
	} `xml:"result"`
	Errors []applicationError `xml:"errors>error"`
}

type submitApplicationResponse struct {
	Application *applicationXML `xml:"submitApplicationResponse>application"`
}

type receiveApplicationResultResponse struct {
	Application *applicationXML `xml:"receiveApplicationResultResponse>application"`
}

// Application result bodies. The result element wraps the response of the
// requested Mercury operation.

type stockEntryListResult struct {
	List struct {
		Total   int             `xml:"total,attr"`
		Entries []StockEntryXML `xml:"stockEntry"`
	} `xml:"stockEntryList"`
}

type vetDocumentResult struct {
	VetDocument *VetDocumentXML `xml:"vetDocument"`
}
