package vetis

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// Hard-coded request envelopes for the registry actions this engine uses.
// The shapes follow the VetIS 2.1 schemas; values are XML-escaped before
// interpolation.

const (
	nsSoapenv = "http://schemas.xmlsoap.org/soap/envelope/"
	nsBase    = "http://api.vetrf.ru/schema/cdm/base"
	nsDict    = "http://api.vetrf.ru/schema/cdm/dictionary/v2"
	nsWS      = "http://api.vetrf.ru/schema/cdm/registry/ws-definitions/v2"
	nsMercury = "http://api.vetrf.ru/schema/cdm/mercury/g2b/applications/v2"
	nsAplDef  = "http://api.vetrf.ru/schema/cdm/application/ws-definitions"
	nsApl     = "http://api.vetrf.ru/schema/cdm/application"
	nsVetDoc  = "http://api.vetrf.ru/schema/cdm/mercury/vet-document/v2"
)

// datetimeFormat is the wire format of every timestamp the registry accepts.
const datetimeFormat = "2006-01-02T15:04:05"

// tzMoscow is the registry's reference timezone; the changes-window bounds
// of an incremental sync must be expressed in it.
var tzMoscow = time.FixedZone("MSK", 3*60*60)

// Request is one outbound exchange: a signed action, its service category
// and the full envelope body.
type Request struct {
	Service    Service
	SOAPAction string
	Body       string
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func soapEnvelope(inner string) string {
	return `<soapenv:Envelope xmlns:soapenv="` + nsSoapenv + `"><soapenv:Header/><soapenv:Body>` +
		inner + `</soapenv:Body></soapenv:Envelope>`
}

// ── Direct dictionary/registry lookups ───────────────────────────────────────

func ProductByGUIDRequest(guid string) Request {
	return Request{
		Service:    ServiceProduct,
		SOAPAction: "GetProductByGuid",
		Body: soapEnvelope(fmt.Sprintf(
			`<ws:getProductByGuidRequest xmlns:ws="%s" xmlns:bs="%s"><bs:guid>%s</bs:guid></ws:getProductByGuidRequest>`,
			nsWS, nsBase, escape(guid))),
	}
}

func SubProductByGUIDRequest(guid string) Request {
	return Request{
		Service:    ServiceProduct,
		SOAPAction: "GetSubProductByGuid",
		Body: soapEnvelope(fmt.Sprintf(
			`<ws:getSubProductByGuidRequest xmlns:ws="%s" xmlns:bs="%s"><bs:guid>%s</bs:guid></ws:getSubProductByGuidRequest>`,
			nsWS, nsBase, escape(guid))),
	}
}

func ProductItemByGUIDRequest(guid string) Request {
	return Request{
		Service:    ServiceProduct,
		SOAPAction: "GetProductItemByGuid",
		Body: soapEnvelope(fmt.Sprintf(
			`<ws:getProductItemByGuidRequest xmlns:ws="%s" xmlns:bs="%s"><bs:guid>%s</bs:guid></ws:getProductItemByGuidRequest>`,
			nsWS, nsBase, escape(guid))),
	}
}

func ProductItemListRequest(businessEntityGUID string, count, offset int) Request {
	return Request{
		Service:    ServiceProduct,
		SOAPAction: "GetProductItemList",
		Body: soapEnvelope(fmt.Sprintf(
			`<ws:getProductItemListRequest xmlns:ws="%s" xmlns:bs="%s" xmlns:dt="%s">`+
				`<bs:listOptions><bs:count>%d</bs:count><bs:offset>%d</bs:offset></bs:listOptions>`+
				`<dt:businessEntity><dt:guid>%s</dt:guid></dt:businessEntity>`+
				`</ws:getProductItemListRequest>`,
			nsWS, nsBase, nsDict, count, offset, escape(businessEntityGUID))),
	}
}

func BusinessEntityByGUIDRequest(guid string) Request {
	return Request{
		Service:    ServiceEnterprise,
		SOAPAction: "GetBusinessEntityByGuid",
		Body: soapEnvelope(fmt.Sprintf(
			`<ws:getBusinessEntityByGuidRequest xmlns:ws="%s" xmlns:bs="%s"><bs:guid>%s</bs:guid></ws:getBusinessEntityByGuidRequest>`,
			nsWS, nsBase, escape(guid))),
	}
}

func EnterpriseByGUIDRequest(guid string) Request {
	return Request{
		Service:    ServiceEnterprise,
		SOAPAction: "GetEnterpriseByGuid",
		Body: soapEnvelope(fmt.Sprintf(
			`<ws:getEnterpriseByGuidRequest xmlns:ws="%s" xmlns:bs="%s"><bs:guid>%s</bs:guid></ws:getEnterpriseByGuidRequest>`,
			nsWS, nsBase, escape(guid))),
	}
}

func ActivityLocationListRequest(businessEntityGUID string, count, offset int) Request {
	return Request{
		Service:    ServiceEnterprise,
		SOAPAction: "GetActivityLocationList",
		Body: soapEnvelope(fmt.Sprintf(
			`<ws:getActivityLocationListRequest xmlns:ws="%s" xmlns:bs="%s" xmlns:dt="%s">`+
				`<bs:listOptions><bs:count>%d</bs:count><bs:offset>%d</bs:offset></bs:listOptions>`+
				`<dt:businessEntity><dt:guid>%s</dt:guid></dt:businessEntity>`+
				`</ws:getActivityLocationListRequest>`,
			nsWS, nsBase, nsDict, count, offset, escape(businessEntityGUID))),
	}
}

// ── Two-phase application envelopes ──────────────────────────────────────────

// SubmitApplicationRequest wraps an application body into the
// submitApplicationRequest envelope. The issue date and the local transaction
// id inside appData are the caller's concern; the envelope carries the API
// key, service id, issuer id and issue timestamp.
func SubmitApplicationRequest(acc Account, issuedAt time.Time, appData string) Request {
	return Request{
		Service:    ServiceApplicationManagement,
		SOAPAction: "submitApplicationRequest",
		Body: soapEnvelope(fmt.Sprintf(
			`<apldef:submitApplicationRequest xmlns:apldef="%s" xmlns:apl="%s">`+
				`<apldef:apiKey>%s</apldef:apiKey>`+
				`<apl:application>`+
				`<apl:serviceId>%s</apl:serviceId>`+
				`<apl:issuerId>%s</apl:issuerId>`+
				`<apl:issueDate>%s</apl:issueDate>`+
				`<apl:data>%s</apl:data>`+
				`</apl:application>`+
				`</apldef:submitApplicationRequest>`,
			nsAplDef, nsApl,
			escape(acc.APIKey), escape(acc.ServiceID), escape(acc.IssuerID),
			issuedAt.Format(datetimeFormat), appData)),
	}
}

func ReceiveApplicationResultRequest(acc Account, applicationID string) Request {
	return Request{
		Service:    ServiceApplicationManagement,
		SOAPAction: "receiveApplicationResult",
		Body: soapEnvelope(fmt.Sprintf(
			`<apldef:receiveApplicationResultRequest xmlns:apldef="%s">`+
				`<apldef:apiKey>%s</apldef:apiKey>`+
				`<apldef:issuerId>%s</apldef:issuerId>`+
				`<apldef:applicationId>%s</apldef:applicationId>`+
				`</apldef:receiveApplicationResultRequest>`,
			nsAplDef, escape(acc.APIKey), escape(acc.IssuerID), escape(applicationID))),
	}
}

// localTransactionID derives the application transaction id from the issue
// instant, the way the registry examples do.
func localTransactionID(issuedAt time.Time) string {
	return issuedAt.Format("20060102-150405")
}

func initiatorXML(login string) string {
	return fmt.Sprintf(`<merc:initiator><vd:login>%s</vd:login></merc:initiator>`, escape(login))
}

// StockEntryListData is the application body of a full ledger listing.
func StockEntryListData(issuedAt time.Time, initiatorLogin, enterpriseGUID string, count, offset int) string {
	return fmt.Sprintf(
		`<merc:getStockEntryListRequest xmlns:merc="%s" xmlns:bs="%s" xmlns:dt="%s" xmlns:vd="%s">`+
			`<merc:localTransactionId>%s</merc:localTransactionId>`+
			`%s`+
			`<bs:listOptions><bs:count>%d</bs:count><bs:offset>%d</bs:offset></bs:listOptions>`+
			`<dt:enterpriseGuid>%s</dt:enterpriseGuid>`+
			`</merc:getStockEntryListRequest>`,
		nsMercury, nsBase, nsDict, nsVetDoc,
		localTransactionID(issuedAt), initiatorXML(initiatorLogin), count, offset, escape(enterpriseGUID))
}

// StockEntryChangesListData is the application body of an incremental
// "changes since" listing. The window bounds are rendered in Moscow time.
func StockEntryChangesListData(issuedAt time.Time, initiatorLogin, enterpriseGUID string, begin, end time.Time, count, offset int) string {
	return fmt.Sprintf(
		`<merc:getStockEntryChangesListRequest xmlns:merc="%s" xmlns:bs="%s" xmlns:dt="%s" xmlns:vd="%s">`+
			`<merc:localTransactionId>%s</merc:localTransactionId>`+
			`%s`+
			`<bs:listOptions><bs:count>%d</bs:count><bs:offset>%d</bs:offset></bs:listOptions>`+
			`<merc:updateDateInterval>`+
			`<bs:beginDate>%s</bs:beginDate>`+
			`<bs:endDate>%s</bs:endDate>`+
			`</merc:updateDateInterval>`+
			`<dt:enterpriseGuid>%s</dt:enterpriseGuid>`+
			`</merc:getStockEntryChangesListRequest>`,
		nsMercury, nsBase, nsDict, nsVetDoc,
		localTransactionID(issuedAt), initiatorXML(initiatorLogin), count, offset,
		begin.In(tzMoscow).Format(datetimeFormat), end.In(tzMoscow).Format(datetimeFormat),
		escape(enterpriseGUID))
}

// StockEntryVersionListData is the application body listing the full version
// history of one logical ledger record.
func StockEntryVersionListData(issuedAt time.Time, initiatorLogin, enterpriseGUID, stockEntryGUID string, count, offset int) string {
	return fmt.Sprintf(
		`<merc:getStockEntryVersionListRequest xmlns:merc="%s" xmlns:bs="%s" xmlns:dt="%s" xmlns:vd="%s">`+
			`<merc:localTransactionId>%s</merc:localTransactionId>`+
			`%s`+
			`<bs:listOptions><bs:count>%d</bs:count><bs:offset>%d</bs:offset></bs:listOptions>`+
			`<dt:enterpriseGuid>%s</dt:enterpriseGuid>`+
			`<vd:stockEntryGuid>%s</vd:stockEntryGuid>`+
			`</merc:getStockEntryVersionListRequest>`,
		nsMercury, nsBase, nsDict, nsVetDoc,
		localTransactionID(issuedAt), initiatorXML(initiatorLogin), count, offset,
		escape(enterpriseGUID), escape(stockEntryGUID))
}

// VetDocumentByUUIDData is the application body fetching one veterinary
// document by its version UUID.
func VetDocumentByUUIDData(issuedAt time.Time, initiatorLogin, enterpriseGUID, documentUUID string) string {
	return fmt.Sprintf(
		`<merc:getVetDocumentByUuidRequest xmlns:merc="%s" xmlns:bs="%s" xmlns:dt="%s" xmlns:vd="%s">`+
			`<merc:localTransactionId>%s</merc:localTransactionId>`+
			`%s`+
			`<dt:enterpriseGuid>%s</dt:enterpriseGuid>`+
			`<vd:uuid>%s</vd:uuid>`+
			`</merc:getVetDocumentByUuidRequest>`,
		nsMercury, nsBase, nsDict, nsVetDoc,
		localTransactionID(issuedAt), initiatorXML(initiatorLogin),
		escape(enterpriseGUID), escape(documentUUID))
}
