package vetis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bodyOffset(t *testing.T, body string) int {
	t.Helper()
	const openTag, closeTag = "<bs:offset>", "</bs:offset>"
	i := strings.Index(body, openTag)
	require.GreaterOrEqual(t, i, 0, "request carries no offset")
	rest := body[i+len(openTag):]
	j := strings.Index(rest, closeTag)
	require.GreaterOrEqual(t, j, 0)
	n, err := strconv.Atoi(rest[:j])
	require.NoError(t, err)
	return n
}

func readBody(t *testing.T, r *http.Request) string {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	return string(data)
}

func productItemPage(total int, guids ...string) string {
	var items strings.Builder
	for _, g := range guids {
		fmt.Fprintf(&items, `<productItem><guid>%s</guid><name>item %s</name><active>true</active></productItem>`, g, g)
	}
	return envelope(fmt.Sprintf(
		`<getProductItemListResponse><productItemList total="%d">%s</productItemList></getProductItemListResponse>`,
		total, items.String()))
}

func TestListProductItemsVisitsEveryPage(t *testing.T) {
	pages := map[int]string{
		0: productItemPage(5, "a", "b"),
		2: productItemPage(5, "c", "d"),
		4: productItemPage(5, "e"),
	}
	var offsets []int
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		offset := bodyOffset(t, readBody(t, r))
		offsets = append(offsets, offset)
		body, ok := pages[offset]
		require.True(t, ok, "unexpected offset %d", offset)
		return httpResponse(200, body), nil
	}, nil, WithPageSize(2))

	var seen []string
	err := client.ListProductItems(context.Background(), testAccount(), "be-guid", func(item ProductItemXML) error {
		seen = append(seen, item.GUID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4}, offsets)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, seen)
}

func TestListProductItemsPageFailureAborts(t *testing.T) {
	calls := 0
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return httpResponse(200, productItemPage(4, "a", "b")), nil
		}
		return httpResponse(500, "internal error"), nil
	}, nil, WithPageSize(2))

	var seen []string
	err := client.ListProductItems(context.Background(), testAccount(), "be-guid", func(item ProductItemXML) error {
		seen = append(seen, item.GUID)
		return nil
	})
	require.Error(t, err)
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	// Records of the failed fetch are not delivered; no resumption.
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, 2, calls)
}

func TestListProductItemsCallbackErrorAborts(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return httpResponse(200, productItemPage(4, "a", "b")), nil
	}, nil, WithPageSize(2))

	err := client.ListProductItems(context.Background(), testAccount(), "be-guid", func(item ProductItemXML) error {
		return fmt.Errorf("bad record %s", item.GUID)
	})
	require.EqualError(t, err, "bad record a")
}

func stockEntryListResultBody(total int, uuids ...string) string {
	var entries strings.Builder
	for _, u := range uuids {
		fmt.Fprintf(&entries,
			`<stockEntry><uuid>%s</uuid><guid>se-guid</guid><status>200</status><createDate>2024-01-10T12:00:00</createDate></stockEntry>`, u)
	}
	return fmt.Sprintf(`<getStockEntryListResponse><stockEntryList total="%d">%s</stockEntryList></getStockEntryListResponse>`,
		total, entries.String())
}

// Full ledger listing: every page is its own two-phase application.
func TestListStockEntriesPagesThroughApplications(t *testing.T) {
	results := map[int]string{
		0: stockEntryListResultBody(3, "v1", "v2"),
		2: stockEntryListResultBody(3, "v3"),
	}
	submits := 0
	lastOffset := 0
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		switch r.Header.Get("SOAPAction") {
		case "submitApplicationRequest":
			submits++
			lastOffset = bodyOffset(t, readBody(t, r))
			return httpResponse(200, submitAcceptedBody("app-1")), nil
		case "receiveApplicationResult":
			result, ok := results[lastOffset]
			require.True(t, ok, "unexpected offset %d", lastOffset)
			return httpResponse(200, receiveBody(AppStatusCompleted, result)), nil
		default:
			t.Fatalf("unexpected action %q", r.Header.Get("SOAPAction"))
			return nil, nil
		}
	}, nil, WithPageSize(2))

	var seen []string
	err := client.ListStockEntries(context.Background(), testAccount(), "operator", "ent-guid", func(e StockEntryXML) error {
		seen = append(seen, e.UUID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, submits)
	assert.Equal(t, []string{"v1", "v2", "v3"}, seen)
}
