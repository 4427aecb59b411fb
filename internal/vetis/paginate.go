package vetis

import (
	"context"
	"time"
)

// fetchPage issues one page request at the given offset and returns the
// registry-reported total for the whole listing.
type fetchPage func(ctx context.Context, offset, count int) (total int, err error)

// fetchAll drives the offset/count loop: pages are requested in ascending
// offset order until offset+count covers the reported total. A short pause
// between pages bounds the request rate. Any page failure aborts the whole
// fetch; there is no partial resumption.
func (c *Client) fetchAll(ctx context.Context, fetch fetchPage) error {
	offset := 0
	for {
		total, err := fetch(ctx, offset, c.pageSize)
		if err != nil {
			return err
		}
		offset += c.pageSize
		if offset >= total {
			return nil
		}
		if c.pagePause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.pagePause):
			}
		}
	}
}
