// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package mailclient

import (
	"context"
	"time"
)

// DefaultWatchInterval is the default delay between mailbox polls in Watch.
const DefaultWatchInterval = 5 * time.Minute

// Watch polls the mailbox until the context is canceled. One poll runs
// immediately, then every interval (DefaultWatchInterval when interval is
// not positive). Poll errors are logged and do not stop the loop; the only
// way out is ctx.
func (c *Client) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, err := c.FetchNew(ctx)
		switch {
		case err != nil:
			c.warnf("mailbox poll failed: %s", err)
		case result.New > 0:
			c.infof("%d new mail(s), %d total on server", result.New, result.Total)
		default:
			c.debugf("no new mail, checking again in %s", interval)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
