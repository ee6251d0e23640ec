//go:build !linux

package host

import "context"

func (w *Netlink) Run(ctx context.Context) error {
	return ErrNetlinkUnsupported
}
