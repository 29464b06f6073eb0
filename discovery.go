package storagep2p

import (
	"context"

	"github.com/pkg/errors"

	"github.com/outofforest/storagep2p/wire"
)

// Discovery scans all stored entries, identifies headers addressed to a
// local endpoint, and returns the set of distinct peer connections with
// pending traffic.
type Discovery struct {
	storage Storage
}

// NewDiscovery constructs a Discovery over storage.
func NewDiscovery(storage Storage) *Discovery {
	return &Discovery{storage: storage}
}

// Scan lists storage, decodes every name that decodes, keeps headers
// addressed to local, and returns the deduplicated set of connections they
// belong to. Undecodable names are silently skipped — they may be foreign
// files sharing the store.
func (d *Discovery) Scan(ctx context.Context, local wire.Address) (map[wire.ConnectionID]struct{}, error) {
	names, err := d.storage.List(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	conns := map[wire.ConnectionID]struct{}{}
	for _, name := range names {
		h, ok := decodeHeader(name)
		if !ok {
			continue
		}
		if h.Receiver != local {
			continue
		}
		conns[h.ConnectionID()] = struct{}{}
	}

	return conns, nil
}

// ScanAll lists storage and returns, for every decodable header regardless
// of receiver, the connection it names. Used by Socket.DiscoverAll, where
// there is no single local address to filter by.
func (d *Discovery) ScanAll(ctx context.Context) (map[wire.ConnectionID]struct{}, error) {
	names, err := d.storage.List(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	conns := map[wire.ConnectionID]struct{}{}
	for _, name := range names {
		h, ok := decodeHeader(name)
		if !ok {
			continue
		}
		conns[h.ConnectionID()] = struct{}{}
	}

	return conns, nil
}
